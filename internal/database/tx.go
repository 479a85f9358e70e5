package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Tx is a request scoped transaction. All admin panel reads and writes go through it.
type Tx struct {
	tx  *sql.Tx
	ctx context.Context
}

// InTx runs fn inside one transaction. It commits when fn returns nil and
// rolls back on error or panic. There are no retries.
func (db *Database) InTx(ctx context.Context, fn func(*Tx) error) (err error) {
	sqlTx, err := db.mainDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			if rerr := sqlTx.Rollback(); rerr != nil && rerr != sql.ErrTxDone {
				db.logger.Warn("transaction rollback failed", "err", rerr)
			}
		}
	}()

	if err = fn(&Tx{tx: sqlTx, ctx: ctx}); err != nil {
		return err
	}
	if err = sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (t *Tx) exec(query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(t.ctx, query, args...)
}

func (t *Tx) query(query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(t.ctx, query, args...)
}

func (t *Tx) queryRow(query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(t.ctx, query, args...)
}
