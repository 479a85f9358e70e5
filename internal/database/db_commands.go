package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-while/go-tyggbot/internal/models"
)

const commandColumns = `c.id, c.command, c.description, c.level, c.cost, c.delay_all, c.delay_user,
	c.mod_only, c.enabled, c.action,
	d.command_id, d.num_uses, d.added_by, d.edited_by, d.last_date_used`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCommand(row rowScanner) (*models.Command, error) {
	var (
		id           int64
		dataID       sql.NullInt64
		numUses      sql.NullInt64
		addedBy      sql.NullInt64
		editedBy     sql.NullInt64
		lastDateUsed sql.NullTime
	)
	c := &models.Command{}
	err := row.Scan(&id, &c.Aliases, &c.Description, &c.Level, &c.Cost, &c.DelayAll, &c.DelayUser,
		&c.ModOnly, &c.Enabled, &c.Action,
		&dataID, &numUses, &addedBy, &editedBy, &lastDateUsed)
	if err != nil {
		return nil, err
	}
	c.ID = &id
	if dataID.Valid {
		c.Data = &models.CommandData{CommandID: dataID.Int64, NumUses: numUses.Int64}
		if addedBy.Valid {
			v := addedBy.Int64
			c.Data.AddedBy = &v
		}
		if editedBy.Valid {
			v := editedBy.Int64
			c.Data.EditedBy = &v
		}
		if lastDateUsed.Valid {
			v := lastDateUsed.Time
			c.Data.LastDateUsed = &v
		}
	}
	return c, nil
}

// ListCommands returns stored commands with their usage data, optionally only enabled ones
func (t *Tx) ListCommands(enabledOnly bool) ([]*models.Command, error) {
	query := `SELECT ` + commandColumns + ` FROM commands c
		LEFT JOIN command_data d ON d.command_id = c.id`
	if enabledOnly {
		query += ` WHERE c.enabled = 1`
	}
	query += ` ORDER BY c.id`

	rows, err := t.query(query)
	if err != nil {
		return nil, fmt.Errorf("query commands: %w", err)
	}
	defer rows.Close()

	var out []*models.Command
	for rows.Next() {
		c, err := scanCommand(rows)
		if err != nil {
			return nil, fmt.Errorf("scan command: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCommand loads one command by id, ErrNotFound when missing
func (t *Tx) GetCommand(id int64) (*models.Command, error) {
	row := t.queryRow(`SELECT `+commandColumns+` FROM commands c
		LEFT JOIN command_data d ON d.command_id = c.id WHERE c.id = ?`, id)
	c, err := scanCommand(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get command %d: %w", id, err)
	}
	return c, nil
}

// CommandAliases returns the raw alias string of every stored command, enabled or not
func (t *Tx) CommandAliases() ([]string, error) {
	rows, err := t.query(`SELECT command FROM commands`)
	if err != nil {
		return nil, fmt.Errorf("query command aliases: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var aliases string
		if err := rows.Scan(&aliases); err != nil {
			return nil, fmt.Errorf("scan command aliases: %w", err)
		}
		out = append(out, aliases)
	}
	return out, rows.Err()
}

// InsertCommand stores the command and its data row. The generated id is set on cmd and cmd.Data.
func (t *Tx) InsertCommand(cmd *models.Command) error {
	res, err := t.exec(`INSERT INTO commands
		(command, description, level, cost, delay_all, delay_user, mod_only, enabled, action)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cmd.Aliases, cmd.Description, cmd.Level, cmd.Cost, cmd.DelayAll, cmd.DelayUser,
		cmd.ModOnly, cmd.Enabled, cmd.Action)
	if err != nil {
		return fmt.Errorf("insert command: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert command id: %w", err)
	}
	cmd.ID = &id

	if cmd.Data == nil {
		cmd.Data = &models.CommandData{}
	}
	cmd.Data.CommandID = id
	_, err = t.exec(`INSERT INTO command_data (command_id, num_uses, added_by, edited_by, last_date_used)
		VALUES (?, ?, ?, ?, ?)`,
		id, cmd.Data.NumUses, cmd.Data.AddedBy, cmd.Data.EditedBy, cmd.Data.LastDateUsed)
	if err != nil {
		return fmt.Errorf("insert command data: %w", err)
	}
	return nil
}
