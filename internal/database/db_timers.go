package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-while/go-tyggbot/internal/models"
)

// ListTimers returns every timer ordered by id
func (t *Tx) ListTimers() ([]*models.Timer, error) {
	rows, err := t.query(`SELECT id, name, interval_online, interval_offline, action, enabled
		FROM timers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query timers: %w", err)
	}
	defer rows.Close()

	var out []*models.Timer
	for rows.Next() {
		tm := &models.Timer{}
		if err := rows.Scan(&tm.ID, &tm.Name, &tm.IntervalOnline, &tm.IntervalOffline, &tm.Action, &tm.Enabled); err != nil {
			return nil, fmt.Errorf("scan timer: %w", err)
		}
		out = append(out, tm)
	}
	return out, rows.Err()
}

// GetTimer loads one timer by id, ErrNotFound when missing
func (t *Tx) GetTimer(id int64) (*models.Timer, error) {
	tm := &models.Timer{}
	err := t.queryRow(`SELECT id, name, interval_online, interval_offline, action, enabled
		FROM timers WHERE id = ?`, id).
		Scan(&tm.ID, &tm.Name, &tm.IntervalOnline, &tm.IntervalOffline, &tm.Action, &tm.Enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get timer %d: %w", id, err)
	}
	return tm, nil
}

// InsertTimer stores a new timer and sets its id
func (t *Tx) InsertTimer(tm *models.Timer) error {
	res, err := t.exec(`INSERT INTO timers (name, interval_online, interval_offline, action, enabled)
		VALUES (?, ?, ?, ?, ?)`, tm.Name, tm.IntervalOnline, tm.IntervalOffline, tm.Action, tm.Enabled)
	if err != nil {
		return fmt.Errorf("insert timer: %w", err)
	}
	tm.ID, err = res.LastInsertId()
	return err
}

// UpdateTimer overwrites name, intervals and action of an existing timer
func (t *Tx) UpdateTimer(tm *models.Timer) error {
	res, err := t.exec(`UPDATE timers SET name = ?, interval_online = ?, interval_offline = ?, action = ?
		WHERE id = ?`, tm.Name, tm.IntervalOnline, tm.IntervalOffline, tm.Action, tm.ID)
	if err != nil {
		return fmt.Errorf("update timer %d: %w", tm.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
