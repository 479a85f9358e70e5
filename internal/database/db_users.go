package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-while/go-tyggbot/internal/models"
)

const userColumns = `id, username, level, points, password_hash, session_id, last_login_ip,
	session_expires_at, login_attempts, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	var expires sql.NullTime
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Username, &u.Level, &u.Points, &u.PasswordHash, &u.SessionID,
		&u.LastLoginIP, &expires, &u.LoginAttempts, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if expires.Valid {
		t := expires.Time
		u.SessionExpiresAt = &t
	}
	return u, nil
}

// ListModerators returns users above minLevel, highest level first, then by name
func (t *Tx) ListModerators(minLevel int) ([]*models.User, error) {
	rows, err := t.query(`SELECT `+userColumns+` FROM users
		WHERE level > ? ORDER BY level DESC, username`, minLevel)
	if err != nil {
		return nil, fmt.Errorf("query moderators: %w", err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan moderator: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// GetUserByUsername looks a user up by name, ErrNotFound when missing
func (db *Database) GetUserByUsername(username string) (*models.User, error) {
	u, err := scanUser(db.mainDB.QueryRow(`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", username, err)
	}
	return u, nil
}

// InsertUser creates a user row and sets its id
func (db *Database) InsertUser(u *models.User) error {
	ts := now()
	res, err := db.mainDB.Exec(`INSERT INTO users (username, level, points, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`, u.Username, u.Level, u.Points, u.PasswordHash, ts, ts)
	if err != nil {
		return fmt.Errorf("insert user %s: %w", u.Username, err)
	}
	u.ID, err = res.LastInsertId()
	u.CreatedAt, u.UpdatedAt = ts, ts
	return err
}

// SetUserPassword stores a new bcrypt hash and drops the current session
func (db *Database) SetUserPassword(userID int64, passwordHash string) error {
	return db.updateUser(userID, `UPDATE users SET password_hash = ?, session_id = '',
		session_expires_at = NULL, updated_at = ? WHERE id = ?`, passwordHash, now(), userID)
}

// SetUserLevel changes the privilege level of a user
func (db *Database) SetUserLevel(userID int64, level int) error {
	return db.updateUser(userID, `UPDATE users SET level = ?, updated_at = ? WHERE id = ?`, level, now(), userID)
}

// DeleteUser removes a user
func (db *Database) DeleteUser(userID int64) error {
	return db.updateUser(userID, `DELETE FROM users WHERE id = ?`, userID)
}

func (db *Database) updateUser(userID int64, query string, args ...any) error {
	res, err := db.mainDB.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("update user %d: %w", userID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetAllUsers lists every user ordered by id
func (db *Database) GetAllUsers() ([]*models.User, error) {
	rows, err := db.mainDB.Query(`SELECT ` + userColumns + ` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
