package database

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/go-while/go-tyggbot/internal/models"
)

// Session security constants
const (
	SessionIDLength  = 64               // 64 character session ID
	SessionTimeout   = 3 * time.Hour    // 3 hour sliding timeout
	MaxLoginAttempts = 5                // Max failed login attempts
	LoginLockoutTime = 15 * time.Minute // Lockout time after max attempts
)

// ErrInvalidSession is returned for unknown or expired session ids
var ErrInvalidSession = errors.New("invalid or expired session")

// now is replaceable in tests. Timestamps are always stored in UTC so they compare as text.
var now = func() time.Time { return time.Now().UTC() }

// GenerateSecureSessionID creates a cryptographically secure session ID
func GenerateSecureSessionID() (string, error) {
	bytes := make([]byte, SessionIDLength/2) // hex encoding doubles the length
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure session ID: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// CreateUserSession creates a new session for the user and invalidates any existing session
func (db *Database) CreateUserSession(userID int64, remoteIP string) (string, error) {
	sessionID, err := GenerateSecureSessionID()
	if err != nil {
		return "", err
	}

	ts := now()
	_, err = db.mainDB.Exec(`UPDATE users SET
		session_id = ?,
		last_login_ip = ?,
		session_expires_at = ?,
		login_attempts = 0,
		updated_at = ?
		WHERE id = ?`, sessionID, remoteIP, ts.Add(SessionTimeout), ts, userID)
	if err != nil {
		return "", fmt.Errorf("failed to create user session: %w", err)
	}
	return sessionID, nil
}

// ValidateUserSession checks if the session is valid and extends expiration
func (db *Database) ValidateUserSession(sessionID string) (*models.User, error) {
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	ts := now()
	row := db.mainDB.QueryRow(`SELECT `+userColumns+`
		FROM users WHERE session_id = ? AND session_expires_at > ?`, sessionID, ts)
	user, err := scanUser(row)
	if err != nil {
		return nil, ErrInvalidSession
	}

	// sliding timeout
	newExpiresAt := ts.Add(SessionTimeout)
	if _, err := db.mainDB.Exec(`UPDATE users SET session_expires_at = ? WHERE id = ?`, newExpiresAt, user.ID); err != nil {
		db.logger.Warn("failed to extend session expiration", "user", user.Username, "err", err)
	} else {
		user.SessionExpiresAt = &newExpiresAt
	}
	return user, nil
}

// InvalidateUserSession clears the user's session
func (db *Database) InvalidateUserSession(userID int64) error {
	_, err := db.mainDB.Exec(`UPDATE users SET
		session_id = '',
		session_expires_at = NULL,
		updated_at = ?
		WHERE id = ?`, now(), userID)
	return err
}

// IncrementLoginAttempts increases the failed login counter
func (db *Database) IncrementLoginAttempts(username string) error {
	_, err := db.mainDB.Exec(`UPDATE users SET
		login_attempts = login_attempts + 1,
		updated_at = ?
		WHERE username = ?`, now(), username)
	return err
}

// IsUserLockedOut checks if user is temporarily locked out due to failed attempts
func (db *Database) IsUserLockedOut(username string) (bool, error) {
	var attempts int
	var updatedAt time.Time
	err := db.mainDB.QueryRow(`SELECT login_attempts, updated_at FROM users WHERE username = ?`, username).
		Scan(&attempts, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if attempts < MaxLoginAttempts {
		return false, nil
	}
	if now().Before(updatedAt.Add(LoginLockoutTime)) {
		return true, nil
	}
	// lockout expired
	if _, err := db.mainDB.Exec(`UPDATE users SET login_attempts = 0, updated_at = ? WHERE username = ?`, now(), username); err != nil {
		db.logger.Warn("failed to reset login attempts", "user", username, "err", err)
	}
	return false, nil
}

// CleanupExpiredSessions removes expired sessions from the database
func (db *Database) CleanupExpiredSessions() (int64, error) {
	ts := now()
	result, err := db.mainDB.Exec(`UPDATE users SET
		session_id = '',
		session_expires_at = NULL,
		updated_at = ?
		WHERE session_expires_at < ?`, ts, ts)
	if err != nil {
		return 0, err
	}
	n, _ := result.RowsAffected()
	return n, nil
}
