// Package database provides database abstraction and management for go-tyggbot
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver
)

// ErrNotFound is returned when a looked up row does not exist
var ErrNotFound = errors.New("not found")

// Database wraps the main sqlite connection pool
type Database struct {
	mainDB   *sql.DB
	dbconfig *DBConfig
	logger   *slog.Logger
}

// DBConfig represents database configuration
type DBConfig struct {
	// Directory to store database files
	DataDir string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// Performance settings
	WALMode   bool   // Write-Ahead Logging
	SyncMode  string // OFF, NORMAL, FULL
	CacheSize int    // KB
	TempStore string // MEMORY, FILE
}

// DefaultDBConfig returns default database configuration
func DefaultDBConfig() *DBConfig {
	return &DBConfig{
		DataDir:         "./data",
		MaxOpenConns:    16,
		MaxIdleConns:    4,
		ConnMaxLifetime: 0, // sqlite connections don't need to be recycled
		WALMode:         true,
		SyncMode:        "NORMAL",
		CacheSize:       -8192, // 8MB
		TempStore:       "MEMORY",
	}
}

// OpenDatabase opens the main database and applies pending migrations
func OpenDatabase(dbconfig *DBConfig, logger *slog.Logger) (*Database, error) {
	if dbconfig == nil {
		dbconfig = DefaultDBConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	db := &Database{
		dbconfig: dbconfig,
		logger:   logger,
	}

	if err := db.initMainDB(); err != nil {
		return nil, fmt.Errorf("failed to initialize main database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.mainDB.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	return db, nil
}

// GetMainDB returns the main database connection for direct access.
// This should only be used by specialized tools.
func (db *Database) GetMainDB() *sql.DB {
	return db.mainDB
}

// Close closes the connection pool
func (db *Database) Close() error {
	if db == nil || db.mainDB == nil {
		return nil
	}
	if db.dbconfig.WALMode {
		if _, err := db.mainDB.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			db.logger.Warn("wal checkpoint on close failed", "err", err)
		}
	}
	return db.mainDB.Close()
}

// initMainDB initializes the main database connection
func (db *Database) initMainDB() error {
	cfgDir := filepath.Join(db.dbconfig.DataDir, "cfg")
	dbPath := filepath.Join(cfgDir, "tyggbot.sq3")
	db.logger.Info("initializing main database", "path", dbPath)

	if err := createDirIfNotExists(cfgDir); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// foreign_keys and busy_timeout are per connection, so they go into the DSN as well
	mainDB, err := sql.Open("sqlite3", "file:"+dbPath+"?_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return fmt.Errorf("failed to open main database: %w", err)
	}

	mainDB.SetMaxOpenConns(db.dbconfig.MaxOpenConns)
	mainDB.SetMaxIdleConns(db.dbconfig.MaxIdleConns)
	mainDB.SetConnMaxLifetime(db.dbconfig.ConnMaxLifetime)

	if err := mainDB.Ping(); err != nil {
		if cerr := mainDB.Close(); cerr != nil {
			return fmt.Errorf("failed to ping main database: %w; also failed to close mainDB: %v", err, cerr)
		}
		return fmt.Errorf("failed to ping main database: %w", err)
	}

	if err := db.applySQLitePragmas(mainDB); err != nil {
		if cerr := mainDB.Close(); cerr != nil {
			return fmt.Errorf("failed to apply SQLite pragmas: %w; also failed to close mainDB: %v", err, cerr)
		}
		return fmt.Errorf("failed to apply SQLite pragmas: %w", err)
	}

	db.mainDB = mainDB
	return nil
}

// applySQLitePragmas applies performance and configuration pragmas to SQLite connection
func (db *Database) applySQLitePragmas(conn *sql.DB) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA cache_size = %d", db.dbconfig.CacheSize),
		fmt.Sprintf("PRAGMA synchronous = %s", db.dbconfig.SyncMode),
		fmt.Sprintf("PRAGMA temp_store = %s", db.dbconfig.TempStore),
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 30000", // 30 seconds
	}

	if db.dbconfig.WALMode {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
		pragmas = append(pragmas, "PRAGMA wal_autocheckpoint = 1000")
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute pragma '%s': %w", pragma, err)
		}
	}

	return nil
}

// createDirIfNotExists creates a directory if it doesn't exist
func createDirIfNotExists(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}
