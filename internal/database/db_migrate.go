package database

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var EmbeddedMigrationsFS embed.FS

// MigrationType represents the type of database that migrations apply to
type MigrationType string

const (
	MigrationTypeMain MigrationType = "main"
)

// MigrationFile represents a migration file with its metadata
type MigrationFile struct {
	FileName    string
	Version     int
	Type        MigrationType
	Description string
	FilePath    string
}

// Migrate applies all pending main database migrations
func (db *Database) Migrate() error {
	if err := ensureMigrationsTable(db.mainDB); err != nil {
		return err
	}

	migrations, err := getMigrationFiles(EmbeddedMigrationsFS)
	if err != nil {
		return err
	}

	applied, err := getAppliedMigrations(db.mainDB)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Type != MigrationTypeMain || applied[migration.FileName] {
			continue
		}
		if err := applyMigration(db.mainDB, EmbeddedMigrationsFS, migration); err != nil {
			return err
		}
		db.logger.Info("applied migration", "file", migration.FileName)
	}
	return nil
}

// parseMigrationFileName parses NNNN_type_description.sql
func parseMigrationFileName(fileName string) (*MigrationFile, error) {
	if !strings.HasSuffix(fileName, ".sql") {
		return nil, fmt.Errorf("migration file must have .sql extension: %s", fileName)
	}
	parts := strings.SplitN(strings.TrimSuffix(fileName, ".sql"), "_", 3)
	if len(parts) < 3 {
		return nil, fmt.Errorf("invalid migration file name format: %s (expected format: 0001_type_description.sql)", fileName)
	}

	version, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid version number in migration file: %s", fileName)
	}

	var migrationType MigrationType
	switch parts[1] {
	case "main":
		migrationType = MigrationTypeMain
	default:
		return nil, fmt.Errorf("unknown migration type in filename %s: %s", fileName, parts[1])
	}

	return &MigrationFile{
		FileName:    fileName,
		Version:     version,
		Type:        migrationType,
		Description: parts[2],
		FilePath:    path.Join("migrations", fileName),
	}, nil
}

// getMigrationFiles reads and sorts all migration files from fsys
func getMigrationFiles(fsys fs.FS) ([]*MigrationFile, error) {
	files, err := fs.ReadDir(fsys, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var migrations []*MigrationFile
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".sql") {
			continue
		}
		migration, err := parseMigrationFileName(f.Name())
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, migration)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// ensureMigrationsTable creates the schema_migrations table if it doesn't exist
func ensureMigrationsTable(conn *sql.DB) error {
	_, err := conn.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		filename TEXT NOT NULL UNIQUE,
		db_type TEXT NOT NULL DEFAULT '',
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}
	return nil
}

// getAppliedMigrations returns the set of applied migration filenames
func getAppliedMigrations(conn *sql.DB) (map[string]bool, error) {
	applied := make(map[string]bool)

	rows, err := conn.Query(`SELECT filename FROM schema_migrations WHERE db_type = ? OR db_type = ''`, string(MigrationTypeMain))
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var fname string
		if err := rows.Scan(&fname); err != nil {
			return nil, fmt.Errorf("failed to scan migration filename: %w", err)
		}
		applied[fname] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating migration rows: %w", err)
	}
	return applied, nil
}

// applyMigration runs one migration and records it, both in one transaction
func applyMigration(conn *sql.DB, fsys fs.FS, migration *MigrationFile) error {
	content, err := fs.ReadFile(fsys, migration.FilePath)
	if err != nil {
		return fmt.Errorf("failed to read migration file %s: %w", migration.FilePath, err)
	}

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin migration %s: %w", migration.FileName, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(string(content)); err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", migration.FileName, err)
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (filename, db_type) VALUES (?, ?)`, migration.FileName, string(migration.Type)); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", migration.FileName, err)
	}
	return tx.Commit()
}
