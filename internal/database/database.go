package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps the sql.DB connection.
type DB struct {
	*sql.DB
	path string
}

// Connect opens the SQLite database at dataSourceName and applies the
// embedded migrations.
func Connect(dataSourceName string) (*DB, error) {
	dbDir := filepath.Dir(dataSourceName)
	if _, err := os.Stat(dbDir); os.IsNotExist(err) {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
		}
		log.Info().Str("directory", dbDir).Msg("Created database directory")
	}

	db, err := sql.Open("sqlite3", dataSourceName+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(2)

	log.Debug().Str("path", dataSourceName).Msg("Database connection established")

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{DB: db, path: dataSourceName}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite3 migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to init migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	log.Debug().Msg("Database migrations applied successfully or no changes detected")
	return nil
}

// Path returns the data source the database was opened with.
func (db *DB) Path() string { return db.path }

// Backup writes a consistent copy of the database to backupFilePath.
func (db *DB) Backup(ctx context.Context, backupFilePath string) error {
	conn, err := db.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection for backup: %w", err)
	}
	defer conn.Close()

	quoted := strings.ReplaceAll(backupFilePath, "'", "''")
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", quoted)); err != nil {
		return fmt.Errorf("failed to backup database to %s: %w", backupFilePath, err)
	}
	log.Info().Str("backup_path", backupFilePath).Msg("Database backup successful")
	return nil
}

// Restore replaces the database file at dataSourceName with a backup. The
// database must not be open.
func Restore(dataSourceName, backupFilePath string) error {
	src, err := os.Open(backupFilePath)
	if err != nil {
		return fmt.Errorf("failed to open backup file %s: %w", backupFilePath, err)
	}
	defer src.Close()

	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(dataSourceName + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove current database file %s: %w", dataSourceName+suffix, err)
		}
	}

	dst, err := os.Create(dataSourceName)
	if err != nil {
		return fmt.Errorf("failed to create new database file %s: %w", dataSourceName, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy backup to database file: %w", err)
	}
	log.Info().Str("backup_path", backupFilePath).Msg("Database restore successful")
	return nil
}
