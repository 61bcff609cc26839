// Package db keeps a local record of completed downloads.
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"pixelfirm/pkg/env"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type DB struct {
	conn *sql.DB
}

// Open opens the download history database in the user data dir, creating and
// migrating it as needed.
func Open() (*DB, error) {
	dataDir, err := env.GetUserDataDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}
	return OpenPath(filepath.Join(dataDir, "history.db"))
}

// OpenPath opens the history database at an explicit path.
func OpenPath(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := runMigrations(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}
	return &DB{conn: conn}, nil
}

func runMigrations(conn *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	driver, err := migratesqlite.WithInstance(conn, &migratesqlite.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

// DownloadRecord is one completed download.
type DownloadRecord struct {
	ID         int64
	Codename   string
	Version    string
	URL        string
	Path       string
	Bytes      int64
	FinishedAt int64
}

func (d *DB) RecordDownload(ctx context.Context, rec DownloadRecord) error {
	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO downloads (codename, version, url, path, bytes, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Codename, rec.Version, rec.URL, rec.Path, rec.Bytes, rec.FinishedAt)
	return err
}

// ListDownloads returns up to limit records, newest first.
func (d *DB) ListDownloads(ctx context.Context, limit int) ([]DownloadRecord, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT id, codename, version, url, path, bytes, finished_at
		 FROM downloads ORDER BY finished_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []DownloadRecord
	for rows.Next() {
		var rec DownloadRecord
		if err := rows.Scan(&rec.ID, &rec.Codename, &rec.Version, &rec.URL, &rec.Path, &rec.Bytes, &rec.FinishedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
