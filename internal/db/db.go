package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path/filepath"

	"github.com/pressly/goose/v3"
	"github.com/torfstack/zenremote/internal/logging"
	"github.com/torfstack/zenremote/internal/util"
	_ "modernc.org/sqlite"
)

var (
	dbName = "state.sqlite"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Database is the local state of zenremote: which deposition belongs to which
// endpoint and what has been transferred.
type Database struct {
	db *sql.DB
}

func New(ctx context.Context) (*Database, error) {
	return Open(ctx, filepath.Join(util.ConfigDir, dbName))
}

func Open(ctx context.Context, path string) (*Database, error) {
	if err := util.MakeParents(path); err != nil {
		return nil, fmt.Errorf("could not create database directory: %w", err)
	}
	sqlDb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	d := &Database{sqlDb}
	err = d.runMigrations(ctx)
	if err != nil {
		_ = sqlDb.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}
	return d, nil
}

func (d *Database) runMigrations(ctx context.Context) error {
	err := goose.SetDialect("sqlite")
	if err != nil {
		return fmt.Errorf("could not set dialect 'sqlite': %w", err)
	}
	goose.SetLogger(logging.GooseLogger{})
	goose.SetBaseFS(embedMigrations)

	if err = goose.UpContext(ctx, d.db, "migrations"); err != nil {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

func (d *Database) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}
