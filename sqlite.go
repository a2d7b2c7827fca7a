package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "embed"

	"golang.org/x/exp/slog"
	_ "modernc.org/sqlite"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

// SQLiteBackend keeps the document as a single TEXT row in a SQLite file.
type SQLiteBackend struct {
	db *sql.DB
}

func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.ExecContext(context.Background(), sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create database schema: %w", err)
	}

	slog.Debug("SQLite database opened", "path", path)

	return &SQLiteBackend{db: db}, nil
}

func (s *SQLiteBackend) Load(ctx context.Context) (*Document, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE id = ?`, documentRowID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return NewDocument(), nil
	}
	if err != nil {
		return nil, err
	}

	return decodeDocument([]byte(body))
}

func (s *SQLiteBackend) Save(ctx context.Context, doc *Document) error {
	b, err := encodeDocument(doc)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
	INSERT INTO documents (id, body)
	VALUES(?, ?)
	ON CONFLICT (id) DO UPDATE SET body = excluded.body
	`, documentRowID, string(b))

	return err
}

func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}
