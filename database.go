package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "embed"

	_ "github.com/lib/pq"
	"golang.org/x/exp/slog"
)

//go:embed schema.sql
var schema string

// documentRowID is the key of the single row holding the document.
const documentRowID = 1

type PostgreSQLBackend struct {
	db *sql.DB
}

func NewPostgreSQLBackend(cfg Config) (*PostgreSQLBackend, error) {
	connStr := fmt.Sprintf("host=%s user=%s password=%s port=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.PostgresUser, cfg.PostgresPassword, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	pg := &PostgreSQLBackend{db: db}
	if err := pg.db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	slog.Debug("Database pinged")

	if _, err := pg.db.ExecContext(context.Background(), schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create database schema: %w", err)
	}

	slog.Info("Database schema is in place")

	return pg, nil
}

func (pq *PostgreSQLBackend) Load(ctx context.Context) (*Document, error) {
	const getDocument = `
	SELECT body
	FROM documents
	WHERE id = $1
	`

	var body []byte
	err := pq.db.QueryRowContext(ctx, getDocument, documentRowID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return NewDocument(), nil
	}
	if err != nil {
		return nil, err
	}

	return decodeDocument(body)
}

func (pq *PostgreSQLBackend) Save(ctx context.Context, doc *Document) error {
	const saveDocument = `
	INSERT INTO documents (id, body)
	VALUES($1, $2)
	ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body
	`

	b, err := encodeDocument(doc)
	if err != nil {
		return err
	}

	_, err = pq.db.ExecContext(ctx, saveDocument, documentRowID, string(b))

	return err
}

func (pq *PostgreSQLBackend) Close() error {
	return pq.db.Close()
}
