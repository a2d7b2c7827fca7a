package main

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Needs a running PostgreSQL reachable with the DB_* and POSTGRES_* variables.
func TestPostgreSQLBackend(t *testing.T) {
	if os.Getenv("POSTGRES_USER") == "" {
		t.Skip("POSTGRES_USER is not set")
	}

	cfg := Config{
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		DBHost:           envOrDefault("DB_HOST", "localhost"),
		DBPort:           envOrDefault("DB_PORT", "5432"),
		DBName:           envOrDefault("DB_NAME", "blog"),
	}

	backend, err := NewPostgreSQLBackend(cfg)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	original, err := backend.Load(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Save(context.Background(), original) })

	doc := &Document{
		Users:  []User{{ID: "1", Name: "A", Email: "a@x.com", Password: "p"}},
		Posts:  []Post{{ID: "1", Title: "t", UserID: "1"}},
		Tokens: []string{"tok"},
	}
	require.NoError(t, backend.Save(ctx, doc))

	loaded, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, doc, loaded)
}
