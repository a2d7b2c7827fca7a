package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()

	for _, k := range []string{
		"APP_HOST", "APP_PORT", "STORE_DRIVER", "DATA_FILE", "SQLITE_PATH",
		"POSTGRES_USER", "POSTGRES_PASSWORD", "DB_HOST", "DB_PORT", "DB_NAME",
		JWTSecretEnv, "HASH_PASSWORDS", "LOG_LEVEL", "MAX_BODY_BYTES",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":5001", cfg.ListenAddr())
	assert.Equal(t, StoreDriverFile, cfg.StoreDriver)
	assert.Equal(t, "data.json", cfg.DataFile)
	assert.False(t, cfg.HashPasswords)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.True(t, cfg.GeneratedSecret)
	assert.Zero(t, cfg.MaxBodyBytes)
}

func TestLoadConfig_FromEnvFile(t *testing.T) {
	clearConfigEnv(t)

	// godotenv does not override variables that are already set, even to "".
	for _, k := range []string{"APP_PORT", "STORE_DRIVER", "SQLITE_PATH", JWTSecretEnv, "HASH_PASSWORDS", "LOG_LEVEL", "MAX_BODY_BYTES"} {
		os.Unsetenv(k)
	}

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"APP_PORT=8080\nSTORE_DRIVER=sqlite\nSQLITE_PATH=/tmp/x.db\nJWT_SECRET_KEY=s3cret\nHASH_PASSWORDS=true\nLOG_LEVEL=warn\nMAX_BODY_BYTES=1024\n",
	), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	t.Cleanup(func() {
		for _, k := range []string{"APP_PORT", "STORE_DRIVER", "SQLITE_PATH", JWTSecretEnv, "HASH_PASSWORDS", "LOG_LEVEL", "MAX_BODY_BYTES"} {
			os.Unsetenv(k)
		}
	})

	assert.Equal(t, ":8080", cfg.ListenAddr())
	assert.Equal(t, StoreDriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "/tmp/x.db", cfg.SQLitePath)
	assert.Equal(t, []byte("s3cret"), cfg.JWTSecret)
	assert.True(t, cfg.HashPasswords)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, int64(1024), cfg.MaxBodyBytes)
	assert.False(t, cfg.GeneratedSecret)
}

func TestLoadConfig_Invalid(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.env")

	clearConfigEnv(t)
	t.Setenv("STORE_DRIVER", "mongo")
	_, err := LoadConfig(missing)
	assert.Error(t, err)

	clearConfigEnv(t)
	t.Setenv("HASH_PASSWORDS", "maybe")
	_, err = LoadConfig(missing)
	assert.Error(t, err)

	clearConfigEnv(t)
	t.Setenv("LOG_LEVEL", "loud")
	_, err = LoadConfig(missing)
	assert.Error(t, err)

	clearConfigEnv(t)
	t.Setenv("MAX_BODY_BYTES", "-1")
	_, err = LoadConfig(missing)
	assert.Error(t, err)
}
