package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/exp/slog"
)

const (
	StoreDriverFile     = "file"
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
)

type Config struct {
	Host string
	Port string

	StoreDriver string
	DataFile    string
	SQLitePath  string

	PostgresUser     string
	PostgresPassword string
	DBHost           string
	DBPort           string
	DBName           string

	JWTSecret     []byte
	HashPasswords bool
	LogLevel      slog.Level
	MaxBodyBytes  int64

	// GeneratedSecret is set when JWT_SECRET_KEY was empty and JWTSecret is
	// random for this process only.
	GeneratedSecret bool
}

func (c Config) ListenAddr() string {
	return c.Host + ":" + c.Port
}

// LoadConfig reads an optional .env file and then the environment.
func LoadConfig(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	cfg := Config{
		Host:             os.Getenv("APP_HOST"),
		Port:             envOrDefault("APP_PORT", "5001"),
		StoreDriver:      strings.ToLower(envOrDefault("STORE_DRIVER", StoreDriverFile)),
		DataFile:         envOrDefault("DATA_FILE", "data.json"),
		SQLitePath:       envOrDefault("SQLITE_PATH", "blog.db"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		DBHost:           envOrDefault("DB_HOST", "localhost"),
		DBPort:           envOrDefault("DB_PORT", "5432"),
		DBName:           envOrDefault("DB_NAME", "blog"),
		JWTSecret:        []byte(os.Getenv(JWTSecretEnv)),
	}

	switch cfg.StoreDriver {
	case StoreDriverFile, StoreDriverPostgres, StoreDriverSQLite:
	default:
		return Config{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	if v := os.Getenv("HASH_PASSWORDS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid HASH_PASSWORDS: %w", err)
		}
		cfg.HashPasswords = b
	}

	if v := os.Getenv("MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid MAX_BODY_BYTES %q", v)
		}
		cfg.MaxBodyBytes = n
	}

	cfg.LogLevel = slog.LevelDebug
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
	}

	if len(cfg.JWTSecret) == 0 {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return Config{}, err
		}
		cfg.JWTSecret = []byte(hex.EncodeToString(secret))
		cfg.GeneratedSecret = true
	}

	return cfg, nil
}

func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}
