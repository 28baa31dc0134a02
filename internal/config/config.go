package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config representa toda la superficie de configuración del servicio.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Mongo    MongoConfig
	Postgres PostgresConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port string
}

type LogConfig struct {
	Level string
}

// MongoConfig: si URI viene vacío, no se usa mongo.
type MongoConfig struct {
	URI    string
	DBName string
}

// PostgresConfig: si DSN viene vacío, no se usa postgres.
type PostgresConfig struct {
	DSN string
}

// AuthConfig: si BaseURL viene vacío, el servicio corre en modo dev
// (header X-Debug-User-ID, sin verificación de tokens).
type AuthConfig struct {
	BaseURL string
	APIKey  string
}

// Load lee variables de entorno (opcionalmente desde un archivo .env) y
// materializa un Config.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Un .env ausente es aceptable: la config puede venir directo
		// del entorno.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Mongo: MongoConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "herd"),
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("DB_DSN"),
		},
		Auth: AuthConfig{
			BaseURL: os.Getenv("AUTH_BASE_URL"),
			APIKey:  os.Getenv("AUTH_API_KEY"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate asegura lo mínimo; casi todo es opcional en dev.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}
	if c.Mongo.URI != "" && c.Mongo.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided when MONGODB_URI is set")
	}
	if c.Auth.BaseURL != "" && c.Auth.APIKey == "" {
		return errors.New("AUTH_API_KEY must be provided when AUTH_BASE_URL is set")
	}
	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
