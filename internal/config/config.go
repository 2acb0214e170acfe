package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	Database Database `envPrefix:"DB_"`
	HTTP     HTTPServer
	JWT      JWT
}

type Database struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"postgres"`
	Password string `env:"PASSWORD" envDefault:"postgres"`
	Name     string `env:"NAME" envDefault:"postgres"`
	SSLMode  string `env:"SSLMODE" envDefault:"disable"`
}

type HTTPServer struct {
	Port string `env:"PORT" envDefault:"8080"`
}

type JWT struct {
	TokenTTLHours int `env:"JWT_TTL_HOURS" envDefault:"24"`
}

// DSN builds the Postgres connection string.
func (d Database) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
