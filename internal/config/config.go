package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr          string        `yaml:"addr"`
	JWTSecret     string        `yaml:"jwt_secret"`
	APITimeout    time.Duration `yaml:"timeout"`
	DatabasePath  string        `yaml:"database_path"`
	TokenDuration time.Duration `yaml:"token_duration"`
}

// LoadConfig builds a Config from env defaults and an optional YAML file.
// A .env file in the working directory is loaded first when present.
func LoadConfig(path string) (*Config, error) {
	// ignore a missing .env; env vars may come from the real environment
	_ = godotenv.Load()

	cfg := &Config{
		Addr:          getEnv("MARKET_ADDR", ":8080"),
		JWTSecret:     getEnv("MARKET_JWT_SECRET", "supersecretkey"),
		APITimeout:    15 * time.Second,
		DatabasePath:  getEnv("MARKET_DATABASE_PATH", "marketplace.db"),
		TokenDuration: 24 * time.Hour,
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate rejects configurations that are unsafe outside development.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path must not be empty")
	}
	if c.TokenDuration <= 0 {
		return fmt.Errorf("token_duration must be positive")
	}
	if c.JWTSecret == "" || c.JWTSecret == "supersecretkey" {
		if os.Getenv("MARKET_ENV") != "development" {
			return fmt.Errorf("jwt_secret is insecure; set MARKET_JWT_SECRET")
		}
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
