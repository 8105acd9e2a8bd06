package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds server and storage settings. Values come from an optional
// YAML file, then environment variables, then command-line flags.
type Config struct {
	Port           string   `yaml:"port"`
	DBDriver       string   `yaml:"db_driver"` // "sqlite" | "postgres"
	DBPath         string   `yaml:"db_path"`
	DBDSN          string   `yaml:"db_dsn"`
	CatalogPath    string   `yaml:"catalog_path"`
	Seed           *int64   `yaml:"seed"` // fixed seed for reproducible shuffles
	AllowedOrigins []string `yaml:"allowed_origins"`
}

func defaultConfig() *Config {
	return &Config{
		Port:        "8080",
		DBDriver:    "sqlite",
		DBPath:      "quiz.db",
		CatalogPath: "data/vital_points_master.json",
	}
}

// LoadConfig builds the configuration. path may be empty.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.DBDriver = getEnv("DB_DRIVER", c.DBDriver)
	c.DBPath = getEnv("DB_PATH", c.DBPath)
	c.DBDSN = getEnv("DB_DSN", c.DBDSN)
	c.CatalogPath = getEnv("CATALOG_PATH", c.CatalogPath)
	if v := os.Getenv("QUIZ_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("QUIZ_SEED: %w", err)
		}
		c.Seed = &n
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, o)
			}
		}
	}
	return nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "sqlite":
		if c.DBPath == "" {
			return fmt.Errorf("db_path is required for sqlite")
		}
	case "postgres":
		if c.DBDSN == "" {
			return fmt.Errorf("db_dsn is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported db driver %q", c.DBDriver)
	}
	return nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
