package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type JWTConfig struct {
	Secret string `yaml:"secret"`
	TTL    string `yaml:"ttl"` // Go duration string, e.g. "24h"
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	JWT JWTConfig `yaml:"jwt"`
}

// TokenTTL parses jwt.ttl, falling back to 24h.
func (c *Config) TokenTTL() time.Duration {
	if c.JWT.TTL == "" {
		return 24 * time.Hour
	}
	d, err := time.ParseDuration(c.JWT.TTL)
	if err != nil {
		panic("Invalid jwt.ttl: " + err.Error())
	}
	return d
}

// LoadConfig reads config/config.yaml, or the file named by TASKHUB_CONFIG.
func LoadConfig() *Config {
	path := os.Getenv("TASKHUB_CONFIG")
	if path == "" {
		path = "config/config.yaml"
	}

	f, err := os.Open(path)
	if err != nil {
		panic("Failed to open " + path + ": " + err.Error())
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		panic("Failed to parse " + path + ": " + err.Error())
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.JWT.Secret == "" {
		panic("jwt.secret must be set in " + path)
	}
	return &cfg
}
