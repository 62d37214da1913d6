package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	DatabaseURL       string `yaml:"databaseURL"`
	RedisAddr         string `yaml:"redisAddr"`
	RedisPassword     string `yaml:"redisPassword"`
	SessionTTLMinutes int    `yaml:"sessionTTLMinutes"`
	LogLevel          string `yaml:"logLevel"`

	// Sign-in throttling. Only active when redisAddr is set; zero limit
	// disables it.
	LoginRateLimit         int `yaml:"loginRateLimit"`
	LoginRateWindowSeconds int `yaml:"loginRateWindowSeconds"`
}

// Load reads config from path (defaults to config.yaml). A missing file is
// not an error: the messenger falls back to the in-memory store, which is
// also what happens when databaseURL is left empty.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	// Override with environment variables
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if cfg.SessionTTLMinutes < 0 {
		return cfg, fmt.Errorf("config: sessionTTLMinutes must not be negative")
	}
	if cfg.LoginRateLimit < 0 || cfg.LoginRateWindowSeconds < 0 {
		return cfg, fmt.Errorf("config: login rate limit values must not be negative")
	}
	if cfg.LoginRateLimit > 0 && cfg.LoginRateWindowSeconds == 0 {
		cfg.LoginRateWindowSeconds = 60
	}
	return cfg, nil
}
