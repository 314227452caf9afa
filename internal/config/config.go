package config

import (
	"os"
)

// Config holds the application configuration
type Config struct {
	Port      string
	DBPath    string
	DataDir   string // precomputed city datasets
	JobsDir   string // per-job artifact storage
	JWTSecret string // empty disables bearer-token auth
}

// Load reads configuration from the environment with local defaults
func Load() *Config {
	return &Config{
		Port:      envOr("PORT", ":8080"),
		DBPath:    envOr("DB_PATH", "./local_data/cityflow.db"),
		DataDir:   envOr("DATA_DIR", "./local_data/cities"),
		JobsDir:   envOr("JOBS_DIR", "./local_data/jobs"),
		JWTSecret: os.Getenv("JWT_SECRET"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
