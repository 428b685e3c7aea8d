// Package config loads runtime configuration from the environment, with
// optional .env file support for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath     string
	APIPort    int
	SecretsKey string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DBPath:     getEnv("CONNECTRIX_DB", "connectrix.db"),
		APIPort:    getEnvInt("CONNECTRIX_API_PORT", 8081),
		SecretsKey: os.Getenv("CONNECTRIX_SECRETS_KEY"),
	}
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	if c.SecretsKey == "" {
		return fmt.Errorf("CONNECTRIX_SECRETS_KEY is required to decrypt stored credentials")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
