/*
Package config loads server configuration from environment variables and an
optional .env file via Viper.

PURPOSE:
  One place that knows every knob the server has. Everything has a sane
  development default; production overrides via environment.

SEE ALSO:
  - cmd/server/main.go: The only consumer
*/
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Env            string   // development | production | test
	Port           string   // HTTP listen port
	DBPath         string   // SQLite database file path
	LogLevel       string   // zerolog level name (debug, info, warn, error)
	AllowedOrigins []string // CORS origins for the frontend
}

// Load reads configuration from env and an optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // missing .env is fine

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DB_PATH", "construction.db")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:8080")

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	var origins []string
	for _, o := range strings.Split(viper.GetString("ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return &Config{
		Env:            env,
		Port:           viper.GetString("PORT"),
		DBPath:         viper.GetString("DB_PATH"),
		LogLevel:       viper.GetString("LOG_LEVEL"),
		AllowedOrigins: origins,
	}, nil
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool { return c.Env == "production" }
