// Package config reads the per-lambda environment settings. Secrets and
// shared infrastructure values live in SSM Parameter Store (lib/data); the
// environment only carries what differs per deployment of a single function.
package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Env holds the environment-sourced settings common to every lambda.
type Env struct {
	IsLocal  bool   `envconfig:"IS_LOCAL" default:"false"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Endpoint overrides for local runs and tests. Empty means the real
	// provider hosts.
	GoogleTokenURL    string `envconfig:"GOOGLE_TOKEN_URL"`
	GoogleCalendarURL string `envconfig:"GOOGLE_CALENDAR_URL"`
	DocuSignTokenURL  string `envconfig:"DOCUSIGN_TOKEN_URL"`
}

// Load reads the environment into an Env. A .env file is merged in first when
// present, which only matters for local runs.
func Load() (Env, error) {
	_ = godotenv.Load()

	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return Env{}, err
	}
	return env, nil
}
