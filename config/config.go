package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - api.go: Backend API client configuration
//   - auth.go: Authentication configuration
//   - storage.go: Session storage configuration
type AppConfig struct {
	// IsDev controls development mode behavior (verbose logging, relaxed
	// auth defaults). Set DEV=true for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Backend API client configuration
	API APIConfig `envPrefix:"API_"`

	// Authentication configuration
	Auth AuthConfig

	// Session storage configuration
	Storage StorageConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// Call after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.API.Sanitize()
	c.Storage.Sanitize()
	c.detectDevMode()
}

// detectDevMode checks APP_ENV as a fallback when DEV is unset.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		appEnv := strings.ToLower(os.Getenv("APP_ENV"))
		c.IsDev = appEnv == "development" || appEnv == "dev"
	}
}
