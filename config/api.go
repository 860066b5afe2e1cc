package config

import "time"

// APIConfig contains backend API client configuration.
type APIConfig struct {
	// BaseURL is the root of the salina backend gateway.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8000"`

	// Timeout is the per-request timeout applied when a call site does not
	// set its own.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`

	// WithCredentials enables the cookie jar so cross-origin deployments
	// can ride session cookies alongside bearer tokens.
	WithCredentials bool `env:"WITH_CREDENTIALS" envDefault:"false"`
}

// Sanitize applies guardrails to API configuration values.
func (c *APIConfig) Sanitize() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}
