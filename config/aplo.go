package config

import (
	"strings"
	"time"
)

// AploConfig contains APLO platform client configuration.
// Approved events are pushed to the regional APLO event platform over HTTPS.
type AploConfig struct {
	// BaseURL is the root URL of the APLO API.
	BaseURL string `env:"BASE_URL" envDefault:"https://api.aplo.fr"`

	// APIKey authenticates requests to the APLO API.
	APIKey string `env:"API_KEY"`

	// Timeout bounds each APLO API request.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"15s"`

	// Enabled controls whether events are actually pushed. When false the
	// sync runner logs what it would push without calling the platform.
	Enabled bool `env:"ENABLED" envDefault:"true"`
}

// Sanitize applies guardrails to APLO client configuration values.
func (a *AploConfig) Sanitize() {
	a.BaseURL = strings.TrimRight(strings.TrimSpace(a.BaseURL), "/")
	if a.BaseURL == "" {
		a.Enabled = false
	}
	if a.Timeout <= 0 {
		a.Timeout = 15 * time.Second
	}
}
