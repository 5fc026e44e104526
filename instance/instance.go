// Package instance defines SPARQL endpoint configurations and loads them
// from files with env-variable overrides.
package instance

import (
	"errors"
	"fmt"
	"time"
)

// Defaults applied by Normalize.
const (
	DefaultConcurrent = 5
	DefaultRetries    = 2
	DefaultRetryDelay = time.Second
	DefaultTimeout    = 30 * time.Second
)

// RateLimit bounds load placed on one endpoint.
type RateLimit struct {
	// Concurrent is the maximum number of simultaneous requests.
	Concurrent int `koanf:"concurrent"`
}

// Instance is one configured SPARQL endpoint. Cache entries, the
// concurrency gate, and the retry budget are all scoped to an instance.
type Instance struct {
	// ID is the logical namespace for cache keys. Filled from the
	// configuration map key by the loader.
	ID string `koanf:"-"`

	// Name is the human-readable label.
	Name string `koanf:"name"`

	// Endpoint is the SPARQL query URL.
	Endpoint string `koanf:"endpoint"`

	// RequiresAuth marks endpoints that reject anonymous queries.
	RequiresAuth bool `koanf:"requiresAuth"`

	// CookieAuth marks endpoints whose credentials travel as browser
	// cookies. An instance with RequiresAuth and no CookieAuth cannot
	// be queried at all: no credential-passing mechanism exists.
	CookieAuth bool `koanf:"cookieAuth"`

	// AuthURL is where a user can log in when authentication is needed.
	AuthURL string `koanf:"authUrl"`

	// UnavailableNote, when set, marks the instance out of service with
	// a message for the user.
	UnavailableNote string `koanf:"unavailableNote"`

	RateLimit RateLimit `koanf:"rateLimit"`

	// Retries is the number of additional attempts after a transient
	// failure. Zero means the default; a negative value disables
	// retries entirely.
	Retries int `koanf:"retries"`

	// RetryDelay is the base backoff; attempt n waits n * RetryDelay.
	RetryDelay time.Duration `koanf:"retryDelay"`

	// Timeout bounds each network attempt.
	Timeout time.Duration `koanf:"timeout"`
}

// Normalize fills zero-valued tuning fields with defaults.
func (in Instance) Normalize() Instance {
	if in.RateLimit.Concurrent <= 0 {
		in.RateLimit.Concurrent = DefaultConcurrent
	}
	if in.Retries == 0 {
		in.Retries = DefaultRetries
	} else if in.Retries < 0 {
		in.Retries = 0
	}
	if in.RetryDelay <= 0 {
		in.RetryDelay = DefaultRetryDelay
	}
	if in.Timeout <= 0 {
		in.Timeout = DefaultTimeout
	}
	return in
}

// Validate reports configuration mistakes that would make the instance
// unusable.
func (in Instance) Validate() error {
	if in.ID == "" {
		return errors.New("instance: id is required")
	}
	if in.Endpoint == "" {
		return fmt.Errorf("instance %s: endpoint is required", in.ID)
	}
	if in.RequiresAuth && in.CookieAuth && in.AuthURL == "" {
		return fmt.Errorf("instance %s: cookie auth requires authUrl", in.ID)
	}
	return nil
}

// Config is the full set of configured instances, keyed by id.
type Config struct {
	Instances map[string]Instance `koanf:"instances"`
}

// Validate checks every instance.
func (c Config) Validate() error {
	for _, in := range c.Instances {
		if err := in.Validate(); err != nil {
			return err
		}
	}
	return nil
}
