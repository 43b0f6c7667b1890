// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"maps"
	"time"
)

const (
	// DefaultPassword is the administrator password given to every service.
	DefaultPassword = "password"

	// DefaultReadyTimeout bounds how long a service may take to accept connections.
	DefaultReadyTimeout = 2 * time.Minute

	// DefaultCertsDir is the certificates directory, relative to the tests directory.
	DefaultCertsDir = "certs"
)

type (
	// Config holds settings shared by all Docker services.
	Config struct {
		// Password is the administrator password for every engine.
		Password string

		// ReadyTimeout bounds the readiness probe of a single service.
		ReadyTimeout time.Duration

		// CertsDir holds server.crt and server.key for postgres SSL. It is
		// mounted read-only into postgres containers when it exists.
		// Relative paths resolve against the work directory passed to Provision.
		CertsDir string

		// Images overrides the catalog image for a service, keyed by service
		// name (e.g. "postgres_14": "postgres:14-alpine").
		Images map[string]string
	}

	// Option is a functional option for configuring a Config.
	Option func(*Config)
)

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Password:     DefaultPassword,
		ReadyTimeout: DefaultReadyTimeout,
		CertsDir:     DefaultCertsDir,
		Images:       map[string]string{},
	}
}

// WithPassword returns an Option that sets Password on the config.
func WithPassword(password string) Option {
	return func(c *Config) {
		c.Password = password
	}
}

// WithReadyTimeout returns an Option that sets ReadyTimeout on the config.
func WithReadyTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.ReadyTimeout = d
	}
}

// WithCertsDir returns an Option that sets CertsDir on the config.
func WithCertsDir(dir string) Option {
	return func(c *Config) {
		c.CertsDir = dir
	}
}

// WithImages returns an Option that merges image overrides into the config.
func WithImages(images map[string]string) Option {
	return func(c *Config) {
		if c.Images == nil {
			c.Images = make(map[string]string, len(images))
		}
		maps.Copy(c.Images, images)
	}
}

// Apply applies the given options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}
