// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBuildTool is the build tool run for every target.
	DefaultBuildTool = "cargo"
	// DefaultExtensionBaseURL is the release directory holding the sqlite extension.
	DefaultExtensionBaseURL = "https://github.com/nalgeon/sqlean/releases/download/0.15.2"
	// DefaultExtensionRetries is the number of download retries.
	DefaultExtensionRetries = 3
	// DefaultReadyTimeout bounds the wait for a provisioned service.
	DefaultReadyTimeout = 2 * time.Minute
	// DefaultCertsDir is relative to the tests directory.
	DefaultCertsDir = "certs"
	// DefaultPassword is the database superuser password.
	DefaultPassword = "password"
)

var (
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInvalidField is the sentinel error wrapped by InvalidFieldError.
	ErrInvalidField = errors.New("invalid config field")
)

type (
	// InvalidFieldError reports a single field that failed validation.
	// It wraps ErrInvalidField for errors.Is() compatibility.
	InvalidFieldError struct {
		Field  string
		Reason string
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig and collects the field-level errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// RepoRoot is the repository the build tool runs in. Empty means
		// detect from the working directory.
		RepoRoot string `json:"repo_root" mapstructure:"repo_root"`
		// BuildTool is the executable run for every target.
		BuildTool string `json:"build_tool" mapstructure:"build_tool"`
		// Extension configures the sqlite extension download.
		Extension ExtensionConfig `json:"extension" mapstructure:"extension"`
		// Provision configures database services.
		Provision ProvisionConfig `json:"provision" mapstructure:"provision"`
		// Run configures the driver loop.
		Run RunConfig `json:"run" mapstructure:"run"`
		// UI configures output.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// ExtensionConfig configures the sqlite extension download.
	ExtensionConfig struct {
		BaseURL string `json:"base_url" mapstructure:"base_url"`
		// CacheDir is where the extension is stored. Empty means the repository root.
		CacheDir string `json:"cache_dir" mapstructure:"cache_dir"`
		Retries  int    `json:"retries" mapstructure:"retries"`
	}

	// ProvisionConfig configures database services.
	ProvisionConfig struct {
		ReadyTimeout time.Duration `json:"ready_timeout" mapstructure:"ready_timeout"`
		// CertsDir holds server.crt and server.key for postgres SSL.
		CertsDir string `json:"certs_dir" mapstructure:"certs_dir"`
		Password string `json:"password" mapstructure:"password"`
		// Images overrides the container image per service name.
		Images map[string]string `json:"images" mapstructure:"images"`
	}

	// RunConfig configures the driver loop.
	RunConfig struct {
		// CleanProfileData removes stale coverage files before running.
		CleanProfileData bool `json:"clean_profile_data" mapstructure:"clean_profile_data"`
	}

	// UIConfig configures output.
	UIConfig struct {
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		BuildTool: DefaultBuildTool,
		Extension: ExtensionConfig{
			BaseURL: DefaultExtensionBaseURL,
			Retries: DefaultExtensionRetries,
		},
		Provision: ProvisionConfig{
			ReadyTimeout: DefaultReadyTimeout,
			CertsDir:     DefaultCertsDir,
			Password:     DefaultPassword,
			Images:       map[string]string{},
		},
		Run: RunConfig{CleanProfileData: true},
	}
}

// Error implements the error interface for InvalidFieldError.
func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap returns ErrInvalidField for errors.Is() compatibility.
func (e *InvalidFieldError) Unwrap() error { return ErrInvalidField }

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// IsValid checks constraints that hold after decoding, including values
// that did not come from a CUE file.
func (c *Config) IsValid() (bool, []error) {
	var errs []error
	invalid := func(field, reason string) {
		errs = append(errs, &InvalidFieldError{Field: field, Reason: reason})
	}

	if strings.TrimSpace(c.BuildTool) == "" {
		invalid("build_tool", "must not be empty")
	}
	if u, err := url.Parse(c.Extension.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		invalid("extension.base_url", fmt.Sprintf("%q is not an http(s) URL", c.Extension.BaseURL))
	}
	if c.Extension.Retries < 0 {
		invalid("extension.retries", "must not be negative")
	}
	if c.Provision.ReadyTimeout <= 0 {
		invalid("provision.ready_timeout", "must be positive")
	}
	if c.Provision.Password == "" {
		invalid("provision.password", "must not be empty")
	}
	for service, image := range c.Provision.Images {
		if strings.TrimSpace(image) == "" {
			invalid("provision.images."+service, "must not be empty")
		}
	}

	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}
