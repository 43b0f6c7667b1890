// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/matrixrun/matrixrun/internal/issue"
	"github.com/matrixrun/matrixrun/pkg/cueutil"
	"github.com/matrixrun/matrixrun/pkg/platform"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "matrixrun"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// LocalConfigFile is searched for in the working directory.
	LocalConfigFile = AppName + "." + ConfigFileExt

	schemaDefinition = "#Config"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the matrixrun configuration directory using platform
// conventions: %APPDATA% on Windows, ~/Library/Application Support on macOS
// and $XDG_CONFIG_HOME (defaulting to ~/.config) elsewhere.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case platform.Windows:
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case platform.Darwin:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// ResolvePath returns the file Load would read, or "" when none exists and
// the defaults apply. An explicit ConfigFilePath that does not exist is an error.
func ResolvePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'matrixrun config path' to see where configuration is searched for").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	cfgDir := opts.ConfigDirPath
	if cfgDir == "" {
		var err error
		if cfgDir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	if p := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt); fileExists(p) {
		return p, nil
	}

	if p := filepath.Join(opts.WorkDir, LocalConfigFile); fileExists(p) {
		return p, nil
	}
	return "", nil
}

// Load reads configuration with the given options and also returns the
// path it was read from ("" for defaults).
func Load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	return loadWithOptions(ctx, opts)
}

// loadWithOptions performs option-driven config loading without any
// package-level cache.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	path, err := ResolvePath(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Compare it with 'matrixrun config dump'").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Provision.Images == nil {
		cfg.Provision.Images = map[string]string{}
	}

	if ok, errs := cfg.IsValid(); !ok {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestion("Durations are strings such as \"90s\" or \"2m\"").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(errs[0]).
			BuildError()
	}

	return &cfg, path, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("repo_root", d.RepoRoot)
	v.SetDefault("build_tool", d.BuildTool)
	v.SetDefault("extension.base_url", d.Extension.BaseURL)
	v.SetDefault("extension.cache_dir", d.Extension.CacheDir)
	v.SetDefault("extension.retries", d.Extension.Retries)
	v.SetDefault("provision.ready_timeout", d.Provision.ReadyTimeout)
	v.SetDefault("provision.certs_dir", d.Provision.CertsDir)
	v.SetDefault("provision.password", d.Provision.Password)
	v.SetDefault("provision.images", d.Provision.Images)
	v.SetDefault("run.clean_profile_data", d.Run.CleanProfileData)
	v.SetDefault("ui.verbose", d.UI.Verbose)
}

// loadCUEIntoViper validates a CUE file against #Config and merges the
// fields it sets into v, leaving the rest at their defaults.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	configMap, err := cueutil.DecodeMap(configSchema, schemaDefinition, data, path)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(cfgDir, 0o755)
}

// CreateDefaultConfig writes the defaults to the user config file unless it
// already exists. It returns the file path and whether it was written.
func CreateDefaultConfig() (string, bool, error) {
	if err := EnsureConfigDir(); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", false, err
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if fileExists(cfgPath) {
		return cfgPath, false, nil
	}

	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write config file: %w", err)
	}
	return cfgPath, true, nil
}

// GenerateCUE renders cfg as a CUE document accepted by the schema.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// matrixrun configuration\n\n")

	if cfg.RepoRoot != "" {
		fmt.Fprintf(&sb, "repo_root: %q\n", cfg.RepoRoot)
	}
	fmt.Fprintf(&sb, "build_tool: %q\n", cfg.BuildTool)

	sb.WriteString("\nextension: {\n")
	fmt.Fprintf(&sb, "\tbase_url: %q\n", cfg.Extension.BaseURL)
	if cfg.Extension.CacheDir != "" {
		fmt.Fprintf(&sb, "\tcache_dir: %q\n", cfg.Extension.CacheDir)
	}
	fmt.Fprintf(&sb, "\tretries: %d\n", cfg.Extension.Retries)
	sb.WriteString("}\n")

	sb.WriteString("\nprovision: {\n")
	fmt.Fprintf(&sb, "\tready_timeout: %q\n", cfg.Provision.ReadyTimeout.String())
	fmt.Fprintf(&sb, "\tcerts_dir: %q\n", cfg.Provision.CertsDir)
	fmt.Fprintf(&sb, "\tpassword: %q\n", cfg.Provision.Password)
	if len(cfg.Provision.Images) > 0 {
		sb.WriteString("\timages: {\n")
		for _, service := range slices.Sorted(maps.Keys(cfg.Provision.Images)) {
			fmt.Fprintf(&sb, "\t\t%s: %q\n", service, cfg.Provision.Images[service])
		}
		sb.WriteString("\t}\n")
	}
	sb.WriteString("}\n")

	sb.WriteString("\nrun: {\n")
	fmt.Fprintf(&sb, "\tclean_profile_data: %v\n", cfg.Run.CleanProfileData)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}
