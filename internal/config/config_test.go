// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matrixrun/matrixrun/internal/issue"
	"github.com/matrixrun/matrixrun/internal/testutil"
)

// isolated returns options that never touch the real user config directory.
func isolated(t *testing.T) LoadOptions {
	t.Helper()
	return LoadOptions{ConfigDirPath: t.TempDir(), WorkDir: t.TempDir()}
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Parallel()

	cfg, path, err := Load(context.Background(), isolated(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty", path)
	}

	want := DefaultConfig()
	if cfg.BuildTool != want.BuildTool {
		t.Errorf("BuildTool = %q, want %q", cfg.BuildTool, want.BuildTool)
	}
	if cfg.Extension.BaseURL != want.Extension.BaseURL || cfg.Extension.Retries != want.Extension.Retries {
		t.Errorf("Extension = %+v, want %+v", cfg.Extension, want.Extension)
	}
	if cfg.Provision.ReadyTimeout != DefaultReadyTimeout {
		t.Errorf("ReadyTimeout = %v, want %v", cfg.Provision.ReadyTimeout, DefaultReadyTimeout)
	}
	if cfg.Provision.Password != DefaultPassword || cfg.Provision.CertsDir != DefaultCertsDir {
		t.Errorf("Provision = %+v", cfg.Provision)
	}
	if cfg.Provision.Images == nil {
		t.Error("Images should be an empty map, not nil")
	}
	if !cfg.Run.CleanProfileData {
		t.Error("CleanProfileData should default to true")
	}
}

func TestLoad_UserConfigDir(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	testutil.MustWriteFile(t, filepath.Join(opts.ConfigDirPath, "config.cue"), `
build_tool: "/opt/cargo/bin/cargo"
provision: {
	ready_timeout: "90s"
	images: postgres_14: "postgres:14-alpine"
}
run: clean_profile_data: false
`)

	cfg, path, err := Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if want := filepath.Join(opts.ConfigDirPath, "config.cue"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	if cfg.BuildTool != "/opt/cargo/bin/cargo" {
		t.Errorf("BuildTool = %q", cfg.BuildTool)
	}
	if cfg.Provision.ReadyTimeout != 90*time.Second {
		t.Errorf("ReadyTimeout = %v, want 90s", cfg.Provision.ReadyTimeout)
	}
	if got := cfg.Provision.Images["postgres_14"]; got != "postgres:14-alpine" {
		t.Errorf("Images[postgres_14] = %q", got)
	}
	if cfg.Run.CleanProfileData {
		t.Error("CleanProfileData should be false")
	}
	// Unset fields keep their defaults.
	if cfg.Provision.Password != DefaultPassword {
		t.Errorf("Password = %q, want default", cfg.Provision.Password)
	}
	if cfg.Extension.BaseURL != DefaultExtensionBaseURL {
		t.Errorf("BaseURL = %q, want default", cfg.Extension.BaseURL)
	}
}

func TestLoad_SearchOrder(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	userFile := filepath.Join(opts.ConfigDirPath, "config.cue")
	localFile := filepath.Join(opts.WorkDir, LocalConfigFile)
	explicitFile := filepath.Join(t.TempDir(), "explicit.cue")
	testutil.MustWriteFile(t, localFile, `build_tool: "local"`)

	_, path, err := Load(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if path != localFile {
		t.Errorf("with only a local file, path = %q, want %q", path, localFile)
	}

	testutil.MustWriteFile(t, userFile, `build_tool: "user"`)
	cfg, path, err := Load(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if path != userFile || cfg.BuildTool != "user" {
		t.Errorf("user config should win over local: path=%q build_tool=%q", path, cfg.BuildTool)
	}

	testutil.MustWriteFile(t, explicitFile, `build_tool: "explicit"`)
	opts.ConfigFilePath = explicitFile
	cfg, path, err = Load(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if path != explicitFile || cfg.BuildTool != "explicit" {
		t.Errorf("--config should win: path=%q build_tool=%q", path, cfg.BuildTool)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	opts.ConfigFilePath = filepath.Join(t.TempDir(), "nope.cue")

	_, _, err := Load(context.Background(), opts)
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("expected ActionableError, got %T: %v", err, err)
	}
	if ae.Resource != opts.ConfigFilePath {
		t.Errorf("Resource = %q, want %q", ae.Resource, opts.ConfigFilePath)
	}
	if ae.IssueID != issue.ConfigLoadFailedId {
		t.Errorf("IssueID = %d, want ConfigLoadFailedId", ae.IssueID)
	}
}

func TestLoad_InvalidFiles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"syntax error", "build_tool: {\n", "config.cue"},
		{"unknown field", "colour: \"red\"\n", "colour"},
		{"wrong type", "run: clean_profile_data: \"yes\"\n", "run.clean_profile_data"},
		{"bad duration", "provision: ready_timeout: \"soon\"\n", "provision.ready_timeout"},
		{"bad url", "extension: base_url: \"ftp://mirror\"\n", "extension.base_url"},
		{"negative retries", "extension: retries: -1\n", "extension.retries"},
		{"zero timeout", "provision: ready_timeout: \"0s\"\n", "provision.ready_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := isolated(t)
			testutil.MustWriteFile(t, filepath.Join(opts.ConfigDirPath, "config.cue"), tt.content)

			_, _, err := Load(context.Background(), opts)
			if err == nil {
				t.Fatal("expected error")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("expected ActionableError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q should mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := Load(ctx, isolated(t)); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	src := DefaultConfig()
	src.RepoRoot = "/src/sqlx"
	src.Extension.CacheDir = "/tmp/ext"
	src.Provision.ReadyTimeout = 3 * time.Minute
	src.Provision.Images = map[string]string{
		"postgres_14": "postgres:14-alpine",
		"mysql_8":     "mysql:8.0.36",
	}
	src.UI.Verbose = true

	opts := isolated(t)
	testutil.MustWriteFile(t, filepath.Join(opts.ConfigDirPath, "config.cue"), GenerateCUE(src))

	got, _, err := Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("generated CUE does not load: %v\n%s", err, GenerateCUE(src))
	}
	if got.RepoRoot != src.RepoRoot || got.Extension.CacheDir != src.Extension.CacheDir {
		t.Errorf("paths not preserved: %+v", got)
	}
	if got.Provision.ReadyTimeout != src.Provision.ReadyTimeout {
		t.Errorf("ReadyTimeout = %v, want %v", got.Provision.ReadyTimeout, src.Provision.ReadyTimeout)
	}
	if len(got.Provision.Images) != 2 || got.Provision.Images["mysql_8"] != "mysql:8.0.36" {
		t.Errorf("Images = %v", got.Provision.Images)
	}
	if !got.UI.Verbose {
		t.Error("Verbose not preserved")
	}
}

func TestConfigDir_Override(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	got, err := ConfigDir()
	if err != nil {
		t.Fatal(err)
	}
	if got != dir {
		t.Errorf("ConfigDir() = %q, want %q", got, dir)
	}
}

func TestConfigDir_XDG(t *testing.T) {
	Reset()
	dir := t.TempDir()
	t.Cleanup(testutil.SetConfigHome(t, dir))

	got, err := ConfigDir()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(got) != AppName {
		t.Errorf("ConfigDir() = %q, want a %s directory", got, AppName)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", AppName)
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	path, created, err := CreateDefaultConfig()
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	if !created {
		t.Error("first call should create the file")
	}
	if path != filepath.Join(dir, "config.cue") {
		t.Errorf("path = %q", path)
	}

	testutil.MustWriteFile(t, path, `build_tool: "kept"`)
	if _, created, err := CreateDefaultConfig(); err != nil || created {
		t.Errorf("second call should leave the file alone: created=%v err=%v", created, err)
	}

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{WorkDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BuildTool != "kept" {
		t.Errorf("BuildTool = %q, want kept", cfg.BuildTool)
	}
}
