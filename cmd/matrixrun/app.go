// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/matrixrun/matrixrun/internal/app/run"
	"github.com/matrixrun/matrixrun/internal/config"
	"github.com/matrixrun/matrixrun/internal/extension"
	"github.com/matrixrun/matrixrun/internal/invoke"
	"github.com/matrixrun/matrixrun/internal/provision"

	"github.com/charmbracelet/log"
)

type (
	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// App wires CLI services and shared dependencies. Every command handler
	// receives the App and builds its run services through it.
	App struct {
		Config      ConfigProvider
		executor    invoke.Executor
		provisioner invoke.Provisioner
		fetcher     invoke.ExtensionFetcher
		getwd       func() (string, error)
		stdout      io.Writer
		stderr      io.Writer

		// verbose and configPath hold the global flags.
		verbose    bool
		configPath string
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults; Provisioner and Fetcher
	// defaults are built per run from the loaded configuration.
	Dependencies struct {
		Config      ConfigProvider
		Executor    invoke.Executor
		Provisioner invoke.Provisioner
		Fetcher     invoke.ExtensionFetcher
		Getwd       func() (string, error)
		Stdout      io.Writer
		Stderr      io.Writer
	}

	// runServices are the per-run collaborators derived from configuration.
	runServices struct {
		repoRoot string
		invoker  *invoke.Invoker
		close    func()
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Executor == nil {
		deps.Executor = &invoke.ProcessExecutor{Stdin: os.Stdin, Stdout: deps.Stdout, Stderr: deps.Stderr}
	}
	if deps.Getwd == nil {
		deps.Getwd = os.Getwd
	}

	return &App{
		Config:      deps.Config,
		executor:    deps.Executor,
		provisioner: deps.Provisioner,
		fetcher:     deps.Fetcher,
		getwd:       deps.Getwd,
		stdout:      deps.Stdout,
		stderr:      deps.Stderr,
	}
}

// setupLogging routes slog through a charmbracelet logger on stderr.
func (a *App) setupLogging(verbose bool) {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(a.stderr, log.Options{
		Prefix: "matrixrun",
		Level:  level,
	})
	slog.SetDefault(slog.New(logger))
}

// loadConfig loads configuration relative to the working directory.
func (a *App) loadConfig(ctx context.Context, configPath string) (*config.Config, string, error) {
	wd, err := a.getwd()
	if err != nil {
		return nil, "", err
	}
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: configPath, WorkDir: wd})
	if err != nil {
		return nil, "", err
	}
	return cfg, wd, nil
}

// repoRoot resolves the configured repository root, or detects it from wd.
func repoRoot(cfg *config.Config, wd string) (string, error) {
	if cfg.RepoRoot == "" {
		return run.DetectRepoRoot(wd)
	}
	if filepath.IsAbs(cfg.RepoRoot) {
		return filepath.Clean(cfg.RepoRoot), nil
	}
	return filepath.Join(wd, cfg.RepoRoot), nil
}

// services builds the invoker for one run. The returned close function
// releases the Docker client if one was created.
func (a *App) services(cfg *config.Config, root string) runServices {
	closeFn := func() {}

	prov := a.provisioner
	if prov == nil {
		pcfg := provision.DefaultConfig()
		pcfg.Apply(
			provision.WithPassword(cfg.Provision.Password),
			provision.WithReadyTimeout(cfg.Provision.ReadyTimeout),
			provision.WithCertsDir(cfg.Provision.CertsDir),
			provision.WithImages(cfg.Provision.Images),
		)
		docker := provision.NewDockerProvisioner(pcfg)
		prov = provision.NewMemo(provision.NewRouter(provision.NewSQLiteProvisioner(), docker))
		closeFn = func() {
			if err := docker.Close(); err != nil {
				slog.Debug("closing docker client", "error", err)
			}
		}
	}

	fetcher := a.fetcher
	if fetcher == nil {
		cacheDir := cfg.Extension.CacheDir
		switch {
		case cacheDir == "":
			cacheDir = root
		case !filepath.IsAbs(cacheDir):
			cacheDir = filepath.Join(root, cacheDir)
		}
		fetcher = extension.NewFetcher(
			extension.WithBaseURL(cfg.Extension.BaseURL),
			extension.WithCacheDir(cacheDir),
			extension.WithRetries(cfg.Extension.Retries),
		)
	}

	inv := invoke.New(root,
		invoke.WithProvisioner(prov),
		invoke.WithExtensionFetcher(fetcher),
		invoke.WithExecutor(a.executor),
		invoke.WithTracer(invoke.NewTextTracer(a.stdout, traceStyles())),
	)

	return runServices{repoRoot: root, invoker: inv, close: closeFn}
}
