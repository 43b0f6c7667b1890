// SPDX-License-Identifier: MPL-2.0

package invoke

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/matrixrun/matrixrun/internal/matrix"
	"github.com/matrixrun/matrixrun/pkg/types"
)

const (
	// EnvDatabaseURL receives the provisioned connection URL.
	EnvDatabaseURL = "DATABASE_URL"

	// EnvRustFlags receives the extension cfg flag.
	EnvRustFlags = "RUSTFLAGS"

	// SQLiteDatabase is the database path, relative to the tests directory,
	// used for the sqlite service.
	SQLiteDatabase = "sqlite/sqlite.db"

	// DefaultDatabase is the database name used for every other service.
	DefaultDatabase = "sqlx"

	// TestsDir is the tests directory name under the repository root.
	TestsDir = "tests"
)

var (
	// ErrTargetFailed is the sentinel error wrapped by ExitCodeError.
	ErrTargetFailed = errors.New("target failed")

	// ErrNoProvisioner is returned for a service target when no provisioner is configured.
	ErrNoProvisioner = errors.New("no service provisioner configured")
)

type (
	// Provisioner makes a service available and returns its connection URL.
	Provisioner interface {
		Provision(ctx context.Context, service, database, workDir string) (string, error)
	}

	// ExtensionFetcher makes the sqlite extension available and returns its
	// logical name, or ok=false when the host has none.
	ExtensionFetcher interface {
		Ensure(ctx context.Context) (name string, ok bool, err error)
	}

	// ServiceError reports a service that could not be provisioned.
	ServiceError struct {
		Service string
		Err     error
	}

	// ExitCodeError reports a target whose command exited non-zero.
	ExitCodeError struct {
		Tag  string
		Code types.ExitCode
	}

	// Invoker runs one target at a time.
	Invoker struct {
		repoRoot    string
		provisioner Provisioner
		fetcher     ExtensionFetcher
		executor    Executor
		tracer      Tracer
		environ     func() []string
	}

	// Option configures an Invoker during construction.
	Option func(*Invoker)
)

// Error implements the error interface.
func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("target %s exited with code %d", e.Tag, e.Code)
}

// Unwrap returns ErrTargetFailed for errors.Is.
func (e *ExitCodeError) Unwrap() error { return ErrTargetFailed }

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("provision %s: %v", e.Service, e.Err)
}

// Unwrap returns the provisioning failure.
func (e *ServiceError) Unwrap() error { return e.Err }

// WithProvisioner sets the service provisioner.
func WithProvisioner(p Provisioner) Option {
	return func(i *Invoker) {
		i.provisioner = p
	}
}

// WithExtensionFetcher sets the sqlite extension fetcher. Without one, sqlite
// targets run without the extension flag.
func WithExtensionFetcher(f ExtensionFetcher) Option {
	return func(i *Invoker) {
		i.fetcher = f
	}
}

// WithExecutor replaces the process executor.
func WithExecutor(e Executor) Option {
	return func(i *Invoker) {
		i.executor = e
	}
}

// WithTracer sets where trace lines go. The default discards them.
func WithTracer(t Tracer) Option {
	return func(i *Invoker) {
		i.tracer = t
	}
}

// WithEnviron replaces os.Environ as the base environment.
func WithEnviron(environ func() []string) Option {
	return func(i *Invoker) {
		i.environ = environ
	}
}

// New creates an Invoker that runs commands from repoRoot.
func New(repoRoot string, opts ...Option) *Invoker {
	i := &Invoker{
		repoRoot: repoRoot,
		executor: NewProcessExecutor(),
		tracer:   discardTracer{},
		environ:  os.Environ,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// TestsDir returns the directory services resolve relative paths against.
func (i *Invoker) TestsDir() string {
	return filepath.Join(i.repoRoot, TestsDir)
}

// Invoke prepares and runs target. A non-zero exit yields an *ExitCodeError;
// provisioning and extension failures are returned as-is.
func (i *Invoker) Invoke(ctx context.Context, target matrix.Target, rc matrix.RunContext) error {
	t := target.Clone()
	argv := BuildArgv(t.Command, rc.TestName, rc.Trailing, t.Args)

	if t.Comment != "" {
		i.tracer.Comment(t.Comment)
	}

	if rc.DryRun {
		if t.HasService() {
			i.tracer.Service(t.Service)
		}
		i.tracer.Command(argv)
		return nil
	}

	base := i.environ()
	extra := make(map[string]string)

	if t.Service == matrix.ServiceSQLite && i.fetcher != nil {
		name, ok, err := i.fetcher.Ensure(ctx)
		if err != nil {
			return fmt.Errorf("sqlite extension: %w", err)
		}
		if ok {
			current, found := t.Env[EnvRustFlags]
			if !found {
				current, _ = lookupEnv(base, EnvRustFlags)
			}
			extra[EnvRustFlags] = appendFlag(current, "--cfg sqlite_"+name)
		}
	}

	if t.HasService() {
		url, err := i.provision(ctx, t)
		if err != nil {
			return err
		}
		extra[EnvDatabaseURL] = url
		i.tracer.DatabaseURL(url)
	}

	i.tracer.Command(argv)

	cmd := Command{
		Argv: argv,
		Dir:  i.repoRoot,
		Env:  ComposeEnv(base, t.Env, extra),
	}
	slog.Debug("running target", "tag", t.Tag, "dir", cmd.Dir)

	code, err := i.executor.Run(ctx, cmd)
	if err != nil {
		return err
	}
	if !code.IsSuccess() {
		return &ExitCodeError{Tag: t.Tag, Code: code}
	}
	return nil
}

func (i *Invoker) provision(ctx context.Context, t matrix.Target) (string, error) {
	if i.provisioner == nil {
		return "", fmt.Errorf("%w for service %s", ErrNoProvisioner, t.Service)
	}

	database := DefaultDatabase
	if t.Service == matrix.ServiceSQLite {
		database = SQLiteDatabase
	}

	url, err := i.provisioner.Provision(ctx, t.Service, database, i.TestsDir())
	if err != nil {
		return "", &ServiceError{Service: t.Service, Err: err}
	}
	if t.DatabaseURLArgs != "" {
		url += "?" + t.DatabaseURLArgs
	}
	return url, nil
}
