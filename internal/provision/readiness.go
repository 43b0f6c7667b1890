// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/denisenkom/go-mssqldb" // SQL Server driver.
	_ "github.com/jackc/pgx/v5/stdlib"   // PostgreSQL driver.
)

// waitForService pings the service under exponential backoff until it answers
// or timeout elapses, then runs the engine's setup statement, if any.
func waitForService(ctx context.Context, spec Spec, hostPort, database string, timeout time.Duration) error {
	driverName, dsn := spec.driver(hostPort)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return fmt.Errorf("open connection to %s: %w", spec.Service, err)
	}
	defer func() { _ = db.Close() }()

	start := time.Now()
	policy := backoff.WithContext(
		backoff.NewExponentialBackOff(backoff.WithMaxElapsedTime(timeout)),
		ctx,
	)
	ping := func() error {
		return db.PingContext(ctx)
	}
	notify := func(err error, next time.Duration) {
		slog.Debug("service not ready", "service", spec.Service, "retry_in", next, "error", err)
	}
	if err := backoff.RetryNotify(ping, policy, notify); err != nil {
		return fmt.Errorf("ping %s: %w", spec.Service, err)
	}
	slog.Debug("service ready", "service", spec.Service, "elapsed", time.Since(start).Round(time.Millisecond))

	if stmt := spec.setupStatement(database); stmt != "" {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create database %s on %s: %w", database, spec.Service, err)
		}
	}
	return nil
}
