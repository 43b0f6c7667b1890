// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver.
)

// SQLiteProvisioner prepares a file-backed database under the work directory.
type SQLiteProvisioner struct{}

// NewSQLiteProvisioner creates a SQLiteProvisioner.
func NewSQLiteProvisioner() *SQLiteProvisioner {
	return &SQLiteProvisioner{}
}

// Provision creates the database file's directory, opens the file once to
// prove it is usable and returns "sqlite://{workDir}/{database}".
func (s *SQLiteProvisioner) Provision(ctx context.Context, service, database, workDir string) (string, error) {
	path := filepath.Join(workDir, database)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create sqlite directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return "", fmt.Errorf("open sqlite database %s: %w", path, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return "", fmt.Errorf("ping sqlite database %s: %w", path, err)
	}

	return "sqlite://" + filepath.ToSlash(path), nil
}
