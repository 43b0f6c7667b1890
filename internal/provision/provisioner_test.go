// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"testing"
)

// recordingProvisioner returns "{name}://{service}" and records every call.
type recordingProvisioner struct {
	name  string
	calls []string
	err   error
}

func (r *recordingProvisioner) Provision(_ context.Context, service, _, _ string) (string, error) {
	r.calls = append(r.calls, service)
	if r.err != nil {
		return "", r.err
	}
	return r.name + "://" + service, nil
}

func TestMemo_ProvisionsEachServiceOnce(t *testing.T) {
	t.Parallel()

	inner := &recordingProvisioner{name: "fake"}
	memo := NewMemo(inner)
	ctx := context.Background()

	for _, service := range []string{"postgres_14", "postgres_14", "mysql_8", "postgres_14"} {
		url, err := memo.Provision(ctx, service, "sqlx", "/tests")
		if err != nil {
			t.Fatalf("Provision(%s) error = %v", service, err)
		}
		if url != "fake://"+service {
			t.Errorf("Provision(%s) = %q", service, url)
		}
	}

	if len(inner.calls) != 2 {
		t.Errorf("inner called %d times (%v), want 2", len(inner.calls), inner.calls)
	}
}

func TestMemo_DoesNotCacheFailures(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	inner := &recordingProvisioner{name: "fake", err: boom}
	memo := NewMemo(inner)

	for range 2 {
		if _, err := memo.Provision(context.Background(), "mysql_8", "sqlx", "/tests"); !errors.Is(err, boom) {
			t.Fatalf("Provision() error = %v, want boom", err)
		}
	}
	if len(inner.calls) != 2 {
		t.Errorf("inner called %d times, want 2", len(inner.calls))
	}
}

func TestRouter(t *testing.T) {
	t.Parallel()

	sqlite := &recordingProvisioner{name: "sqlite"}
	docker := &recordingProvisioner{name: "docker"}
	router := NewRouter(sqlite, docker)
	ctx := context.Background()

	if url, _ := router.Provision(ctx, ServiceSQLite, "sqlite/sqlite.db", "/tests"); url != "sqlite://sqlite" {
		t.Errorf("sqlite routed to %q", url)
	}
	if url, _ := router.Provision(ctx, "mssql_2019", "sqlx", "/tests"); url != "docker://mssql_2019" {
		t.Errorf("mssql routed to %q", url)
	}
	if len(sqlite.calls) != 1 || len(docker.calls) != 1 {
		t.Errorf("calls: sqlite=%v docker=%v", sqlite.calls, docker.calls)
	}
}
