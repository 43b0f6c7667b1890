// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"sync"
)

type (
	// Provisioner makes a service available and returns its connection URL.
	// Provision must be idempotent per service within one run.
	Provisioner interface {
		// Provision prepares service with the given database and returns a
		// URL the build tool's tests can connect to. workDir is the directory
		// relative paths (sqlite files, certificates) resolve against.
		Provision(ctx context.Context, service, database, workDir string) (string, error)
	}

	// Memo caches the URL of each successfully provisioned service for the
	// lifetime of the value.
	Memo struct {
		next Provisioner

		mu   sync.Mutex
		urls map[string]string
	}

	// Router sends the sqlite service to one provisioner and every other
	// service to another.
	Router struct {
		sqlite Provisioner
		docker Provisioner
	}
)

// NewMemo wraps next with a per-service cache.
func NewMemo(next Provisioner) *Memo {
	return &Memo{next: next, urls: make(map[string]string)}
}

// Provision returns the cached URL for service, or provisions it once.
// Failures are not cached.
func (m *Memo) Provision(ctx context.Context, service, database, workDir string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if url, ok := m.urls[service]; ok {
		return url, nil
	}

	url, err := m.next.Provision(ctx, service, database, workDir)
	if err != nil {
		return "", err
	}
	m.urls[service] = url
	return url, nil
}

// NewRouter creates a Router.
func NewRouter(sqlite, docker Provisioner) *Router {
	return &Router{sqlite: sqlite, docker: docker}
}

// Provision dispatches on the service name.
func (r *Router) Provision(ctx context.Context, service, database, workDir string) (string, error) {
	if service == ServiceSQLite {
		return r.sqlite.Provision(ctx, service, database, workDir)
	}
	return r.docker.Provision(ctx, service, database, workDir)
}
