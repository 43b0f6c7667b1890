// SPDX-License-Identifier: MPL-2.0

// Package provision makes database services available to the integration
// targets and hands back a connection URL for each.
//
// The entry point is the Provisioner interface. Router dispatches the sqlite
// service to SQLiteProvisioner and every other service to DockerProvisioner,
// and Memo caches the resulting URL so each service is prepared once per run:
//
//	p := provision.NewMemo(provision.NewRouter(
//		provision.NewSQLiteProvisioner(),
//		provision.NewDockerProvisioner(cfg),
//	))
//	url, err := p.Provision(ctx, "postgres_14", "sqlx", testsDir)
//
// Docker services run in long-lived containers named "matrixrun-{service}".
// A later run reuses a running container or restarts a stopped one.
package provision
