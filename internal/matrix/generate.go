// SPDX-License-Identifier: MPL-2.0

package matrix

import (
	"fmt"
	"strings"
)

// Command templates. Each is formatted and then split on whitespace, so no
// placeholder may expand to a value containing spaces.
const (
	checkTemplate       = "%s c --no-default-features --features all-databases,all-types,offline,macros,runtime-%s-%s"
	unitTemplate        = "%s test --no-default-features --manifest-path sqlx-core/Cargo.toml --features all-databases,all-types,runtime-%s-%s"
	integrationTemplate = "%s test --no-default-features --features macros,offline,any,all-types,%s,runtime-%s-%s"
)

// ServiceSQLite is the only service family that uses the platform extension.
const ServiceSQLite = "sqlite"

// Generate enumerates every target, in execution order: check and unit targets
// for each runtime and TLS backend, then the integration targets for each
// runtime, TLS backend and database service.
func Generate(opts Options) ([]Target, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var targets []Target

	for _, rt := range opts.Runtimes {
		for _, tls := range opts.TLSBackends {
			targets = append(targets, Target{
				Tag:     fmt.Sprintf("check_%s_%s", rt, tls),
				Group:   GroupCheck,
				Command: tokenize(checkTemplate, opts.BuildTool, rt, tls),
				Comment: "check with " + rt,
			})
		}
	}

	for _, rt := range opts.Runtimes {
		for _, tls := range opts.TLSBackends {
			targets = append(targets, Target{
				Tag:     fmt.Sprintf("unit_%s_%s", rt, tls),
				Group:   GroupUnit,
				Command: tokenize(unitTemplate, opts.BuildTool, rt, tls),
				Comment: "unit test core",
			})
		}
	}

	for _, rt := range opts.Runtimes {
		for _, tls := range opts.TLSBackends {
			targets = append(targets, opts.integrationTargets(rt, tls)...)
		}
	}

	if err := ValidateUnique(targets); err != nil {
		return nil, err
	}
	return targets, nil
}

// integrationTargets returns the database targets for one runtime/TLS pair.
func (o Options) integrationTargets(rt, tls string) []Target {
	integration := func(feature, base, service, comment string) Target {
		return Target{
			Tag:     o.integrationTag(base, rt, tls),
			Group:   GroupIntegration,
			Command: tokenize(integrationTemplate, o.BuildTool, feature, rt, tls),
			Comment: comment,
			Service: service,
		}
	}

	out := []Target{integration("sqlite", "sqlite", ServiceSQLite, "test sqlite")}

	for _, v := range o.PostgresVersions {
		service := "postgres_" + v
		out = append(out, integration("postgres", service, service, "test postgres "+v))
	}

	// The SSL variants share the plain variants' services and differ only in
	// tag and connection arguments.
	for _, v := range o.PostgresVersions {
		service := "postgres_" + v
		t := integration("postgres", service+"_ssl", service, "test postgres "+v+" ssl")
		t.DatabaseURLArgs = SSLDatabaseURLArgs
		out = append(out, t)
	}

	for _, v := range o.MySQLVersions {
		service := "mysql_" + v
		out = append(out, integration("mysql", service, service, "test mysql "+v))
	}

	for _, v := range o.MariaDBVersions {
		service := "mariadb_" + v
		out = append(out, integration("mysql", service, service, "test mariadb "+v))
	}

	for _, v := range o.MSSQLVersions {
		service := "mssql_" + v
		out = append(out, integration("mssql", service, service, "test mssql "+v))
	}

	return out
}

func tokenize(template string, args ...any) []string {
	return strings.Fields(fmt.Sprintf(template, args...))
}
