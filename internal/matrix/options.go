// SPDX-License-Identifier: MPL-2.0

package matrix

import (
	"errors"
	"fmt"
	"slices"
)

const (
	// DefaultRuntime is the runtime whose integration tags carry no suffix.
	// Changing it renames every integration tag, so treat it as part of the
	// command-line contract.
	DefaultRuntime = "async-std"

	// DefaultTLS is the TLS backend whose integration tags carry no suffix.
	DefaultTLS = "native-tls"

	// DefaultBuildTool is the executable every target invokes.
	DefaultBuildTool = "cargo"

	// SSLDatabaseURLArgs is appended to the postgres URL for the "+SSL" variant.
	SSLDatabaseURLArgs = "sslmode=verify-ca&sslrootcert=.%2Ftests%2Fcerts%2Fca.crt"
)

// ErrInvalidOptions is the sentinel error wrapped by InvalidOptionsError.
var ErrInvalidOptions = errors.New("invalid matrix options")

type (
	// Options are the ordered axes the matrix is generated from.
	// Order matters for display and execution only.
	Options struct {
		BuildTool      string
		Runtimes       []string
		TLSBackends    []string
		DefaultRuntime string
		DefaultTLS     string

		PostgresVersions []string
		MySQLVersions    []string
		MariaDBVersions  []string
		MSSQLVersions    []string
	}

	// InvalidOptionsError collects every problem found in an Options value.
	InvalidOptionsError struct {
		Problems []string
	}
)

// Error implements the error interface.
func (e *InvalidOptionsError) Error() string {
	return fmt.Sprintf("invalid matrix options: %v", e.Problems)
}

// Unwrap returns ErrInvalidOptions for errors.Is.
func (e *InvalidOptionsError) Unwrap() error { return ErrInvalidOptions }

// DefaultOptions returns the axes the driver ships with.
func DefaultOptions() Options {
	return Options{
		BuildTool:        DefaultBuildTool,
		Runtimes:         []string{"async-std", "tokio", "actix"},
		TLSBackends:      []string{"native-tls", "rustls"},
		DefaultRuntime:   DefaultRuntime,
		DefaultTLS:       DefaultTLS,
		PostgresVersions: []string{"14", "13", "12", "11", "10"},
		MySQLVersions:    []string{"8", "5_7"},
		MariaDBVersions:  []string{"10_6", "10_5", "10_4", "10_3", "10_2"},
		MSSQLVersions:    []string{"2019", "2017"},
	}
}

// Validate checks the invariants generation relies on: a build tool, non-empty
// runtime and TLS axes containing their defaults, and no repeated value on any
// axis (a repeat would produce a repeated tag).
func (o Options) Validate() error {
	var problems []string

	if o.BuildTool == "" {
		problems = append(problems, "build tool is empty")
	}
	if len(o.Runtimes) == 0 {
		problems = append(problems, "no runtimes")
	} else if !slices.Contains(o.Runtimes, o.DefaultRuntime) {
		problems = append(problems, fmt.Sprintf("default runtime %q not in runtimes", o.DefaultRuntime))
	}
	if len(o.TLSBackends) == 0 {
		problems = append(problems, "no TLS backends")
	} else if !slices.Contains(o.TLSBackends, o.DefaultTLS) {
		problems = append(problems, fmt.Sprintf("default TLS backend %q not in TLS backends", o.DefaultTLS))
	}

	axes := []struct {
		name   string
		values []string
	}{
		{"runtimes", o.Runtimes},
		{"TLS backends", o.TLSBackends},
		{"postgres versions", o.PostgresVersions},
		{"mysql versions", o.MySQLVersions},
		{"mariadb versions", o.MariaDBVersions},
		{"mssql versions", o.MSSQLVersions},
	}
	for _, axis := range axes {
		seen := make(map[string]struct{}, len(axis.values))
		for _, v := range axis.values {
			if v == "" {
				problems = append(problems, fmt.Sprintf("%s: empty value", axis.name))
				continue
			}
			if _, dup := seen[v]; dup {
				problems = append(problems, fmt.Sprintf("%s: %q repeated", axis.name, v))
			}
			seen[v] = struct{}{}
		}
	}

	if len(problems) > 0 {
		return &InvalidOptionsError{Problems: problems}
	}
	return nil
}

// integrationTag applies the naming rule: the base name, then the runtime when
// it is not the default, then the TLS backend when it is not the default.
func (o Options) integrationTag(base, rt, tls string) string {
	tag := base
	if rt != o.DefaultRuntime {
		tag += "_" + rt
	}
	if tls != o.DefaultTLS {
		tag += "_" + tls
	}
	return tag
}
