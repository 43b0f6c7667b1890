// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/docker/go-connections/nat"
	"github.com/go-sql-driver/mysql"
)

// ServiceSQLite is the file-backed service handled without a container.
const ServiceSQLite = "sqlite"

const (
	enginePostgres = "postgres"
	engineMySQL    = "mysql"
	engineMariaDB  = "mariadb"
	engineMSSQL    = "mssql"
)

// ErrUnknownService is the sentinel error wrapped by UnknownServiceError.
var ErrUnknownService = errors.New("unknown service")

type (
	// UnknownServiceError is returned for a service name the catalog cannot
	// map to an engine and version.
	UnknownServiceError struct {
		Service string
	}

	// Spec describes how to run one containerized service.
	Spec struct {
		// Service is the logical name, e.g. "mariadb_10_6".
		Service string
		// Engine is the database family: postgres, mysql, mariadb or mssql.
		Engine string
		// Version is the service version with underscores, e.g. "10_6".
		Version string
		// Image is the container image reference.
		Image string
		// Port is the container port the engine listens on.
		Port nat.Port
		// Env is the container environment, without the database name.
		Env []string
		// Cmd overrides the image command when non-empty.
		Cmd []string

		password string
	}
)

// Error implements the error interface.
func (e *UnknownServiceError) Error() string {
	return fmt.Sprintf("unknown service %q", e.Service)
}

// Unwrap returns ErrUnknownService for errors.Is.
func (e *UnknownServiceError) Unwrap() error { return ErrUnknownService }

// Lookup resolves a service name of the form "{engine}_{version}" into a
// Spec. Underscores in the version become dots in mysql and mariadb image
// tags ("mysql_5_7" runs "mysql:5.7").
func Lookup(service string, cfg *Config) (Spec, error) {
	engine, version, ok := strings.Cut(service, "_")
	if !ok || version == "" {
		return Spec{}, &UnknownServiceError{Service: service}
	}

	spec := Spec{Service: service, Engine: engine, Version: version, password: cfg.Password}

	switch engine {
	case enginePostgres:
		spec.Image = "postgres:" + version
		spec.Port = "5432/tcp"
		spec.Env = []string{
			"POSTGRES_PASSWORD=" + cfg.Password,
		}
	case engineMySQL, engineMariaDB:
		spec.Image = engine + ":" + strings.ReplaceAll(version, "_", ".")
		spec.Port = "3306/tcp"
		spec.Env = []string{
			"MYSQL_ROOT_PASSWORD=" + cfg.Password,
		}
	case engineMSSQL:
		spec.Image = "mcr.microsoft.com/mssql/server:" + version + "-latest"
		spec.Port = "1433/tcp"
		spec.Env = []string{
			"ACCEPT_EULA=Y",
			"SA_PASSWORD=" + cfg.Password,
			"MSSQL_SA_PASSWORD=" + cfg.Password,
		}
	default:
		return Spec{}, &UnknownServiceError{Service: service}
	}

	if override, ok := cfg.Images[service]; ok && override != "" {
		spec.Image = override
	}
	return spec, nil
}

// ContainerEnv returns Env plus the variable that makes the image create
// database on first start.
func (s Spec) ContainerEnv(database string) []string {
	env := slices.Clone(s.Env)
	switch s.Engine {
	case enginePostgres:
		env = append(env, "POSTGRES_DB="+database)
	case engineMySQL, engineMariaDB:
		env = append(env, "MYSQL_DATABASE="+database)
	}
	return env
}

// URL is the connection URL handed to the build tool.
func (s Spec) URL(hostPort, database string) string {
	var scheme, user string
	switch s.Engine {
	case enginePostgres:
		scheme, user = "postgres", "postgres"
	case engineMySQL, engineMariaDB:
		scheme, user = "mysql", "root"
	case engineMSSQL:
		scheme, user = "mssql", "sa"
	}
	u := url.URL{
		Scheme: scheme,
		User:   url.UserPassword(user, s.password),
		Host:   "localhost:" + hostPort,
		Path:   "/" + database,
	}
	return u.String()
}

// driver returns the database/sql driver name and DSN used to probe readiness.
// The probe connects to the server's default database; the target database
// may not exist yet.
func (s Spec) driver(hostPort string) (name, dsn string) {
	addr := "localhost:" + hostPort
	switch s.Engine {
	case enginePostgres:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword("postgres", s.password),
			Host:     addr,
			Path:     "/postgres",
			RawQuery: "sslmode=disable",
		}
		return "pgx", u.String()
	case engineMySQL, engineMariaDB:
		c := mysql.NewConfig()
		c.User = "root"
		c.Passwd = s.password
		c.Net = "tcp"
		c.Addr = addr
		return "mysql", c.FormatDSN()
	case engineMSSQL:
		u := url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword("sa", s.password),
			Host:     addr,
			RawQuery: "database=master",
		}
		return "sqlserver", u.String()
	}
	return "", ""
}

// setupStatement returns SQL run once the service is ready so the target
// database exists even in a reused container. Postgres relies on
// POSTGRES_DB alone, since CREATE DATABASE cannot be made conditional there.
func (s Spec) setupStatement(database string) string {
	switch s.Engine {
	case engineMySQL, engineMariaDB:
		return "CREATE DATABASE IF NOT EXISTS `" + strings.ReplaceAll(database, "`", "``") + "`"
	case engineMSSQL:
		quoted := strings.ReplaceAll(database, "'", "''")
		return "IF DB_ID('" + quoted + "') IS NULL CREATE DATABASE [" + strings.ReplaceAll(database, "]", "]]") + "]"
	}
	return ""
}
