// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Id identifies a catalog entry.
type Id int

const (
	ConfigLoadFailedId Id = iota + 1
	DockerNotAvailableId
	ServiceProvisionFailedId
	UnknownServiceId
	ExtensionDownloadFailedId
	BuildToolNotFoundId
	TargetFailedId
)

type (
	// MarkdownMsg is the markdown body of an issue.
	MarkdownMsg string

	// HttpLink is a documentation URL.
	HttpLink string

	// Issue is a catalog entry: a markdown guide plus related links.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

// Id returns the issue's identifier.
func (i *Issue) Id() Id {
	return i.id
}

// MarkdownMsg returns the raw markdown body.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// DocLinks returns a copy of the documentation links.
func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render renders the guide for a terminal using the glamour style at stylePath
// ("dark", "light", "notty" or a JSON style file).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be read or does not match the schema.

## Things you can try:
- Show where configuration is loaded from:
~~~
$ matrixrun config path
~~~

- Compare your file with the defaults:
~~~
$ matrixrun config dump
~~~

- Durations are strings such as "90s" or "2m"; images are keyed by service:
~~~cue
provision: {
	ready_timeout: "3m"
	images: { postgres_14: "postgres:14-alpine" }
}
~~~`,
	}

	dockerNotAvailableIssue = &Issue{
		id: DockerNotAvailableId,
		mdMsg: `
# Docker is not available!

Integration targets other than sqlite run their database in a container,
and no Docker daemon answered.

## Things you can try:
- Start Docker (or Podman with its Docker-compatible socket)
- Point DOCKER_HOST at the daemon socket
- Run only the targets that need no container:
~~~
$ matrixrun run -t check
$ matrixrun run -t sqlite
~~~`,
	}

	serviceProvisionFailedIssue = &Issue{
		id: ServiceProvisionFailedId,
		mdMsg: `
# A database service could not be started!

The container was created but never accepted connections, or the image
could not be pulled.

## Things you can try:
- Inspect the container logs:
~~~
$ docker logs matrixrun-<service>
~~~

- Remove the container so the next run recreates it:
~~~
$ docker rm -f matrixrun-<service>
~~~

- Give slow engines more time with ` + "`provision.ready_timeout`" + ` in your configuration`,
	}

	unknownServiceIssue = &Issue{
		id: UnknownServiceId,
		mdMsg: `
# Unknown service!

Services are named ` + "`{engine}_{version}`" + ` where engine is one of
postgres, mysql, mariadb or mssql, plus the special ` + "`sqlite`" + ` service.

## Things you can try:
- List the available targets and their services:
~~~
$ matrixrun list
~~~`,
	}

	extensionDownloadFailedIssue = &Issue{
		id: ExtensionDownloadFailedId,
		mdMsg: `
# Failed to download the SQLite extension!

sqlite targets load a small extension that is downloaded once and cached.

## Things you can try:
- Check your network connection or proxy settings
- Download the file manually into ` + "`extension.cache_dir`" + `
- Point ` + "`extension.base_url`" + ` at a mirror`,
		docLinks: []HttpLink{"https://github.com/nalgeon/sqlean/releases"},
	}

	buildToolNotFoundIssue = &Issue{
		id: BuildToolNotFoundId,
		mdMsg: `
# Build tool not found!

Every target runs the configured build tool, and it is not on your PATH.

## Things you can try:
- Install the Rust toolchain:
~~~
$ curl --proto '=https' --tlsv1.2 -sSf https://sh.rustup.rs | sh
~~~

- Or set an absolute path:
~~~cue
build_tool: "/opt/cargo/bin/cargo"
~~~`,
		docLinks: []HttpLink{"https://rustup.rs"},
	}

	targetFailedIssue = &Issue{
		id: TargetFailedId,
		mdMsg: `
# A target failed!

The run stops at the first failing target and exits with its code.

## Things you can try:
- Rerun only that target:
~~~
$ matrixrun run -e <tag>
~~~

- Print the command lines without running anything:
~~~
$ matrixrun run --dry-run -e <tag>
~~~`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():        configLoadFailedIssue,
		dockerNotAvailableIssue.Id():      dockerNotAvailableIssue,
		serviceProvisionFailedIssue.Id():  serviceProvisionFailedIssue,
		unknownServiceIssue.Id():          unknownServiceIssue,
		extensionDownloadFailedIssue.Id(): extensionDownloadFailedIssue,
		buildToolNotFoundIssue.Id():       buildToolNotFoundIssue,
		targetFailedIssue.Id():            targetFailedIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return int(a.id) - int(b.id)
	})
}

// Get returns the entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
