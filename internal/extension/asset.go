// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"strings"

	"github.com/matrixrun/matrixrun/pkg/platform"
)

// DefaultBaseURL is the release directory the extension binaries are fetched from.
const DefaultBaseURL = "https://github.com/nalgeon/sqlean/releases/download/0.15.2"

// libraryName is the extension's logical name, shared by every platform asset.
const libraryName = "ipaddr"

// Asset is the remote and local naming of the extension for one platform.
type Asset struct {
	// URL is the download location.
	URL string
	// File is the local file name inside the cache directory.
	File string
}

// Name returns the logical extension name: the file name up to its first dot.
func (a Asset) Name() string {
	name, _, _ := strings.Cut(a.File, ".")
	return name
}

// Resolve maps a host to its extension asset under baseURL. Hosts without a
// published asset report false; that is not an error.
func Resolve(baseURL string, host platform.Host) (Asset, bool) {
	base := strings.TrimRight(baseURL, "/")

	switch host.OS {
	case platform.Darwin:
		dylib := libraryName + ".dylib"
		if host.Arch == platform.ARM64 {
			return Asset{URL: base + "/" + libraryName + ".arm64.dylib", File: dylib}, true
		}
		return Asset{URL: base + "/" + dylib, File: dylib}, true
	case platform.Linux:
		so := libraryName + ".so"
		return Asset{URL: base + "/" + so, File: so}, true
	default:
		return Asset{}, false
	}
}
