// SPDX-License-Identifier: MPL-2.0

package platform

import "runtime"

// OS name constants for runtime.GOOS comparisons.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

// Architecture name constants for runtime.GOARCH comparisons.
const (
	AMD64 = "amd64"
	ARM64 = "arm64"
)

// Host describes an operating system and CPU architecture pair.
type Host struct {
	OS   string
	Arch string
}

// Current returns the host the binary is running on.
func Current() Host {
	return Host{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

// String renders the host as "os/arch".
func (h Host) String() string {
	return h.OS + "/" + h.Arch
}
