// SPDX-License-Identifier: MPL-2.0

// Package platform names the host operating systems and CPU architectures
// that the driver branches on, so runtime.GOOS/GOARCH comparisons do not
// scatter string literals across packages.
package platform
