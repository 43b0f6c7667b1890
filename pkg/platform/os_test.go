// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"runtime"
	"testing"
)

func TestCurrent(t *testing.T) {
	t.Parallel()

	h := Current()
	if h.OS != runtime.GOOS || h.Arch != runtime.GOARCH {
		t.Errorf("Current() = %+v, want %s/%s", h, runtime.GOOS, runtime.GOARCH)
	}
}

func TestHostString(t *testing.T) {
	t.Parallel()

	if got := (Host{OS: Darwin, Arch: ARM64}).String(); got != "darwin/arm64" {
		t.Errorf("String() = %q, want %q", got, "darwin/arm64")
	}
}
