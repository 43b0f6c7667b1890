// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

func TestFormatError(t *testing.T) {
	t.Parallel()

	t.Run("nil error returns nil", func(t *testing.T) {
		t.Parallel()

		if err := FormatError(nil, "config.cue"); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("non-CUE error is wrapped with filepath", func(t *testing.T) {
		t.Parallel()

		original := errors.New("some error")
		err := FormatError(original, "config.cue")
		if !errors.Is(err, original) {
			t.Errorf("error should wrap the original, got: %v", err)
		}
		if !strings.HasPrefix(err.Error(), "config.cue: ") {
			t.Errorf("error should start with the file path, got: %v", err)
		}
	})
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path []string
		want string
	}{
		{"empty", nil, ""},
		{"single", []string{"build_tool"}, "build_tool"},
		{"nested", []string{"provision", "ready_timeout"}, "provision.ready_timeout"},
		{"index", []string{"targets", "0", "name"}, "targets[0].name"},
		{"leading number is a field", []string{"0", "name"}, "0.name"},
		{"mixed field", []string{"images", "postgres_14"}, "images.postgres_14"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := formatPath(tt.path); got != tt.want {
				t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"empty", 0, false},
		{"within limit", 11, false},
		{"at limit", 100, false},
		{"over limit", 101, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := CheckFileSize(make([]byte, tt.size), 100, "config.cue")
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckFileSize() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), "101 bytes exceeds maximum 100 bytes") {
				t.Errorf("unexpected message: %v", err)
			}
		})
	}
}
