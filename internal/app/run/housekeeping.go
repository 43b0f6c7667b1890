// SPDX-License-Identifier: MPL-2.0

package run

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ProfileDataDir is the build output directory, relative to the repository
// root, that may hold stale coverage profile data.
var ProfileDataDir = filepath.Join("tests", "target")

// CleanProfileData removes every "*.gc*" file (gcda, gcno) below
// {repoRoot}/tests/target. Leftover profile data from an earlier build makes
// instrumented test binaries fail in confusing ways. A missing directory is
// not an error. It returns the number of files removed.
func CleanProfileData(repoRoot string) (int, error) {
	root := filepath.Join(repoRoot, ProfileDataDir)
	removed := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || !isProfileData(d.Name()) {
			return nil
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", path, err)
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("cleaning profile data: %w", err)
	}

	if removed > 0 {
		slog.Debug("removed stale profile data", "dir", root, "files", removed)
	}
	return removed, nil
}

// isProfileData matches the glob "*.gc*" on the final extension.
func isProfileData(name string) bool {
	return strings.HasPrefix(filepath.Ext(name), ".gc")
}

// DetectRepoRoot returns the directory targets run from. Walking up from dir,
// the first directory named "tests" yields its parent, and the first directory
// holding both a "tests" directory and a Cargo.toml is returned itself. When
// nothing matches, the absolute form of dir is returned.
func DetectRepoRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}

	for cur := abs; ; {
		if filepath.Base(cur) == "tests" {
			return filepath.Dir(cur), nil
		}
		if isDir(filepath.Join(cur, "tests")) && isFile(filepath.Join(cur, "Cargo.toml")) {
			return cur, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs, nil
		}
		cur = parent
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
