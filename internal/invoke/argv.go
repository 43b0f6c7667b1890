// SPDX-License-Identifier: MPL-2.0

package invoke

import (
	"maps"
	"slices"
	"strings"
)

// BuildArgv composes the final argument vector: the base command, then
// "--test NAME" when testName is set, then "--" and the trailing arguments
// when there are any, then the target's extra args, but only when testName
// is set. No separator is emitted before the extra args.
func BuildArgv(command []string, testName string, trailing, extra []string) []string {
	argv := slices.Clone(command)
	if testName != "" {
		argv = append(argv, "--test", testName)
	}
	if len(trailing) > 0 {
		argv = append(argv, "--")
		argv = append(argv, trailing...)
	}
	if testName != "" && len(extra) > 0 {
		argv = append(argv, extra...)
	}
	return argv
}

// ComposeEnv overlays each map onto base, later maps winning, and returns
// "KEY=VALUE" entries. Base entries keep their order; new keys are appended
// in sorted order so the result is deterministic.
func ComposeEnv(base []string, overlays ...map[string]string) []string {
	merged := make(map[string]string)
	for _, overlay := range overlays {
		maps.Copy(merged, overlay)
	}

	out := make([]string, 0, len(base)+len(merged))
	seen := make(map[string]bool, len(merged))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if v, ok := merged[key]; ok {
			if !seen[key] {
				out = append(out, key+"="+v)
				seen[key] = true
			}
			continue
		}
		out = append(out, kv)
	}
	for _, key := range slices.Sorted(maps.Keys(merged)) {
		if !seen[key] {
			out = append(out, key+"="+merged[key])
		}
	}
	return out
}

// appendFlag appends flag to a space-separated flag list.
func appendFlag(existing, flag string) string {
	if strings.TrimSpace(existing) == "" {
		return flag
	}
	return existing + " " + flag
}

// lookupEnv returns the value of key in a "KEY=VALUE" list.
func lookupEnv(environ []string, key string) (string, bool) {
	prefix := key + "="
	for i := len(environ) - 1; i >= 0; i-- {
		if v, ok := strings.CutPrefix(environ[i], prefix); ok {
			return v, true
		}
	}
	return "", false
}

// FormatArgv renders argv for display, quoting arguments that are empty or
// contain whitespace or quotes.
func FormatArgv(argv []string) string {
	parts := make([]string, len(argv))
	for i, arg := range argv {
		if arg == "" || strings.ContainsAny(arg, " \t\n'\"") {
			parts[i] = "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
			continue
		}
		parts[i] = arg
	}
	return strings.Join(parts, " ")
}
