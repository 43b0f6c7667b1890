// SPDX-License-Identifier: MPL-2.0

package matrix

import "strings"

const (
	// Skip means the target is neither run nor listed.
	Skip Decision = iota
	// Run means the target is handed to the invoker.
	Run
	// List means the target's tag is printed and nothing else happens.
	List
)

const (
	// ModeNone runs every target.
	ModeNone Mode = iota
	// ModePrefix runs targets whose tag starts with the prefix.
	ModePrefix
	// ModeExact runs the target whose tag equals the requested value.
	ModeExact
	// ModeList prints every tag and runs nothing.
	ModeList
)

type (
	// Decision is the outcome of filtering one target.
	Decision int

	// Mode summarizes a Selection for display.
	Mode int

	// Selection holds the target filters from the command line.
	// The zero value selects every target.
	Selection struct {
		ListOnly bool
		Prefix   string
		Exact    string
	}
)

// Decide returns the decision for a tag. List mode wins over every other
// filter. Prefix matching is a plain string prefix test and is not aware of
// tag segments: "postgres_1" matches "postgres_14". When both Prefix and Exact
// are set, a tag must satisfy both.
func (s Selection) Decide(tag string) Decision {
	if s.ListOnly {
		return List
	}
	if s.Prefix != "" && !strings.HasPrefix(tag, s.Prefix) {
		return Skip
	}
	if s.Exact != "" && tag != s.Exact {
		return Skip
	}
	return Run
}

// Mode reports the most specific filter in effect.
func (s Selection) Mode() Mode {
	switch {
	case s.ListOnly:
		return ModeList
	case s.Exact != "":
		return ModeExact
	case s.Prefix != "":
		return ModePrefix
	default:
		return ModeNone
	}
}

// String returns the decision name.
func (d Decision) String() string {
	switch d {
	case Skip:
		return "skip"
	case Run:
		return "run"
	case List:
		return "list"
	}
	return "unknown"
}

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "all"
	case ModePrefix:
		return "prefix"
	case ModeExact:
		return "exact"
	case ModeList:
		return "list"
	}
	return "unknown"
}
