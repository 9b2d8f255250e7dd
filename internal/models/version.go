package models

import (
	"fmt"
	"strconv"
	"strings"
)

// ChangeType selects which semantic version component a bump increments.
type ChangeType string

const (
	ChangeMajor ChangeType = "major"
	ChangeMinor ChangeType = "minor"
	ChangePatch ChangeType = "patch"
)

// SemVer is a major.minor.patch triple.
type SemVer struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

// InitialVersion is the version of a fresh ledger.
var InitialVersion = SemVer{Major: 1}

func (v SemVer) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or 1 ordering v against o lexicographically.
func (v SemVer) Compare(o SemVer) int {
	switch {
	case v.Major != o.Major:
		return cmpInt(v.Major, o.Major)
	case v.Minor != o.Minor:
		return cmpInt(v.Minor, o.Minor)
	default:
		return cmpInt(v.Patch, o.Patch)
	}
}

// Next returns the version produced by a bump of the given type.
// Anything other than major or minor is treated as a patch.
func (v SemVer) Next(ct ChangeType) SemVer {
	switch ct {
	case ChangeMajor:
		return SemVer{Major: v.Major + 1}
	case ChangeMinor:
		return SemVer{Major: v.Major, Minor: v.Minor + 1}
	default:
		return SemVer{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
	}
}

// ParseSemVer parses "1.2.3". Missing trailing components ("1.0") are zero.
func ParseSemVer(s string) (SemVer, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	if s == "" {
		return SemVer{}, fmt.Errorf("semver: empty version")
	}
	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return SemVer{}, fmt.Errorf("semver: too many components in %q", s)
	}
	var out [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return SemVer{}, fmt.Errorf("semver: invalid component %q in %q", p, s)
		}
		out[i] = n
	}
	return SemVer{Major: out[0], Minor: out[1], Patch: out[2]}, nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Entry is one immutable record of a version transition.
type Entry struct {
	Version         string     `json:"version" yaml:"version"`
	PreviousVersion string     `json:"previousVersion" yaml:"previousVersion"`
	Author          string     `json:"author" yaml:"author"`
	Date            string     `json:"date" yaml:"date"`
	Timestamp       string     `json:"timestamp" yaml:"timestamp"`
	Comment         string     `json:"comment" yaml:"comment"`
	ChangeType      ChangeType `json:"changeType" yaml:"changeType"`
}
