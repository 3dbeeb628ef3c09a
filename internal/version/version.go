package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Result is the outcome of comparing two versions.
type Result int

const (
	Older Result = -1
	Same  Result = 0
	Newer Result = 1
)

func (r Result) String() string {
	switch r {
	case Older:
		return "older"
	case Newer:
		return "newer"
	default:
		return "same"
	}
}

// Version is a parsed dotted-numeric version string such as "1.2.10".
// Segments are compared numerically, never lexically, so 1.10 > 1.2.
type Version struct {
	raw      string
	segments []uint64
}

// Parse converts a version string into a Version. Every dot-separated
// segment must be a base-10 non-negative integer.
func Parse(s string) (Version, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Version{}, fmt.Errorf("VER_PARSE: empty version string")
	}
	parts := strings.Split(trimmed, ".")
	segments := make([]uint64, len(parts))
	for i, part := range parts {
		n, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return Version{}, fmt.Errorf("VER_PARSE: invalid segment %q in version %q", part, s)
		}
		segments[i] = n
	}
	return Version{raw: trimmed, segments: segments}, nil
}

// MustParse is Parse for known-good literals; it panics on error.
// Intended for tests and defaults.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Version) String() string { return v.raw }

// segment returns the i-th segment, padding with zero past the end so
// "1.2" and "1.2.0" compare Same.
func (v Version) segment(i int) uint64 {
	if i >= len(v.segments) {
		return 0
	}
	return v.segments[i]
}

// Compare orders v against other per segment. The shorter version is
// zero-padded on the right before comparison.
func (v Version) Compare(other Version) Result {
	n := len(v.segments)
	if len(other.segments) > n {
		n = len(other.segments)
	}
	for i := 0; i < n; i++ {
		a, b := v.segment(i), other.segment(i)
		switch {
		case a < b:
			return Older
		case a > b:
			return Newer
		}
	}
	return Same
}

// NewerThan reports whether v orders strictly after other.
func (v Version) NewerThan(other Version) bool {
	return v.Compare(other) == Newer
}
