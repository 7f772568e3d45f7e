// Package variants discovers pre-rendered width variants of an image.
//
// Variants are found through a path pattern which contains a single '*'
// standing for the width marker, e.g. "images/hero-*.jpg" matches
// "images/hero-320.jpg" and "images/hero-1280.jpg".
package variants

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Wildcard is the width placeholder in path patterns.
const Wildcard = "*"

var (
	ErrInvalidPathPattern = errors.New("invalid path pattern")
	ErrNoMatchingVariants = errors.New("no matching width variants")
)

// Pattern is a path pattern split at its wildcard.
type Pattern struct {
	Prefix string
	Suffix string
}

// ParsePattern splits pattern at the only wildcard it must contain.
func ParsePattern(pattern string) (Pattern, error) {
	if n := strings.Count(pattern, Wildcard); n != 1 {
		return Pattern{}, fmt.Errorf("%w: %q has %d wildcards, exactly one '%s' standing for image width is required",
			ErrInvalidPathPattern, pattern, n, Wildcard)
	}
	prefix, suffix, _ := strings.Cut(pattern, Wildcard)
	return Pattern{Prefix: prefix, Suffix: suffix}, nil
}

// String returns pattern in its original form.
func (p Pattern) String() string {
	return p.Prefix + Wildcard + p.Suffix
}

// Glob returns pattern suitable for filepath.Glob, meta characters outside
// of wildcard position are escaped.
func (p Pattern) Glob() string {
	return escapeGlob(p.Prefix) + Wildcard + escapeGlob(p.Suffix)
}

// Expand substitutes width marker for the wildcard.
func (p Pattern) Expand(marker string) string {
	return p.Prefix + marker + p.Suffix
}

// Match returns variant designated by path. Path matches when it starts with
// prefix, ends with suffix and everything in between is a non empty run of
// ASCII digits denoting positive number.
func (p Pattern) Match(path string) (Variant, bool) {
	if len(path) <= len(p.Prefix)+len(p.Suffix) {
		return Variant{}, false
	}
	if !strings.HasPrefix(path, p.Prefix) || !strings.HasSuffix(path, p.Suffix) {
		return Variant{}, false
	}
	marker := path[len(p.Prefix) : len(path)-len(p.Suffix)]
	for i := 0; i < len(marker); i++ {
		if marker[i] < '0' || marker[i] > '9' {
			return Variant{}, false
		}
	}
	width, err := strconv.Atoi(marker)
	if err != nil || width <= 0 {
		return Variant{}, false
	}
	return Variant{Width: width, Marker: marker, Path: path}, true
}

func escapeGlob(s string) string {
	if !strings.ContainsAny(s, `*?[\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '*', '?', '[':
			b.WriteRune('\\')
		case '\\':
			// backslash is path separator on Windows and cannot be escaped there
			if filepath.Separator == '\\' {
				b.WriteRune(r)
				continue
			}
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
