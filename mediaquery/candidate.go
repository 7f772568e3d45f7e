// Package mediaquery computes CSS media queries selecting the smallest image
// width variant which is still sharp enough for a given slot size, viewport
// width and display pixel density.
package mediaquery

import (
	"math"
	"strconv"
	"strings"

	"respimg/slots"
)

// cssPixelsPerInch is the CSS reference resolution, 1dppx = 96dpi.
const cssPixelsPerInch = 96

// FormatNumber renders number the way CSS expects it: shortest form, no
// trailing zeros, '.' as decimal separator.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Candidate is a single media query condition: displays of at least Density
// with viewport wider than MinWidthExclusive need the image.
type Candidate struct {
	Density           float64
	MinWidthExclusive int
	// Origins lists slot sizes which produced candidate, dominant first.
	Origins []slots.Size
}

// Key identifies media query slot. Densities are compared through their
// text form to avoid float equality problems.
func (c Candidate) Key() string {
	return FormatNumber(c.Density)
}

// CSS renders condition for both legacy (webkit) and standard media features.
func (c Candidate) CSS() string {
	minWidth := "(min-width: " + strconv.Itoa(c.MinWidthExclusive+1) + "px)"
	dpi := math.Round(c.Density*cssPixelsPerInch*100) / 100
	return "(-webkit-min-device-pixel-ratio: " + FormatNumber(c.Density) + ") and " + minWidth +
		", (min-resolution: " + FormatNumber(dpi) + "dpi) and " + minWidth
}

// Trace describes where candidate came from, used for debugging comments.
func (c Candidate) Trace() string {
	origins := make([]string, len(c.Origins))
	for i, o := range c.Origins {
		origins[i] = o.String()
	}
	return c.Key() + "x > " + strconv.Itoa(c.MinWidthExclusive) + "px: " + strings.Join(origins, " | ")
}

// integrate merges other candidate of the same density into c. Condition
// triggering at smaller viewport wins since it covers the wider one.
func (c Candidate) integrate(other Candidate) Candidate {
	winner, loser := c, other
	if other.MinWidthExclusive < c.MinWidthExclusive {
		winner, loser = other, c
	}
	origins := make([]slots.Size, 0, len(winner.Origins)+len(loser.Origins))
	origins = append(origins, winner.Origins...)
	origins = append(origins, loser.Origins...)
	return Candidate{
		Density:           winner.Density,
		MinWidthExclusive: winner.MinWidthExclusive,
		Origins:           origins,
	}
}

// List is a set of candidates unique by density, in insertion order.
type List struct {
	entries []Candidate
}

// Add merges candidates into the list. Candidates of densities already
// present are integrated in place, the rest are put in front of existing
// entries keeping their relative order.
func (l *List) Add(candidates ...Candidate) {
	var fresh []Candidate
	for _, c := range candidates {
		if i := indexOf(l.entries, c.Key()); i >= 0 {
			l.entries[i] = l.entries[i].integrate(c)
			continue
		}
		if i := indexOf(fresh, c.Key()); i >= 0 {
			fresh[i] = fresh[i].integrate(c)
			continue
		}
		fresh = append(fresh, c)
	}
	if len(fresh) > 0 {
		l.entries = append(fresh, l.entries...)
	}
}

func indexOf(entries []Candidate, key string) int {
	for i, e := range entries {
		if e.Key() == key {
			return i
		}
	}
	return -1
}

// Empty reports whether list has no candidates.
func (l *List) Empty() bool {
	return len(l.entries) == 0
}

// Candidates returns candidates in list order.
func (l *List) Candidates() []Candidate {
	return l.entries
}

// CSS renders all candidates as a single media query list (OR).
func (l *List) CSS() string {
	parts := make([]string, len(l.entries))
	for i, c := range l.entries {
		parts[i] = c.CSS()
	}
	return strings.Join(parts, ", ")
}
