package mediaquery

import (
	"math"
	"slices"

	"respimg/slots"
)

// DefaultDensities are device pixel ratios considered for viewport relative slots.
var DefaultDensities = []float64{1, 1.5, 2, 3, 4}

// UnconditionalQuery always matches, used for the smallest variant.
const UnconditionalQuery = "(min-width: 0px)"

// Synthesizer produces media queries for a fixed set of display densities.
type Synthesizer struct {
	densities []float64
}

// New returns synthesizer for ascending densities, DefaultDensities are
// used when none are given.
func New(densities []float64) *Synthesizer {
	if len(densities) == 0 {
		densities = DefaultDensities
	}
	return &Synthesizer{densities: slices.Clone(densities)}
}

// Densities returns densities synthesizer works with.
func (s *Synthesizer) Densities() []float64 {
	return slices.Clone(s.densities)
}

// Candidates returns conditions under which image of widthToExceed pixels is
// no longer sharp enough for slot size, so that the next larger one is needed.
func (s *Synthesizer) Candidates(size slots.Size, widthToExceed int) []Candidate {
	if !size.IsRelative() {
		// slot width does not depend on viewport, only density matters
		density := math.Floor(float64(widthToExceed)/float64(size.WidthPx())*100) / 100
		if density < 1 {
			return nil
		}
		return []Candidate{{
			Density:           density,
			MinWidthExclusive: size.MinViewportWidth(),
			Origins:           []slots.Size{size},
		}}
	}

	var out []Candidate
	for _, d := range s.densities {
		imageWidthPx := float64(widthToExceed) / d
		viewportWidthToExceed := int(math.Floor(imageWidthPx / size.Factor()))
		if viewportWidthToExceed < size.MinViewportWidth() {
			continue
		}
		out = append(out, Candidate{
			Density:           d,
			MinWidthExclusive: viewportWidthToExceed,
			Origins:           []slots.Size{size},
		})
	}
	return out
}

// QueriesFor returns merged conditions of all slot sizes under which image
// of widthToExceed pixels is insufficient.
func (s *Synthesizer) QueriesFor(list slots.List, widthToExceed int) *List {
	ql := &List{}
	for _, size := range list {
		ql.Add(s.Candidates(size, widthToExceed)...)
	}
	return ql
}

// Block selects image of Width when Query matches.
type Block struct {
	Width      int
	Query      string
	Candidates []Candidate // nil for unconditional block
}

// BackgroundRules returns blocks selecting among ascending widths. First
// block unconditionally selects the smallest width, every next one selects
// larger width once the previous width becomes insufficient. Widths which
// can never be required get no block. Blocks must be emitted in returned
// order: when several match, the last one (largest image) has to win.
func (s *Synthesizer) BackgroundRules(ascending []int, list slots.List) []Block {
	if len(ascending) == 0 {
		return nil
	}
	blocks := []Block{{Width: ascending[0], Query: UnconditionalQuery}}
	for i := 1; i < len(ascending); i++ {
		ql := s.QueriesFor(list, ascending[i-1])
		if ql.Empty() {
			continue
		}
		blocks = append(blocks, Block{Width: ascending[i], Query: ql.CSS(), Candidates: ql.Candidates()})
	}
	return blocks
}
