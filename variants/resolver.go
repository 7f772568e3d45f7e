package variants

import (
	"fmt"
	"path/filepath"
	"slices"
	"sort"

	"github.com/maruel/natural"
	"go.uber.org/zap"
)

// Variant is a single rendered image file of a particular width.
type Variant struct {
	Width  int
	Marker string // width exactly as it appears in the file name
	Path   string
}

// SourceSet is an ordered list of variants found for one pattern.
type SourceSet []Variant

// Widths returns widths in set order.
func (s SourceSet) Widths() []int {
	widths := make([]int, len(s))
	for i, v := range s {
		widths[i] = v.Width
	}
	return widths
}

// Sorted returns copy of the set ordered by width, stable for equal widths.
func (s SourceSet) Sorted(ascending bool) SourceSet {
	out := slices.Clone(s)
	sort.SliceStable(out, func(i, j int) bool {
		if ascending {
			return out[i].Width < out[j].Width
		}
		return out[i].Width > out[j].Width
	})
	return out
}

// Smallest returns variant with the smallest width, set must not be empty.
func (s SourceSet) Smallest() Variant {
	return slices.MinFunc(s, func(a, b Variant) int { return a.Width - b.Width })
}

// Find returns first variant of requested width.
func (s SourceSet) Find(width int) (Variant, bool) {
	i := slices.IndexFunc(s, func(v Variant) bool { return v.Width == width })
	if i < 0 {
		return Variant{}, false
	}
	return s[i], true
}

// Lister lists files matching glob pattern.
type Lister interface {
	ListFiles(glob string) ([]string, error)
}

// Resolver finds width variants for path patterns.
type Resolver struct {
	files  Lister
	log    *zap.Logger
	verify bool
}

// Option configures Resolver.
type Option func(*Resolver)

// WithVerification makes resolver decode every variant it finds and warn
// when actual image width differs from width in the file name.
func WithVerification(verify bool) Option {
	return func(r *Resolver) {
		r.verify = verify
	}
}

// NewResolver creates resolver listing files with files.
func NewResolver(files Lister, log *zap.Logger, opts ...Option) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Resolver{files: files, log: log.Named("variants")}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns all variants matching filesystem pattern, sorted by width.
// Variants with the same width coming from different files are all kept in
// natural order of their paths.
func (r *Resolver) Resolve(pattern string, ascending bool) (SourceSet, error) {
	// glob returns cleaned paths, so pattern must be clean to match them
	p, err := ParsePattern(filepath.Clean(pattern))
	if err != nil {
		return nil, err
	}

	paths, err := r.files.ListFiles(p.Glob())
	if err != nil {
		return nil, fmt.Errorf("unable to list files for pattern %q: %w", pattern, err)
	}
	// listing order depends on file system, make it predictable
	slices.SortFunc(paths, comparePaths)

	set := make(SourceSet, 0, len(paths))
	for _, path := range paths {
		v, ok := p.Match(path)
		if !ok {
			r.log.Debug("Ignoring file not matching pattern", zap.String("pattern", pattern), zap.String("file", path))
			continue
		}
		set = append(set, v)
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoMatchingVariants, pattern)
	}

	if r.verify {
		r.verifyWidths(set)
	}

	set = set.Sorted(ascending)
	r.log.Debug("Resolved width variants", zap.String("pattern", pattern), zap.Ints("widths", set.Widths()))
	return set, nil
}

func (r *Resolver) verifyWidths(set SourceSet) {
	for _, v := range set {
		actual, err := ProbeWidth(v.Path)
		if err != nil {
			r.log.Debug("Unable to verify image width", zap.String("file", v.Path), zap.Error(err))
			continue
		}
		if actual != v.Width {
			r.log.Warn("Image width differs from width in file name",
				zap.String("file", v.Path), zap.Int("named", v.Width), zap.Int("actual", actual))
		}
	}
}

// comparePaths orders paths naturally ("img-90" before "img-100"), paths
// equal in natural order ("img-0100", "img-100") are ordered lexically.
func comparePaths(a, b string) int {
	switch {
	case natural.Less(a, b):
		return -1
	case natural.Less(b, a):
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
