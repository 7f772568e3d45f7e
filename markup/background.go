package markup

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"respimg/css"
	"respimg/mediaquery"
	"respimg/slots"
	"respimg/variants"
)

const backgroundImage = "background-image"

// BackgroundOptions describe background image class to build.
type BackgroundOptions struct {
	Image Image
	// Index makes class name unique within rendered page.
	Index int
	// BaseWidth selects variant for browsers matching no media query, 0
	// selects the smallest one.
	BaseWidth int
	// Sizes describes slot element occupies, nil means full viewport width.
	Sizes slots.List
	// Properties are additional background-* declarations for the class.
	Properties map[string]string
}

// ClassName returns background image class name for index.
func (b *Builder) ClassName(index int) string {
	return b.classPrefix + "-" + strconv.Itoa(index)
}

// Background returns class name and stylesheet selecting the smallest
// sufficiently sharp variant for every viewport width and display density.
// For every alternative format the same rules are repeated under
// "html.<format>" ancestor, so page having this class on its root element
// gets images in that format. Formats are written in reverse order since
// the last matching rule wins.
func (b *Builder) Background(opts BackgroundOptions) (string, *css.Stylesheet, error) {
	img := opts.Image
	if len(img.Variants) == 0 {
		return "", nil, variants.ErrNoMatchingVariants
	}
	if err := validateProperties(opts.Properties); err != nil {
		return "", nil, err
	}
	sizes := opts.Sizes
	if len(sizes) == 0 {
		sizes = slots.Default()
	}

	asc := img.Variants.Sorted(true)
	baseWidth := opts.BaseWidth
	if baseWidth <= 0 {
		baseWidth = asc[0].Width
	}
	blocks := b.synth.BackgroundRules(asc.Widths(), sizes)

	class := b.ClassName(opts.Index)
	sheet := &css.Stylesheet{}
	if b.debug {
		sheet.AddComment(fmt.Sprintf("%s: widths %s, sizes %s", class, joinInts(asc.Widths()), sizes))
	}

	b.appendRules(sheet, class, "", img.urlFor, baseWidth, blocks, opts.Properties)
	for _, format := range slices.Backward(b.formats) {
		formatURL := func(width int) string {
			return AlternativeFormatURL(img.urlFor(width), format)
		}
		b.appendRules(sheet, class, "html."+format, formatURL, baseWidth, blocks, nil)
	}

	b.log.Debug("Background image class built",
		zap.String("class", class), zap.Ints("widths", asc.Widths()), zap.Int("blocks", len(blocks)))
	return class, sheet, nil
}

func (b *Builder) appendRules(sheet *css.Stylesheet, class, ancestor string, urlFor func(int) string, baseWidth int, blocks []mediaquery.Block, props map[string]string) {
	selector := css.ClassSelector(ancestor, class)

	base := make(map[string]string, len(props)+1)
	maps.Copy(base, props)
	base[backgroundImage] = css.URL(urlFor(baseWidth))
	sheet.AddRule(selector, base)

	for _, block := range blocks {
		mb := css.MediaBlock{
			Query: block.Query,
			Rules: []css.Rule{{
				Selector:   selector,
				Properties: map[string]string{backgroundImage: css.URL(urlFor(block.Width))},
			}},
		}
		if b.debug {
			if len(block.Candidates) == 0 {
				mb.Comments = append(mb.Comments, strconv.Itoa(block.Width)+"w: fallback")
			}
			for _, c := range block.Candidates {
				mb.Comments = append(mb.Comments, strconv.Itoa(block.Width)+"w: "+c.Trace())
			}
		}
		sheet.AddMediaBlock(mb)
	}
}

// validateProperties allows background-* declarations only, image itself
// is what class is generated for.
func validateProperties(props map[string]string) error {
	for _, name := range slices.Sorted(maps.Keys(props)) {
		lower := strings.ToLower(name)
		if !strings.HasPrefix(lower, "background-") || lower == backgroundImage {
			return fmt.Errorf("%w: %q, only background-* properties other than %s could be set", ErrInvalidProperty, name, backgroundImage)
		}
	}
	return nil
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}
