// Package markup builds responsive image elements and background image
// stylesheets from resolved width variants.
package markup

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"respimg/config"
	"respimg/mediaquery"
	"respimg/variants"
)

// DefaultClassPrefix is used when configured prefix has nothing usable in it.
const DefaultClassPrefix = "ri-background-image"

var ErrInvalidProperty = errors.New("invalid background property")

// Image is a resolved image: its width variants and the way to get public
// URL of a variant by its width marker.
type Image struct {
	Variants variants.SourceSet
	URL      func(marker string) string
}

// urlFor returns URL of variant of given width. Width does not have to be
// among discovered variants.
func (img Image) urlFor(width int) string {
	if v, ok := img.Variants.Find(width); ok {
		return img.URL(v.Marker)
	}
	return img.URL(strconv.Itoa(width))
}

// Attribute is a single HTML attribute.
type Attribute struct {
	Name  string
	Value string
}

// Attributes are kept in order they should be rendered.
type Attributes []Attribute

// AttributesFromMap returns attributes ordered by name.
func AttributesFromMap(m map[string]string) Attributes {
	attrs := make(Attributes, 0, len(m))
	for name, value := range m {
		attrs = append(attrs, Attribute{Name: name, Value: value})
	}
	slices.SortFunc(attrs, func(a, b Attribute) int { return strings.Compare(a.Name, b.Name) })
	return attrs
}

// Get returns value of the first attribute with name.
func (a Attributes) Get(name string) (string, bool) {
	for _, attr := range a {
		if strings.EqualFold(attr.Name, name) {
			return attr.Value, true
		}
	}
	return "", false
}

// Srcset returns srcset attribute value listing set in descending width
// order. Single variant needs no srcset and empty string is returned.
func Srcset(set variants.SourceSet, urlFor func(marker string) string) string {
	if len(set) < 2 {
		return ""
	}
	entries := make([]string, 0, len(set))
	for _, v := range set.Sorted(false) {
		entries = append(entries, urlFor(v.Marker)+" "+strconv.Itoa(v.Width)+"w")
	}
	return strings.Join(entries, ", ")
}

// ImageOptions describe <img> to build.
type ImageOptions struct {
	Image Image
	// BaseWidth selects variant for src attribute, 0 selects default one.
	BaseWidth  int
	Attributes Attributes
}

// Builder produces markup and stylesheets for configured alternative formats.
type Builder struct {
	formats     []string
	classPrefix string
	debug       bool
	synth       *mediaquery.Synthesizer
	log         *zap.Logger
}

// NewBuilder creates builder from images configuration.
func NewBuilder(cfg *config.ImagesConfig, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	prefix := slug.Make(cfg.ClassPrefix)
	if prefix == "" {
		prefix = DefaultClassPrefix
	}
	return &Builder{
		formats:     slices.Clone(cfg.Formats),
		classPrefix: prefix,
		debug:       cfg.Debug,
		synth:       mediaquery.New(cfg.Densities),
		log:         log.Named("markup"),
	}
}

// Formats returns configured alternative formats in configured order.
func (b *Builder) Formats() []string {
	return slices.Clone(b.formats)
}

// Image returns <img> element for opts, wrapped into <picture> with
// <source> per alternative format when any are configured.
func (b *Builder) Image(opts ImageOptions) (string, error) {
	img := opts.Image
	if len(img.Variants) == 0 {
		return "", variants.ErrNoMatchingVariants
	}

	desc := img.Variants.Sorted(false)
	baseWidth := opts.BaseWidth
	if baseWidth <= 0 {
		// second largest is good enough for most of the displays
		baseWidth = desc[min(1, len(desc)-1)].Width
	}

	srcset := Srcset(desc, img.URL)
	sizes, hasSizes := opts.Attributes.Get("sizes")

	attrs := []html.Attribute{{Key: "src", Val: img.urlFor(baseWidth)}}
	if srcset != "" {
		attrs = append(attrs, html.Attribute{Key: "srcset", Val: srcset})
	}
	if hasSizes {
		attrs = append(attrs, html.Attribute{Key: "sizes", Val: sizes})
	}
	_, hasAlt := opts.Attributes.Get("alt")
	for _, a := range opts.Attributes {
		if strings.EqualFold(a.Name, "sizes") {
			continue
		}
		attrs = append(attrs, html.Attribute{Key: a.Name, Val: a.Value})
		if !hasAlt && strings.EqualFold(a.Name, "title") {
			attrs = append(attrs, html.Attribute{Key: "alt", Val: a.Value})
			hasAlt = true
		}
	}
	elem := &html.Node{Type: html.ElementNode, Data: "img", Attr: attrs}

	if len(b.formats) > 0 {
		picture := &html.Node{Type: html.ElementNode, Data: "picture"}
		for _, format := range b.formats {
			picture.AppendChild(b.source(desc, img.URL, format, sizes, hasSizes))
		}
		picture.AppendChild(elem)
		elem = picture
	}

	var sb strings.Builder
	if err := html.Render(&sb, elem); err != nil {
		return "", fmt.Errorf("unable to render image element: %w", err)
	}
	b.log.Debug("Image element built", zap.Ints("widths", desc.Widths()), zap.Int("base", baseWidth))
	return sb.String(), nil
}

func (b *Builder) source(desc variants.SourceSet, url func(string) string, format, sizes string, hasSizes bool) *html.Node {
	formatURL := func(marker string) string {
		return AlternativeFormatURL(url(marker), format)
	}
	srcset := Srcset(desc, formatURL)
	if srcset == "" {
		srcset = formatURL(desc[0].Marker)
	}
	attrs := []html.Attribute{
		{Key: "type", Val: MIMEType(format)},
		{Key: "srcset", Val: srcset},
	}
	if hasSizes {
		attrs = append(attrs, html.Attribute{Key: "sizes", Val: sizes})
	}
	return &html.Node{Type: html.ElementNode, Data: "source", Attr: attrs}
}
