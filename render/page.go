// Package render exposes responsive image markup generation to page
// rendering: resolving path patterns against site, keeping per render state
// and registering generated CSS.
package render

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"respimg/config"
	"respimg/css"
	"respimg/markup"
	"respimg/slots"
	"respimg/variants"
)

var ErrMissingRequiredParameter = errors.New("missing required parameter")

// FileResolver lists files and resolves stream names to directories.
type FileResolver interface {
	ListFiles(glob string) ([]string, error)
	ResolveNamedResource(scheme string) (string, error)
}

// URLBuilder turns site paths into public URLs.
type URLBuilder interface {
	PublicURL(path string) string
}

// PageContext describes page being rendered.
type PageContext interface {
	MediaDir() string
	Route() string
}

// StyleSink receives generated CSS in order it should appear on page.
type StyleSink interface {
	AppendInlineCSS(css string)
}

// ImageParams are parameters of ImageElement.
type ImageParams struct {
	Path       string
	BaseWidth  *int
	Attributes markup.Attributes
}

// BackgroundParams are parameters of BackgroundImageClass.
type BackgroundParams struct {
	Path       string
	BaseWidth  *int
	Sizes      *string
	Properties map[string]string
}

// Page keeps state of a single page render. It is not safe for concurrent
// use, every render needs its own Page.
type Page struct {
	cfg      *config.Config
	files    FileResolver
	urls     URLBuilder
	page     PageContext
	styles   StyleSink
	resolver *variants.Resolver
	builder  *markup.Builder
	parser   *css.Parser
	log      *zap.Logger

	// counter makes background image classes unique within page
	counter int
}

// NewPage creates render state for page.
func NewPage(cfg *config.Config, files FileResolver, urls URLBuilder, page PageContext, styles StyleSink, log *zap.Logger) *Page {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("render").With(zap.String("route", page.Route()))
	return &Page{
		cfg:      cfg,
		files:    files,
		urls:     urls,
		page:     page,
		styles:   styles,
		resolver: variants.NewResolver(files, log, variants.WithVerification(cfg.Images.VerifyWidths)),
		builder:  markup.NewBuilder(&cfg.Images, log),
		parser:   css.NewParser(log),
		log:      log,
	}
}

// ImageElement returns <img> (or <picture>) element for image variants
// matching params.Path.
func (p *Page) ImageElement(params ImageParams) (string, error) {
	img, err := p.image(params.Path)
	if err != nil {
		return "", err
	}
	elem, err := p.builder.Image(markup.ImageOptions{
		Image:      img,
		BaseWidth:  deref(params.BaseWidth),
		Attributes: params.Attributes,
	})
	if err != nil {
		return "", fmt.Errorf("unable to build image element for %q: %w", params.Path, err)
	}
	return elem, nil
}

// BackgroundImageClass generates CSS class setting background image to the
// variant matching params.Path best suited for the display, registers its
// CSS with page styles and returns class name.
func (p *Page) BackgroundImageClass(params BackgroundParams) (string, error) {
	if params.Path == "" {
		return "", fmt.Errorf("%w: path", ErrMissingRequiredParameter)
	}
	sizes, err := slots.ParseOptional(params.Sizes)
	if err != nil {
		return "", err
	}
	img, err := p.image(params.Path)
	if err != nil {
		return "", err
	}

	p.counter++
	class, sheet, err := p.builder.Background(markup.BackgroundOptions{
		Image:      img,
		Index:      p.counter,
		BaseWidth:  deref(params.BaseWidth),
		Sizes:      sizes,
		Properties: params.Properties,
	})
	if err != nil {
		return "", fmt.Errorf("unable to build background image class for %q: %w", params.Path, err)
	}
	p.styles.AppendInlineCSS(sheet.String())
	return class, nil
}

// ParseProperties parses inline CSS declarations for use as background
// properties.
func (p *Page) ParseProperties(text string) (map[string]string, error) {
	return p.parser.ParseDeclarations(text)
}

// image resolves path pattern to variants on disk and URLs they are
// published under. Pattern could be:
//
//	scheme://path - relative to directory named resource resolves to
//	/path         - relative to site pages directory
//	path          - relative to current page media directory
func (p *Page) image(pattern string) (markup.Image, error) {
	if pattern == "" {
		return markup.Image{}, fmt.Errorf("%w: path", ErrMissingRequiredParameter)
	}

	var fsPath, sitePath string
	if scheme, rest, ok := splitStream(pattern); ok {
		dir, err := p.files.ResolveNamedResource(scheme)
		if err != nil {
			return markup.Image{}, fmt.Errorf("unable to resolve %q: %w", pattern, err)
		}
		fsPath = filepath.Join(dir, filepath.FromSlash(rest))
		rel, err := filepath.Rel(p.cfg.Site.Root, fsPath)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return markup.Image{}, fmt.Errorf("resource %q is outside of site root %s", pattern, p.cfg.Site.Root)
		}
		sitePath = "/" + filepath.ToSlash(rel)
	} else if strings.HasPrefix(pattern, "/") {
		fsPath = filepath.Join(p.cfg.Site.Root, p.cfg.Site.PagesDir, filepath.FromSlash(pattern))
		sitePath = path.Clean(pattern)
	} else {
		fsPath = filepath.Join(p.page.MediaDir(), filepath.FromSlash(pattern))
		sitePath = path.Join(p.page.Route(), pattern)
	}

	urlPattern, err := variants.ParsePattern(sitePath)
	if err != nil {
		return markup.Image{}, err
	}
	set, err := p.resolver.Resolve(fsPath, false)
	if err != nil {
		return markup.Image{}, err
	}
	return markup.Image{
		Variants: set,
		URL: func(marker string) string {
			return p.urls.PublicURL(urlPattern.Expand(marker))
		},
	}, nil
}

// splitStream splits "scheme://rest" pattern, scheme has to be letters only.
func splitStream(pattern string) (string, string, bool) {
	scheme, rest, ok := strings.Cut(pattern, "://")
	if !ok || scheme == "" || rest == "" {
		return "", "", false
	}
	for _, r := range scheme {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return "", "", false
		}
	}
	return scheme, rest, true
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
