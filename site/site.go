// Package site provides file system and URL services for rendering pages
// of a static site laid out on local disk.
package site

import (
	"errors"
	"fmt"
	"maps"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"respimg/config"
)

var ErrUnknownStream = errors.New("unknown stream")

// FS lists site files and resolves named resources (streams) to directories.
type FS struct {
	root    string
	streams map[string]string
}

// NewFS returns FS for site configuration. Stream directories which are not
// absolute are relative to site root.
func NewFS(cfg *config.SiteConfig) *FS {
	streams := make(map[string]string, len(cfg.Streams))
	for name, dir := range cfg.Streams {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(cfg.Root, dir)
		}
		streams[name] = filepath.Clean(dir)
	}
	return &FS{root: cfg.Root, streams: streams}
}

// Root returns site root directory.
func (fs *FS) Root() string {
	return fs.root
}

// ListFiles returns names of all files matching glob.
func (fs *FS) ListFiles(glob string) ([]string, error) {
	return filepath.Glob(glob)
}

// ResolveNamedResource returns directory stream scheme refers to.
func (fs *FS) ResolveNamedResource(scheme string) (string, error) {
	dir, ok := fs.streams[scheme]
	if !ok {
		return "", fmt.Errorf("%w %q, known streams: %s", ErrUnknownStream, scheme,
			strings.Join(slices.Sorted(maps.Keys(fs.streams)), ", "))
	}
	return dir, nil
}

// URLs builds public URLs for site paths.
type URLs struct {
	base string
}

// NewURLs returns URL builder prefixing all root relative paths with base,
// which could be empty, absolute path ("/blog") or full URL.
func NewURLs(base string) *URLs {
	return &URLs{base: strings.TrimRight(base, "/")}
}

// PublicURL returns URL for p. Paths relative to site root (starting with
// '/') get base prefix, page relative paths are left alone to be resolved
// by browser.
func (u *URLs) PublicURL(p string) string {
	if !strings.HasPrefix(p, "/") {
		return p
	}
	return u.base + path.Clean(p)
}

// Page describes page being rendered.
type Page struct {
	mediaDir string
	route    string
}

// NewPage returns page with media in mediaDir published under route.
func NewPage(mediaDir, route string) *Page {
	return &Page{mediaDir: mediaDir, route: "/" + strings.Trim(route, "/")}
}

// PageFor returns page for template file located in site pages directory.
// Page route is its directory relative to pages directory.
func PageFor(cfg *config.SiteConfig, file string) (*Page, error) {
	file, err := filepath.Abs(file)
	if err != nil {
		return nil, err
	}
	pages, err := filepath.Abs(filepath.Join(cfg.Root, cfg.PagesDir))
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(file)
	rel, err := filepath.Rel(pages, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("page %s is outside of pages directory %s", file, pages)
	}
	if rel == "." {
		rel = ""
	}
	return NewPage(dir, filepath.ToSlash(rel)), nil
}

// MediaDir returns directory page relative images are looked up in.
func (p *Page) MediaDir() string {
	return p.mediaDir
}

// Route returns page URL path.
func (p *Page) Route() string {
	return p.route
}
