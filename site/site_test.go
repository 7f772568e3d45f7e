package site_test

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"respimg/config"
	"respimg/site"
)

func TestFS(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"img/a-100.jpg", "img/a-200.jpg", "img/b-100.jpg"} {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	abs := filepath.Join(root, "elsewhere")

	fs := site.NewFS(&config.SiteConfig{
		Root:    root,
		Streams: map[string]string{"theme": "themes/quark", "shared": abs},
	})
	if fs.Root() != root {
		t.Errorf("Root() = %q", fs.Root())
	}

	files, err := fs.ListFiles(filepath.Join(root, "img", "a-*.jpg"))
	if err != nil {
		t.Fatalf("ListFiles() error = %v", err)
	}
	want := []string{filepath.Join(root, "img", "a-100.jpg"), filepath.Join(root, "img", "a-200.jpg")}
	if !slices.Equal(files, want) {
		t.Errorf("ListFiles() = %v, want %v", files, want)
	}

	if dir, err := fs.ResolveNamedResource("theme"); err != nil || dir != filepath.Join(root, "themes", "quark") {
		t.Errorf("ResolveNamedResource(theme) = %q, %v", dir, err)
	}
	if dir, err := fs.ResolveNamedResource("shared"); err != nil || dir != abs {
		t.Errorf("ResolveNamedResource(shared) = %q, %v", dir, err)
	}
	if _, err := fs.ResolveNamedResource("user"); !errors.Is(err, site.ErrUnknownStream) {
		t.Errorf("ResolveNamedResource(user) error = %v, want ErrUnknownStream", err)
	}
}

func TestURLs_PublicURL(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"", "/img/a.jpg", "/img/a.jpg"},
		{"/blog/", "/img/a.jpg", "/blog/img/a.jpg"},
		{"https://cdn.example.com", "/img//a.jpg", "https://cdn.example.com/img/a.jpg"},
		{"https://cdn.example.com", "img/a.jpg", "img/a.jpg"},
	}
	for _, tt := range tests {
		if got := site.NewURLs(tt.base).PublicURL(tt.path); got != tt.want {
			t.Errorf("NewURLs(%q).PublicURL(%q) = %q, want %q", tt.base, tt.path, got, tt.want)
		}
	}
}

func TestPageFor(t *testing.T) {
	root := t.TempDir()
	cfg := &config.SiteConfig{Root: root, PagesDir: "pages"}

	page, err := site.PageFor(cfg, filepath.Join(root, "pages", "blog", "post", "index.html"))
	if err != nil {
		t.Fatalf("PageFor() error = %v", err)
	}
	if page.Route() != "/blog/post" {
		t.Errorf("Route() = %q, want /blog/post", page.Route())
	}
	if page.MediaDir() != filepath.Join(root, "pages", "blog", "post") {
		t.Errorf("MediaDir() = %q", page.MediaDir())
	}

	top, err := site.PageFor(cfg, filepath.Join(root, "pages", "index.html"))
	if err != nil {
		t.Fatalf("PageFor() error = %v", err)
	}
	if top.Route() != "/" {
		t.Errorf("Route() = %q, want /", top.Route())
	}

	if _, err := site.PageFor(cfg, filepath.Join(root, "index.html")); err == nil {
		t.Error("PageFor() outside of pages directory succeeded")
	}
}

func TestStyles_Inject(t *testing.T) {
	var styles site.Styles
	if got := styles.Inject("<html></html>"); got != "<html></html>" {
		t.Errorf("Inject() without styles = %q", got)
	}

	styles.AppendInlineCSS(".a {}\n")
	styles.AppendInlineCSS("  ")
	styles.AppendInlineCSS(".b {}\n")
	if styles.CSS() != ".a {}\n\n.b {}\n" {
		t.Errorf("CSS() = %q", styles.CSS())
	}

	tests := []struct {
		name, doc, want string
	}{
		{
			name: "head",
			doc:  "<html><HEAD><title>t</title></HEAD><body></body></html>",
			want: "<html><HEAD><title>t</title><style>\n.a {}\n\n.b {}\n</style>\n</HEAD><body></body></html>",
		},
		{
			name: "head in comment and script",
			doc:  "<head><!-- </head> --><script>var s = '</head>';</script></head>",
			want: "<head><!-- </head> --><script>var s = '</head>';</script><style>\n.a {}\n\n.b {}\n</style>\n</head>",
		},
		{
			name: "fragment",
			doc:  "<div></div>",
			want: "<style>\n.a {}\n\n.b {}\n</style>\n<div></div>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := styles.Inject(tt.doc); got != tt.want {
				t.Errorf("Inject() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}
