package markup_test

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"respimg/config"
	"respimg/css"
	"respimg/markup"
	"respimg/mediaquery"
	"respimg/slots"
	"respimg/variants"
)

func heroImage(widths ...string) markup.Image {
	set := make(variants.SourceSet, 0, len(widths))
	for _, w := range widths {
		p := variants.Pattern{Prefix: "/srv/img/hero-", Suffix: ".jpg"}
		v, ok := p.Match(p.Expand(w))
		if !ok {
			panic("bad width " + w)
		}
		set = append(set, v)
	}
	return markup.Image{
		Variants: set,
		URL:      func(marker string) string { return "/img/hero-" + marker + ".jpg" },
	}
}

func newBuilder(formats ...string) *markup.Builder {
	return markup.NewBuilder(&config.ImagesConfig{
		Formats:     formats,
		Densities:   mediaquery.DefaultDensities,
		ClassPrefix: "ri-background-image",
	}, zap.NewNop())
}

func TestAlternativeFormatURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/img/a-320.jpg", "/img/a-320.webp"},
		{"/img/a-320.jpg?v=2#top", "/img/a-320.webp?v=2#top"},
		{"/img/a-320", "/img/a-320.webp"},
		{"/img.v2/a-320", "/img.v2/a-320.webp"},
		{"https://cdn.example.com/a.b.jpeg", "https://cdn.example.com/a.b.webp"},
		{"https://cdn.example.com/a", "https://cdn.example.com/a.webp"},
	}
	for _, tt := range tests {
		if got := markup.AlternativeFormatURL(tt.in, "webp"); got != tt.want {
			t.Errorf("AlternativeFormatURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMIMEType(t *testing.T) {
	tests := map[string]string{
		"webp": "image/webp",
		"WEBP": "image/webp",
		"png":  "image/png",
		"xyz":  "image/xyz",
	}
	for format, want := range tests {
		if got := markup.MIMEType(format); got != want {
			t.Errorf("MIMEType(%q) = %q, want %q", format, got, want)
		}
	}
}

func TestSrcset(t *testing.T) {
	img := heroImage("100", "400", "200")
	if got, want := markup.Srcset(img.Variants, img.URL), "/img/hero-400.jpg 400w, /img/hero-200.jpg 200w, /img/hero-100.jpg 100w"; got != want {
		t.Errorf("Srcset() = %q, want %q", got, want)
	}

	single := heroImage("100")
	if got := markup.Srcset(single.Variants, single.URL); got != "" {
		t.Errorf("Srcset() for single variant = %q, want empty", got)
	}
	if got := markup.Srcset(nil, single.URL); got != "" {
		t.Errorf("Srcset() for no variants = %q, want empty", got)
	}

	dups := heroImage("0200", "200", "100")
	if got, want := markup.Srcset(dups.Variants, dups.URL), "/img/hero-0200.jpg 200w, /img/hero-200.jpg 200w, /img/hero-100.jpg 100w"; got != want {
		t.Errorf("Srcset() with duplicates = %q, want %q", got, want)
	}
}

func TestBuilder_Image(t *testing.T) {
	const srcset = `srcset="/img/hero-1280.jpg 1280w, /img/hero-640.jpg 640w, /img/hero-320.jpg 320w"`

	tests := []struct {
		name    string
		formats []string
		widths  []string
		base    int
		attrs   markup.Attributes
		want    string
	}{
		{
			name:   "bare",
			widths: []string{"320", "1280", "640"},
			want:   `<img src="/img/hero-640.jpg" ` + srcset + `/>`,
		},
		{
			name:   "single variant",
			widths: []string{"320"},
			attrs:  markup.Attributes{{Name: "class", Value: "hero"}},
			want:   `<img src="/img/hero-320.jpg" class="hero"/>`,
		},
		{
			name:   "explicit base width",
			widths: []string{"320", "1280", "640"},
			base:   1280,
			want:   `<img src="/img/hero-1280.jpg" ` + srcset + `/>`,
		},
		{
			name:   "attributes",
			widths: []string{"320", "1280", "640"},
			attrs: markup.Attributes{
				{Name: "class", Value: "hero"},
				{Name: "sizes", Value: "(min-width: 600px) 50vw, 100vw"},
				{Name: "title", Value: `Tom & "Jerry"`},
			},
			want: `<img src="/img/hero-640.jpg" ` + srcset + ` sizes="(min-width: 600px) 50vw, 100vw" class="hero" ` +
				`title="Tom &amp; &#34;Jerry&#34;" alt="Tom &amp; &#34;Jerry&#34;"/>`,
		},
		{
			name:   "explicit alt",
			widths: []string{"320"},
			attrs:  markup.Attributes{{Name: "title", Value: "t"}, {Name: "alt", Value: "a"}},
			want:   `<img src="/img/hero-320.jpg" title="t" alt="a"/>`,
		},
		{
			name:    "picture",
			formats: []string{"webp", "xyz"},
			widths:  []string{"320", "1280", "640"},
			attrs:   markup.Attributes{{Name: "sizes", Value: "50vw"}},
			want: `<picture>` +
				`<source type="image/webp" srcset="/img/hero-1280.webp 1280w, /img/hero-640.webp 640w, /img/hero-320.webp 320w" sizes="50vw"/>` +
				`<source type="image/xyz" srcset="/img/hero-1280.xyz 1280w, /img/hero-640.xyz 640w, /img/hero-320.xyz 320w" sizes="50vw"/>` +
				`<img src="/img/hero-640.jpg" ` + srcset + ` sizes="50vw"/>` +
				`</picture>`,
		},
		{
			name:    "picture single variant",
			formats: []string{"webp"},
			widths:  []string{"100"},
			want:    `<picture><source type="image/webp" srcset="/img/hero-100.webp"/><img src="/img/hero-100.jpg"/></picture>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newBuilder(tt.formats...).Image(markup.ImageOptions{
				Image:      heroImage(tt.widths...),
				BaseWidth:  tt.base,
				Attributes: tt.attrs,
			})
			if err != nil {
				t.Fatalf("Image() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Image() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestBuilder_ImageNoVariants(t *testing.T) {
	_, err := newBuilder().Image(markup.ImageOptions{Image: markup.Image{URL: func(string) string { return "" }}})
	if !errors.Is(err, variants.ErrNoMatchingVariants) {
		t.Errorf("Image() error = %v, want ErrNoMatchingVariants", err)
	}
}

func TestAttributesFromMap(t *testing.T) {
	attrs := markup.AttributesFromMap(map[string]string{"title": "t", "class": "c", "alt": "a"})
	var names []string
	for _, a := range attrs {
		names = append(names, a.Name)
	}
	if got := strings.Join(names, ","); got != "alt,class,title" {
		t.Errorf("AttributesFromMap() order = %s", got)
	}
}

func backgroundURL(u string) map[string]string {
	return map[string]string{"background-image": css.URL(u)}
}

func TestBuilder_Background(t *testing.T) {
	b := newBuilder()
	class, sheet, err := b.Background(markup.BackgroundOptions{
		Image:      heroImage("1280", "320", "640"),
		Index:      3,
		Properties: map[string]string{"background-size": "cover"},
	})
	if err != nil {
		t.Fatalf("Background() error = %v", err)
	}
	if class != "ri-background-image-3" {
		t.Errorf("class = %q", class)
	}

	rules := sheet.RulesBySelector(".ri-background-image-3")
	if len(rules) != 1 {
		t.Fatalf("base rules = %d, want 1", len(rules))
	}
	if got := rules[0].Properties; len(got) != 2 || got["background-size"] != "cover" || got["background-image"] != css.URL("/img/hero-320.jpg") {
		t.Errorf("base rule properties = %v", got)
	}

	synth := mediaquery.New(nil)
	wantBlocks := []struct {
		query string
		url   string
	}{
		{mediaquery.UnconditionalQuery, "/img/hero-320.jpg"},
		{synth.QueriesFor(slots.Default(), 320).CSS(), "/img/hero-640.jpg"},
		{synth.QueriesFor(slots.Default(), 640).CSS(), "/img/hero-1280.jpg"},
	}
	blocks := sheet.MediaBlocks()
	if len(blocks) != len(wantBlocks) {
		t.Fatalf("media blocks = %d, want %d", len(blocks), len(wantBlocks))
	}
	for i, want := range wantBlocks {
		mb := blocks[i]
		if mb.Query != want.query {
			t.Errorf("block %d query = %q, want %q", i, mb.Query, want.query)
		}
		if len(mb.Comments) != 0 {
			t.Errorf("block %d has comments without debug: %v", i, mb.Comments)
		}
		if len(mb.Rules) != 1 || mb.Rules[0].Selector != ".ri-background-image-3" || mb.Rules[0].Properties["background-image"] != css.URL(want.url) {
			t.Errorf("block %d rules = %v", i, mb.Rules)
		}
	}
}

func TestBuilder_BackgroundFormats(t *testing.T) {
	b := newBuilder("webp", "avif")
	_, sheet, err := b.Background(markup.BackgroundOptions{
		Image:     heroImage("320", "640"),
		Index:     1,
		BaseWidth: 640,
	})
	if err != nil {
		t.Fatalf("Background() error = %v", err)
	}

	// base rule and two blocks per rule set: plain, avif, webp
	if sheet.Len() != 9 {
		t.Fatalf("Len() = %d, want 9", sheet.Len())
	}
	wantSelectors := []string{".ri-background-image-1", "html.avif .ri-background-image-1", "html.webp .ri-background-image-1"}
	wantExt := []string{"jpg", "avif", "webp"}
	for i, selector := range wantSelectors {
		item := sheet.Items[i*3]
		if item.Rule == nil || item.Rule.Selector != selector {
			t.Fatalf("item %d = %+v, want rule %s", i*3, item, selector)
		}
		if got, want := item.Rule.Properties["background-image"], css.URL("/img/hero-640."+wantExt[i]); got != want {
			t.Errorf("%s background-image = %s, want %s", selector, got, want)
		}
		last := sheet.Items[i*3+2].MediaBlock
		if last == nil || last.Rules[0].Selector != selector {
			t.Fatalf("item %d is not media block for %s", i*3+2, selector)
		}
		if got, want := last.Rules[0].Properties, backgroundURL("/img/hero-640."+wantExt[i]); got["background-image"] != want["background-image"] {
			t.Errorf("%s block background-image = %s", selector, got["background-image"])
		}
	}
}

func TestBuilder_BackgroundUnreachableVariants(t *testing.T) {
	sizes, err := slots.Parse("800px")
	if err != nil {
		t.Fatal(err)
	}
	_, sheet, err := newBuilder().Background(markup.BackgroundOptions{
		Image: heroImage("320", "640", "1280"),
		Sizes: sizes,
	})
	if err != nil {
		t.Fatalf("Background() error = %v", err)
	}
	// 640 is needed once 320 is not sharp enough for 800px slot, which never happens
	blocks := sheet.MediaBlocks()
	if len(blocks) != 2 {
		t.Fatalf("media blocks = %d, want 2", len(blocks))
	}
	if blocks[0].Query != mediaquery.UnconditionalQuery {
		t.Errorf("first block query = %q", blocks[0].Query)
	}
	if got, want := blocks[1].Rules[0].Properties["background-image"], css.URL("/img/hero-1280.jpg"); got != want {
		t.Errorf("second block selects %s, want %s", got, want)
	}
}

func TestBuilder_BackgroundDebug(t *testing.T) {
	b := markup.NewBuilder(&config.ImagesConfig{
		Debug:       true,
		Densities:   []float64{1, 2},
		ClassPrefix: "Hero Images!",
	}, nil)
	class, sheet, err := b.Background(markup.BackgroundOptions{Image: heroImage("100", "200"), Index: 7})
	if err != nil {
		t.Fatalf("Background() error = %v", err)
	}
	if class != "hero-images-7" {
		t.Errorf("class = %q, want hero-images-7", class)
	}
	if sheet.Items[0].Comment == nil || *sheet.Items[0].Comment != "hero-images-7: widths 100 200, sizes 100vw" {
		t.Errorf("first item = %+v, want comment", sheet.Items[0])
	}
	blocks := sheet.MediaBlocks()
	if len(blocks) != 2 {
		t.Fatalf("media blocks = %d, want 2", len(blocks))
	}
	if got := blocks[0].Comments; len(got) != 1 || got[0] != "100w: fallback" {
		t.Errorf("fallback comments = %v", got)
	}
	if got := blocks[1].Comments; len(got) != 2 || got[0] != "200w: 1x > 100px: 100vw" || got[1] != "200w: 2x > 50px: 100vw" {
		t.Errorf("block comments = %v", got)
	}
}

func TestBuilder_BackgroundInvalidProperty(t *testing.T) {
	for _, name := range []string{"color", "background-image", "Background-Image", "background"} {
		_, _, err := newBuilder().Background(markup.BackgroundOptions{
			Image:      heroImage("100"),
			Properties: map[string]string{name: "x"},
		})
		if !errors.Is(err, markup.ErrInvalidProperty) {
			t.Errorf("Background() with %s error = %v, want ErrInvalidProperty", name, err)
		}
	}
}

func TestBuilder_BackgroundIdempotent(t *testing.T) {
	sizes, err := slots.Parse("(min-width: 600px) 50vw, 100vw")
	if err != nil {
		t.Fatal(err)
	}
	render := func() string {
		_, sheet, err := newBuilder("webp").Background(markup.BackgroundOptions{
			Image: heroImage("320", "640", "1280", "2560"),
			Sizes: sizes,
		})
		if err != nil {
			t.Fatal(err)
		}
		return sheet.String()
	}
	if a, b := render(), render(); a != b {
		t.Errorf("output differs between runs:\n%s\n---\n%s", a, b)
	}
}
