package css_test

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"respimg/css"
)

func TestStylesheet_String(t *testing.T) {
	var sheet css.Stylesheet
	sheet.AddRule(".hero", map[string]string{
		"background-size":  "cover",
		"background-image": css.URL("/img/hero-320.jpg"),
	})
	sheet.AddMediaBlock(css.MediaBlock{
		Query:    "(min-width: 0px)",
		Comments: []string{"fallback"},
		Rules: []css.Rule{
			{Selector: ".hero", Properties: map[string]string{"background-image": css.URL("/img/hero-320.jpg")}},
			{Selector: "html.webp .hero", Properties: map[string]string{"background-image": css.URL("/img/hero-320.webp")}},
		},
	})
	sheet.AddComment("tail */ end")

	want := `.hero {
  background-image: url("/img/hero-320.jpg");
  background-size: cover;
}

@media (min-width: 0px) {
  /* fallback */
  .hero {
    background-image: url("/img/hero-320.jpg");
  }

  html.webp .hero {
    background-image: url("/img/hero-320.webp");
  }
}

/* tail * / end */
`
	if got := sheet.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}

	var sb strings.Builder
	n, err := sheet.WriteTo(&sb)
	if err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	if n != int64(len(want)) {
		t.Errorf("WriteTo() = %d bytes, want %d", n, len(want))
	}
}

func TestStylesheet_Queries(t *testing.T) {
	var sheet css.Stylesheet
	sheet.AddRule(".a", nil)
	sheet.AddMediaBlock(css.MediaBlock{Query: "print"})
	sheet.AddRule(".a", map[string]string{"color": "red"})

	if sheet.Len() != 3 {
		t.Errorf("Len() = %d, want 3", sheet.Len())
	}
	if got := len(sheet.RulesBySelector(".a")); got != 2 {
		t.Errorf("RulesBySelector(.a) = %d rules, want 2", got)
	}
	if got := sheet.MediaBlocks(); len(got) != 1 || got[0].Query != "print" {
		t.Errorf("MediaBlocks() = %v", got)
	}

	var other css.Stylesheet
	other.AddComment("x")
	sheet.Append(&other)
	sheet.Append(nil)
	if sheet.Len() != 4 {
		t.Errorf("Len() after Append = %d, want 4", sheet.Len())
	}
}

func TestEscapeDoubleQuoted(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain/path.jpg", "plain/path.jpg"},
		{`a"b`, `a\"b`},
		{`a\b`, `a\\b`},
		{"a\nb", `a\a b`},
	}
	for _, tt := range tests {
		if got := css.EscapeDoubleQuoted(tt.in); got != tt.want {
			t.Errorf("EscapeDoubleQuoted(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := css.URL(`/a "b".jpg`); got != `url("/a \"b\".jpg")` {
		t.Errorf("URL() = %s", got)
	}
}

func TestClassSelector(t *testing.T) {
	if got := css.ClassSelector("", "bg-1"); got != ".bg-1" {
		t.Errorf("ClassSelector() = %q", got)
	}
	if got := css.ClassSelector("html.avif", "bg-1"); got != "html.avif .bg-1" {
		t.Errorf("ClassSelector() = %q", got)
	}
}

func TestParser_ParseDeclarations(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	props, err := p.ParseDeclarations("Background-Size: cover;  background-position:  center   top ; --x: 1; background-color: #fff !important")
	if err != nil {
		t.Fatalf("ParseDeclarations() error = %v", err)
	}
	want := map[string]string{
		"background-size":     "cover",
		"background-position": "center top",
		"background-color":    "#fff !important",
	}
	if len(props) != len(want) {
		t.Fatalf("ParseDeclarations() = %v, want %v", props, want)
	}
	for k, v := range want {
		if props[k] != v {
			t.Errorf("property %s = %q, want %q", k, props[k], v)
		}
	}

	empty, err := p.ParseDeclarations("")
	if err != nil || len(empty) != 0 {
		t.Errorf("ParseDeclarations(\"\") = %v, %v", empty, err)
	}
}

func TestParser_ParseDeclarations_Invalid(t *testing.T) {
	p := css.NewParser(nil)

	for _, text := range []string{"background-size cover", "background-size: ;"} {
		if _, err := p.ParseDeclarations(text); !errors.Is(err, css.ErrInvalidDeclarations) {
			t.Errorf("ParseDeclarations(%q) error = %v, want ErrInvalidDeclarations", text, err)
		}
	}
}
