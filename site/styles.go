package site

import (
	"strings"

	"golang.org/x/net/html"
)

// Styles collects CSS generated during page render.
type Styles struct {
	parts []string
}

// AppendInlineCSS adds css after everything collected so far.
func (s *Styles) AppendInlineCSS(css string) {
	if strings.TrimSpace(css) == "" {
		return
	}
	s.parts = append(s.parts, css)
}

// Empty reports whether anything was collected.
func (s *Styles) Empty() bool {
	return len(s.parts) == 0
}

// CSS returns collected CSS in order it was added.
func (s *Styles) CSS() string {
	return strings.Join(s.parts, "\n")
}

// Inject places collected CSS as <style> element right before closing
// </head> tag of document. Document without head gets it in front.
func (s *Styles) Inject(doc string) string {
	if s.Empty() {
		return doc
	}
	style := "<style>\n" + s.CSS() + "</style>\n"
	pos := headEnd(doc)
	if pos < 0 {
		return style + doc
	}
	return doc[:pos] + style + doc[pos:]
}

// headEnd returns offset of </head> tag in doc or -1. Tokenizer is used so
// that tag mentioned in comments or scripts is not mistaken for real one.
func headEnd(doc string) int {
	z := html.NewTokenizer(strings.NewReader(doc))
	offset := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or broken document, either way no head end
			return -1
		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == "head" {
				return offset
			}
		}
		offset += len(z.Raw())
	}
}
