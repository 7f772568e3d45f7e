// Package slots parses descriptions of the layout width an image occupies,
// written the way "sizes" attribute is: "(min-width: 800px) 50vw, 100vw".
package slots

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

var ErrInvalidSlotSizeSyntax = errors.New("invalid slot size syntax")

// SyntaxError describes slot size token which could not be parsed.
type SyntaxError struct {
	Token string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %q, expected \"(min-width: 1234px) 1234px\" or \"(min-width: 1234px) 12vw\" with optional condition",
		ErrInvalidSlotSizeSyntax, e.Token)
}

func (e *SyntaxError) Unwrap() error {
	return ErrInvalidSlotSizeSyntax
}

// Size is a single slot size rule. It is either absolute (width in CSS
// pixels) or relative (fraction of viewport width) and may only apply when
// viewport is wider than MinViewportWidth.
type Size struct {
	minViewportWidth int
	px               int
	vw               int
}

// Absolute returns slot of fixed width in pixels.
func Absolute(minViewportWidth, px int) Size {
	return Size{minViewportWidth: minViewportWidth, px: px}
}

// Relative returns slot taking vw percent of viewport width.
func Relative(minViewportWidth, vw int) Size {
	return Size{minViewportWidth: minViewportWidth, vw: vw}
}

// MinViewportWidth returns viewport width condition, 0 when unconditional.
func (s Size) MinViewportWidth() int {
	return s.minViewportWidth
}

// IsRelative reports whether slot width depends on viewport width.
func (s Size) IsRelative() bool {
	return s.vw > 0
}

// WidthPx returns absolute slot width, 0 for relative slots.
func (s Size) WidthPx() int {
	return s.px
}

// Factor returns fraction of viewport width, 0 for absolute slots.
func (s Size) Factor() float64 {
	return float64(s.vw) / 100
}

// String returns canonical text form of the slot.
func (s Size) String() string {
	var target string
	if s.IsRelative() {
		target = strconv.Itoa(s.vw) + "vw"
	} else {
		target = strconv.Itoa(s.px) + "px"
	}
	if s.minViewportWidth == 0 {
		return target
	}
	return "(min-width: " + strconv.Itoa(s.minViewportWidth) + "px) " + target
}

// List is an ordered list of slot sizes.
type List []Size

// Default is used when no slot sizes are specified: image spans the whole viewport.
func Default() List {
	return List{Relative(0, 100)}
}

// String returns canonical text form of the list, suitable for "sizes"
// attribute.
func (l List) String() string {
	parts := make([]string, len(l))
	for i, s := range l {
		parts[i] = s.String()
	}
	return strings.Join(parts, ", ")
}

// Parse parses comma separated slot sizes. Empty descriptor results in
// Default list.
func Parse(descriptor string) (List, error) {
	if strings.TrimSpace(descriptor) == "" {
		return Default(), nil
	}
	var list List
	for token := range strings.SplitSeq(descriptor, ",") {
		token = strings.TrimSpace(token)
		size, err := parseSize(token)
		if err != nil {
			return nil, err
		}
		list = append(list, size)
	}
	return list, nil
}

// ParseOptional is Parse for optional descriptors, nil results in Default list.
func ParseOptional(descriptor *string) (List, error) {
	if descriptor == nil {
		return Default(), nil
	}
	return Parse(*descriptor)
}

// tokens returns significant CSS tokens of s, nil when s cannot be tokenized
// or contains comments.
func tokens(s string) []css.Token {
	l := css.NewLexer(parse.NewInputString(s))
	var out []css.Token
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			if l.Err() != nil && l.Err().Error() != "EOF" {
				return nil
			}
			return out
		case css.WhitespaceToken:
			continue
		case css.CommentToken:
			return nil
		}
		out = append(out, css.Token{TokenType: tt, Data: append([]byte(nil), data...)})
	}
}

// parseSize parses [ "(min-width:" INT "px)" ] INT ("px"|"vw").
func parseSize(token string) (Size, error) {
	bad := &SyntaxError{Token: token}

	toks := tokens(token)
	var size Size
	switch len(toks) {
	case 1:
	case 6:
		if toks[0].TokenType != css.LeftParenthesisToken ||
			toks[1].TokenType != css.IdentToken || !strings.EqualFold(string(toks[1].Data), "min-width") ||
			toks[2].TokenType != css.ColonToken ||
			toks[4].TokenType != css.RightParenthesisToken {
			return Size{}, bad
		}
		n, unit, ok := dimension(toks[3])
		if !ok || unit != "px" {
			return Size{}, bad
		}
		size.minViewportWidth = n
		toks = toks[5:]
	default:
		return Size{}, bad
	}

	n, unit, ok := dimension(toks[0])
	if !ok || n == 0 {
		return Size{}, bad
	}
	switch unit {
	case "px":
		size.px = n
	case "vw":
		if n > 100 {
			return Size{}, bad
		}
		size.vw = n
	default:
		return Size{}, bad
	}
	return size, nil
}

// dimension splits integer dimension token into value and lower case unit.
func dimension(t css.Token) (int, string, bool) {
	if t.TokenType != css.DimensionToken {
		return 0, "", false
	}
	s := string(t.Data)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, "", false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, "", false
	}
	return n, strings.ToLower(s[end:]), true
}
