package css

import (
	"errors"
	"fmt"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

var ErrInvalidDeclarations = errors.New("invalid css declarations")

// Parser parses CSS fragments supplied by users.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// ParseDeclarations parses inline declaration list, the way it is written in
// style attribute: "background-size: cover; background-position: center".
// Property names are lower cased, values are kept as written with
// whitespace collapsed.
func (p *Parser) ParseDeclarations(text string) (map[string]string, error) {
	props := make(map[string]string)

	parser := css.NewParser(parse.NewInputString(text), true)
	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: %q: %w", ErrInvalidDeclarations, text, err)
			}
			return props, nil

		case css.DeclarationGrammar:
			name := strings.ToLower(string(data))
			value := rawValue(parser.Values())
			if value == "" {
				return nil, fmt.Errorf("%w: %q: property %s has no value", ErrInvalidDeclarations, text, name)
			}
			props[name] = value

		case css.CustomPropertyGrammar:
			// CSS custom properties (--var) are not something we generate rules for
			p.log.Debug("Skipping custom property", zap.String("name", string(data)))

		default:
			return nil, fmt.Errorf("%w: %q: unexpected %s", ErrInvalidDeclarations, text, gt)
		}
	}
}

// rawValue builds value text from tokens, any whitespace run between
// tokens becomes single space.
func rawValue(tokens []css.Token) string {
	var sb strings.Builder
	space := false
	for _, t := range tokens {
		if t.TokenType == css.WhitespaceToken {
			space = sb.Len() > 0
			continue
		}
		if space {
			sb.WriteByte(' ')
			space = false
		}
		sb.Write(t.Data)
	}
	return sb.String()
}
