// Package css keeps generated stylesheets as a list of rules and @media
// blocks and renders them deterministically.
package css

import (
	"fmt"
	"io"
	"slices"
	"strings"
)

// EscapeDoubleQuoted escapes a string for use inside CSS double quotes.
// Backslashes and double quotes are escaped per CSS syntax: \" and \\,
// line breaks are written as code points.
func EscapeDoubleQuoted(s string) string {
	// Fast path: nothing to escape.
	if !strings.ContainsAny(s, "\"\\\n\r") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\a `)
		case '\r':
			b.WriteString(`\d `)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// URL returns url() value referencing u.
func URL(u string) string {
	return `url("` + EscapeDoubleQuoted(u) + `")`
}

// ClassSelector returns selector for class, optionally scoped by ancestor
// selector: ClassSelector("html.webp", "hero") is "html.webp .hero".
func ClassSelector(ancestor, class string) string {
	if ancestor == "" {
		return "." + class
	}
	return ancestor + " ." + class
}

// Rule represents a single CSS rule (selector + properties).
type Rule struct {
	Selector   string
	Properties map[string]string // Property name -> raw value
}

// MediaBlock represents a @media block with its query and nested rules.
// Comments are written at the top of the block.
type MediaBlock struct {
	Query    string
	Comments []string
	Rules    []Rule
}

// StylesheetItem is a single top-level item in a stylesheet.
// Exactly one of Rule, MediaBlock or Comment is set.
type StylesheetItem struct {
	Rule       *Rule
	MediaBlock *MediaBlock
	Comment    *string
}

// Stylesheet is an ordered list of items. Order is significant - among
// rules of equal specificity the last matching one wins.
type Stylesheet struct {
	Items []StylesheetItem
}

// AddRule appends rule to the stylesheet.
func (s *Stylesheet) AddRule(selector string, props map[string]string) {
	s.Items = append(s.Items, StylesheetItem{Rule: &Rule{Selector: selector, Properties: props}})
}

// AddMediaBlock appends @media block to the stylesheet.
func (s *Stylesheet) AddMediaBlock(mb MediaBlock) {
	s.Items = append(s.Items, StylesheetItem{MediaBlock: &mb})
}

// AddComment appends comment to the stylesheet.
func (s *Stylesheet) AddComment(text string) {
	s.Items = append(s.Items, StylesheetItem{Comment: &text})
}

// Append adds all items of other stylesheet after items of s.
func (s *Stylesheet) Append(other *Stylesheet) {
	if other == nil {
		return
	}
	s.Items = append(s.Items, other.Items...)
}

// Len returns number of top-level items.
func (s *Stylesheet) Len() int {
	return len(s.Items)
}

// MediaBlocks returns all @media blocks in source order.
func (s *Stylesheet) MediaBlocks() []MediaBlock {
	var blocks []MediaBlock
	for _, item := range s.Items {
		if item.MediaBlock != nil {
			blocks = append(blocks, *item.MediaBlock)
		}
	}
	return blocks
}

// RulesBySelector returns all top-level rules matching the given selector string.
func (s *Stylesheet) RulesBySelector(selector string) []Rule {
	var matches []Rule
	for _, item := range s.Items {
		if item.Rule != nil && item.Rule.Selector == selector {
			matches = append(matches, *item.Rule)
		}
	}
	return matches
}

// WriteTo writes the stylesheet to w in source order, implementing io.WriterTo.
// Property order within a rule is sorted alphabetically for deterministic output.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	for i, item := range s.Items {
		if i > 0 {
			cw.print("\n")
		}
		switch {
		case item.Comment != nil:
			cw.printf("%s\n", comment(*item.Comment))
		case item.MediaBlock != nil:
			writeMediaBlock(cw, item.MediaBlock)
		case item.Rule != nil:
			writeRule(cw, item.Rule, "")
		}
		if cw.err != nil {
			break
		}
	}
	return cw.n, cw.err
}

// String returns the CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

// countingWriter remembers first error, so writers below do not have to
// check every call.
type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (cw *countingWriter) printf(format string, args ...any) {
	if cw.err != nil {
		return
	}
	n, err := fmt.Fprintf(cw.w, format, args...)
	cw.n += int64(n)
	cw.err = err
}

func (cw *countingWriter) print(s string) {
	if cw.err != nil {
		return
	}
	n, err := io.WriteString(cw.w, s)
	cw.n += int64(n)
	cw.err = err
}

// comment makes sure text cannot terminate comment early.
func comment(text string) string {
	return "/* " + strings.ReplaceAll(text, "*/", "* /") + " */"
}

func writeRule(cw *countingWriter, rule *Rule, indent string) {
	cw.printf("%s%s {\n", indent, rule.Selector)
	names := make([]string, 0, len(rule.Properties))
	for name := range rule.Properties {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		cw.printf("%s  %s: %s;\n", indent, name, rule.Properties[name])
	}
	cw.printf("%s}\n", indent)
}

func writeMediaBlock(cw *countingWriter, mb *MediaBlock) {
	cw.printf("@media %s {\n", mb.Query)
	for _, c := range mb.Comments {
		cw.printf("  %s\n", comment(c))
	}
	for i := range mb.Rules {
		if i > 0 {
			cw.print("\n")
		}
		writeRule(cw, &mb.Rules[i], "  ")
	}
	cw.print("}\n")
}
