package markup

import (
	"strings"
	"unicode"

	"github.com/h2non/filetype"
)

// AlternativeFormatURL replaces the last extension of u with format. Query
// and fragment are kept in place, URL without extension gets format appended.
//
//	AlternativeFormatURL("/img/a-320.jpg?v=2", "webp") == "/img/a-320.webp?v=2"
func AlternativeFormatURL(u, format string) string {
	path, tail := u, ""
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		path, tail = u[:i], u[i:]
	}
	if dot := strings.LastIndexByte(path, '.'); dot >= 0 && isExtension(path[dot+1:]) {
		path = path[:dot]
	}
	return path + "." + format + tail
}

func isExtension(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return r == '/' || unicode.IsSpace(r)
	}) < 0
}

// MIMEType returns media type for image format name.
func MIMEType(format string) string {
	format = strings.ToLower(format)
	if mime := filetype.GetType(format).MIME.Value; mime != "" {
		return mime
	}
	return "image/" + format
}
