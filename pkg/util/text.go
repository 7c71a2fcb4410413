package util

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// htmlPolicy limits rendered notification bodies to line breaks and paragraphs.
var htmlPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br")
	return p
}()

// CleanText trims user supplied free text and drops NUL bytes, which
// PostgreSQL text columns reject. Everything else is stored as typed.
func CleanText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}

// CleanOptional applies CleanText to an optional value, mapping blanks to nil.
func CleanOptional(s *string) *string {
	if s == nil {
		return nil
	}
	clean := CleanText(*s)
	if clean == "" {
		return nil
	}
	return &clean
}

// HTMLText renders stored free text as an HTML fragment. The text is escaped,
// line breaks become <br/> and the result passes through a policy that only
// admits the markup added here.
func HTMLText(s string) string {
	escaped := html.EscapeString(CleanText(s))
	escaped = strings.ReplaceAll(strings.ReplaceAll(escaped, "\r\n", "\n"), "\n", "<br/>")
	return htmlPolicy.Sanitize("<p>" + escaped + "</p>")
}

// Truncate cuts s to at most max runes.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
