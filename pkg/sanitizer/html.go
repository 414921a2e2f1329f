// Package sanitizer turns HTML email bodies into plain-text alternatives.
package sanitizer

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict drops every tag and keeps only text content.
var strict = bluemonday.StrictPolicy()

var (
	// lineBreakTags match elements that end a visual line.
	lineBreakTags = regexp.MustCompile(`(?i)<br\s*/?>|</(p|div|h[1-6]|li|tr|blockquote|pre)\s*>`)
	blankLines    = regexp.MustCompile(`\n[ \t]*\n(\s*\n)+`)
	trailingSpace = regexp.MustCompile(`[ \t]+\n`)
)

// PlainText converts an HTML document into a readable plain-text alternative.
// Line-ending elements become newlines, entities are decoded, and runs of blank
// lines collapse into one. Scripts and styles are dropped with their content.
func PlainText(s string) string {
	if s == "" {
		return ""
	}

	s = lineBreakTags.ReplaceAllStringFunc(s, func(tag string) string {
		return tag + "\n"
	})
	s = html.UnescapeString(strict.Sanitize(s))
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = trailingSpace.ReplaceAllString(s, "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
