// Package sanitize cleans user-supplied display text before it is stored.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)

	entityReplacer = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
		"&quot;", "\"",
		"&#39;", "'",
	)
)

// StripHTML removes tags, decodes the common entities and strips again so
// encoded tags do not survive.
func StripHTML(s string) string {
	result := tagPattern.ReplaceAllString(s, "")
	result = entityReplacer.Replace(result)
	result = tagPattern.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// DisplayName strips markup and collapses runs of whitespace to one space.
func DisplayName(s string) string {
	return whitespacePattern.ReplaceAllString(StripHTML(s), " ")
}
