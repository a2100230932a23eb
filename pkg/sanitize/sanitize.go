package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

const maxPasses = 8

// Text strips all markup from user-supplied text and returns it trimmed.
// Entity-encoded markup is decoded and stripped again until the result is stable.
func Text(s string) string {
	for i := 0; i < maxPasses; i++ {
		next := html.UnescapeString(strict.Sanitize(s))
		if next == s {
			return strings.TrimSpace(s)
		}
		s = next
	}
	// still changing: keep the escaped form
	return strings.TrimSpace(strict.Sanitize(s))
}

// Inline is Text with runs of whitespace collapsed, for titles and search documents.
func Inline(s string) string {
	s = strings.NewReplacer("</p>", " ", "<br>", " ", "<br/>", " ", "</div>", " ").Replace(s)
	return strings.Join(strings.Fields(Text(s)), " ")
}
