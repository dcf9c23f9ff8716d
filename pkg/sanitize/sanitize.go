package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.StrictPolicy()

// String strips all markup and surrounding whitespace from user input.
func String(input string) string {
	// StrictPolicy escapes entities; undo that so "Q&A" stays readable.
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(input)))
}
