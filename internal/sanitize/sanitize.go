// Package sanitize strips markup from user supplied text before it is stored.
// Reports and chat messages are plain text; any HTML is removed rather than
// escaped so clients can render the stored value as-is.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// maxPasses bounds how many layers of entity encoding are peeled off.
const maxPasses = 8

// Text removes all tags from s, unescapes the entities bluemonday leaves
// behind and trims surrounding whitespace. Unescaping can expose encoded
// tags, so the two steps repeat until the output no longer changes.
func Text(s string) string {
	if s == "" {
		return ""
	}
	out := pass(s)
	for range maxPasses {
		next := pass(out)
		if next == out {
			return out
		}
		out = next
	}
	// Still changing: drop every character that could start markup.
	return strings.TrimSpace(strings.NewReplacer("<", "", ">", "").Replace(out))
}

func pass(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
