package utils

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.StrictPolicy()

// Sanitize strips every tag from plain text. Entities the policy escapes are
// decoded again, so "Tom & Jerry" is stored as typed.
func Sanitize(input string) string {
	return html.UnescapeString(sanitizer.Sanitize(input))
}
