// Package sanitize strips markup from free-form tracking context before it
// is journaled or forwarded. Context maps arrive verbatim from
// marketing-site form fields, so any string value may carry HTML.
package sanitize

import (
	"regexp"
	"strings"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// StripHTML removes HTML tags from a string. Common entities are decoded
// between passes so an entity-encoded tag cannot survive a single strip.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = strings.ReplaceAll(result, "&lt;", "<")
	result = strings.ReplaceAll(result, "&gt;", ">")
	result = strings.ReplaceAll(result, "&amp;", "&")
	result = strings.ReplaceAll(result, "&quot;", "\"")
	result = strings.ReplaceAll(result, "&#39;", "'")
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text sanitizes one context value for storage and delivery.
func Text(s string) string {
	return StripHTML(s)
}
