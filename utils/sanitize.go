package utils

import "github.com/microcosm-cc/bluemonday"

var (
	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

// SanitizeHTML keeps safe user formatting (publication bodies).
func SanitizeHTML(input string) string {
	return ugcPolicy.Sanitize(input)
}

// StripHTML removes all markup (review feedback, titles).
func StripHTML(input string) string {
	return strictPolicy.Sanitize(input)
}
