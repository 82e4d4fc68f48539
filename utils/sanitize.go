package utils

import "github.com/microcosm-cc/bluemonday"

var notePolicy = bluemonday.StrictPolicy()

// SanitizeNote strips any HTML from note text. Notes are plain text; the
// strict policy keeps pasted markup from ever reaching other clients.
func SanitizeNote(s string) string {
	return notePolicy.Sanitize(s)
}
