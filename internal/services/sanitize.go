// internal/services/sanitize.go
package services

import "strings"

// sanitizeText strips angle brackets and surrounding whitespace from
// user-provided text before it is persisted.
func sanitizeText(text string) string {
	text = strings.NewReplacer("<", "", ">", "").Replace(text)
	return strings.TrimSpace(text)
}
