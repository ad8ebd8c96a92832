package validation

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var strictHTMLPolicy = bluemonday.StrictPolicy()

// SanitizeText strips HTML and unprintable characters from free text such as
// notes, tags and account names. Entities produced by the policy are decoded
// again so that "a & b" is stored as typed.
func SanitizeText(s string) string {
	clean := html.UnescapeString(strictHTMLPolicy.Sanitize(s))
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' {
			return r
		}
		return -1
	}, clean))
}
