package analysis

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Render formats sections as the plain-text report: a title, a dash underline
// of the same length, the content or an error line, then a blank line.
func Render(sections []Section, errorLabel string) string {
	var b strings.Builder
	for _, s := range sections {
		b.WriteString(s.Title)
		b.WriteByte('\n')
		b.WriteString(strings.Repeat("-", utf8.RuneCountInString(s.Title)))
		b.WriteByte('\n')
		if s.Status == StatusError {
			fmt.Fprintf(&b, "%s: %s", errorLabel, s.Error)
		} else {
			b.WriteString(s.Content)
		}
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}
