// Package extract pulls a display name for a medicine out of free-form
// analysis text.
package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/vbonduro/aushadhi/internal/catalog"
	"github.com/vbonduro/aushadhi/internal/domain"
)

// maxNameLen bounds the first-line fallback, counted in characters.
const maxNameLen = 50

// structuredPatterns match the "label: value" lines of the initial-analysis
// report format in either language.
var structuredPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)MEDICINE NAME:\s*([^\n]+)`),
	regexp.MustCompile(`(?i)औषधिको नाम:\s*([^\n]+)`),
}

// narrativePatterns match older, less structured analyses.
var narrativePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:Medicine name|Name|Medicine):\s*([^\n.]+)`),
	regexp.MustCompile(`(?im)^(?:Medicine name|Name|Medicine):\s*([^\n.]+)`),
	regexp.MustCompile(`(?i)The medicine "([^"]+)"`),
	regexp.MustCompile(`(?i)medicine called "([^"]+)"`),
	regexp.MustCompile(`(?i)medicine (?:is|named|called) ([^\n.]+)`),
}

var (
	narrativeLead = regexp.MustCompile(`(?i)^(the|medicine|name|called|is)\s+`)
	fillerPrefix  = regexp.MustCompile(`(?i)^(?:based on|looking at|analyzing|for|the|medicine|package)\s+`)
	fillerSuffix  = regexp.MustCompile(`(?i)(?:you provided|provided|image|package|here|is)\s*$`)
	clauseBreak   = regexp.MustCompile(`[,.]`)
)

// MedicineName returns a best-effort medicine name for analysis, or the
// localized unknown-medicine placeholder when nothing usable is found.
func MedicineName(analysis string, lang domain.Language) string {
	unknown := unknownMedicine(lang)

	for _, p := range structuredPatterns {
		if m := p.FindStringSubmatch(analysis); m != nil && m[1] != "" {
			// [^\n]+ can still be all blanks; keep scanning if so.
			if name := strings.TrimSpace(m[1]); name != "" {
				return name
			}
		}
	}

	for _, p := range narrativePatterns {
		if m := p.FindStringSubmatch(analysis); m != nil && m[1] != "" {
			name := strings.TrimSpace(m[1])
			return narrativeLead.ReplaceAllString(name, "")
		}
	}

	firstLine, _, _ := strings.Cut(analysis, "\n")
	cleaned := fillerPrefix.ReplaceAllString(firstLine, "")
	cleaned = strings.TrimSpace(fillerSuffix.ReplaceAllString(cleaned, ""))

	if utf8.RuneCountInString(cleaned) > maxNameLen {
		candidate := strings.TrimSpace(clauseBreak.Split(cleaned, 2)[0])
		if utf8.RuneCountInString(candidate) > maxNameLen {
			return unknown
		}
		return candidate
	}
	if cleaned == "" {
		return unknown
	}
	return cleaned
}

func unknownMedicine(lang domain.Language) string {
	c, err := catalog.For(lang)
	if err != nil {
		c = catalog.MustFor(domain.English)
	}
	return c.Strings.UnknownMedicine
}
