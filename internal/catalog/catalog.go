// Package catalog holds the fixed prompt templates and localized core strings
// for every supported language.
package catalog

import (
	"fmt"
	"sort"

	"github.com/vbonduro/aushadhi/internal/domain"
)

type SectionKey string

const (
	Identification SectionKey = "identification"
	Composition    SectionKey = "composition"
	Therapeutic    SectionKey = "therapeutic"
	Dosage         SectionKey = "dosage"
	Safety         SectionKey = "safety"
	Storage        SectionKey = "storage"
	Manufacturer   SectionKey = "manufacturer"
)

// SectionKeys is the declaration order used for report assembly.
var SectionKeys = []SectionKey{
	Identification,
	Composition,
	Therapeutic,
	Dosage,
	Safety,
	Storage,
	Manufacturer,
}

type Section struct {
	Key      SectionKey
	Title    string
	Template string
}

// Strings is the localized copy produced by the core itself.
type Strings struct {
	AnalysisFailed  string
	ReportFailed    string
	ChatError       string
	ErrorLabel      string
	UnknownMedicine string
}

type Catalog struct {
	Language domain.Language
	Strings  Strings

	sections map[SectionKey]Section
	initial  string
	followUp string
}

// Sections returns the catalog's sections in SectionKeys order.
func (c *Catalog) Sections() []Section {
	out := make([]Section, 0, len(SectionKeys))
	for _, k := range SectionKeys {
		out = append(out, c.sections[k])
	}
	return out
}

func (c *Catalog) Section(key SectionKey) (Section, bool) {
	s, ok := c.sections[key]
	return s, ok
}

// InitialPrompt is the single-shot prompt that opens a chat session.
func (c *Catalog) InitialPrompt() string {
	return c.initial
}

// FollowUp wraps the first question of a session with the analysis it is
// grounded on.
func (c *Catalog) FollowUp(initialAnalysis, question string) string {
	return fmt.Sprintf(c.followUp, initialAnalysis, question)
}

var catalogs = map[domain.Language]*Catalog{
	domain.English: english,
	domain.Nepali:  nepali,
}

// For returns the catalog for lang.
func For(lang domain.Language) (*Catalog, error) {
	c, ok := catalogs[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedLanguage, lang)
	}
	return c, nil
}

// MustFor is For for languages already validated by domain.ParseLanguage.
func MustFor(lang domain.Language) *Catalog {
	c, err := For(lang)
	if err != nil {
		panic(err)
	}
	return c
}

func init() {
	if err := validate(catalogs); err != nil {
		panic(err)
	}
}

// validate checks that every catalog defines exactly the SectionKeys set and
// every template and title is non-empty.
func validate(all map[domain.Language]*Catalog) error {
	for lang, c := range all {
		if c.Language != lang {
			return fmt.Errorf("catalog %q registered under %q", c.Language, lang)
		}
		if len(c.sections) != len(SectionKeys) {
			return fmt.Errorf("catalog %q: %d sections, want %d (%v)", lang, len(c.sections), len(SectionKeys), keysOf(c.sections))
		}
		for _, k := range SectionKeys {
			s, ok := c.sections[k]
			if !ok {
				return fmt.Errorf("catalog %q: missing section %q", lang, k)
			}
			if s.Key != k || s.Title == "" || s.Template == "" {
				return fmt.Errorf("catalog %q: incomplete section %q", lang, k)
			}
		}
		if c.initial == "" || c.followUp == "" {
			return fmt.Errorf("catalog %q: missing chat templates", lang)
		}
	}
	return nil
}

func keysOf(m map[SectionKey]Section) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	return keys
}

func sectionMap(sections ...Section) map[SectionKey]Section {
	m := make(map[SectionKey]Section, len(sections))
	for _, s := range sections {
		m[s.Key] = s
	}
	return m
}
