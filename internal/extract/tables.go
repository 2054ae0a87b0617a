// Package extract turns a journal entry into the set of categorical factors
// present in it. Detection prefers structured annotations, then namespaced
// tags, then keyword matching over free text as the least reliable fallback.
package extract

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed factors.yaml
var factorsYAML []byte

// Factor is one declaratively configured detector: a stable key, display
// label, emoji for templated insight text, and the keyword patterns that
// detect it in free text.
type Factor struct {
	Key      string   `yaml:"key"`
	Label    string   `yaml:"label"`
	Emoji    string   `yaml:"emoji"`
	Patterns []string `yaml:"patterns"`

	re *regexp.Regexp
}

// Matches reports whether the factor's keyword patterns occur in text. The
// compiled expression is shared, but matching carries no positional state, so
// repeated calls never skip matches.
func (f *Factor) Matches(text string) bool {
	if f.re == nil || text == "" {
		return false
	}
	return f.re.MatchString(text)
}

type factorTables struct {
	Activity     []Factor `yaml:"activity"`
	PeopleGroups []Factor `yaml:"people_groups"`
	Themes       []Factor `yaml:"themes"`
}

var (
	tablesOnce sync.Once
	tables     factorTables
	tablesErr  error
)

func loadTables() (*factorTables, error) {
	tablesOnce.Do(func() {
		if err := yaml.Unmarshal(factorsYAML, &tables); err != nil {
			tablesErr = fmt.Errorf("failed to parse factor tables: %w", err)
			return
		}
		for _, set := range [][]Factor{tables.Activity, tables.PeopleGroups, tables.Themes} {
			for i := range set {
				re, err := compilePatterns(set[i].Patterns)
				if err != nil {
					tablesErr = fmt.Errorf("factor %s: %w", set[i].Key, err)
					return
				}
				set[i].re = re
			}
		}
	})
	if tablesErr != nil {
		return nil, tablesErr
	}
	return &tables, nil
}

// compilePatterns builds one case-insensitive whole-word alternation for a
// pattern set.
func compilePatterns(patterns []string) (*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("empty pattern set")
	}
	quoted := make([]string, len(patterns))
	for i, p := range patterns {
		quoted[i] = regexp.QuoteMeta(strings.ToLower(p))
	}
	return regexp.Compile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
}

// ActivityFactors returns the activity factor table.
func ActivityFactors() []Factor {
	t, err := loadTables()
	if err != nil {
		return nil
	}
	return t.Activity
}

// PeopleGroupFactors returns the people-group factor table.
func PeopleGroupFactors() []Factor {
	t, err := loadTables()
	if err != nil {
		return nil
	}
	return t.PeopleGroups
}

// ThemeFactors returns the theme factor table.
func ThemeFactors() []Factor {
	t, err := loadTables()
	if err != nil {
		return nil
	}
	return t.Themes
}

// FindKeywordMatches reports which of the given keywords occur as whole words
// in text. This is the generic primitive behind every keyword detector.
func FindKeywordMatches(text string, keywords []string) []string {
	if text == "" || len(keywords) == 0 {
		return nil
	}
	lower := strings.ToLower(text)
	var hits []string
	for _, kw := range keywords {
		re, err := compilePatterns([]string{kw})
		if err != nil {
			continue
		}
		if re.MatchString(lower) {
			hits = append(hits, kw)
		}
	}
	return hits
}

// ContainsAnyKeyword reports whether text contains at least one of the
// keywords as a whole word.
func ContainsAnyKeyword(text string, keywords []string) bool {
	return len(FindKeywordMatches(text, keywords)) > 0
}
