package extract

import (
	"strings"

	"github.com/halcyonhq/insights-platform/internal/journal"
)

// Activities returns the activity factor keys present in an entry.
// Namespaced tags are trusted over keyword matches; both may contribute.
func Activities(e *journal.Entry) []string {
	seen := make(map[string]bool)
	var keys []string

	add := func(key string) {
		key = strings.ToLower(strings.TrimSpace(key))
		if key != "" && !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}

	for _, tag := range e.TagsWithPrefix("@activity:") {
		add(tag)
	}

	factors := ActivityFactors()
	for i := range factors {
		if factors[i].Matches(e.Text) {
			add(factors[i].Key)
		}
	}

	return keys
}

// People holds the people factors of an entry, split by kind: group labels
// (family, friends, ...) are reported ahead of named individuals by the
// people engine regardless of effect size.
type People struct {
	Groups      []string
	Individuals []string
}

// PeopleIn returns the people factors present in an entry. Group detection
// runs over free text and person tags; named individuals come from the
// AI-derived entity annotations as a fallback.
func PeopleIn(e *journal.Entry) People {
	var p People
	seenGroup := make(map[string]bool)

	groups := PeopleGroupFactors()
	for i := range groups {
		if groups[i].Matches(e.Text) && !seenGroup[groups[i].Key] {
			seenGroup[groups[i].Key] = true
			p.Groups = append(p.Groups, groups[i].Key)
		}
	}

	seenPerson := make(map[string]bool)
	addPerson := func(name string) {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seenPerson[name] || seenGroup[name] {
			return
		}
		seenPerson[name] = true
		p.Individuals = append(p.Individuals, name)
	}

	for _, tag := range e.TagsWithPrefix("@person:") {
		addPerson(tag)
	}
	for _, entity := range e.Entities {
		addPerson(entity)
	}

	return p
}

// Themes returns the theme factor keys present in an entry. Structured
// annotations (themes, emotions, cognitive patterns) are most reliable;
// keyword matching over text is the fallback.
func Themes(e *journal.Entry) []string {
	seen := make(map[string]bool)
	var keys []string

	add := func(key string) {
		key = strings.ToLower(strings.TrimSpace(key))
		if key != "" && !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}

	for _, t := range e.Themes {
		add(t)
	}
	for _, em := range e.Emotions {
		add(em)
	}
	for _, cp := range e.CognitivePatterns {
		add(cp)
	}

	if len(keys) == 0 {
		themes := ThemeFactors()
		for i := range themes {
			if themes[i].Matches(e.Text) {
				add(themes[i].Key)
			}
		}
	}

	return keys
}

// Categories returns the classification factors of an entry: its category
// and entry type, when set.
func Categories(e *journal.Entry) []string {
	var keys []string
	if c := strings.ToLower(strings.TrimSpace(e.Category)); c != "" {
		keys = append(keys, c)
	}
	if et := strings.ToLower(strings.TrimSpace(e.EntryType)); et != "" && et != strings.ToLower(e.Category) {
		keys = append(keys, et)
	}
	return keys
}

// LabelFor returns the display label and emoji configured for a factor key in
// the given table, falling back to the key itself.
func LabelFor(table []Factor, key string) (string, string) {
	for i := range table {
		if table[i].Key == key {
			return table[i].Label, table[i].Emoji
		}
	}
	return key, ""
}
