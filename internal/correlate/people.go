package correlate

import (
	"fmt"

	"github.com/halcyonhq/insights-platform/internal/extract"
	"github.com/halcyonhq/insights-platform/internal/journal"
	"github.com/halcyonhq/insights-platform/pkg/config"
)

// PeopleEngine correlates social factors with mood. Group mentions (family,
// friends, partner, pet, coworkers, kids) are aggregated ahead of named
// individuals and always listed first regardless of delta magnitude. That
// ordering is a privacy and generalizability policy, not a statistical one.
type PeopleEngine struct {
	cfg config.InsightConfig
}

// NewPeopleEngine creates a people correlation engine.
func NewPeopleEngine(cfg config.InsightConfig) *PeopleEngine {
	return &PeopleEngine{cfg: cfg}
}

func (e *PeopleEngine) Category() string { return CategoryPeople }

func (e *PeopleEngine) Correlate(views []journal.MoodView) []Insight {
	if len(views) < e.cfg.MinEntries {
		return nil
	}

	baseline := baselineMood(views)

	groupFactors := make(map[string]*group)
	individualFactors := make(map[string]*group)

	for _, v := range views {
		people := extract.PeopleIn(v.Entry)
		for _, key := range people.Groups {
			g := groupFactors[key]
			if g == nil {
				g = &group{}
				groupFactors[key] = g
			}
			g.add(v)
		}
		for _, name := range people.Individuals {
			g := individualFactors[name]
			if g == nil {
				g = &group{}
				individualFactors[name] = g
			}
			g.add(v)
		}
	}

	var groupInsights []Insight
	for key, g := range groupFactors {
		if len(g.moods) < e.cfg.MinDataPoints {
			continue
		}
		label, emoji := extract.LabelFor(extract.PeopleGroupFactors(), key)
		in := newInsight(e.cfg, CategoryPeople, key, peopleText(label, emoji, baseline, g), g.moods, g.ids, baseline)
		if in != nil {
			groupInsights = append(groupInsights, *in)
		}
	}

	// Named individuals are entity-like factors: the floor is the lower
	// mentions threshold rather than the group data-points floor.
	var individualInsights []Insight
	for name, g := range individualFactors {
		if len(g.moods) < e.cfg.MinMentions {
			continue
		}
		in := newInsight(e.cfg, CategoryPeople, name, peopleText(name, "", baseline, g), g.moods, g.ids, baseline)
		if in != nil {
			individualInsights = append(individualInsights, *in)
		}
	}

	groupInsights = sortAndCap(groupInsights, e.cfg.MaxPerCategory)
	individualInsights = sortAndCap(individualInsights, e.cfg.MaxPerCategory)

	// Groups first, then individuals, truncated as one category
	merged := append(groupInsights, individualInsights...)
	if len(merged) > e.cfg.MaxPerCategory {
		merged = merged[:e.cfg.MaxPerCategory]
	}
	return merged
}

func peopleText(label, emoji string, baseline float64, g *group) string {
	delta := deltaPoints(g, baseline)
	prefix := "Time with " + label
	if emoji != "" {
		prefix = emoji + " " + prefix
	}
	if delta >= 0 {
		return fmt.Sprintf("%s lifts your mood by %d%%", prefix, delta)
	}
	return fmt.Sprintf("%s coincides with a %d%% lower mood", prefix, -delta)
}
