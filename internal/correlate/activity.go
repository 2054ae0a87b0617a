package correlate

import (
	"fmt"

	"github.com/halcyonhq/insights-platform/internal/extract"
	"github.com/halcyonhq/insights-platform/internal/journal"
	"github.com/halcyonhq/insights-platform/pkg/config"
)

// ActivityEngine correlates detected activities with mood against the global
// baseline.
type ActivityEngine struct {
	cfg config.InsightConfig
}

// NewActivityEngine creates an activity correlation engine.
func NewActivityEngine(cfg config.InsightConfig) *ActivityEngine {
	return &ActivityEngine{cfg: cfg}
}

func (e *ActivityEngine) Category() string { return CategoryActivity }

func (e *ActivityEngine) Correlate(views []journal.MoodView) []Insight {
	if len(views) < e.cfg.MinEntries {
		return nil
	}

	baseline := baselineMood(views)

	groups := make(map[string]*group)
	for _, v := range views {
		for _, key := range extract.Activities(v.Entry) {
			g := groups[key]
			if g == nil {
				g = &group{}
				groups[key] = g
			}
			g.add(v)
		}
	}

	var insights []Insight
	for key, g := range groups {
		if len(g.moods) < e.cfg.MinDataPoints {
			continue
		}

		label, emoji := extract.LabelFor(extract.ActivityFactors(), key)

		in := newInsight(e.cfg, CategoryActivity, key, activityText(label, emoji, baseline, g), g.moods, g.ids, baseline)
		if in == nil {
			continue
		}
		in.Recommendation = activityRecommendation(label, in.MoodDelta)
		insights = append(insights, *in)
	}

	return sortAndCap(insights, e.cfg.MaxPerCategory)
}

func activityText(label, emoji string, baseline float64, g *group) string {
	delta := deltaPoints(g, baseline)
	prefix := label
	if emoji != "" {
		prefix = emoji + " " + label
	}
	if delta >= 0 {
		return fmt.Sprintf("%s days lift your mood by %d%% compared to your average", prefix, delta)
	}
	return fmt.Sprintf("%s days lower your mood by %d%% compared to your average", prefix, -delta)
}

func activityRecommendation(label string, delta int) string {
	if delta > 0 {
		return fmt.Sprintf("Making time for %s more often could support your mood", label)
	}
	return fmt.Sprintf("Notice what makes %s days harder; pairing them with something restorative may help", label)
}
