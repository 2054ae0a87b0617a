package correlate

import (
	"fmt"

	"github.com/halcyonhq/insights-platform/internal/extract"
	"github.com/halcyonhq/insights-platform/internal/journal"
	"github.com/halcyonhq/insights-platform/pkg/config"
)

// ThemesEngine correlates annotated themes, emotions, and cognitive patterns
// with mood against the global baseline.
type ThemesEngine struct {
	cfg config.InsightConfig
}

// NewThemesEngine creates a themes correlation engine.
func NewThemesEngine(cfg config.InsightConfig) *ThemesEngine {
	return &ThemesEngine{cfg: cfg}
}

func (e *ThemesEngine) Category() string { return CategoryThemes }

func (e *ThemesEngine) Correlate(views []journal.MoodView) []Insight {
	if len(views) < e.cfg.MinEntries {
		return nil
	}

	baseline := baselineMood(views)

	groups := make(map[string]*group)
	for _, v := range views {
		for _, key := range extract.Themes(v.Entry) {
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

		label, emoji := extract.LabelFor(extract.ThemeFactors(), key)
		in := newInsight(e.cfg, CategoryThemes, key, "", g.moods, g.ids, baseline)
		if in == nil {
			continue
		}

		prefix := label
		if emoji != "" {
			prefix = emoji + " " + label
		}
		if in.MoodDelta >= 0 {
			in.Insight = fmt.Sprintf("Entries touching on %s run %d%% above your average mood", prefix, in.MoodDelta)
		} else {
			in.Insight = fmt.Sprintf("Entries touching on %s run %d%% below your average mood", prefix, -in.MoodDelta)
			in.Recommendation = fmt.Sprintf("When %s shows up, a short grounding exercise may soften its pull", label)
		}
		insights = append(insights, *in)
	}

	return sortAndCap(insights, e.cfg.MaxPerCategory)
}
