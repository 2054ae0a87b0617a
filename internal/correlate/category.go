package correlate

import (
	"fmt"

	"github.com/halcyonhq/insights-platform/internal/extract"
	"github.com/halcyonhq/insights-platform/internal/journal"
	"github.com/halcyonhq/insights-platform/pkg/config"
)

// CategoryEngine correlates entry classification (category, entry type) with
// mood against the global baseline.
type CategoryEngine struct {
	cfg config.InsightConfig
}

// NewCategoryEngine creates a category correlation engine.
func NewCategoryEngine(cfg config.InsightConfig) *CategoryEngine {
	return &CategoryEngine{cfg: cfg}
}

func (e *CategoryEngine) Category() string { return CategoryCategory }

func (e *CategoryEngine) Correlate(views []journal.MoodView) []Insight {
	if len(views) < e.cfg.MinEntries {
		return nil
	}

	baseline := baselineMood(views)

	groups := make(map[string]*group)
	for _, v := range views {
		for _, key := range extract.Categories(v.Entry) {
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

		in := newInsight(e.cfg, CategoryCategory, key, "", g.moods, g.ids, baseline)
		if in == nil {
			continue
		}

		if in.MoodDelta >= 0 {
			in.Insight = fmt.Sprintf("Your %q entries run %d%% above your average mood", key, in.MoodDelta)
		} else {
			in.Insight = fmt.Sprintf("Your %q entries run %d%% below your average mood", key, -in.MoodDelta)
		}
		insights = append(insights, *in)
	}

	return sortAndCap(insights, e.cfg.MaxPerCategory)
}
