package correlate

import (
	"fmt"

	"github.com/halcyonhq/insights-platform/internal/extract"
	"github.com/halcyonhq/insights-platform/internal/journal"
	"github.com/halcyonhq/insights-platform/internal/stats"
	"github.com/halcyonhq/insights-platform/pkg/config"
)

// TimeEngine correlates temporal buckets with mood: a binary weekend/weekday
// split plus hour-band groups compared against the global baseline. Buckets
// use the entry's effective date when one is set.
type TimeEngine struct {
	cfg config.InsightConfig
}

// NewTimeEngine creates a time correlation engine.
func NewTimeEngine(cfg config.InsightConfig) *TimeEngine {
	return &TimeEngine{cfg: cfg}
}

func (e *TimeEngine) Category() string { return CategoryTime }

func (e *TimeEngine) Correlate(views []journal.MoodView) []Insight {
	if len(views) < e.cfg.MinEntries {
		return nil
	}

	baseline := baselineMood(views)

	var weekend, weekday group
	bands := make(map[string]*group)

	for _, v := range views {
		if extract.DayType(v.When) == extract.DayWeekend {
			weekend.add(v)
		} else {
			weekday.add(v)
		}

		band := extract.HourBand(v.When)
		g := bands[band]
		if g == nil {
			g = &group{}
			bands[band] = g
		}
		g.add(v)
	}

	var insights []Insight

	// Binary split: weekends are compared against weekdays directly, not
	// against the pooled baseline.
	if len(weekend.moods) >= e.cfg.MinDataPoints && len(weekday.moods) >= e.cfg.MinDataPoints {
		weekdayMean := stats.Average(weekday.moods)
		if in := newInsight(e.cfg, CategoryTime, "weekends", "", weekend.moods, weekend.ids, weekdayMean); in != nil {
			if in.MoodDelta >= 0 {
				in.Insight = fmt.Sprintf("Weekends lift your mood by %d%% over weekdays", in.MoodDelta)
			} else {
				in.Insight = fmt.Sprintf("Weekends run %d%% lower than your weekday mood", -in.MoodDelta)
				in.Recommendation = "Weekends seem harder for you; planning one grounding activity may help"
			}
			insights = append(insights, *in)
		}
	}

	for band, g := range bands {
		if len(g.moods) < e.cfg.MinDataPoints {
			continue
		}
		if in := newInsight(e.cfg, CategoryTime, band, "", g.moods, g.ids, baseline); in != nil {
			if in.MoodDelta >= 0 {
				in.Insight = fmt.Sprintf("Your %s entries run %d%% above your average mood", band, in.MoodDelta)
			} else {
				in.Insight = fmt.Sprintf("Your %s entries run %d%% below your average mood", band, -in.MoodDelta)
			}
			insights = append(insights, *in)
		}
	}

	return sortAndCap(insights, e.cfg.MaxPerCategory)
}
