package correlate

import (
	"fmt"

	"github.com/halcyonhq/insights-platform/internal/journal"
	"github.com/halcyonhq/insights-platform/internal/stats"
	"github.com/halcyonhq/insights-platform/pkg/config"
)

// HealthEngine correlates wearable metrics with mood using binary splits.
// Most cutoffs are fixed absolute values because they reflect externally
// meaningful physiological zones (strain scale, sleep architecture, recovery
// bands) rather than properties of this user's distribution; resting heart
// rate and HRV have no universal zones and fall back to a median split.
type HealthEngine struct {
	cfg config.InsightConfig
}

// NewHealthEngine creates an extended-health correlation engine.
func NewHealthEngine(cfg config.InsightConfig) *HealthEngine {
	return &HealthEngine{cfg: cfg}
}

func (e *HealthEngine) Category() string { return CategoryHealth }

// metricSplit declares one binary threshold comparison over health views.
type metricSplit struct {
	key       string
	highLabel string
	lowLabel  string
	value     func(*journal.HealthContext) (float64, bool)
	highMin   float64 // entries with value >= highMin form the high group
	lowMax    float64 // entries with value < lowMax form the low group
	useMedian bool    // derive the cutoffs from the observed median instead
}

var healthSplits = []metricSplit{
	{
		key: "high_strain", highLabel: "high-strain days (strain 15+)", lowLabel: "low-strain days",
		value: func(h *journal.HealthContext) (float64, bool) {
			if h.Strain == nil {
				return 0, false
			}
			return h.Strain.Score, true
		},
		highMin: 15, lowMax: 10,
	},
	{
		key: "deep_sleep", highLabel: "nights with 1.5h+ of deep sleep", lowLabel: "nights under 1h of deep sleep",
		value: func(h *journal.HealthContext) (float64, bool) {
			if h.Sleep == nil {
				return 0, false
			}
			return h.Sleep.DeepHours, true
		},
		highMin: 1.5, lowMax: 1.0,
	},
	{
		key: "sleep_duration", highLabel: "nights with 7.5h+ of sleep", lowLabel: "nights under 6.5h of sleep",
		value: func(h *journal.HealthContext) (float64, bool) {
			if h.Sleep == nil {
				return 0, false
			}
			return h.Sleep.DurationHours, true
		},
		highMin: 7.5, lowMax: 6.5,
	},
	{
		key: "recovery", highLabel: "well-recovered days (recovery 66+)", lowLabel: "low-recovery days (under 34)",
		value: func(h *journal.HealthContext) (float64, bool) {
			if h.Recovery == nil {
				return 0, false
			}
			return h.Recovery.Score, true
		},
		highMin: 66, lowMax: 34,
	},
	{
		key: "steps", highLabel: "active days (8k+ steps)", lowLabel: "sedentary days (under 4k steps)",
		value: func(h *journal.HealthContext) (float64, bool) {
			if h.Activity == nil {
				return 0, false
			}
			return float64(h.Activity.Steps), true
		},
		highMin: 8000, lowMax: 4000,
	},
	{
		key: "resting_hr", highLabel: "days with elevated resting heart rate", lowLabel: "days with lower resting heart rate",
		value: func(h *journal.HealthContext) (float64, bool) {
			if h.Heart == nil || h.Heart.RestingRate == 0 {
				return 0, false
			}
			return h.Heart.RestingRate, true
		},
		useMedian: true,
	},
	{
		key: "hrv", highLabel: "days with above-median HRV", lowLabel: "days with below-median HRV",
		value: func(h *journal.HealthContext) (float64, bool) {
			if h.Heart == nil || h.Heart.HRV == 0 {
				return 0, false
			}
			return h.Heart.HRV, true
		},
		useMedian: true,
	},
}

func (e *HealthEngine) Correlate(views []journal.MoodView) []Insight {
	hviews := journal.HealthViews(views)
	if len(hviews) < 2*e.cfg.MinMentions {
		return nil
	}

	var insights []Insight
	for i := range healthSplits {
		if in := e.correlateSplit(&healthSplits[i], hviews); in != nil {
			insights = append(insights, *in)
		}
	}

	return sortAndCap(insights, e.cfg.MaxPerCategory)
}

func (e *HealthEngine) correlateSplit(split *metricSplit, hviews []journal.HealthView) *Insight {
	type point struct {
		view  journal.HealthView
		value float64
	}

	var points []point
	for _, hv := range hviews {
		if v, ok := split.value(hv.Health); ok {
			points = append(points, point{view: hv, value: v})
		}
	}
	if len(points) < 2*e.cfg.MinMentions {
		return nil
	}

	highMin, lowMax := split.highMin, split.lowMax
	if split.useMedian {
		values := make([]float64, len(points))
		for i, p := range points {
			values[i] = p.value
		}
		median := stats.Median(values)
		highMin, lowMax = median, median
	}

	var high, low group
	for _, p := range points {
		switch {
		case p.value >= highMin:
			high.add(p.view.MoodView)
		case p.value < lowMax:
			low.add(p.view.MoodView)
		}
	}

	// Both sides of a binary split need the entity-level floor
	if len(high.moods) < e.cfg.MinMentions || len(low.moods) < e.cfg.MinMentions {
		return nil
	}

	lowMean := stats.Average(low.moods)
	delta := stats.MoodDelta(stats.Average(high.moods), lowMean)
	if abs(delta) < e.cfg.MinMoodDelta {
		return nil
	}

	// The evidence for a binary split is both sides of it, so strength is
	// gated on the combined sample.
	sampleSize := len(high.moods) + len(low.moods)
	strength := stats.DetermineStrength(float64(delta), sampleSize)
	if strength == stats.StrengthWeak {
		return nil
	}

	direction := "positive"
	text := fmt.Sprintf("Your mood runs %d%% higher on %s than on %s", delta, split.highLabel, split.lowLabel)
	if delta < 0 {
		direction = "negative"
		text = fmt.Sprintf("Your mood runs %d%% lower on %s than on %s", -delta, split.highLabel, split.lowLabel)
	}

	return &Insight{
		ID:         stats.InsightID(CategoryHealth, split.key),
		Category:   CategoryHealth,
		Insight:    text,
		MoodDelta:  delta,
		Direction:  direction,
		Strength:   strength,
		SampleSize: sampleSize,
		EntryIDs:   append(append([]string{}, high.ids...), low.ids...),
	}
}
