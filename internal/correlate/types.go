// Package correlate implements the per-domain correlation engines. Each
// engine groups mood-bearing entries by factor, compares group mean mood
// against a baseline (or the opposite side of a binary split), and emits
// candidate insights that clear the sample-size and effect-size floors.
package correlate

import (
	"math"
	"sort"

	"github.com/halcyonhq/insights-platform/internal/journal"
	"github.com/halcyonhq/insights-platform/internal/stats"
	"github.com/halcyonhq/insights-platform/pkg/config"
)

// Insight categories form a fixed enumeration; the category is half of the
// insight's natural key.
const (
	CategoryActivity    = "activity"
	CategoryPeople      = "people"
	CategoryHealth      = "health"
	CategoryEnvironment = "environment"
	CategoryTime        = "time"
	CategoryCategory    = "category"
	CategoryThemes      = "themes"
)

// Insight is one candidate correlation finding.
type Insight struct {
	ID             string         `json:"id"`
	Category       string         `json:"category"`
	Insight        string         `json:"insight"`
	MoodDelta      int            `json:"mood_delta"` // signed percentage points
	Direction      string         `json:"direction"`  // positive | negative
	Strength       stats.Strength `json:"strength"`
	SampleSize     int            `json:"sample_size"`
	EntryIDs       []string       `json:"entry_ids"`
	Recommendation string         `json:"recommendation,omitempty"`

	// Attached by the orchestrator's learning filter for caller transparency
	ConfidenceMultiplier float64 `json:"confidence_multiplier,omitempty"`
	LearningReason       string  `json:"learning_reason,omitempty"`
}

// Engine is one per-domain correlation engine. Engines never fail: below
// their floors they return an empty slice.
type Engine interface {
	Category() string
	Correlate(views []journal.MoodView) []Insight
}

// group accumulates the entries sharing a factor.
type group struct {
	moods []float64
	ids   []string
}

func (g *group) add(v journal.MoodView) {
	g.moods = append(g.moods, v.Mood)
	g.ids = append(g.ids, v.Entry.ID)
}

// baselineMood is the mean mood across all qualifying entries in the window.
func baselineMood(views []journal.MoodView) float64 {
	moods := make([]float64, len(views))
	for i, v := range views {
		moods[i] = v.Mood
	}
	return stats.Average(moods)
}

// newInsight assembles a candidate insight, or nil when the delta is under
// the noise floor or the strength gate classifies it weak. Weak insights are
// always discarded before output.
func newInsight(cfg config.InsightConfig, category, factor, text string, groupMoods []float64, entryIDs []string, baseline float64) *Insight {
	delta := stats.MoodDelta(stats.Average(groupMoods), baseline)
	if abs(delta) < cfg.MinMoodDelta {
		return nil
	}

	strength := stats.DetermineStrength(float64(delta), len(groupMoods))
	if strength == stats.StrengthWeak {
		return nil
	}

	direction := "positive"
	if delta < 0 {
		direction = "negative"
	}

	return &Insight{
		ID:         stats.InsightID(category, factor),
		Category:   category,
		Insight:    text,
		MoodDelta:  delta,
		Direction:  direction,
		Strength:   strength,
		SampleSize: len(groupMoods),
		EntryIDs:   entryIDs,
	}
}

// sortAndCap orders insights by |delta| descending and truncates to the
// per-category cap.
func sortAndCap(insights []Insight, cap int) []Insight {
	sort.SliceStable(insights, func(i, j int) bool {
		return abs(insights[i].MoodDelta) > abs(insights[j].MoodDelta)
	})
	if cap > 0 && len(insights) > cap {
		insights = insights[:cap]
	}
	return insights
}

// deltaPoints is the signed percentage-point delta of a group against a
// baseline, used when rendering templated insight text.
func deltaPoints(g *group, baseline float64) int {
	return stats.MoodDelta(stats.Average(g.moods), baseline)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func absf(v float64) float64 {
	return math.Abs(v)
}
