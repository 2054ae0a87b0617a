package correlate

import (
	"fmt"
	"strings"

	"github.com/sixdouglas/suncalc"

	"github.com/halcyonhq/insights-platform/internal/journal"
	"github.com/halcyonhq/insights-platform/internal/stats"
	"github.com/halcyonhq/insights-platform/pkg/config"
)

// EnvironmentEngine correlates weather and light conditions with mood. Recorded
// daylight hours are trusted when present; otherwise the daylight length is
// derived from the entry's date and the configured coordinates.
type EnvironmentEngine struct {
	cfg       config.InsightConfig
	latitude  float64
	longitude float64
}

// NewEnvironmentEngine creates an environment correlation engine.
func NewEnvironmentEngine(cfg config.InsightConfig, latitude, longitude float64) *EnvironmentEngine {
	return &EnvironmentEngine{cfg: cfg, latitude: latitude, longitude: longitude}
}

func (e *EnvironmentEngine) Category() string { return CategoryEnvironment }

func (e *EnvironmentEngine) Correlate(views []journal.MoodView) []Insight {
	eviews := journal.EnvironmentViews(views)
	if len(eviews) < 2*e.cfg.MinMentions {
		return nil
	}

	var insights []Insight

	if in := e.correlateConditions(eviews); in != nil {
		insights = append(insights, in...)
	}
	if in := e.correlateSunshine(eviews); in != nil {
		insights = append(insights, *in)
	}
	if in := e.correlateDaylight(eviews); in != nil {
		insights = append(insights, *in)
	}

	return sortAndCap(insights, e.cfg.MaxPerCategory)
}

// correlateConditions groups entries by recorded weather condition against
// the environment baseline.
func (e *EnvironmentEngine) correlateConditions(eviews []journal.EnvironmentView) []Insight {
	moods := make([]float64, len(eviews))
	for i, v := range eviews {
		moods[i] = v.Mood
	}
	baseline := stats.Average(moods)

	groups := make(map[string]*group)
	for _, v := range eviews {
		cond := strings.ToLower(strings.TrimSpace(v.Environment.Condition))
		if cond == "" {
			continue
		}
		g := groups[cond]
		if g == nil {
			g = &group{}
			groups[cond] = g
		}
		g.add(v.MoodView)
	}

	var insights []Insight
	for cond, g := range groups {
		if len(g.moods) < e.cfg.MinDataPoints {
			continue
		}
		in := newInsight(e.cfg, CategoryEnvironment, cond, "", g.moods, g.ids, baseline)
		if in == nil {
			continue
		}
		if in.MoodDelta >= 0 {
			in.Insight = fmt.Sprintf("Your mood runs %d%% higher on %s days", in.MoodDelta, cond)
		} else {
			in.Insight = fmt.Sprintf("Your mood runs %d%% lower on %s days", -in.MoodDelta, cond)
		}
		insights = append(insights, *in)
	}
	return insights
}

// correlateSunshine splits on recorded sunshine hours: bright days (5h+)
// against grey days (under 2h).
func (e *EnvironmentEngine) correlateSunshine(eviews []journal.EnvironmentView) *Insight {
	var bright, grey group
	for _, v := range eviews {
		if v.Environment.SunshineHours == nil {
			continue
		}
		switch {
		case *v.Environment.SunshineHours >= 5:
			bright.add(v.MoodView)
		case *v.Environment.SunshineHours < 2:
			grey.add(v.MoodView)
		}
	}
	return e.binarySplit("sunshine", "bright days (5h+ of sun)", "grey days (under 2h)", &bright, &grey)
}

// correlateDaylight splits on daylight length: long days (14h+) against
// short days (under 10h). Entries without a recorded value get a computed
// daylight length for their date at the configured coordinates.
func (e *EnvironmentEngine) correlateDaylight(eviews []journal.EnvironmentView) *Insight {
	var long, short group
	for _, v := range eviews {
		hours := 0.0
		if v.Environment.DaylightHours != nil {
			hours = *v.Environment.DaylightHours
		} else {
			hours = e.daylightHours(v)
		}
		switch {
		case hours >= 14:
			long.add(v.MoodView)
		case hours > 0 && hours < 10:
			short.add(v.MoodView)
		}
	}
	return e.binarySplit("daylight", "long days (14h+ of daylight)", "short days (under 10h)", &long, &short)
}

func (e *EnvironmentEngine) daylightHours(v journal.EnvironmentView) float64 {
	times := suncalc.GetTimes(v.When, e.latitude, e.longitude)
	sunrise, okRise := times[suncalc.Sunrise]
	sunset, okSet := times[suncalc.Sunset]
	if !okRise || !okSet {
		return 0
	}
	hours := sunset.Value.Sub(sunrise.Value).Hours()
	if hours <= 0 {
		return 0
	}
	return hours
}

func (e *EnvironmentEngine) binarySplit(key, highLabel, lowLabel string, high, low *group) *Insight {
	if len(high.moods) < e.cfg.MinMentions || len(low.moods) < e.cfg.MinMentions {
		return nil
	}

	delta := stats.MoodDelta(stats.Average(high.moods), stats.Average(low.moods))
	if abs(delta) < e.cfg.MinMoodDelta {
		return nil
	}

	sampleSize := len(high.moods) + len(low.moods)
	strength := stats.DetermineStrength(float64(delta), sampleSize)
	if strength == stats.StrengthWeak {
		return nil
	}

	direction := "positive"
	text := fmt.Sprintf("Your mood runs %d%% higher on %s than on %s", delta, highLabel, lowLabel)
	if delta < 0 {
		direction = "negative"
		text = fmt.Sprintf("Your mood runs %d%% lower on %s than on %s", -delta, highLabel, lowLabel)
	}

	return &Insight{
		ID:         stats.InsightID(CategoryEnvironment, key),
		Category:   CategoryEnvironment,
		Insight:    text,
		MoodDelta:  delta,
		Direction:  direction,
		Strength:   strength,
		SampleSize: sampleSize,
		EntryIDs:   append(append([]string{}, high.ids...), low.ids...),
	}
}
