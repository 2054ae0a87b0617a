// Package journal defines the entry model consumed by the insight engines and
// the postgres-backed entry source. Entries accumulated over years of schema
// evolution are only partially populated; every optional field is a pointer or
// slice, and the view constructors perform one validating pass so downstream
// engines operate on guaranteed shape.
package journal

import (
	"strings"
	"time"
)

// Entry is one journaling record.
type Entry struct {
	ID                string
	UserID            string
	Text              string
	CreatedAt         time.Time
	EffectiveDate     *time.Time // optional override for temporal bucketing
	MoodScore         *float64   // [0,1]; nil excludes the entry from mood correlation
	Tags              []string   // some namespaced, e.g. "@activity:yoga"
	HealthContext     *HealthContext
	EnvironmentContext *EnvironmentContext
	Entities          []string // AI-derived annotations
	Emotions          []string
	Themes            []string
	CognitivePatterns []string
	Category          string
	EntryType         string
}

// HealthContext holds structured wearable metrics attached to an entry.
type HealthContext struct {
	Sleep    *SleepMetrics    `json:"sleep,omitempty"`
	Recovery *RecoveryMetrics `json:"recovery,omitempty"`
	Strain   *StrainMetrics   `json:"strain,omitempty"`
	Heart    *HeartMetrics    `json:"heart,omitempty"`
	Activity *ActivityMetrics `json:"activity,omitempty"`
}

// SleepMetrics holds per-night sleep measurements.
type SleepMetrics struct {
	DurationHours float64 `json:"duration_hours"`
	DeepHours     float64 `json:"deep_hours"`
	RemHours      float64 `json:"rem_hours"`
	Efficiency    float64 `json:"efficiency"`
}

// RecoveryMetrics holds a 0-100 recovery score.
type RecoveryMetrics struct {
	Score float64 `json:"score"`
}

// StrainMetrics holds a 0-21 strain score.
type StrainMetrics struct {
	Score float64 `json:"score"`
}

// HeartMetrics holds resting heart rate and HRV.
type HeartMetrics struct {
	RestingRate float64 `json:"resting_rate"`
	HRV         float64 `json:"hrv"`
}

// ActivityMetrics holds daily activity counters.
type ActivityMetrics struct {
	Steps    int     `json:"steps"`
	Calories float64 `json:"calories"`
}

// EnvironmentContext holds weather and light conditions attached to an entry.
type EnvironmentContext struct {
	Condition     string   `json:"condition,omitempty"`
	SunshineHours *float64 `json:"sunshine_hours,omitempty"`
	DaylightHours *float64 `json:"daylight_hours,omitempty"`
}

// Mood returns the entry's mood score and whether one is present.
func (e *Entry) Mood() (float64, bool) {
	if e.MoodScore == nil {
		return 0, false
	}
	return *e.MoodScore, true
}

// BucketTime returns the timestamp used for temporal bucketing, honoring the
// effective-date override when present.
func (e *Entry) BucketTime() time.Time {
	if e.EffectiveDate != nil && !e.EffectiveDate.IsZero() {
		return *e.EffectiveDate
	}
	return e.CreatedAt
}

// TagsWithPrefix returns the values of namespaced tags, e.g.
// TagsWithPrefix("@activity:") over ["@activity:yoga"] yields ["yoga"].
func (e *Entry) TagsWithPrefix(prefix string) []string {
	var out []string
	for _, tag := range e.Tags {
		if strings.HasPrefix(tag, prefix) {
			if v := strings.TrimPrefix(tag, prefix); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// MoodView is the validated projection used by every correlation engine: an
// entry with a defined mood score and a usable timestamp.
type MoodView struct {
	Entry *Entry
	Mood  float64
	When  time.Time
}

// MoodViews performs the validating extraction pass over raw entries. Entries
// without a mood score or without a timestamp are skipped, never fatal: one
// malformed entry must not zero out insights for all others.
func MoodViews(entries []*Entry) []MoodView {
	views := make([]MoodView, 0, len(entries))
	for _, e := range entries {
		if e == nil || e.ID == "" {
			continue
		}
		mood, ok := e.Mood()
		if !ok || mood < 0 || mood > 1 {
			continue
		}
		when := e.BucketTime()
		if when.IsZero() {
			continue
		}
		views = append(views, MoodView{Entry: e, Mood: mood, When: when})
	}
	return views
}

// HealthView is the projection used by the extended-health engine: a mood
// view whose entry carries a health context.
type HealthView struct {
	MoodView
	Health *HealthContext
}

// HealthViews filters mood views down to those with health data.
func HealthViews(views []MoodView) []HealthView {
	var out []HealthView
	for _, v := range views {
		if v.Entry.HealthContext != nil {
			out = append(out, HealthView{MoodView: v, Health: v.Entry.HealthContext})
		}
	}
	return out
}

// EnvironmentView is the projection used by the environment engine.
type EnvironmentView struct {
	MoodView
	Environment *EnvironmentContext
}

// EnvironmentViews filters mood views down to those with environment data.
func EnvironmentViews(views []MoodView) []EnvironmentView {
	var out []EnvironmentView
	for _, v := range views {
		if v.Entry.EnvironmentContext != nil {
			out = append(out, EnvironmentView{MoodView: v, Environment: v.Entry.EnvironmentContext})
		}
	}
	return out
}
