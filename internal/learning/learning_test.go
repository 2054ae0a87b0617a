package learning

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonhq/insights-platform/internal/correlate"
	"github.com/halcyonhq/insights-platform/internal/stats"
	"github.com/halcyonhq/insights-platform/pkg/config"
	"github.com/halcyonhq/insights-platform/pkg/redis"
)

// fakeRedis is an in-memory document store for tests.
type fakeRedis struct {
	data map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	f.data[key] = fmt.Sprintf("%v", value)
	return nil
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", redis.ErrNotFound
	}
	return v, nil
}

func (f *fakeRedis) MGet(_ context.Context, keys ...string) ([]string, error) {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = f.data[k]
	}
	return out, nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeRedis) Keys(_ context.Context, pattern string) ([]string, error) {
	var keys []string
	for k := range f.data {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (f *fakeRedis) Expire(_ context.Context, _ string, _ time.Duration) error { return nil }
func (f *fakeRedis) Ping(_ context.Context) error                             { return nil }
func (f *fakeRedis) Close() error                                             { return nil }

// fakeEntries serves canned texts and no similarity neighbors.
type fakeEntries struct {
	texts map[string]string
}

func (f *fakeEntries) EntryTexts(_ context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, id := range ids {
		if t, ok := f.texts[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

func (f *fakeEntries) SimilarEntryIDs(_ context.Context, _ string, _ int) ([]string, error) {
	return nil, nil
}

func testService(t *testing.T) (*Service, *fakeRedis, *time.Time) {
	t.Helper()
	fr := newFakeRedis()
	logger := slog.New(slog.NewTextHandler(testWriter{t}, nil))
	store := NewStore(fr, logger)
	svc := NewService(store, &fakeEntries{texts: map[string]string{}}, config.NewConfig().Learning, logger)

	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc, fr, &now
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func TestThreeInaccurateRatingsSuppress(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	var rec *Record
	var err error
	for i := 0; i < 3; i++ {
		rec, err = svc.RecordFeedback(ctx, "u1", Feedback{
			PatternType: "activity_yoga_mood",
			MoodDelta:   20,
			Accurate:    false,
		}, 30)
		require.NoError(t, err)
	}

	require.NotNil(t, rec)
	assert.True(t, rec.Suppressed)
	assert.Equal(t, "low_accuracy", rec.SuppressReason)
	require.NotNil(t, rec.AccuracyRate)
	assert.Equal(t, 0.0, *rec.AccuracyRate)
	assert.InDelta(t, 0.3, rec.ConfidenceMultiplier, 1e-9)
	assert.Equal(t, 30.0, rec.RequiredMoodDeltaToResurface)
	require.NotNil(t, rec.SuppressedAt)
}

func TestSuppressedPatternStaysHiddenAtSameDelta(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.RecordFeedback(ctx, "u1", Feedback{
			PatternType: "activity_yoga_mood", MoodDelta: 20, Accurate: false,
		}, 30)
		require.NoError(t, err)
	}
	rec, err := svc.store.Load(ctx, "u1", "activity_yoga_mood")
	require.NoError(t, err)

	// Same magnitude as before: under the 1.5x resurface bar
	d := svc.ShouldShow(rec, 20, 30)
	assert.False(t, d.Show)
	assert.Equal(t, ReasonSuppressed, d.Reason)

	// 1.5x the suppressed delta clears the bar
	d = svc.ShouldShow(rec, 30, 30)
	assert.True(t, d.Show)
	assert.Equal(t, ReasonStrongSignal, d.Reason)

	// Negative deltas count by magnitude
	d = svc.ShouldShow(rec, -31, 30)
	assert.True(t, d.Show)
}

func TestAccuracyRecoveryLiftsSuppression(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.RecordFeedback(ctx, "u1", Feedback{
			PatternType: "people_family_mood", MoodDelta: 15, Accurate: false,
		}, 40)
		require.NoError(t, err)
	}

	// 2 accurate ratings: rate climbs to 2/5 = 0.4, at the threshold
	var rec *Record
	var err error
	for i := 0; i < 2; i++ {
		rec, err = svc.RecordFeedback(ctx, "u1", Feedback{
			PatternType: "people_family_mood", MoodDelta: 15, Accurate: true,
		}, 42)
		require.NoError(t, err)
	}

	assert.False(t, rec.Suppressed)
	assert.Nil(t, rec.SuppressedAt)
	assert.Empty(t, rec.SuppressReason)
	assert.Zero(t, rec.RequiredMoodDeltaToResurface)
	// Counters survive the reset
	assert.Equal(t, 5, rec.TotalFeedback)
	assert.Equal(t, 2, rec.AccurateFeedback)
}

func TestConfidenceMultiplierFormula(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	// 1 accurate, 1 inaccurate: rate 0.5, multiplier 1 - 0.5*0.7 = 0.65
	_, err := svc.RecordFeedback(ctx, "u1", Feedback{PatternType: "themes_stress_mood", Accurate: true}, 10)
	require.NoError(t, err)
	rec, err := svc.RecordFeedback(ctx, "u1", Feedback{PatternType: "themes_stress_mood", Accurate: false}, 10)
	require.NoError(t, err)

	assert.InDelta(t, 0.65, rec.ConfidenceMultiplier, 1e-9)

	// All-inaccurate records bottom out at the floor
	for i := 0; i < 5; i++ {
		rec, err = svc.RecordFeedback(ctx, "u2", Feedback{PatternType: "themes_stress_mood", Accurate: false}, 10)
		require.NoError(t, err)
	}
	assert.InDelta(t, 0.3, rec.ConfidenceMultiplier, 1e-9)
}

func TestSuppressionExpires(t *testing.T) {
	svc, _, now := testService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.RecordFeedback(ctx, "u1", Feedback{
			PatternType: "time_weekends_mood", MoodDelta: 12, Accurate: false,
		}, 20)
		require.NoError(t, err)
	}
	rec, err := svc.store.Load(ctx, "u1", "time_weekends_mood")
	require.NoError(t, err)
	require.True(t, rec.Suppressed)

	*now = now.Add(31 * 24 * time.Hour)
	d := svc.ShouldShow(rec, 12, 20)
	assert.True(t, d.Show)
	assert.Equal(t, ReasonExpired, d.Reason)
}

func TestNewDataReevaluation(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.RecordFeedback(ctx, "u1", Feedback{
			PatternType: "category_vent_mood", MoodDelta: 10, Accurate: false,
		}, 20)
		require.NoError(t, err)
	}
	rec, err := svc.store.Load(ctx, "u1", "category_vent_mood")
	require.NoError(t, err)

	// 4 new entries: not enough
	d := svc.ShouldShow(rec, 10, 24)
	assert.False(t, d.Show)

	// 5 new entries: shown with the re-evaluation penalty
	d = svc.ShouldShow(rec, 10, 25)
	assert.True(t, d.Show)
	assert.Equal(t, ReasonNewData, d.Reason)
	assert.InDelta(t, 0.3*0.8, d.Multiplier, 1e-9)
}

func TestNoFeedbackShowsAtFullConfidence(t *testing.T) {
	svc, _, _ := testService(t)

	d := svc.ShouldShow(nil, 15, 10)
	assert.True(t, d.Show)
	assert.Equal(t, 1.0, d.Multiplier)
	assert.Equal(t, ReasonNoFeedback, d.Reason)
}

func TestFilterInsightsDowngradesErodedStrong(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	// 4 inaccurate, 1 accurate: rate 0.2, multiplier 0.44
	for i := 0; i < 4; i++ {
		_, err := svc.RecordFeedback(ctx, "u1", Feedback{
			PatternType: "activity_gaming_mood", MoodDelta: 25, Accurate: false,
		}, 50)
		require.NoError(t, err)
	}
	_, err := svc.RecordFeedback(ctx, "u1", Feedback{
		PatternType: "activity_gaming_mood", MoodDelta: 25, Accurate: true,
	}, 50)
	require.NoError(t, err)

	// rate 1/5 = 0.2, suppressed; a 1.5x delta forces it through suppression
	insights := []correlate.Insight{
		{ID: "activity_gaming_mood", Category: correlate.CategoryActivity, MoodDelta: 45, Strength: stats.StrengthStrong},
		{ID: "activity_yoga_mood", Category: correlate.CategoryActivity, MoodDelta: 20, Strength: stats.StrengthStrong},
	}

	kept, err := svc.FilterInsights(ctx, "u1", insights, 50)
	require.NoError(t, err)
	require.Len(t, kept, 2)

	for _, in := range kept {
		switch in.ID {
		case "activity_gaming_mood":
			assert.Equal(t, ReasonStrongSignal, in.LearningReason)
			// Multiplier sits below 0.5, demoting the strong insight
			assert.Equal(t, stats.StrengthModerate, in.Strength)
		case "activity_yoga_mood":
			assert.Equal(t, ReasonNoFeedback, in.LearningReason)
			assert.Equal(t, 1.0, in.ConfidenceMultiplier)
			assert.Equal(t, stats.StrengthStrong, in.Strength)
		}
	}
}

func TestFilterInsightsDropsSuppressed(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.RecordFeedback(ctx, "u1", Feedback{
			PatternType: "themes_anxiety_mood", MoodDelta: 18, Accurate: false,
		}, 30)
		require.NoError(t, err)
	}

	insights := []correlate.Insight{
		{ID: "themes_anxiety_mood", MoodDelta: 18, Strength: stats.StrengthModerate},
	}
	kept, err := svc.FilterInsights(ctx, "u1", insights, 30)
	require.NoError(t, err)
	assert.Empty(t, kept)
}

func TestFalsePositiveIndicatorAnalysis(t *testing.T) {
	fr := newFakeRedis()
	logger := slog.New(slog.NewTextHandler(testWriter{t}, nil))
	entries := &fakeEntries{texts: map[string]string{
		"e1": "I'm trying to do yoga every morning but didn't today",
		"e2": "I used to do yoga back then, maybe I should again",
	}}
	svc := NewService(NewStore(fr, logger), entries, config.NewConfig().Learning, logger)

	rec, err := svc.RecordFeedback(context.Background(), "u1", Feedback{
		PatternType:   "activity_yoga_mood",
		MoodDelta:     20,
		Accurate:      false,
		CitedEntryIDs: []string{"e1", "e2"},
	}, 15)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"e1", "e2"}, rec.FalsePositiveEntryIDs)
	require.NotEmpty(t, rec.FalsePositivePatterns)

	found := make(map[string]int)
	for _, p := range rec.FalsePositivePatterns {
		found[p.Indicator] = p.Count
	}
	assert.Equal(t, 1, found["work_in_progress"])
	assert.Equal(t, 1, found["negation"])
	assert.Equal(t, 1, found["past_tense_hedge"])
	assert.Equal(t, 1, found["hypothetical"])
}

func TestFalsePositiveRingIsBounded(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	var rec *Record
	var err error
	for i := 0; i < 30; i++ {
		rec, err = svc.RecordFeedback(ctx, "u1", Feedback{
			PatternType:   "activity_work_mood",
			Accurate:      false,
			CitedEntryIDs: []string{fmt.Sprintf("e%d", i)},
		}, 60)
		require.NoError(t, err)
	}

	assert.Len(t, rec.FalsePositiveEntryIDs, 20)
	// Oldest entries rolled off
	assert.Equal(t, "e10", rec.FalsePositiveEntryIDs[0])
	assert.Equal(t, "e29", rec.FalsePositiveEntryIDs[19])
}

func TestSuppressedPatternsAndManualLift(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.RecordFeedback(ctx, "u1", Feedback{
			PatternType: "health_high_strain_mood", MoodDelta: 22, Accurate: false,
		}, 25)
		require.NoError(t, err)
	}

	suppressed, err := svc.SuppressedPatterns(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, suppressed, 1)
	assert.Equal(t, "health_high_strain_mood", suppressed[0].PatternType)

	require.NoError(t, svc.LiftSuppression(ctx, "u1", "health_high_strain_mood"))

	suppressed, err = svc.SuppressedPatterns(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, suppressed)

	// Counters survive a manual lift
	rec, err := svc.store.Load(ctx, "u1", "health_high_strain_mood")
	require.NoError(t, err)
	assert.Equal(t, 3, rec.TotalFeedback)
}
