package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonhq/insights-platform/internal/burnout"
	"github.com/halcyonhq/insights-platform/internal/journal"
	"github.com/halcyonhq/insights-platform/internal/learning"
	"github.com/halcyonhq/insights-platform/pkg/config"
	"github.com/halcyonhq/insights-platform/pkg/mqtt"
	"github.com/halcyonhq/insights-platform/pkg/redis"
)

// fakeRedis is an in-memory document store.
type fakeRedis struct {
	data map[string]string
}

func newFakeRedis() *fakeRedis { return &fakeRedis{data: map[string]string{}} }

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
	prefix := pattern[:len(pattern)-1] // trailing *
	var keys []string
	for k := range f.data {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (f *fakeRedis) Expire(_ context.Context, _ string, _ time.Duration) error { return nil }
func (f *fakeRedis) Ping(_ context.Context) error                             { return nil }
func (f *fakeRedis) Close() error                                             { return nil }

// fakeEntries serves a fixed entry set for one user.
type fakeEntries struct {
	entries []*journal.Entry
}

func (f *fakeEntries) EntriesForUser(_ context.Context, _ string, limit int) ([]*journal.Entry, error) {
	if len(f.entries) > limit {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

func (f *fakeEntries) MoodEntryCount(_ context.Context, _ string) (int, error) {
	count := 0
	for _, e := range f.entries {
		if e.MoodScore != nil {
			count++
		}
	}
	return count, nil
}

func (f *fakeEntries) RecentEntries(_ context.Context, _ string, window int) ([]*journal.Entry, error) {
	return f.EntriesForUser(context.Background(), "", window)
}

func (f *fakeEntries) EntryTexts(_ context.Context, ids []string) (map[string]string, error) {
	out := map[string]string{}
	for _, e := range f.entries {
		for _, id := range ids {
			if e.ID == id {
				out[id] = e.Text
			}
		}
	}
	return out, nil
}

func (f *fakeEntries) SimilarEntryIDs(_ context.Context, _ string, _ int) ([]string, error) {
	return nil, nil
}

func moodEntry(id string, mood float64, when time.Time, text string) *journal.Entry {
	m := mood
	return &journal.Entry{ID: id, UserID: "u1", Text: text, CreatedAt: when, MoodScore: &m}
}

// yogaDataset is 6 high-mood yoga entries against 8 low-mood plain ones.
func yogaDataset() []*journal.Entry {
	base := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
	var entries []*journal.Entry
	for i := 0; i < 6; i++ {
		entries = append(entries, moodEntry(fmt.Sprintf("y%d", i), 0.8, base.AddDate(0, 0, i), "Did yoga after lunch"))
	}
	for i := 0; i < 8; i++ {
		entries = append(entries, moodEntry(fmt.Sprintf("p%d", i), 0.4, base.AddDate(0, 0, 10+i), "Nothing much today"))
	}
	return entries
}

type harness struct {
	generator *Generator
	learning  *learning.Service
	storage   *Storage
	entries   *fakeEntries
	redis     *fakeRedis
	cfg       *config.Config
}

func newHarness(t *testing.T, entries []*journal.Entry) *harness {
	t.Helper()
	cfg := config.NewConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fr := newFakeRedis()
	fe := &fakeEntries{entries: entries}

	learningSvc := learning.NewService(learning.NewStore(fr, logger), fe, cfg.Learning, logger)
	storage := NewStorage(fr, logger)
	generator := NewGenerator(fe, learningSvc, storage, DefaultEngines(cfg), cfg.Insights, logger)

	return &harness{
		generator: generator,
		learning:  learningSvc,
		storage:   storage,
		entries:   fe,
		redis:     fr,
		cfg:       cfg,
	}
}

func TestGenerateInsufficientData(t *testing.T) {
	base := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
	var entries []*journal.Entry
	for i := 0; i < 5; i++ {
		entries = append(entries, moodEntry(fmt.Sprintf("e%d", i), 0.5, base.AddDate(0, 0, i), "day"))
	}
	h := newHarness(t, entries)

	result, err := h.generator.Generate(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.True(t, result.InsufficientData)
	assert.Equal(t, 2, result.EntriesNeeded)
	assert.Equal(t, 5, result.EntriesAnalyzed)

	// Nothing persisted
	cached, err := h.generator.Cached(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestGeneratePersistsAndServesCached(t *testing.T) {
	h := newHarness(t, yogaDataset())
	ctx := context.Background()

	result, err := h.generator.Generate(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.ID)
	require.NotEmpty(t, result.Insights)
	assert.Equal(t, 14, result.EntriesAnalyzed)
	assert.LessOrEqual(t, len(result.Insights), h.cfg.Insights.MaxInsights)

	ids := make([]string, 0, len(result.Insights))
	for _, in := range result.Insights {
		ids = append(ids, in.ID)
		assert.Equal(t, 1.0, in.ConfidenceMultiplier)
		assert.Equal(t, learning.ReasonNoFeedback, in.LearningReason)
	}
	assert.Contains(t, ids, "activity_yoga_mood")

	total := 0
	for _, n := range result.CategoryCounts {
		total += n
	}
	assert.Equal(t, len(result.Insights), total)

	cached, err := h.generator.Cached(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, result.ID, cached.ID)
	assert.False(t, cached.Stale)
}

func TestGenerateIsDeterministic(t *testing.T) {
	h := newHarness(t, yogaDataset())
	ctx := context.Background()

	first, err := h.generator.Generate(ctx, "u1")
	require.NoError(t, err)
	second, err := h.generator.Generate(ctx, "u1")
	require.NoError(t, err)

	require.Equal(t, len(first.Insights), len(second.Insights))
	for i := range first.Insights {
		assert.Equal(t, first.Insights[i].ID, second.Insights[i].ID)
		assert.Equal(t, first.Insights[i].MoodDelta, second.Insights[i].MoodDelta)
	}
}

func TestGenerateRespectsMaxInsights(t *testing.T) {
	h := newHarness(t, yogaDataset())
	h.generator.cfg.MaxInsights = 1

	result, err := h.generator.Generate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, result.Insights, 1)
}

func TestCachedAnnotatesStaleness(t *testing.T) {
	h := newHarness(t, yogaDataset())
	ctx := context.Background()

	generatedAt := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	h.generator.now = func() time.Time { return generatedAt }
	_, err := h.generator.Generate(ctx, "u1")
	require.NoError(t, err)

	h.generator.now = func() time.Time { return generatedAt.Add(13 * time.Hour) }
	cached, err := h.generator.Cached(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.True(t, cached.Stale)
}

func TestGenerateAppliesSuppression(t *testing.T) {
	h := newHarness(t, yogaDataset())
	ctx := context.Background()

	first, err := h.generator.Generate(ctx, "u1")
	require.NoError(t, err)

	var yogaDelta int
	for _, in := range first.Insights {
		if in.ID == "activity_yoga_mood" {
			yogaDelta = in.MoodDelta
		}
	}
	require.NotZero(t, yogaDelta)

	// Three inaccurate ratings at the observed delta suppress the pattern;
	// the unchanged data cannot clear the 1.5x resurface bar
	for i := 0; i < 3; i++ {
		_, err := h.learning.RecordFeedback(ctx, "u1", learning.Feedback{
			PatternType: "activity_yoga_mood",
			MoodDelta:   yogaDelta,
			Accurate:    false,
		}, 14)
		require.NoError(t, err)
	}

	second, err := h.generator.Generate(ctx, "u1")
	require.NoError(t, err)

	for _, in := range second.Insights {
		assert.NotEqual(t, "activity_yoga_mood", in.ID)
	}
	assert.Greater(t, second.Learning.Suppressed, 0)
}

func TestCheckSufficiency(t *testing.T) {
	h := newHarness(t, yogaDataset())

	sufficiency, err := h.generator.CheckSufficiency(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, sufficiency.Sufficient)
	assert.Equal(t, 14, sufficiency.EntryCount)
	assert.Zero(t, sufficiency.EntriesNeeded)

	h.entries.entries = h.entries.entries[:4]
	sufficiency, err = h.generator.CheckSufficiency(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, sufficiency.Sufficient)
	assert.Equal(t, 3, sufficiency.EntriesNeeded)
}

func TestRankOrdersStrengthThenDelta(t *testing.T) {
	h := newHarness(t, yogaDataset())

	result, err := h.generator.Generate(context.Background(), "u1")
	require.NoError(t, err)
	require.NotEmpty(t, result.Insights)

	for i := 1; i < len(result.Insights); i++ {
		prev, cur := result.Insights[i-1], result.Insights[i]
		if prev.Strength.Rank() == cur.Strength.Rank() {
			pd, cd := prev.MoodDelta, cur.MoodDelta
			if pd < 0 {
				pd = -pd
			}
			if cd < 0 {
				cd = -cd
			}
			assert.GreaterOrEqual(t, pd, cd)
		} else {
			assert.Less(t, prev.Strength.Rank(), cur.Strength.Rank())
		}
	}
}

// unreachableRedis fails every read with a transport error while letting
// writes through.
type unreachableRedis struct {
	*fakeRedis
}

func (u *unreachableRedis) Get(_ context.Context, _ string) (string, error) {
	return "", fmt.Errorf("connection reset by peer")
}

func TestCurrentResultTreatsReadFailureAsMissing(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	storage := NewStorage(&unreachableRedis{newFakeRedis()}, logger)

	result, err := storage.CurrentResult(context.Background(), "u1", time.Now())
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestAPIGetInsightsRegeneratesWhenReadFails(t *testing.T) {
	cfg := config.NewConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fr := &unreachableRedis{newFakeRedis()}
	fe := &fakeEntries{entries: yogaDataset()}

	learningSvc := learning.NewService(learning.NewStore(fr, logger), fe, cfg.Learning, logger)
	generator := NewGenerator(fe, learningSvc, NewStorage(fr, logger), DefaultEngines(cfg), cfg.Insights, logger)
	scorer := burnout.NewScorer(cfg.Burnout, logger)
	api := NewAPI(generator, learningSvc, scorer, fe, cfg, logger)

	srv := httptest.NewServer(api.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/insights/u1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.Insights)
}

type fakeExternal struct {
	records []ExternalRecord
	err     error
}

func (f *fakeExternal) ExternalInsights(_ context.Context, _ string) ([]ExternalRecord, error) {
	return f.records, f.err
}

func TestExternalRecordsMergeIntoGeneration(t *testing.T) {
	h := newHarness(t, yogaDataset())
	h.generator.AddExternalProvider(&fakeExternal{records: []ExternalRecord{
		{
			Type:       "health_sleep_quality",
			Insight:    "Better sleep lines up with better days",
			Difference: 18,
			Strength:   "strong",
			SampleSize: 9,
		},
		{Type: "health_noise", Difference: 3, Strength: "weak", SampleSize: 4},
	}})

	result, err := h.generator.Generate(context.Background(), "u1")
	require.NoError(t, err)

	ids := make([]string, 0, len(result.Insights))
	for _, in := range result.Insights {
		ids = append(ids, in.ID)
	}
	assert.Contains(t, ids, "health_sleep_quality")
	// Sub-noise external record is dropped like any engine candidate
	assert.NotContains(t, ids, "health_noise")

	for _, in := range result.Insights {
		if in.ID == "health_sleep_quality" {
			assert.Equal(t, "health", in.Category)
			assert.Equal(t, "positive", in.Direction)
		}
	}
}

func TestExternalProviderFailureDoesNotFailGeneration(t *testing.T) {
	h := newHarness(t, yogaDataset())
	h.generator.AddExternalProvider(&fakeExternal{err: fmt.Errorf("collaborator down")})

	result, err := h.generator.Generate(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.Insights)
}

func newTestAPI(t *testing.T, entries []*journal.Entry) (*API, *harness) {
	t.Helper()
	h := newHarness(t, entries)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	scorer := burnout.NewScorer(h.cfg.Burnout, logger)
	api := NewAPI(h.generator, h.learning, scorer, h.entries, h.cfg, logger)
	return api, h
}

func TestAPIGetInsights(t *testing.T) {
	api, _ := newTestAPI(t, yogaDataset())
	srv := httptest.NewServer(api.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/insights/u1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.Insights)
}

func TestAPIFeedbackRoundTrip(t *testing.T) {
	api, h := newTestAPI(t, yogaDataset())
	srv := httptest.NewServer(api.Routes())
	defer srv.Close()

	body, _ := json.Marshal(map[string]any{
		"pattern_type": "activity_yoga_mood",
		"mood_delta":   23,
		"accurate":     true,
	})
	resp, err := http.Post(srv.URL+"/api/insights/u1/feedback", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rec, err := learning.NewStore(h.redis, slog.New(slog.NewTextHandler(io.Discard, nil))).
		Load(context.Background(), "u1", "activity_yoga_mood")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 1, rec.TotalFeedback)
	assert.Equal(t, 1, rec.AccurateFeedback)
}

func TestAPIFeedbackRejectsMissingPattern(t *testing.T) {
	api, _ := newTestAPI(t, yogaDataset())
	srv := httptest.NewServer(api.Routes())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/insights/u1/feedback", "application/json",
		bytes.NewReader([]byte(`{"accurate": true}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIBurnout(t *testing.T) {
	base := time.Date(2026, 8, 19, 12, 0, 0, 0, time.UTC)
	var entries []*journal.Entry
	for i := 0; i < 5; i++ {
		entries = append(entries, moodEntry(fmt.Sprintf("e%d", i), 0.3, base.Add(-time.Duration(i)*time.Hour), "nothing much"))
	}

	api, _ := newTestAPI(t, entries)
	srv := httptest.NewServer(api.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/insights/u1/burnout")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result burnout.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, 5, result.EntriesAnalyzed)
	assert.Equal(t, 1.0, result.Factors[burnout.FactorLowMoodStreak])
}

func TestAPISuppressedListAndLift(t *testing.T) {
	api, h := newTestAPI(t, yogaDataset())
	srv := httptest.NewServer(api.Routes())
	defer srv.Close()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := h.learning.RecordFeedback(ctx, "u1", learning.Feedback{
			PatternType: "activity_yoga_mood", MoodDelta: 23, Accurate: false,
		}, 14)
		require.NoError(t, err)
	}

	resp, err := http.Get(srv.URL + "/api/insights/u1/suppressed")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Suppressed []*learning.Record `json:"suppressed"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	require.Len(t, listing.Suppressed, 1)

	body, _ := json.Marshal(map[string]string{"pattern_type": "activity_yoga_mood"})
	liftResp, err := http.Post(srv.URL+"/api/insights/u1/suppressed/lift", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer liftResp.Body.Close()
	require.Equal(t, http.StatusOK, liftResp.StatusCode)

	suppressed, err := h.learning.SuppressedPatterns(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, suppressed)
}

// fakeBroker records published topics and accepts everything else.
type fakeBroker struct {
	published []string
}

func (f *fakeBroker) Connect(_ context.Context) error                         { return nil }
func (f *fakeBroker) Disconnect()                                             {}
func (f *fakeBroker) Subscribe(_ string, _ byte, _ mqtt.MessageHandler) error { return nil }
func (f *fakeBroker) IsConnected() bool                                       { return true }

func (f *fakeBroker) Publish(topic string, _ byte, _ bool, _ []byte) error {
	f.published = append(f.published, topic)
	return nil
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Topic() string   { return m.topic }
func (m *fakeMessage) Payload() []byte { return m.payload }
func (m *fakeMessage) Ack()            {}

func TestEntryEventHonorsRegenerateCooldown(t *testing.T) {
	h := newHarness(t, yogaDataset())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	broker := &fakeBroker{}
	agent := NewAgent(broker, h.redis, h.generator, h.learning, nil, nil, h.cfg, logger)
	ctx := context.Background()

	assert.Equal(t, 10*time.Minute, h.cfg.Insights.RegenerateCooldown)

	_, err := h.generator.Generate(ctx, "u1")
	require.NoError(t, err)
	current, err := h.generator.Cached(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, current)

	// A fresh document sits inside the cooldown, so the event is a no-op
	payload, _ := json.Marshal(journal.EntryEvent{EntryID: "p9", UserID: "u1"})
	agent.handleEntryEvent(&fakeMessage{topic: "journal/entry/u1", payload: payload})
	assert.Empty(t, broker.published)

	// Age the document past the cooldown and replay the event
	current.GeneratedAt = time.Now().Add(-h.cfg.Insights.RegenerateCooldown - time.Minute)
	require.NoError(t, h.storage.SaveResult(ctx, current))
	agent.handleEntryEvent(&fakeMessage{topic: "journal/entry/u1", payload: payload})

	require.Len(t, broker.published, 1)
	assert.Equal(t, mqtt.InsightsReadyTopic("u1"), broker.published[0])

	regenerated, err := h.generator.Cached(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, regenerated)
	assert.NotEqual(t, current.ID, regenerated.ID)
}
