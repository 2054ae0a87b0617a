package journal

import (
	"testing"
	"time"
)

func floatPtr(v float64) *float64 { return &v }

func TestMoodViewsSkipsMalformedEntries(t *testing.T) {
	now := time.Now()
	entries := []*Entry{
		{ID: "a", CreatedAt: now, MoodScore: floatPtr(0.7)},
		{ID: "b", CreatedAt: now}, // no mood
		{ID: "", CreatedAt: now, MoodScore: floatPtr(0.5)},  // no ID
		{ID: "c", MoodScore: floatPtr(0.5)},                 // no timestamp
		{ID: "d", CreatedAt: now, MoodScore: floatPtr(1.5)}, // out of range
		nil,
		{ID: "e", CreatedAt: now, MoodScore: floatPtr(0.2)},
	}

	views := MoodViews(entries)
	if len(views) != 2 {
		t.Fatalf("expected 2 valid views, got %d", len(views))
	}
	if views[0].Entry.ID != "a" || views[1].Entry.ID != "e" {
		t.Errorf("unexpected view order: %s, %s", views[0].Entry.ID, views[1].Entry.ID)
	}
}

func TestBucketTimeHonorsEffectiveDate(t *testing.T) {
	created := time.Date(2026, 3, 2, 1, 30, 0, 0, time.UTC)  // Monday, after midnight
	effective := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) // Sunday

	e := Entry{ID: "a", CreatedAt: created}
	if !e.BucketTime().Equal(created) {
		t.Error("expected created_at when no effective date is set")
	}

	e.EffectiveDate = &effective
	if !e.BucketTime().Equal(effective) {
		t.Error("expected effective date override")
	}
}

func TestTagsWithPrefix(t *testing.T) {
	e := Entry{Tags: []string{"@activity:yoga", "@activity:run", "@person:sam", "plain", "@activity:"}}

	got := e.TagsWithPrefix("@activity:")
	if len(got) != 2 || got[0] != "yoga" || got[1] != "run" {
		t.Errorf("unexpected activity tags: %v", got)
	}
}

func TestContextViews(t *testing.T) {
	now := time.Now()
	withHealth := &Entry{ID: "a", CreatedAt: now, MoodScore: floatPtr(0.6),
		HealthContext: &HealthContext{Strain: &StrainMetrics{Score: 12}}}
	withEnv := &Entry{ID: "b", CreatedAt: now, MoodScore: floatPtr(0.4),
		EnvironmentContext: &EnvironmentContext{Condition: "sunny"}}
	bare := &Entry{ID: "c", CreatedAt: now, MoodScore: floatPtr(0.5)}

	views := MoodViews([]*Entry{withHealth, withEnv, bare})

	if got := HealthViews(views); len(got) != 1 || got[0].Entry.ID != "a" {
		t.Errorf("unexpected health views: %v", got)
	}
	if got := EnvironmentViews(views); len(got) != 1 || got[0].Entry.ID != "b" {
		t.Errorf("unexpected environment views: %v", got)
	}
}
