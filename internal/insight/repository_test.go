package insight_test

import (
	"context"
	"testing"
	"time"

	"github.com/myrjola/fitsight/internal/insight"
	"github.com/myrjola/fitsight/internal/sqlite"
	"github.com/myrjola/fitsight/internal/testhelpers"
)

func newAuditRepository(t *testing.T) *insight.AuditRepository {
	t.Helper()
	logger := testhelpers.NewLogger(testhelpers.NewWriter(t))
	db, err := sqlite.NewDatabase(t.Context(), ":memory:", logger)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close database: %v", err)
		}
	})
	return insight.NewAuditRepository(db, logger)
}

func TestAuditRepository(t *testing.T) {
	t.Parallel()
	repo := newAuditRepository(t)
	ctx := context.Background()
	recordedAt := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	events := []insight.AuditEvent{
		{
			InsightID: "ins-1", Event: insight.EventCreated, Type: insight.TypeWarning,
			Origin: "fatigue", Title: "High fatigue", Priority: insight.PriorityHigh,
			Confidence: 80, RecordedAt: recordedAt,
		},
		{
			InsightID: "ins-2", Event: insight.EventCreated, Type: insight.TypeMilestone,
			Origin: "streak", Title: "10 workouts", Priority: insight.PriorityMedium,
			Confidence: 100, RecordedAt: recordedAt.Add(time.Minute),
		},
		{
			InsightID: "ins-1", Event: insight.EventDismissed, Type: insight.TypeWarning,
			Origin: "fatigue", Title: "High fatigue", Priority: insight.PriorityHigh,
			Confidence: 80, RecordedAt: recordedAt.Add(2 * time.Minute),
		},
	}
	for _, event := range events {
		if err := repo.Record(ctx, event); err != nil {
			t.Fatalf("Record returned unexpected error: %v", err)
		}
	}

	t.Run("history follows one insight in order", func(t *testing.T) {
		history, err := repo.History(ctx, "ins-1")
		if err != nil {
			t.Fatalf("History returned unexpected error: %v", err)
		}
		if len(history) != 2 {
			t.Fatalf("len(history) = %d, want 2", len(history))
		}
		if history[0].Event != insight.EventCreated || history[1].Event != insight.EventDismissed {
			t.Errorf("history events = %s, %s, want created then dismissed", history[0].Event, history[1].Event)
		}
		if history[1].Origin != "fatigue" || history[1].Priority != insight.PriorityHigh {
			t.Errorf("dismissal row lost fields: %+v", history[1])
		}
	})

	t.Run("list returns newest first with limit", func(t *testing.T) {
		listed, err := repo.List(ctx, 2)
		if err != nil {
			t.Fatalf("List returned unexpected error: %v", err)
		}
		if len(listed) != 2 {
			t.Fatalf("len(listed) = %d, want 2", len(listed))
		}
		if listed[0].Event != insight.EventDismissed || listed[0].InsightID != "ins-1" {
			t.Errorf("newest event = %s for %s, want the dismissal of ins-1", listed[0].Event, listed[0].InsightID)
		}
	})

	t.Run("history of unknown insight is empty", func(t *testing.T) {
		history, err := repo.History(ctx, "no-such-insight")
		if err != nil {
			t.Fatalf("History returned unexpected error: %v", err)
		}
		if len(history) != 0 {
			t.Errorf("len(history) = %d, want 0", len(history))
		}
	})
}

// TestAggregatorWritesAudit wires the aggregator to the repository and
// verifies a full lifecycle leaves a complete trail.
func TestAggregatorWritesAudit(t *testing.T) {
	t.Parallel()
	repo := newAuditRepository(t)
	logger := testhelpers.NewLogger(testhelpers.NewWriter(t))
	a := insight.NewAggregator(repo, logger)
	ctx := context.Background()
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	sig := insight.Signal{
		Type: insight.TypeWarning, Origin: "fatigue", Title: "High fatigue",
		Priority: insight.PriorityHigh, Confidence: 75,
	}
	if err := a.Apply(ctx, []insight.Signal{sig}, now); err != nil {
		t.Fatalf("Apply returned unexpected error: %v", err)
	}
	sig.Confidence = 90
	if err := a.Apply(ctx, []insight.Signal{sig}, now.Add(time.Minute)); err != nil {
		t.Fatalf("Apply returned unexpected error: %v", err)
	}
	visible := a.Visible(now.Add(time.Minute), 0)
	if len(visible) != 1 {
		t.Fatalf("len(visible) = %d, want 1", len(visible))
	}
	if err := a.Dismiss(ctx, visible[0].ID, now.Add(2*time.Minute)); err != nil {
		t.Fatalf("Dismiss returned unexpected error: %v", err)
	}

	history, err := repo.History(ctx, visible[0].ID)
	if err != nil {
		t.Fatalf("History returned unexpected error: %v", err)
	}
	wantKinds := []insight.EventKind{insight.EventCreated, insight.EventUpdated, insight.EventDismissed}
	if len(history) != len(wantKinds) {
		t.Fatalf("len(history) = %d, want %d", len(history), len(wantKinds))
	}
	for i, want := range wantKinds {
		if history[i].Event != want {
			t.Errorf("history[%d].Event = %s, want %s", i, history[i].Event, want)
		}
	}
	if history[1].Confidence != 90 {
		t.Errorf("updated event confidence = %d, want 90", history[1].Confidence)
	}
}
