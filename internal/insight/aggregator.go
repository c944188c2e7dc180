package insight

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/myrjola/fitsight/internal/errors"
	"github.com/myrjola/fitsight/internal/ptr"
)

// ErrNotFound is returned when a dismissal names an unknown insight.
var ErrNotFound = errors.NewSentinel("insight not found")

// AuditLog records insight lifecycle events. Recording failures never block
// aggregation; the aggregator logs them and moves on.
type AuditLog interface {
	Record(ctx context.Context, event AuditEvent) error
}

// AuditEvent is one lifecycle transition of an insight.
type AuditEvent struct {
	InsightID  string
	Event      EventKind
	Type       Type
	Origin     string
	Title      string
	Priority   Priority
	Confidence int
	RecordedAt time.Time
}

// EventKind names a lifecycle transition.
type EventKind string

const (
	EventCreated   EventKind = "created"
	EventUpdated   EventKind = "updated"
	EventDismissed EventKind = "dismissed"
	EventExpired   EventKind = "expired"
)

// Aggregator maintains the insight set. All mutation happens under a single
// lock so readers never observe a half-applied pass.
type Aggregator struct {
	mu sync.Mutex
	// insights holds the live and dismissed insights keyed by (type, origin).
	// Dismissed ones stay in their slot so a repeated signal never recreates
	// them; expired ones leave the slot so the condition can resurface.
	insights map[string]*Insight
	audit    AuditLog
	logger   *slog.Logger
}

// NewAggregator constructs an aggregator. The audit log may be nil.
func NewAggregator(audit AuditLog, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		insights: make(map[string]*Insight),
		audit:    audit,
		logger:   logger,
	}
}

func dedupKey(t Type, origin string) string {
	return string(t) + "|" + origin
}

// Apply runs one aggregation pass: it sweeps expired insights, then maps each
// signal to a new insight or an in-place update of the existing one with the
// same (type, origin). Only dismissal is absorbing: signals whose insight has
// been dismissed are dropped, while a signal matching an expired insight
// starts a fresh one under a new ID.
func (a *Aggregator) Apply(ctx context.Context, signals []Signal, now time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.sweepExpiredLocked(ctx, now)

	for _, sig := range signals {
		if !sig.Type.valid() {
			return fmt.Errorf("apply signal from %q: unknown insight type %q", sig.Origin, sig.Type)
		}
		if sig.Origin == "" {
			return fmt.Errorf("apply signal of type %q: empty origin", sig.Type)
		}

		key := dedupKey(sig.Type, sig.Origin)
		existing, ok := a.insights[key]
		if ok {
			if existing.Dismissed {
				continue
			}
			existing.Message = sig.Message
			existing.Priority = sig.Priority
			existing.Confidence = sig.Confidence
			existing.Actionable = sig.Actionable
			existing.Action = sig.Action
			a.record(ctx, *existing, EventUpdated, now)
			continue
		}

		created := &Insight{
			ID:         uuid.NewString(),
			Type:       sig.Type,
			Origin:     sig.Origin,
			Title:      sig.Title,
			Message:    sig.Message,
			Priority:   sig.Priority,
			Confidence: sig.Confidence,
			CreatedAt:  now,
			Actionable: sig.Actionable,
			Action:     sig.Action,
		}
		if sig.TTL > 0 {
			created.ExpiresAt = ptr.Ref(now.Add(sig.TTL))
		}
		a.insights[key] = created
		a.record(ctx, *created, EventCreated, now)
	}
	return nil
}

// Visible returns the visible insights sorted by priority descending and
// creation time descending, capped to maxVisible. A non-positive maxVisible
// means no cap. The returned slice is a copy.
func (a *Aggregator) Visible(now time.Time, maxVisible int) []Insight {
	a.mu.Lock()
	defer a.mu.Unlock()

	visible := make([]Insight, 0, len(a.insights))
	for _, ins := range a.insights {
		if ins.visibleAt(now) {
			visible = append(visible, *ins)
		}
	}
	sort.Slice(visible, func(i, j int) bool {
		if visible[i].Priority.rank() != visible[j].Priority.rank() {
			return visible[i].Priority.rank() > visible[j].Priority.rank()
		}
		if !visible[i].CreatedAt.Equal(visible[j].CreatedAt) {
			return visible[i].CreatedAt.After(visible[j].CreatedAt)
		}
		return visible[i].ID < visible[j].ID
	})
	if maxVisible > 0 && len(visible) > maxVisible {
		visible = visible[:maxVisible]
	}
	return visible
}

// Dismiss flips the insight into its terminal dismissed state. Dismissal is
// irreversible through this interface.
func (a *Aggregator) Dismiss(ctx context.Context, id string, now time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, ins := range a.insights {
		if ins.ID != id {
			continue
		}
		if ins.Dismissed {
			return nil
		}
		ins.Dismissed = true
		a.record(ctx, *ins, EventDismissed, now)
		return nil
	}
	return errors.Wrap(ErrNotFound, "dismiss insight", slog.String("id", id))
}

// sweepExpiredLocked records the expiry transition for insights whose
// deadline has passed and frees their dedup slot. The audit trail keeps the
// full lifecycle; a later signal with the same (type, origin) starts over.
func (a *Aggregator) sweepExpiredLocked(ctx context.Context, now time.Time) {
	for key, ins := range a.insights {
		if ins.expiredAt(now) {
			a.record(ctx, *ins, EventExpired, now)
			delete(a.insights, key)
		}
	}
}

// record appends a lifecycle event to the audit log, if one is configured.
func (a *Aggregator) record(ctx context.Context, ins Insight, kind EventKind, now time.Time) {
	if a.audit == nil {
		return
	}
	event := AuditEvent{
		InsightID:  ins.ID,
		Event:      kind,
		Type:       ins.Type,
		Origin:     ins.Origin,
		Title:      ins.Title,
		Priority:   ins.Priority,
		Confidence: ins.Confidence,
		RecordedAt: now,
	}
	if err := a.audit.Record(ctx, event); err != nil {
		a.logger.LogAttrs(ctx, slog.LevelWarn, "failed to record insight audit event",
			slog.String("insight_id", ins.ID), slog.String("event", string(kind)), slog.Any("error", err))
	}
}
