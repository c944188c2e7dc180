package insight

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/myrjola/fitsight/internal/sqlite"
)

// AuditRepository persists insight lifecycle events to SQLite. It implements
// AuditLog.
type AuditRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

// NewAuditRepository constructs a repository over the given database.
func NewAuditRepository(db *sqlite.Database, logger *slog.Logger) *AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Record appends one lifecycle event. Rows are append-only; nothing ever
// updates or deletes them.
func (r *AuditRepository) Record(ctx context.Context, event AuditEvent) error {
	_, err := r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO insight_audit (insight_id, event, insight_type, origin, title, priority, confidence, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.InsightID, string(event.Event), string(event.Type), event.Origin,
		event.Title, string(event.Priority), event.Confidence, event.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert insight audit event: %w", err)
	}
	return nil
}

// History returns the lifecycle events of one insight in recording order.
func (r *AuditRepository) History(ctx context.Context, insightID string) ([]AuditEvent, error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT insight_id, event, insight_type, origin, title, priority, confidence, recorded_at
		FROM insight_audit
		WHERE insight_id = ?
		ORDER BY id`, insightID)
	if err != nil {
		return nil, fmt.Errorf("query insight audit history: %w", err)
	}
	return r.scanEvents(ctx, rows)
}

// List returns the latest events across all insights, newest first, capped to
// limit.
func (r *AuditRepository) List(ctx context.Context, limit int) ([]AuditEvent, error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT insight_id, event, insight_type, origin, title, priority, confidence, recorded_at
		FROM insight_audit
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query insight audit events: %w", err)
	}
	return r.scanEvents(ctx, rows)
}

func (r *AuditRepository) scanEvents(ctx context.Context, rows *sql.Rows) ([]AuditEvent, error) {
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.LogAttrs(ctx, slog.LevelError, "could not close rows", slog.Any("error", err))
		}
	}()

	var events []AuditEvent
	for rows.Next() {
		var (
			event      AuditEvent
			kind       string
			typ        string
			priority   string
			recordedAt time.Time
		)
		if err := rows.Scan(&event.InsightID, &kind, &typ, &event.Origin,
			&event.Title, &priority, &event.Confidence, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan insight audit event: %w", err)
		}
		event.Event = EventKind(kind)
		event.Type = Type(typ)
		event.Priority = Priority(priority)
		event.RecordedAt = recordedAt
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return events, nil
}
