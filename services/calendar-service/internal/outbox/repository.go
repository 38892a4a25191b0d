package outbox

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/clinicboard/libs/db"
	otelx "github.com/md-rashed-zaman/clinicboard/libs/otel"
)

// Execer is the part of pgx.Tx the repository writes through.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Pending is an outbox row waiting to be published.
type Pending struct {
	ID      int64
	EventID string
	Event
	Trace     otelx.TraceContext
	CreatedAt time.Time
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores evt with the caller's trace context. tx must be the transaction that
// changed the appointment, so the event exists exactly when the change does.
func (r *Repository) Insert(ctx context.Context, tx Execer, evt Event) error {
	tc := otelx.CaptureTraceContext(ctx)
	_, err := tx.Exec(ctx, `
		INSERT INTO outbox_events (aggregate_type, aggregate_id, event_type, payload, traceparent, tracestate)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, evt.AggregateType, evt.AggregateID, evt.EventType, evt.Payload, nullable(tc.Traceparent), nullable(tc.Tracestate))
	return err
}

// Claim locks up to limit unpublished rows in id order. Rows locked by another
// publisher are skipped.
func (r *Repository) Claim(ctx context.Context, tx Execer, limit int) ([]Pending, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, event_id::text, aggregate_type, aggregate_id, event_type, payload,
			COALESCE(traceparent, ''), COALESCE(tracestate, ''), created_at
		FROM outbox_events
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Pending, error) {
		var p Pending
		err := row.Scan(&p.ID, &p.EventID, &p.AggregateType, &p.AggregateID, &p.EventType, &p.Payload,
			&p.Trace.Traceparent, &p.Trace.Tracestate, &p.CreatedAt)
		return p, err
	})
}

func (r *Repository) MarkPublished(ctx context.Context, tx Execer, pending []Pending) error {
	if len(pending) == 0 {
		return nil
	}
	ids := make([]int64, len(pending))
	for i, p := range pending {
		ids[i] = p.ID
	}
	_, err := tx.Exec(ctx, `UPDATE outbox_events SET published_at = now() WHERE id = ANY($1)`, ids)
	return err
}

// Prune deletes events published before cutoff and reports how many went.
func (r *Repository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM outbox_events
		WHERE published_at IS NOT NULL AND published_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
