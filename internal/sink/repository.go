package sink

import (
	"context"
	"encoding/json"

	"github.com/Rollnz/window-man-truth-engine-sub000/internal/tracking/envelope"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists envelope records to the sink_events audit table.
// This is an event audit trail, not lead storage; records are append-only.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a Repository over the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert appends one record.
func (r *Repository) Insert(ctx context.Context, env envelope.Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}

	var value *float64
	if env.Meta.Category == envelope.CategoryOpt {
		value = env.Value
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO sink_events (event, event_id, category, send, value, currency, lead_id, payload, pushed_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9)
	`, env.Event, env.EventID, string(env.Meta.Category), env.Meta.Send, value, env.Currency, env.LeadID, payload, env.PushedAt)
	return err
}
