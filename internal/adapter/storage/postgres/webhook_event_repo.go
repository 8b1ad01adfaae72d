package postgres

import (
	"context"
	"fmt"

	"merchant-payment-gateway/internal/core/domain"
)

// WebhookEventRepo implements ports.WebhookEventRepository. Events are
// unique per (provider, reference, kind); redelivery is expected and must
// not error.
type WebhookEventRepo struct {
	pool Pool
}

// NewWebhookEventRepo creates a new WebhookEventRepo.
func NewWebhookEventRepo(pool Pool) *WebhookEventRepo {
	return &WebhookEventRepo{pool: pool}
}

// Insert records the event. Returns false without error when an event with
// the same identity was already recorded.
func (r *WebhookEventRepo) Insert(ctx context.Context, e *domain.WebhookEvent) (bool, error) {
	query := `INSERT INTO webhook_events (id, provider, kind, reference, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (provider, reference, kind) DO NOTHING`

	tag, err := r.pool.Exec(ctx, query,
		e.ID, e.Provider, e.Kind, e.Reference, e.Payload, e.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert webhook event: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
