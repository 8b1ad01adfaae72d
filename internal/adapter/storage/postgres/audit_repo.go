package postgres

import (
	"context"

	"merchant-payment-gateway/internal/core/domain"
	"merchant-payment-gateway/internal/core/ports"
)

type auditRepo struct {
	pool Pool
}

// NewAuditRepository creates a PostgreSQL-backed AuditRepository.
func NewAuditRepository(pool Pool) ports.AuditRepository {
	return &auditRepo{pool: pool}
}

func (r *auditRepo) Create(ctx context.Context, rec *domain.AuditRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_records (id, merchant_id, action, provider, reference, detail, ip_address, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.MerchantID, string(rec.Action), rec.Provider,
		rec.Reference, rec.Detail, rec.IPAddress, rec.CreatedAt,
	)
	return err
}
