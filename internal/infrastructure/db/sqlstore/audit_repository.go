package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/workforce/login-service/internal/core/domain"
)

// AuditLogRepository implements ports.AuditLogStore.
type AuditLogRepository struct {
	db *sqlx.DB
}

func NewAuditLogRepository(db *sqlx.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Insert(ctx context.Context, entry *domain.AuditLogEntry) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	q := r.db.Rebind(`INSERT INTO audit_logs(user_id, date) VALUES(?, ?) RETURNING id`)
	if err := r.db.QueryRowxContext(ctx, q, entry.UserID, entry.Date.UTC()).Scan(&entry.ID); err != nil {
		return 0, fmt.Errorf("insert audit log: %w", err)
	}
	return 1, nil
}
