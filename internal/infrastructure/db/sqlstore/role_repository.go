package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// RoleRepository implements ports.RoleStore.
type RoleRepository struct {
	db *sqlx.DB
}

func NewRoleRepository(db *sqlx.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) Exists(ctx context.Context, roleID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var exists bool
	q := r.db.Rebind(`SELECT EXISTS(SELECT 1 FROM roles WHERE id = ?)`)
	if err := r.db.GetContext(ctx, &exists, q, roleID); err != nil {
		return false, fmt.Errorf("check role: %w", err)
	}
	return exists, nil
}
