package ports

import (
	"context"

	"github.com/workforce/login-service/internal/core/domain"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	// FindByEmail returns domain.ErrUserNotFound when no user matches. The
	// returned user has Role populated.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// Insert persists the user, assigns user.ID and reports rows affected.
	// A duplicate email must be rejected atomically with domain.ErrUserExists.
	Insert(ctx context.Context, user *domain.User) (int64, error)
	Delete(ctx context.Context, user *domain.User) (int64, error)
	// ListAll returns every user with Role populated.
	ListAll(ctx context.Context) ([]domain.User, error)
}

// RoleStore answers role existence checks.
type RoleStore interface {
	Exists(ctx context.Context, roleID int64) (bool, error)
}

// AuditLogStore appends login audit entries.
type AuditLogStore interface {
	Insert(ctx context.Context, entry *domain.AuditLogEntry) (int64, error)
}

// CompensationJournal keeps failed compensations visible to operators.
type CompensationJournal interface {
	Record(ctx context.Context, rec domain.OrphanRecord) error
	Recent(ctx context.Context, limit int64) ([]domain.OrphanRecord, error)
}
