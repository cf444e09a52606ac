package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/workforce/login-service/internal/core/domain"
)

// UserRepository implements ports.UserStore.
type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

type userRow struct {
	ID              int64          `db:"id"`
	Email           string         `db:"email"`
	PasswordHash    string         `db:"password_hash"`
	RoleID          int64          `db:"role_id"`
	RoleDescription sql.NullString `db:"role_description"`
}

func (r userRow) toDomain() domain.User {
	u := domain.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		RoleID:       r.RoleID,
	}
	if r.RoleDescription.Valid {
		u.Role = &domain.Role{ID: r.RoleID, Description: r.RoleDescription.String}
	}
	return u
}

const selectUsers = `
SELECT u.id, u.email, u.password_hash, u.role_id, r.description AS role_description
FROM users u
LEFT JOIN roles r ON r.id = u.role_id`

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var row userRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(selectUsers+` WHERE u.email = ?`), email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	u := row.toDomain()
	return &u, nil
}

// Insert relies on the UNIQUE(email) constraint to reject concurrent duplicates.
func (r *UserRepository) Insert(ctx context.Context, user *domain.User) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	q := r.db.Rebind(`INSERT INTO users(email, password_hash, role_id) VALUES(?, ?, ?) RETURNING id`)

	var id int64
	if err := r.db.QueryRowxContext(ctx, q, user.Email, user.PasswordHash, user.RoleID).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, domain.ErrUserExists
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	user.ID = id
	return 1, nil
}

func (r *UserRepository) Delete(ctx context.Context, user *domain.User) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM users WHERE id = ?`), user.ID)
	if err != nil {
		return 0, fmt.Errorf("delete user: %w", err)
	}
	return res.RowsAffected()
}

func (r *UserRepository) ListAll(ctx context.Context) ([]domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, selectUsers+` ORDER BY u.id`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users := make([]domain.User, len(rows))
	for i, row := range rows {
		users[i] = row.toDomain()
	}
	return users, nil
}
