package ports

import "github.com/workforce/login-service/internal/core/domain"

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify reports whether password matches hash. A mismatch is (false, nil);
	// a structurally invalid hash is a domain.ErrValidation error.
	Verify(password, hash string) (bool, error)
}

// TokenIssuer builds signed session tokens.
type TokenIssuer interface {
	Issue(user *domain.User, employee *domain.EmployeeProfile) (domain.SessionToken, error)
}
