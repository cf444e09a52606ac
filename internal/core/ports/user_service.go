package ports

import (
	"context"

	"github.com/workforce/login-service/internal/core/domain"
)

// RegisterUserInput is the DTO passed from the transport layer to UserService.
type RegisterUserInput struct {
	Email        string
	Password     string
	RoleID       int64
	FirstName    string
	LastName     string
	DepartmentID int64
	PositionID   int64
	SuperiorID   *int64 // optional
	IsApprover   bool
}

// UserSummary is the thin read returned by GetAllUsers.
type UserSummary struct {
	ID    int64
	Email string
	Role  string
}

// UserService defines the registration and login use cases.
type UserService interface {
	RegisterUser(ctx context.Context, in RegisterUserInput) error
	Login(ctx context.Context, email, password string) (domain.SessionToken, error)
	GetAllUsers(ctx context.Context) ([]UserSummary, error)
}
