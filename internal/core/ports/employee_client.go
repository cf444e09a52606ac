package ports

import (
	"context"

	"github.com/workforce/login-service/internal/core/domain"
)

// EmployeeClient is the narrow contract consumed from the employee service.
type EmployeeClient interface {
	Create(ctx context.Context, req domain.EmployeeRequest) error
	Get(ctx context.Context, userID int64) (*domain.EmployeeProfile, error)
}
