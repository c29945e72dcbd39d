package ports

import (
	"context"

	"github.com/99minutos/link-dashboard/internal/core/domain"
)

type AuthService interface {
	Register(ctx context.Context, email, password string, kind domain.PrincipalType) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}
