package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/99minutos/link-dashboard/internal/core/domain"
)

// AuthRepository stores user accounts keyed by e-mail.
type AuthRepository struct {
	mu      sync.RWMutex
	byEmail map[string]*domain.User
}

func NewAuthRepository() *AuthRepository {
	return &AuthRepository{byEmail: make(map[string]*domain.User)}
}

func (r *AuthRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return nil, domain.ErrUserExists
	}
	stored := *user
	stored.ID = uuid.NewString()
	r.byEmail[user.Email] = &stored

	out := stored
	return &out, nil
}

func (r *AuthRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := *u
	return &out, nil
}
