package service

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/link-dashboard/internal/core/domain"
	"github.com/99minutos/link-dashboard/internal/core/ports"
)

// AuthService implements registration and login. Issued tokens carry the
// principal claims read back by the Auth middleware.
type AuthService struct {
	repo        ports.AuthRepository
	jwtSecret   string
	tokenTTL    time.Duration
	superadmins map[string]struct{}
}

func NewAuthService(repo ports.AuthRepository, jwtSecret string, tokenTTL time.Duration, superadminEmails []string) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	superadmins := make(map[string]struct{}, len(superadminEmails))
	for _, e := range superadminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			superadmins[e] = struct{}{}
		}
	}
	return &AuthService{repo: repo, jwtSecret: jwtSecret, tokenTTL: tokenTTL, superadmins: superadmins}
}

func (s *AuthService) Register(ctx context.Context, email, password string, kind domain.PrincipalType) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if kind == "" {
		kind = domain.PrincipalUser
	}
	if !kind.Valid() {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	_, superadmin := s.superadmins[email]
	now := time.Now().UTC()
	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Type:         kind,
		Superadmin:   superadmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	return s.repo.Create(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	p := user.Principal()
	claims := jwt.MapClaims{
		"sub":        p.ID,
		"email":      p.Email,
		"type":       string(p.Type),
		"superadmin": p.Superadmin,
		"exp":        time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
