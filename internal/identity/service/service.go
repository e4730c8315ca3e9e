package service

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"leadpilot_backend/internal/identity/domain"
	"leadpilot_backend/internal/identity/password"
	"leadpilot_backend/internal/identity/repository"
	"leadpilot_backend/platform/apperr"
	"leadpilot_backend/platform/config"
	"leadpilot_backend/platform/logger"
)

const accessTokenType = "access"

// Service implements account registration, login, and lookups.
type Service struct {
	repo repository.Repository
	cfg  config.AuthServiceConfig
	log  *logger.Logger
	now  func() time.Time
}

// New creates an identity service.
func New(repo repository.Repository, cfg config.AuthServiceConfig, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, log: log, now: time.Now}
}

// Register creates a new user account with the default "user" role.
func (s *Service) Register(ctx context.Context, email, plain, fullName string) (*domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, apperr.Validation("email is required")
	}
	if len(plain) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}

	hash, err := password.Hash(plain)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "hash password", err)
	}

	user, err := s.repo.Create(ctx, &domain.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(fullName),
		Roles:        []string{"user"},
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// Login verifies credentials and returns a signed access token.
// Lookup and compare failures both map to the same error so callers
// cannot probe for registered addresses.
func (s *Service) Login(ctx context.Context, email, plain string) (string, *domain.User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, apperr.Unauthorized("invalid credentials")
	}
	if err := password.Compare(user.PasswordHash, plain); err != nil {
		return "", nil, apperr.Unauthorized("invalid credentials")
	}
	if !user.Active {
		return "", nil, apperr.Forbidden("account disabled")
	}

	token, err := s.signAccessToken(user)
	if err != nil {
		return "", nil, apperr.Wrap(apperr.KindInternal, "sign token", err)
	}
	return token, user, nil
}

// GetByID returns the user with the given ID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

// EmailFor resolves a user ID to an email address.
func (s *Service) EmailFor(ctx context.Context, id uuid.UUID) (string, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}

// List returns all user summaries.
func (s *Service) List(ctx context.Context) ([]domain.Summary, error) {
	return s.repo.List(ctx)
}

// ListActiveIDs returns the IDs of all active users.
func (s *Service) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	return s.repo.ListActiveIDs(ctx)
}

// SetRoles replaces a user's roles.
func (s *Service) SetRoles(ctx context.Context, id uuid.UUID, roles []string) error {
	for _, role := range roles {
		if role != "user" && role != "admin" {
			return apperr.Validation("unknown role: " + role)
		}
	}
	return s.repo.SetRoles(ctx, id, roles)
}

// SetActive enables or disables an account.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return s.repo.SetActive(ctx, id, active)
}

func (s *Service) signAccessToken(user *domain.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"type":  accessTokenType,
		"roles": user.Roles,
		"exp":   now.Add(s.cfg.GetAccessTokenTTL()).Unix(),
		"iat":   now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
}
