package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"leadpilot_backend/internal/identity/domain"
	"leadpilot_backend/internal/identity/password"
	"leadpilot_backend/platform/apperr"
	"leadpilot_backend/platform/logger"
)

type fakeRepo struct {
	users map[string]*domain.User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[string]*domain.User)}
}

func (f *fakeRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, ok := f.users[user.Email]; ok {
		return nil, apperr.Conflict("email already registered")
	}
	stored := *user
	stored.ID = uuid.New()
	stored.Active = true
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	f.users[user.Email] = &stored
	return &stored, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range f.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (f *fakeRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if user, ok := f.users[email]; ok {
		return user, nil
	}
	return nil, apperr.NotFound("user not found")
}

func (f *fakeRepo) List(_ context.Context) ([]domain.Summary, error) { return nil, nil }

func (f *fakeRepo) ListActiveIDs(_ context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, user := range f.users {
		if user.Active {
			ids = append(ids, user.ID)
		}
	}
	return ids, nil
}

func (f *fakeRepo) SetRoles(_ context.Context, id uuid.UUID, roles []string) error {
	user, err := f.GetByID(context.Background(), id)
	if err != nil {
		return err
	}
	user.Roles = roles
	return nil
}

func (f *fakeRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	user, err := f.GetByID(context.Background(), id)
	if err != nil {
		return err
	}
	user.Active = active
	return nil
}

type authConfig struct{}

func (authConfig) GetJWTAccessSecret() string       { return "test-secret" }
func (authConfig) GetAccessTokenTTL() time.Duration { return 15 * time.Minute }

func newTestService(repo *fakeRepo) *Service {
	return New(repo, authConfig{}, logger.New("test"))
}

func seedUser(t *testing.T, repo *fakeRepo, email, plain string, roles []string) *domain.User {
	t.Helper()
	hash, err := password.Hash(plain)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user, err := repo.Create(context.Background(), &domain.User{
		Email:        email,
		PasswordHash: hash,
		Roles:        roles,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestLoginIssuesVerifiableAccessToken(t *testing.T) {
	repo := newFakeRepo()
	seeded := seedUser(t, repo, "owner@example.com", "correct-horse", []string{"user", "admin"})
	svc := newTestService(repo)

	token, user, err := svc.Login(context.Background(), "owner@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != seeded.ID {
		t.Fatalf("user = %s, want %s", user.ID, seeded.ID)
	}

	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token does not verify: %v", err)
	}

	claims := parsed.Claims.(jwt.MapClaims)
	if claims["sub"] != seeded.ID.String() {
		t.Fatalf("sub = %v, want %s", claims["sub"], seeded.ID)
	}
	if claims["type"] != "access" {
		t.Fatalf("type = %v, want access", claims["type"])
	}
	roles, _ := claims["roles"].([]interface{})
	if len(roles) != 2 {
		t.Fatalf("roles = %v, want 2 entries", claims["roles"])
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeRepo()
	seedUser(t, repo, "owner@example.com", "correct-horse", []string{"user"})
	svc := newTestService(repo)

	_, _, err := svc.Login(context.Background(), "owner@example.com", "battery-staple")
	if apperr.GetKind(err) != apperr.KindUnauthorized {
		t.Fatalf("err = %v, want unauthorized", err)
	}
}

func TestLoginUnknownEmailSameError(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	if apperr.GetKind(err) != apperr.KindUnauthorized {
		t.Fatalf("err = %v, want unauthorized", err)
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	repo := newFakeRepo()
	user := seedUser(t, repo, "owner@example.com", "correct-horse", []string{"user"})
	svc := newTestService(repo)

	if err := svc.SetActive(context.Background(), user.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}

	_, _, err := svc.Login(context.Background(), "owner@example.com", "correct-horse")
	if apperr.GetKind(err) != apperr.KindForbidden {
		t.Fatalf("err = %v, want forbidden", err)
	}
}

func TestRegisterNormalizesEmailAndAssignsUserRole(t *testing.T) {
	svc := newTestService(newFakeRepo())

	user, err := svc.Register(context.Background(), "  Owner@Example.COM ", "correct-horse", "Pat Owner")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "owner@example.com" {
		t.Fatalf("email = %q, want normalized", user.Email)
	}
	if len(user.Roles) != 1 || user.Roles[0] != "user" {
		t.Fatalf("roles = %v, want [user]", user.Roles)
	}
	if err := password.Compare(user.PasswordHash, "correct-horse"); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestRegisterShortPassword(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, err := svc.Register(context.Background(), "owner@example.com", "short", "")
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestSetRolesRejectsUnknownRole(t *testing.T) {
	repo := newFakeRepo()
	user := seedUser(t, repo, "owner@example.com", "correct-horse", []string{"user"})
	svc := newTestService(repo)

	err := svc.SetRoles(context.Background(), user.ID, []string{"superuser"})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
}
