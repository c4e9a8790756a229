package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tractorbid/tractorbid-backend/pkg/config"
	"github.com/tractorbid/tractorbid-backend/pkg/db/models"
	"github.com/tractorbid/tractorbid-backend/pkg/enums"
	pkgerrors "github.com/tractorbid/tractorbid-backend/pkg/errors"
	"github.com/tractorbid/tractorbid-backend/pkg/security"
)

var testJWTConfig = config.JWTConfig{
	Secret:                 "test-secret",
	Issuer:                 "tractorbid-test",
	ExpirationMinutes:      15,
	RefreshTokenTTLMinutes: 60,
}

type stubUserRepo struct {
	Repository
	user      *models.User
	createErr error
	touched   bool
}

func (s *stubUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	user.ID = uuid.New()
	s.user = user
	return user, nil
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.user == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.touched = true
	return nil
}

type stubSessionStore struct {
	tokens  map[string]string
	revoked []string
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{tokens: map[string]string{}}
}

func (s *stubSessionStore) StoreRefreshToken(ctx context.Context, userID, token string, ttl time.Duration) error {
	s.tokens[userID] = token
	return nil
}

func (s *stubSessionStore) GetRefreshToken(ctx context.Context, userID string) (string, error) {
	token, ok := s.tokens[userID]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	return token, nil
}

func (s *stubSessionStore) RevokeRefreshToken(ctx context.Context, userID string) error {
	delete(s.tokens, userID)
	s.revoked = append(s.revoked, userID)
	return nil
}

func activeUser(t *testing.T, email, password string) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         enums.UserRoleBidder,
		IsActive:     true,
	}
}

func TestRegisterMintsSession(t *testing.T) {
	t.Parallel()

	repo := &stubUserRepo{}
	sessions := newStubSessionStore()
	svc, err := NewService(repo, sessions, testJWTConfig, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := svc.Register(context.Background(), RegisterInput{
		Email:     "  Buyer@Example.COM ",
		Password:  "s3cret-pass",
		FirstName: "Asha",
		LastName:  "Patel",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.User.Email != "buyer@example.com" {
		t.Fatalf("expected normalized email, got %q", result.User.Email)
	}
	if result.User.Role != enums.UserRoleBidder {
		t.Fatalf("expected default bidder role, got %s", result.User.Role)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("expected token pair")
	}
	if sessions.tokens[result.User.ID.String()] != result.RefreshToken {
		t.Fatal("expected refresh token stored")
	}
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	t.Parallel()

	svc, _ := NewService(&stubUserRepo{}, newStubSessionStore(), testJWTConfig, config.PasswordConfig{})

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "admin@example.com",
		Password: "s3cret-pass",
		Role:     enums.UserRoleAdmin,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	t.Parallel()

	svc, _ := NewService(&stubUserRepo{}, newStubSessionStore(), testJWTConfig, config.PasswordConfig{})

	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: "short"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoginWithValidCredentials(t *testing.T) {
	t.Parallel()

	repo := &stubUserRepo{user: activeUser(t, "buyer@example.com", "s3cret-pass")}
	svc, _ := NewService(repo, newStubSessionStore(), testJWTConfig, config.PasswordConfig{})

	result, err := svc.Login(context.Background(), "buyer@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AccessToken == "" {
		t.Fatal("expected access token")
	}
	if !repo.touched {
		t.Fatal("expected last login recorded")
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	t.Parallel()

	repo := &stubUserRepo{user: activeUser(t, "buyer@example.com", "s3cret-pass")}
	svc, _ := NewService(repo, newStubSessionStore(), testJWTConfig, config.PasswordConfig{})

	_, err := svc.Login(context.Background(), "buyer@example.com", "wrong-pass")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginRejectsDisabledAccount(t *testing.T) {
	t.Parallel()

	user := activeUser(t, "buyer@example.com", "s3cret-pass")
	user.IsActive = false
	svc, _ := NewService(&stubUserRepo{user: user}, newStubSessionStore(), testJWTConfig, config.PasswordConfig{})

	_, err := svc.Login(context.Background(), "buyer@example.com", "s3cret-pass")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	t.Parallel()

	user := activeUser(t, "buyer@example.com", "s3cret-pass")
	sessions := newStubSessionStore()
	sessions.tokens[user.ID.String()] = "old-refresh-token"
	svc, _ := NewService(&stubUserRepo{user: user}, sessions, testJWTConfig, config.PasswordConfig{})

	result, err := svc.Refresh(context.Background(), user.ID, "old-refresh-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RefreshToken == "old-refresh-token" {
		t.Fatal("expected rotated refresh token")
	}
	if sessions.tokens[user.ID.String()] != result.RefreshToken {
		t.Fatal("expected new token stored")
	}
}

func TestRefreshRejectsMismatchedToken(t *testing.T) {
	t.Parallel()

	user := activeUser(t, "buyer@example.com", "s3cret-pass")
	sessions := newStubSessionStore()
	sessions.tokens[user.ID.String()] = "old-refresh-token"
	svc, _ := NewService(&stubUserRepo{user: user}, sessions, testJWTConfig, config.PasswordConfig{})

	_, err := svc.Refresh(context.Background(), user.ID, "stolen-token")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRefreshRejectsExpiredSession(t *testing.T) {
	t.Parallel()

	user := activeUser(t, "buyer@example.com", "s3cret-pass")
	svc, _ := NewService(&stubUserRepo{user: user}, newStubSessionStore(), testJWTConfig, config.PasswordConfig{})

	_, err := svc.Refresh(context.Background(), user.ID, "any-token")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	t.Parallel()

	user := activeUser(t, "buyer@example.com", "s3cret-pass")
	sessions := newStubSessionStore()
	sessions.tokens[user.ID.String()] = "refresh-token"
	svc, _ := NewService(&stubUserRepo{user: user}, sessions, testJWTConfig, config.PasswordConfig{})

	if err := svc.Logout(context.Background(), user.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions.revoked) != 1 {
		t.Fatal("expected session revoked")
	}
}
