//go:build integration

package integration

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront-auth/internal/config"
	"storefront-auth/internal/handler"
	"storefront-auth/internal/mailer"
	"storefront-auth/internal/middleware"
	"storefront-auth/internal/model"
	"storefront-auth/internal/router"
	"storefront-auth/internal/service"
	"storefront-auth/internal/token"
)

// memUserStore is an in-memory stand-in for the Postgres user repository.
type memUserStore struct {
	mu    sync.Mutex
	users map[string]model.User // keyed by lowercase email
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[string]model.User{}}
}

func (s *memUserStore) key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *memUserStore) FindByEmail(ctx context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[s.key(email)]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (s *memUserStore) FindByID(ctx context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *memUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[s.key(email)]
	return ok, nil
}

func (s *memUserStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users), nil
}

func (s *memUserStore) Create(ctx context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[s.key(u.Email)] = u
	return nil
}

func (s *memUserStore) mutateByID(id string, fn func(*model.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, u := range s.users {
		if u.ID == id {
			fn(&u)
			s.users[key] = u
			return nil
		}
	}
	return model.ErrUserNotFound
}

func (s *memUserStore) SetVerified(ctx context.Context, userID string, at time.Time) error {
	return s.mutateByID(userID, func(u *model.User) {
		u.IsVerified = true
		u.VerifiedAt = &at
		u.VerificationToken = ""
	})
}

func (s *memUserStore) SetPasswordToken(ctx context.Context, userID string, tokenHash string, expiresAt time.Time) error {
	return s.mutateByID(userID, func(u *model.User) {
		u.PasswordTokenHash = tokenHash
		u.PasswordTokenExp = &expiresAt
	})
}

func (s *memUserStore) ResetPassword(ctx context.Context, userID string, passwordHash string) error {
	return s.mutateByID(userID, func(u *model.User) {
		u.PasswordHash = passwordHash
		u.PasswordTokenHash = ""
		u.PasswordTokenExp = nil
	})
}

func (s *memUserStore) List(ctx context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

// memTokenStore mirrors the refresh token repository, including the
// create-if-absent semantics of the unique user_id constraint.
type memTokenStore struct {
	mu      sync.Mutex
	records map[string]model.RefreshTokenRecord
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{records: map[string]model.RefreshTokenRecord{}}
}

func (s *memTokenStore) FindByUser(ctx context.Context, userID string) (model.RefreshTokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID]
	if !ok {
		return model.RefreshTokenRecord{}, model.ErrTokenNotFound
	}
	return rec, nil
}

func (s *memTokenStore) CreateIfAbsent(ctx context.Context, rec model.RefreshTokenRecord) (model.RefreshTokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.records[rec.UserID]; ok {
		return existing, nil
	}
	s.records[rec.UserID] = rec
	return rec, nil
}

func (s *memTokenStore) DeleteByUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, userID)
	return nil
}

func (s *memTokenStore) Invalidate(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID]
	if !ok {
		return model.ErrTokenNotFound
	}
	rec.IsValid = false
	s.records[userID] = rec
	return nil
}

func (s *memTokenStore) has(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[userID]
	return ok
}

func newAuthServer(t *testing.T) (*httptest.Server, *memUserStore, *memTokenStore) {
	t.Helper()

	users := newMemUserStore()
	tokens := newMemTokenStore()

	codec := token.NewCodec("test-secret")
	policy := token.CookiePolicy{AccessTTL: 15 * time.Minute, RefreshTTL: 24 * time.Hour}

	dispatcher := mailer.NewDispatcher(mailer.LogMailer{}, "http://localhost:3000")
	authService := service.NewAuthService(users, tokens, dispatcher, 10*time.Minute)
	authMiddleware := middleware.NewAuthMiddleware(codec, tokens, policy)
	authHandler := handler.NewAuthHandler(authService, codec, policy)
	userHandler := handler.NewUserHandler(authService)

	cfg := &config.Config{CORSOrigins: []string{"http://localhost:3000"}}
	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth: authHandler,
		User: userHandler,
	})

	server := httptest.NewServer(appRouter)
	t.Cleanup(server.Close)
	return server, users, tokens
}
