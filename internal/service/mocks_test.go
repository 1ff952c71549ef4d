package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"storefront-auth/internal/model"
)

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) FindByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) FindByID(ctx context.Context, id string) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserStore) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockUserStore) Create(ctx context.Context, u model.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserStore) SetVerified(ctx context.Context, userID string, at time.Time) error {
	args := m.Called(ctx, userID, at)
	return args.Error(0)
}

func (m *MockUserStore) SetPasswordToken(ctx context.Context, userID string, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *MockUserStore) ResetPassword(ctx context.Context, userID string, passwordHash string) error {
	args := m.Called(ctx, userID, passwordHash)
	return args.Error(0)
}

func (m *MockUserStore) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) FindByUser(ctx context.Context, userID string) (model.RefreshTokenRecord, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.RefreshTokenRecord), args.Error(1)
}

func (m *MockTokenStore) CreateIfAbsent(ctx context.Context, rec model.RefreshTokenRecord) (model.RefreshTokenRecord, error) {
	args := m.Called(ctx, rec)
	return args.Get(0).(model.RefreshTokenRecord), args.Error(1)
}

func (m *MockTokenStore) DeleteByUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockTokenStore) Invalidate(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockMailDispatcher struct {
	mock.Mock
}

func (m *MockMailDispatcher) SendVerificationEmail(ctx context.Context, name string, email string, verificationToken string) error {
	args := m.Called(ctx, name, email, verificationToken)
	return args.Error(0)
}

func (m *MockMailDispatcher) SendResetPasswordEmail(ctx context.Context, name string, email string, resetToken string) error {
	args := m.Called(ctx, name, email, resetToken)
	return args.Error(0)
}
