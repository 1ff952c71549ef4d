package service

import (
	"context"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"storefront-auth/internal/model"
	"storefront-auth/pkg/apierror"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func newTestService() (*AuthService, *MockUserStore, *MockTokenStore, *MockMailDispatcher) {
	users := new(MockUserStore)
	tokens := new(MockTokenStore)
	mail := new(MockMailDispatcher)

	svc := NewAuthService(users, tokens, mail, 10*time.Minute)
	svc.now = func() time.Time { return testNow }
	return svc, users, tokens, mail
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func verifiedUser(t *testing.T, password string) model.User {
	t.Helper()
	return model.User{
		ID:           "user-1",
		Email:        "a@x.com",
		Name:         "A",
		PasswordHash: hashPassword(t, password),
		Role:         model.RoleUser,
		IsVerified:   true,
	}
}

func isHex(s string) bool {
	_, err := hex.DecodeString(s)
	return err == nil
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("first account becomes admin", func(t *testing.T) {
		svc, users, _, mail := newTestService()

		users.On("ExistsByEmail", ctx, "a@x.com").Return(false, nil)
		users.On("Count", ctx).Return(0, nil)
		users.On("Create", ctx, mock.AnythingOfType("model.User")).Return(nil)
		mail.On("SendVerificationEmail", ctx, "A", "a@x.com", mock.AnythingOfType("string")).Return(nil)

		user, err := svc.Register(ctx, model.RegisterRequest{Email: "a@x.com", Name: "A", Password: "pw1"})
		require.NoError(t, err)

		assert.Equal(t, model.RoleAdmin, user.Role)
		assert.False(t, user.IsVerified)
		assert.Len(t, user.VerificationToken, verificationTokenBytes*2)
		assert.True(t, isHex(user.VerificationToken))
		users.AssertExpectations(t)
		mail.AssertExpectations(t)
	})

	t.Run("subsequent accounts default to user", func(t *testing.T) {
		svc, users, _, mail := newTestService()

		users.On("ExistsByEmail", ctx, "b@x.com").Return(false, nil)
		users.On("Count", ctx).Return(1, nil)
		users.On("Create", ctx, mock.AnythingOfType("model.User")).Return(nil)
		mail.On("SendVerificationEmail", ctx, "B", "b@x.com", mock.AnythingOfType("string")).Return(nil)

		user, err := svc.Register(ctx, model.RegisterRequest{Email: "b@x.com", Name: "B", Password: "pw2"})
		require.NoError(t, err)
		assert.Equal(t, model.RoleUser, user.Role)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		svc, users, _, _ := newTestService()

		users.On("ExistsByEmail", ctx, "a@x.com").Return(true, nil)

		_, err := svc.Register(ctx, model.RegisterRequest{Email: "a@x.com", Name: "A", Password: "pw"})

		var apiErr *apierror.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "BAD_REQUEST", apiErr.Code)
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		svc, _, _, _ := newTestService()

		_, err := svc.Register(ctx, model.RegisterRequest{Email: "a@x.com"})

		var apiErr *apierror.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "BAD_REQUEST", apiErr.Code)
	})

	t.Run("mail delivery failure does not undo registration", func(t *testing.T) {
		svc, users, _, mail := newTestService()

		users.On("ExistsByEmail", ctx, "c@x.com").Return(false, nil)
		users.On("Count", ctx).Return(2, nil)
		users.On("Create", ctx, mock.AnythingOfType("model.User")).Return(nil)
		mail.On("SendVerificationEmail", ctx, "C", "c@x.com", mock.AnythingOfType("string")).
			Return(errors.New("smtp down"))

		_, err := svc.Register(ctx, model.RegisterRequest{Email: "c@x.com", Name: "C", Password: "pw3"})
		assert.NoError(t, err)
	})
}

func TestAuthService_VerifyEmail(t *testing.T) {
	ctx := context.Background()

	pending := model.User{ID: "user-1", Email: "b@x.com", VerificationToken: "tok-123"}

	t.Run("matching token verifies and clears", func(t *testing.T) {
		svc, users, _, _ := newTestService()

		users.On("FindByEmail", ctx, "b@x.com").Return(pending, nil)
		users.On("SetVerified", ctx, "user-1", testNow).Return(nil)

		err := svc.VerifyEmail(ctx, model.VerifyEmailRequest{Email: "b@x.com", VerificationToken: "tok-123"})
		assert.NoError(t, err)
		users.AssertExpectations(t)
	})

	t.Run("unknown user and token mismatch are indistinguishable", func(t *testing.T) {
		svc, users, _, _ := newTestService()

		users.On("FindByEmail", ctx, "ghost@x.com").Return(model.User{}, model.ErrUserNotFound)
		users.On("FindByEmail", ctx, "b@x.com").Return(pending, nil)

		unknownErr := svc.VerifyEmail(ctx, model.VerifyEmailRequest{Email: "ghost@x.com", VerificationToken: "tok-123"})
		mismatchErr := svc.VerifyEmail(ctx, model.VerifyEmailRequest{Email: "b@x.com", VerificationToken: "wrong"})

		require.Error(t, unknownErr)
		assert.EqualError(t, mismatchErr, unknownErr.Error())
	})

	t.Run("replay after success fails because the token is cleared", func(t *testing.T) {
		svc, users, _, _ := newTestService()

		verified := pending
		verified.IsVerified = true
		verified.VerificationToken = ""
		users.On("FindByEmail", ctx, "b@x.com").Return(verified, nil)

		err := svc.VerifyEmail(ctx, model.VerifyEmailRequest{Email: "b@x.com", VerificationToken: "tok-123"})

		var apiErr *apierror.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "UNAUTHORIZED", apiErr.Code)
		users.AssertNotCalled(t, "SetVerified", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	meta := model.ClientMeta{IP: "10.0.0.1", UserAgent: "test-agent"}

	t.Run("rejection causes are indistinguishable", func(t *testing.T) {
		svc, users, _, _ := newTestService()

		unverified := verifiedUser(t, "pw")
		unverified.IsVerified = false

		users.On("FindByEmail", ctx, "ghost@x.com").Return(model.User{}, model.ErrUserNotFound)
		users.On("FindByEmail", ctx, "a@x.com").Return(verifiedUser(t, "pw"), nil).Once()
		users.On("FindByEmail", ctx, "a@x.com").Return(unverified, nil).Once()

		_, _, unknownErr := svc.Login(ctx, model.LoginRequest{Email: "ghost@x.com", Password: "pw"}, meta)
		_, _, wrongPwErr := svc.Login(ctx, model.LoginRequest{Email: "a@x.com", Password: "nope"}, meta)
		_, _, unverifiedErr := svc.Login(ctx, model.LoginRequest{Email: "a@x.com", Password: "pw"}, meta)

		require.Error(t, unknownErr)
		assert.EqualError(t, wrongPwErr, unknownErr.Error())
		assert.EqualError(t, unverifiedErr, unknownErr.Error())

		for _, err := range []error{unknownErr, wrongPwErr, unverifiedErr} {
			var apiErr *apierror.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, 401, apiErr.HTTPStatus)
		}
	})

	t.Run("existing valid record is reused unchanged", func(t *testing.T) {
		svc, users, tokens, _ := newTestService()

		users.On("FindByEmail", ctx, "a@x.com").Return(verifiedUser(t, "pw"), nil)
		tokens.On("FindByUser", ctx, "user-1").Return(model.RefreshTokenRecord{
			UserID:       "user-1",
			RefreshToken: "stable-value",
			IsValid:      true,
		}, nil)

		tokenUser, refreshToken, err := svc.Login(ctx, model.LoginRequest{Email: "a@x.com", Password: "pw"}, meta)
		require.NoError(t, err)
		assert.Equal(t, "stable-value", refreshToken)
		assert.Equal(t, model.TokenUser{UserID: "user-1", Name: "A", Role: model.RoleUser}, tokenUser)
		tokens.AssertNotCalled(t, "CreateIfAbsent", mock.Anything, mock.Anything)
	})

	t.Run("revoked record rejects the login", func(t *testing.T) {
		svc, users, tokens, _ := newTestService()

		users.On("FindByEmail", ctx, "a@x.com").Return(verifiedUser(t, "pw"), nil)
		tokens.On("FindByUser", ctx, "user-1").Return(model.RefreshTokenRecord{
			UserID:       "user-1",
			RefreshToken: "stable-value",
			IsValid:      false,
		}, nil)

		_, _, err := svc.Login(ctx, model.LoginRequest{Email: "a@x.com", Password: "pw"}, meta)

		var apiErr *apierror.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 401, apiErr.HTTPStatus)
	})

	t.Run("absent record mints and persists a new value", func(t *testing.T) {
		svc, users, tokens, _ := newTestService()

		users.On("FindByEmail", ctx, "a@x.com").Return(verifiedUser(t, "pw"), nil)
		tokens.On("FindByUser", ctx, "user-1").
			Return(model.RefreshTokenRecord{}, model.ErrTokenNotFound)

		var created model.RefreshTokenRecord
		tokens.On("CreateIfAbsent", ctx, mock.MatchedBy(func(rec model.RefreshTokenRecord) bool {
			created = rec
			return rec.UserID == "user-1" &&
				len(rec.RefreshToken) == refreshTokenBytes*2 &&
				isHex(rec.RefreshToken) &&
				rec.IP == "10.0.0.1" &&
				rec.UserAgent == "test-agent" &&
				rec.IsValid &&
				rec.CreatedAt.Equal(testNow)
		})).Return(model.RefreshTokenRecord{
			UserID:       "user-1",
			RefreshToken: "winner-value",
			IsValid:      true,
		}, nil)

		_, refreshToken, err := svc.Login(ctx, model.LoginRequest{Email: "a@x.com", Password: "pw"}, meta)
		require.NoError(t, err)

		// The store decides which record survives a concurrent first login;
		// the session must carry the surviving value.
		assert.Equal(t, "winner-value", refreshToken)
		assert.NotEmpty(t, created.RefreshToken)
		tokens.AssertExpectations(t)
	})

	t.Run("missing fields rejected before any lookup", func(t *testing.T) {
		svc, users, _, _ := newTestService()

		_, _, err := svc.Login(ctx, model.LoginRequest{Email: "a@x.com"}, meta)

		var apiErr *apierror.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "BAD_REQUEST", apiErr.Code)
		users.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	svc, _, tokens, _ := newTestService()

	tokens.On("DeleteByUser", ctx, "user-1").Return(nil)

	require.NoError(t, svc.Logout(ctx, "user-1"))
	tokens.AssertExpectations(t)
}

func TestAuthService_RevokeUserSessions(t *testing.T) {
	ctx := context.Background()

	t.Run("invalidates the record", func(t *testing.T) {
		svc, _, tokens, _ := newTestService()
		tokens.On("Invalidate", ctx, "user-1").Return(nil)

		require.NoError(t, svc.RevokeUserSessions(ctx, "user-1"))
		tokens.AssertExpectations(t)
	})

	t.Run("no live session is a no-op", func(t *testing.T) {
		svc, _, tokens, _ := newTestService()
		tokens.On("Invalidate", ctx, "user-1").Return(model.ErrTokenNotFound)

		assert.NoError(t, svc.RevokeUserSessions(ctx, "user-1"))
	})
}

func TestAuthService_ForgotPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("known account stores hash and emails plaintext", func(t *testing.T) {
		svc, users, _, mail := newTestService()

		user := verifiedUser(t, "pw")
		users.On("FindByEmail", ctx, "a@x.com").Return(user, nil)

		var sentToken string
		mail.On("SendResetPasswordEmail", ctx, "A", "a@x.com", mock.AnythingOfType("string")).
			Run(func(args mock.Arguments) { sentToken = args.String(3) }).
			Return(nil)

		users.On("SetPasswordToken", ctx, "user-1",
			mock.MatchedBy(func(storedHash string) bool {
				return sentToken != "" && storedHash == hashToken(sentToken) && storedHash != sentToken
			}),
			testNow.Add(10*time.Minute)).Return(nil)

		err := svc.ForgotPassword(ctx, model.ForgotPasswordRequest{Email: "a@x.com"})
		require.NoError(t, err)

		assert.Len(t, sentToken, passwordTokenBytes*2)
		assert.True(t, isHex(sentToken))
		users.AssertExpectations(t)
		mail.AssertExpectations(t)
	})

	t.Run("unknown account is silently accepted", func(t *testing.T) {
		svc, users, _, mail := newTestService()

		users.On("FindByEmail", ctx, "ghost@x.com").Return(model.User{}, model.ErrUserNotFound)

		err := svc.ForgotPassword(ctx, model.ForgotPasswordRequest{Email: "ghost@x.com"})
		assert.NoError(t, err)
		mail.AssertNotCalled(t, "SendResetPasswordEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		users.AssertNotCalled(t, "SetPasswordToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAuthService_ResetPassword(t *testing.T) {
	ctx := context.Background()

	userWithToken := func(token string, expiresAt time.Time) model.User {
		u := verifiedUser(t, "old-pw")
		u.PasswordTokenHash = hashToken(token)
		u.PasswordTokenExp = &expiresAt
		return u
	}

	t.Run("matching unexpired token resets the password", func(t *testing.T) {
		svc, users, _, _ := newTestService()

		users.On("FindByEmail", ctx, "a@x.com").
			Return(userWithToken("reset-tok", testNow.Add(5*time.Minute)), nil)
		users.On("ResetPassword", ctx, "user-1", mock.MatchedBy(func(hash string) bool {
			return bcrypt.CompareHashAndPassword([]byte(hash), []byte("new-pw")) == nil
		})).Return(nil)

		err := svc.ResetPassword(ctx, model.ResetPasswordRequest{Email: "a@x.com", Token: "reset-tok", Password: "new-pw"})
		assert.NoError(t, err)
		users.AssertExpectations(t)
	})

	t.Run("wrong token fails", func(t *testing.T) {
		svc, users, _, _ := newTestService()

		users.On("FindByEmail", ctx, "a@x.com").
			Return(userWithToken("reset-tok", testNow.Add(5*time.Minute)), nil)

		err := svc.ResetPassword(ctx, model.ResetPasswordRequest{Email: "a@x.com", Token: "bogus", Password: "new-pw"})

		var apiErr *apierror.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 401, apiErr.HTTPStatus)
		users.AssertNotCalled(t, "ResetPassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("expired token fails", func(t *testing.T) {
		svc, users, _, _ := newTestService()

		users.On("FindByEmail", ctx, "a@x.com").
			Return(userWithToken("reset-tok", testNow.Add(-time.Second)), nil)

		err := svc.ResetPassword(ctx, model.ResetPasswordRequest{Email: "a@x.com", Token: "reset-tok", Password: "new-pw"})
		assert.Error(t, err)
	})

	t.Run("reuse after success fails because hash and expiry are cleared", func(t *testing.T) {
		svc, users, _, _ := newTestService()

		consumed := verifiedUser(t, "new-pw")
		users.On("FindByEmail", ctx, "a@x.com").Return(consumed, nil)

		err := svc.ResetPassword(ctx, model.ResetPasswordRequest{Email: "a@x.com", Token: "reset-tok", Password: "another"})
		assert.Error(t, err)
		users.AssertNotCalled(t, "ResetPassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		svc, _, _, _ := newTestService()

		err := svc.ResetPassword(ctx, model.ResetPasswordRequest{Email: "a@x.com", Token: "reset-tok"})

		var apiErr *apierror.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "BAD_REQUEST", apiErr.Code)
	})
}
