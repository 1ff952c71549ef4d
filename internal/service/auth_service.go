package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"storefront-auth/internal/model"
	"storefront-auth/pkg/apierror"
)

const bcryptCost = 12

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByID(ctx context.Context, id string) (model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, u model.User) error
	SetVerified(ctx context.Context, userID string, at time.Time) error
	SetPasswordToken(ctx context.Context, userID string, tokenHash string, expiresAt time.Time) error
	ResetPassword(ctx context.Context, userID string, passwordHash string) error
	List(ctx context.Context) ([]model.User, error)
}

type TokenStore interface {
	FindByUser(ctx context.Context, userID string) (model.RefreshTokenRecord, error)
	CreateIfAbsent(ctx context.Context, rec model.RefreshTokenRecord) (model.RefreshTokenRecord, error)
	DeleteByUser(ctx context.Context, userID string) error
	Invalidate(ctx context.Context, userID string) error
}

type MailDispatcher interface {
	SendVerificationEmail(ctx context.Context, name string, email string, verificationToken string) error
	SendResetPasswordEmail(ctx context.Context, name string, email string, resetToken string) error
}

type AuthService struct {
	users            UserStore
	tokens           TokenStore
	mail             MailDispatcher
	passwordTokenTTL time.Duration
	now              func() time.Time
}

func NewAuthService(users UserStore, tokens TokenStore, mail MailDispatcher, passwordTokenTTL time.Duration) *AuthService {
	return &AuthService{
		users:            users,
		tokens:           tokens,
		mail:             mail,
		passwordTokenTTL: passwordTokenTTL,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an unverified account. The first account ever registered
// becomes the admin; everyone after that is a plain user.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.User, error) {
	if req.Email == "" || req.Name == "" || req.Password == "" {
		return model.User{}, apierror.BadRequest("Please provide email, name and password")
	}

	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return model.User{}, err
	}
	if exists {
		return model.User{}, apierror.BadRequest("Email already exists")
	}

	count, err := s.users.Count(ctx)
	if err != nil {
		return model.User{}, err
	}
	role := model.RoleUser
	if count == 0 {
		role = model.RoleAdmin
	}

	verificationToken, err := randomHex(verificationTokenBytes)
	if err != nil {
		return model.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return model.User{}, err
	}

	now := s.now()
	user := model.User{
		ID:                uuid.NewString(),
		Email:             req.Email,
		Name:              req.Name,
		PasswordHash:      string(hash),
		Role:              role,
		VerificationToken: verificationToken,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return model.User{}, err
	}

	// Delivery failure must not undo the registration; the token is also
	// echoed in the response for manual verification.
	if err := s.mail.SendVerificationEmail(ctx, user.Name, user.Email, verificationToken); err != nil {
		slog.Error("verification email delivery failed", "user_id", user.ID, "error", err)
	}

	return user, nil
}

// VerifyEmail consumes the one-time verification token. Absent user and
// token mismatch are indistinguishable to the caller; a replay after success
// fails the same way because the stored token is cleared.
func (s *AuthService) VerifyEmail(ctx context.Context, req model.VerifyEmailRequest) error {
	if req.Email == "" || req.VerificationToken == "" {
		return apierror.BadRequest("Please provide email and verification token")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, model.ErrUserNotFound) {
			slog.Error("email verification store lookup failed", "error", err)
		}
		return apierror.Unauthenticated("Verification Failed")
	}

	if user.VerificationToken == "" || user.VerificationToken != req.VerificationToken {
		return apierror.Unauthenticated("Verification Failed")
	}

	return s.users.SetVerified(ctx, user.ID, s.now())
}

// Login validates credentials and resolves the user's refresh token record.
// The refresh value is stable across logins: an existing valid record is
// reused, a revoked one rejects the login outright, and a fresh value is
// minted only when no record exists.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest, meta model.ClientMeta) (model.TokenUser, string, error) {
	if req.Email == "" || req.Password == "" {
		return model.TokenUser{}, "", apierror.BadRequest("Please provide email and password")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, model.ErrUserNotFound) {
			slog.Error("login store lookup failed", "error", err)
		}
		return model.TokenUser{}, "", apierror.Unauthenticated("Invalid Credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return model.TokenUser{}, "", apierror.Unauthenticated("Invalid Credentials")
	}

	// Unverified accounts fail with the same message as bad credentials;
	// the three rejection causes must not be tellable apart by the caller.
	if !user.IsVerified {
		slog.Warn("login rejected: account not verified", "user_id", user.ID)
		return model.TokenUser{}, "", apierror.Unauthenticated("Invalid Credentials")
	}

	tokenUser := model.NewTokenUser(user)

	existing, err := s.tokens.FindByUser(ctx, user.ID)
	switch {
	case err == nil:
		if !existing.IsValid {
			slog.Warn("login rejected: refresh token record revoked", "user_id", user.ID)
			return model.TokenUser{}, "", apierror.Unauthenticated("Invalid Credentials")
		}
		return tokenUser, existing.RefreshToken, nil

	case errors.Is(err, model.ErrTokenNotFound):
		refreshToken, err := randomHex(refreshTokenBytes)
		if err != nil {
			return model.TokenUser{}, "", err
		}

		rec, err := s.tokens.CreateIfAbsent(ctx, model.RefreshTokenRecord{
			UserID:       user.ID,
			RefreshToken: refreshToken,
			IP:           meta.IP,
			UserAgent:    meta.UserAgent,
			IsValid:      true,
			CreatedAt:    s.now(),
		})
		if err != nil {
			slog.Error("login refresh record create failed", "user_id", user.ID, "error", err)
			return model.TokenUser{}, "", apierror.Unauthenticated("Invalid Credentials")
		}
		if !rec.IsValid {
			return model.TokenUser{}, "", apierror.Unauthenticated("Invalid Credentials")
		}
		return tokenUser, rec.RefreshToken, nil

	default:
		slog.Error("login refresh record lookup failed", "user_id", user.ID, "error", err)
		return model.TokenUser{}, "", apierror.Unauthenticated("Invalid Credentials")
	}
}

// Logout revokes server-side. The transport clears the cookies; both steps
// are required since cookie deletion alone cannot revoke a retained refresh
// credential.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.tokens.DeleteByUser(ctx, userID)
}

// ForgotPassword issues a time-boxed reset token when the account exists and
// does nothing otherwise. Callers must respond identically in both cases.
func (s *AuthService) ForgotPassword(ctx context.Context, req model.ForgotPasswordRequest) error {
	if req.Email == "" {
		return apierror.BadRequest("Please provide valid email")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	resetToken, err := randomHex(passwordTokenBytes)
	if err != nil {
		return err
	}

	if err := s.mail.SendResetPasswordEmail(ctx, user.Name, user.Email, resetToken); err != nil {
		slog.Error("reset password email delivery failed", "user_id", user.ID, "error", err)
	}

	return s.users.SetPasswordToken(ctx, user.ID, hashToken(resetToken), s.now().Add(s.passwordTokenTTL))
}

// ResetPassword consumes the reset token: the supplied token's hash must
// match the stored hash and the expiry must not have passed. Consuming it
// clears both, so a token is single-use. Failures are reported explicitly
// rather than swallowed.
func (s *AuthService) ResetPassword(ctx context.Context, req model.ResetPasswordRequest) error {
	if req.Email == "" || req.Token == "" || req.Password == "" {
		return apierror.BadRequest("Please provide all values")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, model.ErrUserNotFound) {
			slog.Error("password reset store lookup failed", "error", err)
		}
		return apierror.Unauthenticated("Reset Failed")
	}

	if user.PasswordTokenHash == "" || user.PasswordTokenHash != hashToken(req.Token) {
		return apierror.Unauthenticated("Reset Failed")
	}
	if user.PasswordTokenExp == nil || !s.now().Before(*user.PasswordTokenExp) {
		return apierror.Unauthenticated("Reset Failed")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return err
	}

	return s.users.ResetPassword(ctx, user.ID, string(hash))
}

// RevokeUserSessions flips the user's refresh token record invalid, the
// operator path: the record stays in place and blocks both refresh
// revalidation and further logins until it is deleted. Revoking a user with
// no live session is a no-op.
func (s *AuthService) RevokeUserSessions(ctx context.Context, userID string) error {
	err := s.tokens.Invalidate(ctx, userID)
	if errors.Is(err, model.ErrTokenNotFound) {
		return nil
	}
	return err
}

func (s *AuthService) GetUserByID(ctx context.Context, id string) (model.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *AuthService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}
