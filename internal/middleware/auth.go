package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"storefront-auth/internal/model"
	"storefront-auth/internal/token"
)

// SessionStore is the slice of the token repository the session protocol
// needs: a single lookup keyed by user.
type SessionStore interface {
	FindByUser(ctx context.Context, userID string) (model.RefreshTokenRecord, error)
}

type contextKey string

const sessionUserContextKey contextKey = "session_user"

type AuthMiddleware struct {
	codec  *token.Codec
	tokens SessionStore
	policy token.CookiePolicy
}

func NewAuthMiddleware(codec *token.Codec, tokens SessionStore, policy token.CookiePolicy) *AuthMiddleware {
	return &AuthMiddleware{codec: codec, tokens: tokens, policy: policy}
}

// Authenticate resolves the caller's session from the two bearer cookies.
// Every internal failure collapses to the same 401 response; the cause is
// logged but never surfaced, so a caller cannot tell a bad signature from a
// revoked record or a store outage.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.resolveSession(w, r)
		if err != nil {
			slog.Warn("session rejected", "path", r.URL.Path, "cause", err)
			writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication Invalid")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func (m *AuthMiddleware) resolveSession(w http.ResponseWriter, r *http.Request) (model.TokenUser, error) {
	// Fast path: a verifying access credential grants entry with no store
	// I/O. The credential class is discriminated explicitly, a refresh
	// credential planted in the access slot does not ride through here.
	if c, err := r.Cookie(token.AccessCookieName); err == nil {
		if claims, verr := m.codec.Verify(c.Value); verr == nil && claims.RefreshToken == "" {
			return claims.User, nil
		}
	}

	c, err := r.Cookie(token.RefreshCookieName)
	if err != nil {
		return model.TokenUser{}, model.ErrUnauthenticated
	}

	claims, err := m.codec.Verify(c.Value)
	if err != nil {
		return model.TokenUser{}, err
	}
	if claims.RefreshToken == "" {
		return model.TokenUser{}, model.ErrTokenInvalid
	}

	rec, err := m.tokens.FindByUser(r.Context(), claims.User.UserID)
	if err != nil {
		return model.TokenUser{}, err
	}
	if !rec.IsValid || rec.RefreshToken != claims.RefreshToken {
		return model.TokenUser{}, model.ErrTokenRevoked
	}

	// RefreshValid: re-issue both credentials. The refresh value is carried
	// over from the stored record unchanged, rotation only happens at login.
	if err := token.AttachSessionCookies(w, m.codec, claims.User, rec.RefreshToken, m.policy); err != nil {
		return model.TokenUser{}, err
	}

	return claims.User, nil
}

// RequireRoles gates a route on the authenticated caller's role. Must run
// after Authenticate.
func (m *AuthMiddleware) RequireRoles(allowedRoles ...string) func(http.Handler) http.Handler {
	roleSet := map[string]struct{}{}
	for _, role := range allowedRoles {
		roleSet[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication Invalid")
				return
			}

			if _, exists := roleSet[strings.ToLower(user.Role)]; !exists {
				writeAuthError(w, http.StatusForbidden, "FORBIDDEN", "Unauthorized to access this route")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func WithUser(ctx context.Context, user model.TokenUser) context.Context {
	return context.WithValue(ctx, sessionUserContextKey, user)
}

func UserFromContext(ctx context.Context) (model.TokenUser, bool) {
	user, ok := ctx.Value(sessionUserContextKey).(model.TokenUser)
	return user, ok
}

func writeAuthError(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse{
		Error: model.ErrorBody{Code: code, Message: message},
	})
}
