package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"storefront-auth/internal/model"
)

// SessionClaims is the payload carried by every session credential.
// RefreshToken is set only on the refresh-class credential; the codec itself
// has no notion of class, TTL policy belongs to the cookie layer.
type SessionClaims struct {
	User         model.TokenUser `json:"user"`
	RefreshToken string          `json:"refreshToken,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies session credentials with a process-wide HMAC
// secret, injected once at startup.
type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

func (c *Codec) Issue(user model.TokenUser, refreshToken string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := SessionClaims{
		User:         user,
		RefreshToken: refreshToken,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

func (c *Codec) Verify(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, model.ErrTokenInvalid
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, model.ErrTokenExpired
		}
		return nil, model.ErrTokenInvalid
	}

	if !parsed.Valid || claims.User.UserID == "" {
		return nil, model.ErrTokenInvalid
	}

	return claims, nil
}
