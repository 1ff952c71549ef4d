package token

import (
	"fmt"
	"net/http"
	"time"

	"storefront-auth/internal/model"
)

const (
	AccessCookieName  = "accessToken"
	RefreshCookieName = "refreshToken"

	// logoutSentinel replaces both cookie values on logout. Client-side
	// eviction alone cannot revoke a retained refresh credential, the stored
	// record is deleted server-side as well.
	logoutSentinel = "logout"
)

type CookiePolicy struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Secure     bool
}

// AttachSessionCookies issues both credentials through the codec and sets
// them as HTTP-only cookies. The access cookie carries only the user payload;
// the refresh cookie additionally carries the opaque refresh value.
func AttachSessionCookies(w http.ResponseWriter, codec *Codec, user model.TokenUser, refreshToken string, policy CookiePolicy) error {
	accessJWT, err := codec.Issue(user, "", policy.AccessTTL)
	if err != nil {
		return fmt.Errorf("issue access credential: %w", err)
	}

	refreshJWT, err := codec.Issue(user, refreshToken, policy.RefreshTTL)
	if err != nil {
		return fmt.Errorf("issue refresh credential: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     AccessCookieName,
		Value:    accessJWT,
		Path:     "/",
		HttpOnly: true,
		Secure:   policy.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(policy.AccessTTL.Seconds()),
	})

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    refreshJWT,
		Path:     "/",
		HttpOnly: true,
		Secure:   policy.Secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(policy.RefreshTTL),
		MaxAge:   int(policy.RefreshTTL.Seconds()),
	})

	return nil
}

// ClearSessionCookies overwrites both session cookies with an already-expired
// sentinel value.
func ClearSessionCookies(w http.ResponseWriter, secure bool) {
	for _, name := range []string{AccessCookieName, RefreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    logoutSentinel,
			Path:     "/",
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
		})
	}
}
