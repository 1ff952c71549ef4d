package model

import "time"

// RefreshTokenRecord is the server-side half of a refresh credential. At most
// one live record exists per user; the refresh value stays stable across
// logins until logout or operator revocation.
type RefreshTokenRecord struct {
	UserID       string    `json:"user_id"`
	RefreshToken string    `json:"refresh_token"`
	IP           string    `json:"ip"`
	UserAgent    string    `json:"user_agent"`
	IsValid      bool      `json:"is_valid"`
	CreatedAt    time.Time `json:"created_at"`
}

// ClientMeta captures the request metadata stored alongside a freshly minted
// refresh token record.
type ClientMeta struct {
	IP        string
	UserAgent string
}
