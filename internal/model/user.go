package model

import "time"

type User struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	Name              string     `json:"name"`
	PasswordHash      string     `json:"-"`
	Role              string     `json:"role"`
	IsVerified        bool       `json:"is_verified"`
	VerificationToken string     `json:"-"`
	VerifiedAt        *time.Time `json:"verified_at,omitempty"`
	PasswordTokenHash string     `json:"-"`
	PasswordTokenExp  *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// TokenUser is the identity payload embedded in session credentials and
// exposed to downstream handlers. It never carries credentials.
type TokenUser struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

func NewTokenUser(u User) TokenUser {
	return TokenUser{UserID: u.ID, Name: u.Name, Role: u.Role}
}
