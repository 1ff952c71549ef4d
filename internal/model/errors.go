package model

import "errors"

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotVerified    = errors.New("user not verified")

	// Session token related errors
	ErrTokenNotFound = errors.New("refresh token record not found")
	ErrTokenRevoked  = errors.New("refresh token record revoked")
	ErrTokenInvalid  = errors.New("session token invalid")
	ErrTokenExpired  = errors.New("session token expired")

	// Permission/Access related errors
	ErrUnauthenticated = errors.New("authentication invalid")
	ErrForbidden       = errors.New("forbidden")
)
