// Package common defines shared constants, sentinel errors and small helpers
// used across MapFriends client components. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Session errors.
	ErrNoSession  = errors.New("no active session")
	ErrSuperseded = errors.New("superseded by a newer operation")

	// Token errors (invalid, malformed or expired tokens).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
