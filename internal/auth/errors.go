package auth

import "errors"

var (
	// ErrMalformedCredential means an Authorization header was present but
	// not of the form "Bearer <token>".
	ErrMalformedCredential = errors.New("malformed authorization header")

	// ErrUnknownKey means the token names a key id the provider's key set
	// does not contain.
	ErrUnknownKey = errors.New("token signed with unknown key")

	// ErrInvalidToken covers signature, expiry, issuer and audience failures.
	ErrInvalidToken = errors.New("invalid token")
)
