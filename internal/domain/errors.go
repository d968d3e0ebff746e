package domain

import "errors"

var (
	ErrEntryNotFound    = errors.New("entry not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrMalformedPayload = errors.New("malformed server payload")
	ErrNotAuthenticated = errors.New("not logged in")
	ErrCredentialNotSet = errors.New("credential not set")
)
