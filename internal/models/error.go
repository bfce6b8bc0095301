package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Account state errors
	ErrAccountInactive = errors.New("account is inactive")
	ErrAccountLocked   = errors.New("account is locked out")

	// Query errors
	ErrIndexNotAllowed = errors.New("index not in user's grant list")
	ErrQueryTooShort   = errors.New("query is too short")
)
