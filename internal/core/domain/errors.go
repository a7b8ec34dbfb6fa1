package domain

import "errors"

var (
	ErrEmptyToken        = errors.New("session token is empty")
	ErrNilUser           = errors.New("user record is missing")
	ErrInvalidTier       = errors.New("invalid credential tier")
	ErrNoSession         = errors.New("no active session")
	ErrCorruptCredential = errors.New("stored credential is corrupt")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrUpstream          = errors.New("upstream request failed")
	ErrQueueFull         = errors.New("dispatch queue full")
	ErrInvalidNavigation = errors.New("invalid navigation tree")
	ErrForbidden         = errors.New("access forbidden")
	ErrInvalidRole       = errors.New("invalid role")
)
