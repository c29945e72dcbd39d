package domain

import "errors"

// Access errors.
var (
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("access forbidden")
)

// Project and domain errors.
var (
	ErrProjectNotFound  = errors.New("project not found")
	ErrProjectExists    = errors.New("project already exists")
	ErrInvalidSlug      = errors.New("invalid project slug")
	ErrInvalidDomain    = errors.New("invalid domain")
	ErrDomainConflict   = errors.New("domain already in use")
	ErrConcurrentUpdate = errors.New("project domain changed concurrently")
	ErrRenameInProgress = errors.New("domain change already in progress")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Identity errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
)
