package service

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services. Handlers map these onto the HTTP
// error taxonomy: validation 400, authentication 401, permission 403,
// not-found 404, conflict 409, rate limit 429.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrInvalidCredentials = errors.New("invalid email or confirmation code")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrEmailInUse         = errors.New("user with this email already exists")
	ErrUsernameInUse      = errors.New("username already in use")
	ErrReviewExists       = errors.New("review for this title by this author already exists")
	ErrScoreOutOfRange    = errors.New("score must be between 1 and 10")
	ErrSlugInUse          = errors.New("slug already in use")
	ErrTooManyRequests    = errors.New("too many confirmation code requests")
)

// UnknownSlugError reports a category or genre slug that resolved to nothing.
// It is a validation error, never a silent null.
type UnknownSlugError struct {
	Kind string // "category" or "genre"
	Slug string
}

func (e *UnknownSlugError) Error() string {
	return fmt.Sprintf("unknown %s slug: %q", e.Kind, e.Slug)
}
