package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrForbidden          = errors.New("forbidden")
	ErrMessageNotFound    = errors.New("message not found")
	ErrMemberNotFound     = errors.New("member not found")
	ErrPhotoNotFound      = errors.New("photo not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrPhotoNotApproved   = errors.New("only approved photos can be set as main image")
	ErrUnsupportedImage   = errors.New("unsupported image type")
	ErrImageTooLarge      = errors.New("image too large")
	ErrCannotLikeSelf     = errors.New("cannot like yourself")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified, a new verification link has been sent")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token has expired")
)

// ValidationError carries field-level problems back to the caller as data.
// Handlers render it as a 400 with the field map.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// AsValidationError unwraps a *ValidationError from err
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	ok := errors.As(err, &verr)
	return verr, ok
}
