package devnotes

import "errors"

// Error kinds returned by the content store. Callers match them with
// errors.Is; the HTTP layer maps them to status codes.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("slug already in use")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalid      = errors.New("invalid input")
)
