package feed

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy for every core operation. Handlers map these onto HTTP
// status codes; the service enforces the 401 -> 404 -> 403 ordering.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
)

// requireActor is the authentication check: every mutation starts here,
// before any document is touched.
func requireActor(actorID string) error {
	if strings.TrimSpace(actorID) == "" {
		return fmt.Errorf("%w: no session identity", ErrUnauthorized)
	}
	return nil
}

// authorize is the ownership guard. It must run after existence checks so
// that a missing resource reports not-found rather than forbidden.
func authorize(actorID, ownerID string) error {
	if strings.TrimSpace(actorID) != strings.TrimSpace(ownerID) {
		return fmt.Errorf("%w: not the resource owner", ErrForbidden)
	}
	return nil
}
