package identity

import (
	"errors"

	"github.com/google/uuid"
)

// ErrNoSession is returned when a request carries no valid session. The
// reason is wrapped for logs but never shown to the caller.
var ErrNoSession = errors.New("no valid session")

// Caller is the authenticated identity behind a request.
type Caller struct {
	ID    uuid.UUID
	Email string
}
