package membership

import (
	"errors"

	"github.com/sparkfbla/chapter/internal/profile"
)

// Transition is a decoded, validated admin change to a user's role.
type Transition interface {
	transition()
}

// Approve promotes the user's requested role to their effective role.
type Approve struct{}

// SetRole overwrites the user's effective role.
type SetRole struct {
	Role profile.Role
}

func (Approve) transition() {}
func (SetRole) transition() {}

var (
	// ErrInvalidMode is returned for an unknown or missing transition tag.
	ErrInvalidMode = errors.New("Invalid mode")

	// ErrMissingRole is returned when a set transition has no role.
	ErrMissingRole = errors.New("Missing role")
)

// ParseTransition builds a Transition from the wire tag and role. Unknown tags
// are rejected rather than ignored.
func ParseTransition(mode, role string) (Transition, error) {
	switch mode {
	case "approve":
		return Approve{}, nil
	case "set":
		if role == "" {
			return nil, ErrMissingRole
		}
		r, err := profile.ParseRole(role)
		if err != nil {
			return nil, ErrInvalidRole
		}
		return SetRole{Role: r}, nil
	default:
		return nil, ErrInvalidMode
	}
}
