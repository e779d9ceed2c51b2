package entities

import (
	"fmt"
	"time"
)

// User represents a principal on whose behalf access decisions are made.
// A user may have policies attached directly and may belong to any number
// of teams; both contribute to the user's effective policy set.
type User struct {
	ID             string
	Name           string
	OrganizationID string
	CreatedAt      time.Time
}

// Validate checks if the user is valid
func (u *User) Validate() error {
	if u.Name == "" {
		return fmt.Errorf("%w: user name is required", ErrValidation)
	}
	if u.OrganizationID == "" {
		return fmt.Errorf("%w: organization ID is required", ErrValidation)
	}
	return nil
}
