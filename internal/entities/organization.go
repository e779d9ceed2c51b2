package entities

import (
	"fmt"
	"time"
)

// Organization represents a tenant. Every user, team and policy belongs to
// exactly one organization, and no reference may cross organization
// boundaries.
type Organization struct {
	ID          string // Organization ID (e.g., "WONKA")
	Name        string
	Description string
	CreatedAt   time.Time
}

// Validate checks if the organization is valid
func (o *Organization) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("%w: organization ID is required", ErrValidation)
	}
	if o.Name == "" {
		return fmt.Errorf("%w: organization name is required", ErrValidation)
	}
	return nil
}
