package entities

import (
	"fmt"
	"time"
)

// Team represents a group of users within an organization. Teams form a
// forest: each team has at most one parent, and a team inherits the policies
// of every ancestor up to its root. ParentID is nil for root teams.
type Team struct {
	ID             string
	Name           string
	Description    string
	OrganizationID string
	ParentID       *string
	CreatedAt      time.Time
}

// Validate checks if the team is valid
func (t *Team) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("%w: team name is required", ErrValidation)
	}
	if t.OrganizationID == "" {
		return fmt.Errorf("%w: organization ID is required", ErrValidation)
	}
	if t.ParentID != nil && *t.ParentID == t.ID {
		return fmt.Errorf("%w: team cannot be its own parent", ErrValidation)
	}
	return nil
}
