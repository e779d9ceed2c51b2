package repositories

import (
	"context"

	"github.com/kashiwade/menshen/internal/entities"
)

// TeamRepository defines the interface for team data access.
// Teams form a forest per organization; Move re-parents a team and must
// reject a move that would close a cycle in the ancestor chain.
type TeamRepository interface {
	// Create creates a new team
	Create(ctx context.Context, team *entities.Team) error

	// GetByID retrieves a team within an organization
	GetByID(ctx context.Context, orgID string, id string) (*entities.Team, error)

	// ListByOrg retrieves all teams of an organization
	ListByOrg(ctx context.Context, orgID string) ([]*entities.Team, error)

	// ListByUser retrieves the teams a user is a direct member of
	ListByUser(ctx context.Context, orgID string, userID string) ([]*entities.Team, error)

	// Update updates a team's mutable fields
	Update(ctx context.Context, team *entities.Team) error

	// Delete removes a team and its attachments
	Delete(ctx context.Context, orgID string, id string) error

	// Move re-parents a team. parentID nil makes the team a root.
	Move(ctx context.Context, orgID string, id string, parentID *string) error

	// ReplaceMembers replaces the team's direct member set
	ReplaceMembers(ctx context.Context, orgID string, id string, userIDs []string) error

	// ReplacePolicies replaces the team's directly attached policy set
	ReplacePolicies(ctx context.Context, orgID string, id string, policyIDs []string) error
}
