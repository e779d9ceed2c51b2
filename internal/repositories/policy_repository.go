package repositories

import (
	"context"

	"github.com/kashiwade/menshen/internal/entities"
)

// PolicyRepository defines the interface for policy data access.
// ListByUser and ListByTeam return directly attached policies only;
// hierarchy aggregation belongs to the authorization service.
type PolicyRepository interface {
	// Create creates a new policy
	Create(ctx context.Context, policy *entities.Policy) error

	// GetByID retrieves a policy within an organization
	GetByID(ctx context.Context, orgID string, id string) (*entities.Policy, error)

	// ListByOrg retrieves all policies of an organization
	ListByOrg(ctx context.Context, orgID string) ([]*entities.Policy, error)

	// ListByUser retrieves the policies directly attached to a user
	ListByUser(ctx context.Context, orgID string, userID string) ([]*entities.Policy, error)

	// ListByTeam retrieves the policies directly attached to a team
	ListByTeam(ctx context.Context, orgID string, teamID string) ([]*entities.Policy, error)

	// Update updates a policy. Attachments reference policies by id, so the
	// change is visible everywhere the policy is attached.
	Update(ctx context.Context, policy *entities.Policy) error

	// Delete removes a policy and detaches it from all users and teams
	Delete(ctx context.Context, orgID string, id string) error
}
