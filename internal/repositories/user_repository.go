package repositories

import (
	"context"

	"github.com/kashiwade/menshen/internal/entities"
)

// UserRepository defines the interface for user data access.
// Every operation is scoped to one organization; a user id from another
// organization behaves as if it did not exist.
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *entities.User) error

	// GetByID retrieves a user within an organization
	GetByID(ctx context.Context, orgID string, id string) (*entities.User, error)

	// ListByOrg retrieves all users of an organization
	ListByOrg(ctx context.Context, orgID string) ([]*entities.User, error)

	// Update updates a user's mutable fields
	Update(ctx context.Context, user *entities.User) error

	// Delete removes a user and its policy/team attachments
	Delete(ctx context.Context, orgID string, id string) error

	// ReplacePolicies replaces the user's directly attached policy set
	ReplacePolicies(ctx context.Context, orgID string, id string, policyIDs []string) error
}
