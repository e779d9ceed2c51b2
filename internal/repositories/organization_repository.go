package repositories

import (
	"context"

	"github.com/kashiwade/menshen/internal/entities"
)

// OrganizationRepository defines the interface for organization data access
type OrganizationRepository interface {
	// Create creates a new organization
	Create(ctx context.Context, org *entities.Organization) error

	// GetByID retrieves an organization by ID
	GetByID(ctx context.Context, id string) (*entities.Organization, error)

	// List retrieves all organizations
	List(ctx context.Context) ([]*entities.Organization, error)

	// Delete removes an organization and everything scoped to it
	Delete(ctx context.Context, id string) error
}
