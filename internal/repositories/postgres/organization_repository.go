package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/kashiwade/menshen/internal/entities"
	"github.com/kashiwade/menshen/internal/repositories"
)

// PostgresOrganizationRepository implements OrganizationRepository using PostgreSQL
type PostgresOrganizationRepository struct {
	db *sql.DB
}

// NewPostgresOrganizationRepository creates a new PostgreSQL organization repository
func NewPostgresOrganizationRepository(db *sql.DB) repositories.OrganizationRepository {
	return &PostgresOrganizationRepository{db: db}
}

// Create creates a new organization. An empty ID is replaced with a generated one.
func (r *PostgresOrganizationRepository) Create(ctx context.Context, org *entities.Organization) error {
	if org.ID == "" {
		org.ID = uuid.NewString()
	}
	if err := org.Validate(); err != nil {
		return fmt.Errorf("invalid organization: %w", err)
	}

	query := `
		INSERT INTO organizations (id, name, description)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, org.ID, org.Name, org.Description); err != nil {
		return fmt.Errorf("%w: failed to create organization: %v", repositories.ErrUnavailable, err)
	}
	return nil
}

// GetByID retrieves an organization by ID
func (r *PostgresOrganizationRepository) GetByID(ctx context.Context, id string) (*entities.Organization, error) {
	query := `
		SELECT id, name, description, created_at
		FROM organizations
		WHERE id = $1
	`
	org := &entities.Organization{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&org.ID, &org.Name, &org.Description, &org.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("organization %s: %w", id, repositories.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get organization: %v", repositories.ErrUnavailable, err)
	}
	return org, nil
}

// List retrieves all organizations ordered by creation time
func (r *PostgresOrganizationRepository) List(ctx context.Context) ([]*entities.Organization, error) {
	query := `
		SELECT id, name, description, created_at
		FROM organizations
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list organizations: %v", repositories.ErrUnavailable, err)
	}
	defer rows.Close()

	var orgs []*entities.Organization
	for rows.Next() {
		org := &entities.Organization{}
		if err := rows.Scan(&org.ID, &org.Name, &org.Description, &org.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan organization: %v", repositories.ErrUnavailable, err)
		}
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate organizations: %v", repositories.ErrUnavailable, err)
	}
	return orgs, nil
}

// Delete removes an organization. Users, teams and policies cascade.
func (r *PostgresOrganizationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: failed to delete organization: %v", repositories.ErrUnavailable, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to read delete result: %v", repositories.ErrUnavailable, err)
	}
	if affected == 0 {
		return fmt.Errorf("organization %s: %w", id, repositories.ErrNotFound)
	}
	return nil
}
