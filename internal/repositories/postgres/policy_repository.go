package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/kashiwade/menshen/internal/entities"
	"github.com/kashiwade/menshen/internal/repositories"
)

// PostgresPolicyRepository implements PolicyRepository using PostgreSQL.
// Statements are stored as the canonical JSON document and parsed back into
// validated statement sequences on every read.
type PostgresPolicyRepository struct {
	db *sql.DB
}

// NewPostgresPolicyRepository creates a new PostgreSQL policy repository
func NewPostgresPolicyRepository(db *sql.DB) repositories.PolicyRepository {
	return &PostgresPolicyRepository{db: db}
}

// Create creates a new policy. The statement document is validated before
// anything is written; a malformed document never reaches storage.
func (r *PostgresPolicyRepository) Create(ctx context.Context, policy *entities.Policy) error {
	if policy.ID == "" {
		policy.ID = uuid.NewString()
	}
	if err := policy.Validate(); err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}

	doc, err := entities.MarshalStatements(policy.Statements)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO policies (id, org_id, name, version, statements)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, query, policy.ID, policy.OrganizationID, policy.Name, policy.Version, doc); err != nil {
		return fmt.Errorf("%w: failed to create policy: %v", repositories.ErrUnavailable, err)
	}
	return nil
}

// GetByID retrieves a policy within an organization
func (r *PostgresPolicyRepository) GetByID(ctx context.Context, orgID string, id string) (*entities.Policy, error) {
	query := `
		SELECT id, org_id, name, version, statements, created_at
		FROM policies
		WHERE org_id = $1 AND id = $2
	`
	policy, err := scanPolicy(r.db.QueryRowContext(ctx, query, orgID, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("policy %s: %w", id, repositories.ErrNotFound)
	}
	return policy, err
}

// ListByOrg retrieves all policies of an organization
func (r *PostgresPolicyRepository) ListByOrg(ctx context.Context, orgID string) ([]*entities.Policy, error) {
	query := `
		SELECT id, org_id, name, version, statements, created_at
		FROM policies
		WHERE org_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list policies: %v", repositories.ErrUnavailable, err)
	}
	return collectPolicies(rows)
}

// ListByUser retrieves the policies directly attached to a user, in
// attachment order.
func (r *PostgresPolicyRepository) ListByUser(ctx context.Context, orgID string, userID string) ([]*entities.Policy, error) {
	query := `
		SELECT p.id, p.org_id, p.name, p.version, p.statements, p.created_at
		FROM policies p
		JOIN user_policies up ON up.org_id = p.org_id AND up.policy_id = p.id
		WHERE up.org_id = $1 AND up.user_id = $2
		ORDER BY up.ord
	`
	rows, err := r.db.QueryContext(ctx, query, orgID, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list user policies: %v", repositories.ErrUnavailable, err)
	}
	return collectPolicies(rows)
}

// ListByTeam retrieves the policies directly attached to a team, in
// attachment order.
func (r *PostgresPolicyRepository) ListByTeam(ctx context.Context, orgID string, teamID string) ([]*entities.Policy, error) {
	query := `
		SELECT p.id, p.org_id, p.name, p.version, p.statements, p.created_at
		FROM policies p
		JOIN team_policies tp ON tp.org_id = p.org_id AND tp.policy_id = p.id
		WHERE tp.org_id = $1 AND tp.team_id = $2
		ORDER BY tp.ord
	`
	rows, err := r.db.QueryContext(ctx, query, orgID, teamID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list team policies: %v", repositories.ErrUnavailable, err)
	}
	return collectPolicies(rows)
}

// Update updates a policy's name, version and statements
func (r *PostgresPolicyRepository) Update(ctx context.Context, policy *entities.Policy) error {
	if err := policy.Validate(); err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}

	doc, err := entities.MarshalStatements(policy.Statements)
	if err != nil {
		return err
	}

	query := `
		UPDATE policies SET name = $3, version = $4, statements = $5
		WHERE org_id = $1 AND id = $2
	`
	result, err := r.db.ExecContext(ctx, query, policy.OrganizationID, policy.ID, policy.Name, policy.Version, doc)
	if err != nil {
		return fmt.Errorf("%w: failed to update policy: %v", repositories.ErrUnavailable, err)
	}
	return requireAffected(result, fmt.Sprintf("policy %s", policy.ID))
}

// Delete removes a policy and detaches it from all users and teams
func (r *PostgresPolicyRepository) Delete(ctx context.Context, orgID string, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM policies WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return fmt.Errorf("%w: failed to delete policy: %v", repositories.ErrUnavailable, err)
	}
	return requireAffected(result, fmt.Sprintf("policy %s", id))
}

// scanPolicy scans a single policy row. Returns sql.ErrNoRows unchanged so
// callers can attach the id they looked up.
func scanPolicy(row *sql.Row) (*entities.Policy, error) {
	policy := &entities.Policy{}
	var doc string
	err := row.Scan(&policy.ID, &policy.OrganizationID, &policy.Name, &policy.Version, &doc, &policy.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get policy: %v", repositories.ErrUnavailable, err)
	}
	if policy.Statements, err = entities.ParseStatements(doc); err != nil {
		return nil, fmt.Errorf("stored policy %s: %w", policy.ID, err)
	}
	return policy, nil
}

// collectPolicies drains a policy query result
func collectPolicies(rows *sql.Rows) ([]*entities.Policy, error) {
	defer rows.Close()

	var policies []*entities.Policy
	for rows.Next() {
		policy := &entities.Policy{}
		var doc string
		if err := rows.Scan(&policy.ID, &policy.OrganizationID, &policy.Name, &policy.Version, &doc, &policy.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan policy: %v", repositories.ErrUnavailable, err)
		}
		var err error
		if policy.Statements, err = entities.ParseStatements(doc); err != nil {
			return nil, fmt.Errorf("stored policy %s: %w", policy.ID, err)
		}
		policies = append(policies, policy)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate policies: %v", repositories.ErrUnavailable, err)
	}
	return policies, nil
}
