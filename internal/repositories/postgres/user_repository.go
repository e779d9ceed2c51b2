package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/kashiwade/menshen/internal/entities"
	"github.com/kashiwade/menshen/internal/repositories"
)

// PostgresUserRepository implements UserRepository using PostgreSQL
type PostgresUserRepository struct {
	db *sql.DB
}

// NewPostgresUserRepository creates a new PostgreSQL user repository
func NewPostgresUserRepository(db *sql.DB) repositories.UserRepository {
	return &PostgresUserRepository{db: db}
}

// Create creates a new user. An empty ID is replaced with a generated one.
func (r *PostgresUserRepository) Create(ctx context.Context, user *entities.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if err := user.Validate(); err != nil {
		return fmt.Errorf("invalid user: %w", err)
	}

	query := `
		INSERT INTO users (id, org_id, name)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, user.ID, user.OrganizationID, user.Name); err != nil {
		return fmt.Errorf("%w: failed to create user: %v", repositories.ErrUnavailable, err)
	}
	return nil
}

// GetByID retrieves a user within an organization
func (r *PostgresUserRepository) GetByID(ctx context.Context, orgID string, id string) (*entities.User, error) {
	query := `
		SELECT id, org_id, name, created_at
		FROM users
		WHERE org_id = $1 AND id = $2
	`
	user := &entities.User{}
	err := r.db.QueryRowContext(ctx, query, orgID, id).Scan(&user.ID, &user.OrganizationID, &user.Name, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", id, repositories.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get user: %v", repositories.ErrUnavailable, err)
	}
	return user, nil
}

// ListByOrg retrieves all users of an organization
func (r *PostgresUserRepository) ListByOrg(ctx context.Context, orgID string) ([]*entities.User, error) {
	query := `
		SELECT id, org_id, name, created_at
		FROM users
		WHERE org_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list users: %v", repositories.ErrUnavailable, err)
	}
	defer rows.Close()

	var users []*entities.User
	for rows.Next() {
		user := &entities.User{}
		if err := rows.Scan(&user.ID, &user.OrganizationID, &user.Name, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan user: %v", repositories.ErrUnavailable, err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate users: %v", repositories.ErrUnavailable, err)
	}
	return users, nil
}

// Update updates a user's name
func (r *PostgresUserRepository) Update(ctx context.Context, user *entities.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("invalid user: %w", err)
	}

	query := `
		UPDATE users SET name = $3
		WHERE org_id = $1 AND id = $2
	`
	result, err := r.db.ExecContext(ctx, query, user.OrganizationID, user.ID, user.Name)
	if err != nil {
		return fmt.Errorf("%w: failed to update user: %v", repositories.ErrUnavailable, err)
	}
	return requireAffected(result, fmt.Sprintf("user %s", user.ID))
}

// Delete removes a user. Team memberships and policy attachments cascade.
func (r *PostgresUserRepository) Delete(ctx context.Context, orgID string, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return fmt.Errorf("%w: failed to delete user: %v", repositories.ErrUnavailable, err)
	}
	return requireAffected(result, fmt.Sprintf("user %s", id))
}

// ReplacePolicies replaces the user's directly attached policy set. The
// attachment order is preserved; it determines statement flattening order
// during aggregation. A policy id from another organization fails the foreign
// key and rolls the whole replacement back.
func (r *PostgresUserRepository) ReplacePolicies(ctx context.Context, orgID string, id string, policyIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", repositories.ErrUnavailable, err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx, `SELECT true FROM users WHERE org_id = $1 AND id = $2`, orgID, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("user %s: %w", id, repositories.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("%w: failed to check user: %v", repositories.ErrUnavailable, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_policies WHERE org_id = $1 AND user_id = $2`, orgID, id); err != nil {
		return fmt.Errorf("%w: failed to detach policies: %v", repositories.ErrUnavailable, err)
	}

	for i, policyID := range policyIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO user_policies (org_id, user_id, policy_id, ord) VALUES ($1, $2, $3, $4)`,
			orgID, id, policyID, i,
		)
		if err != nil {
			return fmt.Errorf("%w: failed to attach policy %s: %v", repositories.ErrUnavailable, policyID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", repositories.ErrUnavailable, err)
	}
	return nil
}

// requireAffected converts a zero-row write into ErrNotFound
func requireAffected(result sql.Result, subject string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to read result: %v", repositories.ErrUnavailable, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", subject, repositories.ErrNotFound)
	}
	return nil
}
