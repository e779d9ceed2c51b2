package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/kashiwade/menshen/internal/entities"
	"github.com/kashiwade/menshen/internal/repositories"
)

// PostgresTeamRepository implements TeamRepository using PostgreSQL
type PostgresTeamRepository struct {
	db *sql.DB
}

// NewPostgresTeamRepository creates a new PostgreSQL team repository
func NewPostgresTeamRepository(db *sql.DB) repositories.TeamRepository {
	return &PostgresTeamRepository{db: db}
}

// Create creates a new team. An empty ID is replaced with a generated one.
func (r *PostgresTeamRepository) Create(ctx context.Context, team *entities.Team) error {
	if team.ID == "" {
		team.ID = uuid.NewString()
	}
	if err := team.Validate(); err != nil {
		return fmt.Errorf("invalid team: %w", err)
	}

	query := `
		INSERT INTO teams (id, org_id, name, description, parent_id)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, team.ID, team.OrganizationID, team.Name, team.Description, team.ParentID)
	if err != nil {
		return fmt.Errorf("%w: failed to create team: %v", repositories.ErrUnavailable, err)
	}
	return nil
}

// GetByID retrieves a team within an organization
func (r *PostgresTeamRepository) GetByID(ctx context.Context, orgID string, id string) (*entities.Team, error) {
	query := `
		SELECT id, org_id, name, description, parent_id, created_at
		FROM teams
		WHERE org_id = $1 AND id = $2
	`
	return scanTeam(r.db.QueryRowContext(ctx, query, orgID, id), id)
}

// ListByOrg retrieves all teams of an organization
func (r *PostgresTeamRepository) ListByOrg(ctx context.Context, orgID string) ([]*entities.Team, error) {
	query := `
		SELECT id, org_id, name, description, parent_id, created_at
		FROM teams
		WHERE org_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list teams: %v", repositories.ErrUnavailable, err)
	}
	return collectTeams(rows)
}

// ListByUser retrieves the teams a user is a direct member of, in a stable
// order (membership insertion is not tracked, so team id order is used).
func (r *PostgresTeamRepository) ListByUser(ctx context.Context, orgID string, userID string) ([]*entities.Team, error) {
	query := `
		SELECT t.id, t.org_id, t.name, t.description, t.parent_id, t.created_at
		FROM teams t
		JOIN team_members tm ON tm.org_id = t.org_id AND tm.team_id = t.id
		WHERE tm.org_id = $1 AND tm.user_id = $2
		ORDER BY t.id
	`
	rows, err := r.db.QueryContext(ctx, query, orgID, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list user teams: %v", repositories.ErrUnavailable, err)
	}
	return collectTeams(rows)
}

// Update updates a team's name and description. Re-parenting goes through
// Move so the cycle check cannot be bypassed.
func (r *PostgresTeamRepository) Update(ctx context.Context, team *entities.Team) error {
	if err := team.Validate(); err != nil {
		return fmt.Errorf("invalid team: %w", err)
	}

	query := `
		UPDATE teams SET name = $3, description = $4
		WHERE org_id = $1 AND id = $2
	`
	result, err := r.db.ExecContext(ctx, query, team.OrganizationID, team.ID, team.Name, team.Description)
	if err != nil {
		return fmt.Errorf("%w: failed to update team: %v", repositories.ErrUnavailable, err)
	}
	return requireAffected(result, fmt.Sprintf("team %s", team.ID))
}

// Delete removes a team. Memberships and policy attachments cascade; child
// teams become roots.
func (r *PostgresTeamRepository) Delete(ctx context.Context, orgID string, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return fmt.Errorf("%w: failed to delete team: %v", repositories.ErrUnavailable, err)
	}
	return requireAffected(result, fmt.Sprintf("team %s", id))
}

// Move re-parents a team. The new parent's ancestor chain is walked first;
// if it passes through the moved team the move would close a cycle and is
// rejected, keeping every stored chain acyclic.
func (r *PostgresTeamRepository) Move(ctx context.Context, orgID string, id string, parentID *string) error {
	if _, err := r.GetByID(ctx, orgID, id); err != nil {
		return err
	}

	if parentID != nil {
		if *parentID == id {
			return fmt.Errorf("%w: team %s cannot be its own parent", entities.ErrValidation, id)
		}
		current := *parentID
		seen := map[string]bool{id: true}
		for {
			if seen[current] {
				return fmt.Errorf("%w: moving team %s under %s would create a cycle", entities.ErrValidation, id, *parentID)
			}
			seen[current] = true

			ancestor, err := r.GetByID(ctx, orgID, current)
			if err != nil {
				return fmt.Errorf("ancestor %s: %w", current, err)
			}
			if ancestor.ParentID == nil {
				break
			}
			current = *ancestor.ParentID
		}
	}

	result, err := r.db.ExecContext(ctx, `UPDATE teams SET parent_id = $3 WHERE org_id = $1 AND id = $2`, orgID, id, parentID)
	if err != nil {
		return fmt.Errorf("%w: failed to move team: %v", repositories.ErrUnavailable, err)
	}
	return requireAffected(result, fmt.Sprintf("team %s", id))
}

// ReplaceMembers replaces the team's direct member set
func (r *PostgresTeamRepository) ReplaceMembers(ctx context.Context, orgID string, id string, userIDs []string) error {
	return r.replaceAttachments(ctx, orgID, id, userIDs,
		`DELETE FROM team_members WHERE org_id = $1 AND team_id = $2`,
		`INSERT INTO team_members (org_id, team_id, user_id) VALUES ($1, $2, $3)`,
		false,
	)
}

// ReplacePolicies replaces the team's directly attached policy set,
// preserving attachment order.
func (r *PostgresTeamRepository) ReplacePolicies(ctx context.Context, orgID string, id string, policyIDs []string) error {
	return r.replaceAttachments(ctx, orgID, id, policyIDs,
		`DELETE FROM team_policies WHERE org_id = $1 AND team_id = $2`,
		`INSERT INTO team_policies (org_id, team_id, policy_id, ord) VALUES ($1, $2, $3, $4)`,
		true,
	)
}

func (r *PostgresTeamRepository) replaceAttachments(
	ctx context.Context,
	orgID string,
	id string,
	attachIDs []string,
	deleteQuery string,
	insertQuery string,
	ordered bool,
) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", repositories.ErrUnavailable, err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx, `SELECT true FROM teams WHERE org_id = $1 AND id = $2`, orgID, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("team %s: %w", id, repositories.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("%w: failed to check team: %v", repositories.ErrUnavailable, err)
	}

	if _, err := tx.ExecContext(ctx, deleteQuery, orgID, id); err != nil {
		return fmt.Errorf("%w: failed to clear attachments: %v", repositories.ErrUnavailable, err)
	}

	for i, attachID := range attachIDs {
		if ordered {
			_, err = tx.ExecContext(ctx, insertQuery, orgID, id, attachID, i)
		} else {
			_, err = tx.ExecContext(ctx, insertQuery, orgID, id, attachID)
		}
		if err != nil {
			return fmt.Errorf("%w: failed to attach %s: %v", repositories.ErrUnavailable, attachID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", repositories.ErrUnavailable, err)
	}
	return nil
}

// scanTeam scans a single team row
func scanTeam(row *sql.Row, id string) (*entities.Team, error) {
	team := &entities.Team{}
	var parentID sql.NullString
	err := row.Scan(&team.ID, &team.OrganizationID, &team.Name, &team.Description, &parentID, &team.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("team %s: %w", id, repositories.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get team: %v", repositories.ErrUnavailable, err)
	}
	if parentID.Valid {
		team.ParentID = &parentID.String
	}
	return team, nil
}

// collectTeams drains a team query result
func collectTeams(rows *sql.Rows) ([]*entities.Team, error) {
	defer rows.Close()

	var teams []*entities.Team
	for rows.Next() {
		team := &entities.Team{}
		var parentID sql.NullString
		if err := rows.Scan(&team.ID, &team.OrganizationID, &team.Name, &team.Description, &parentID, &team.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan team: %v", repositories.ErrUnavailable, err)
		}
		if parentID.Valid {
			team.ParentID = &parentID.String
		}
		teams = append(teams, team)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate teams: %v", repositories.ErrUnavailable, err)
	}
	return teams, nil
}
