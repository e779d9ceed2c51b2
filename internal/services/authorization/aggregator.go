package authorization

import (
	"context"
	"fmt"

	"github.com/kashiwade/menshen/internal/entities"
	"github.com/kashiwade/menshen/internal/repositories"
)

// Aggregator collects the effective policy set of a principal: the user's
// directly attached policies, the policies of every team the user belongs to,
// and the policies of every ancestor of those teams up to the organization
// root.
type Aggregator struct {
	userRepo   repositories.UserRepository
	teamRepo   repositories.TeamRepository
	policyRepo repositories.PolicyRepository
}

// NewAggregator creates a new Aggregator
func NewAggregator(
	userRepo repositories.UserRepository,
	teamRepo repositories.TeamRepository,
	policyRepo repositories.PolicyRepository,
) *Aggregator {
	return &Aggregator{
		userRepo:   userRepo,
		teamRepo:   teamRepo,
		policyRepo: policyRepo,
	}
}

// CollectStatements returns every policy statement that applies to the user,
// flattened in a stable order: the user's own policies first, then the
// policies of each visited team in traversal order. Policies are deduplicated
// by id, statement order within a policy is preserved.
//
// A missing principal fails with repositories.ErrNotFound rather than
// returning an empty set; "no such user" must stay distinguishable from
// "user with no policies".
func (a *Aggregator) CollectStatements(ctx context.Context, orgID string, userID string) ([]entities.Statement, error) {
	if _, err := a.userRepo.GetByID(ctx, orgID, userID); err != nil {
		return nil, fmt.Errorf("fetch user %s: %w", userID, err)
	}

	userPolicies, err := a.policyRepo.ListByUser(ctx, orgID, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch user policies: %w", err)
	}

	teams, err := a.teamRepo.ListByUser(ctx, orgID, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch user teams: %w", err)
	}

	seen := make(map[string]bool)
	var visited []*entities.Team
	for _, team := range teams {
		if err := a.walkAncestors(ctx, orgID, team, seen, &visited); err != nil {
			return nil, err
		}
	}

	var statements []entities.Statement
	seenPolicies := make(map[string]bool)
	appendPolicies := func(policies []*entities.Policy) {
		for _, p := range policies {
			if seenPolicies[p.ID] {
				continue
			}
			seenPolicies[p.ID] = true
			statements = append(statements, p.Statements...)
		}
	}

	appendPolicies(userPolicies)
	for _, team := range visited {
		teamPolicies, err := a.policyRepo.ListByTeam(ctx, orgID, team.ID)
		if err != nil {
			return nil, fmt.Errorf("fetch policies of team %s: %w", team.ID, err)
		}
		appendPolicies(teamPolicies)
	}

	return statements, nil
}

// walkAncestors follows the parent chain from team to its root, appending
// each newly seen team to visited. The walk keeps its own path set so that a
// corrupted chain that loops back on itself is reported as ErrDataIntegrity
// after at most one pass over the loop, never an infinite traversal. A team
// already collected by an earlier walk ends the climb: its ancestors are
// already in visited.
func (a *Aggregator) walkAncestors(
	ctx context.Context,
	orgID string,
	team *entities.Team,
	seen map[string]bool,
	visited *[]*entities.Team,
) error {
	path := make(map[string]bool)
	current := team
	for {
		if path[current.ID] {
			return fmt.Errorf("%w: team ancestor chain cycles at %q", ErrDataIntegrity, current.ID)
		}
		path[current.ID] = true

		if seen[current.ID] {
			return nil
		}
		seen[current.ID] = true
		*visited = append(*visited, current)

		if current.ParentID == nil {
			return nil
		}
		parent, err := a.teamRepo.GetByID(ctx, orgID, *current.ParentID)
		if err != nil {
			return fmt.Errorf("fetch parent team %s: %w", *current.ParentID, err)
		}
		current = parent
	}
}
