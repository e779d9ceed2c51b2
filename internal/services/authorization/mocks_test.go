package authorization

import (
	"context"
	"fmt"

	"github.com/kashiwade/menshen/internal/entities"
	"github.com/kashiwade/menshen/internal/repositories"
)

// Map-backed repository mocks. Keys are "orgID/entityID" so that a lookup
// with the wrong organization behaves like a missing row, the same way the
// SQL implementations scope every query. Only the read paths the engine uses
// are implemented; the embedded interface panics on anything else.

type mockUserRepository struct {
	repositories.UserRepository
	users map[string]*entities.User
	err   error // forced error for every call
}

func (m *mockUserRepository) GetByID(ctx context.Context, orgID string, id string) (*entities.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u, ok := m.users[orgID+"/"+id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, repositories.ErrNotFound)
	}
	return u, nil
}

type mockTeamRepository struct {
	repositories.TeamRepository
	teams       map[string]*entities.Team
	memberships map[string][]string // "orgID/userID" -> team ids, in order
	err         error
}

func (m *mockTeamRepository) GetByID(ctx context.Context, orgID string, id string) (*entities.Team, error) {
	if m.err != nil {
		return nil, m.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, ok := m.teams[orgID+"/"+id]
	if !ok {
		return nil, fmt.Errorf("team %s: %w", id, repositories.ErrNotFound)
	}
	return t, nil
}

func (m *mockTeamRepository) ListByUser(ctx context.Context, orgID string, userID string) ([]*entities.Team, error) {
	if m.err != nil {
		return nil, m.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var teams []*entities.Team
	for _, teamID := range m.memberships[orgID+"/"+userID] {
		if t, ok := m.teams[orgID+"/"+teamID]; ok {
			teams = append(teams, t)
		}
	}
	return teams, nil
}

type mockPolicyRepository struct {
	repositories.PolicyRepository
	policies     map[string]*entities.Policy
	userPolicies map[string][]string // "orgID/userID" -> policy ids, in order
	teamPolicies map[string][]string // "orgID/teamID" -> policy ids, in order
	err          error
}

func (m *mockPolicyRepository) ListByUser(ctx context.Context, orgID string, userID string) ([]*entities.Policy, error) {
	if m.err != nil {
		return nil, m.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.attached(orgID, m.userPolicies[orgID+"/"+userID]), nil
}

func (m *mockPolicyRepository) ListByTeam(ctx context.Context, orgID string, teamID string) ([]*entities.Policy, error) {
	if m.err != nil {
		return nil, m.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.attached(orgID, m.teamPolicies[orgID+"/"+teamID]), nil
}

func (m *mockPolicyRepository) attached(orgID string, ids []string) []*entities.Policy {
	var policies []*entities.Policy
	for _, id := range ids {
		if p, ok := m.policies[orgID+"/"+id]; ok {
			policies = append(policies, p)
		}
	}
	return policies
}

func strPtr(s string) *string { return &s }

// wonkaFixtures builds the three-level team hierarchy used by most engine
// tests: Board (root) <- Finance <- Interns, user "salman" a direct member of
// Interns only, with the balance sheet policy attached to Board.
func wonkaFixtures() (*mockUserRepository, *mockTeamRepository, *mockPolicyRepository) {
	userRepo := &mockUserRepository{
		users: map[string]*entities.User{
			"WONKA/salman": {ID: "salman", Name: "Salman", OrganizationID: "WONKA"},
			"WONKA/willy":  {ID: "willy", Name: "Willy", OrganizationID: "WONKA"},
		},
	}

	teamRepo := &mockTeamRepository{
		teams: map[string]*entities.Team{
			"WONKA/board":   {ID: "board", Name: "Board", OrganizationID: "WONKA"},
			"WONKA/finance": {ID: "finance", Name: "Finance", OrganizationID: "WONKA", ParentID: strPtr("board")},
			"WONKA/interns": {ID: "interns", Name: "Interns", OrganizationID: "WONKA", ParentID: strPtr("finance")},
		},
		memberships: map[string][]string{
			"WONKA/salman": {"interns"},
		},
	}

	policyRepo := &mockPolicyRepository{
		policies: map[string]*entities.Policy{
			"WONKA/balance-sheet-reader": {
				ID:             "balance-sheet-reader",
				Name:           "Balance sheet reader",
				Version:        "2016-07-01",
				OrganizationID: "WONKA",
				Statements: []entities.Statement{
					{
						Effect:    entities.EffectAllow,
						Actions:   []string{"finance:ReadBalanceSheet", "finance:ImportBalanceSheet"},
						Resources: []string{"database:pg01:balancesheet"},
					},
				},
			},
		},
		teamPolicies: map[string][]string{
			"WONKA/board": {"balance-sheet-reader"},
		},
	}

	return userRepo, teamRepo, policyRepo
}
