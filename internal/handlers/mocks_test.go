package handlers

import (
	"context"
	"fmt"

	"github.com/kashiwade/menshen/internal/entities"
	"github.com/kashiwade/menshen/internal/repositories"
)

// mockPolicyRepo is a map-backed PolicyRepository keyed by "orgID/id"
type mockPolicyRepo struct {
	repositories.PolicyRepository
	policies map[string]*entities.Policy
	order    []string
}

func newMockPolicyRepo() *mockPolicyRepo {
	return &mockPolicyRepo{policies: make(map[string]*entities.Policy)}
}

func (m *mockPolicyRepo) Create(ctx context.Context, policy *entities.Policy) error {
	if policy.ID == "" {
		policy.ID = fmt.Sprintf("policy-%d", len(m.order)+1)
	}
	if err := policy.Validate(); err != nil {
		return err
	}
	key := policy.OrganizationID + "/" + policy.ID
	m.policies[key] = policy
	m.order = append(m.order, key)
	return nil
}

func (m *mockPolicyRepo) GetByID(ctx context.Context, orgID string, id string) (*entities.Policy, error) {
	policy, ok := m.policies[orgID+"/"+id]
	if !ok {
		return nil, fmt.Errorf("policy %s: %w", id, repositories.ErrNotFound)
	}
	return policy, nil
}

func (m *mockPolicyRepo) ListByOrg(ctx context.Context, orgID string) ([]*entities.Policy, error) {
	var out []*entities.Policy
	for _, key := range m.order {
		if p, ok := m.policies[key]; ok && p.OrganizationID == orgID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPolicyRepo) Update(ctx context.Context, policy *entities.Policy) error {
	key := policy.OrganizationID + "/" + policy.ID
	if _, ok := m.policies[key]; !ok {
		return fmt.Errorf("policy %s: %w", policy.ID, repositories.ErrNotFound)
	}
	m.policies[key] = policy
	return nil
}

func (m *mockPolicyRepo) Delete(ctx context.Context, orgID string, id string) error {
	key := orgID + "/" + id
	if _, ok := m.policies[key]; !ok {
		return fmt.Errorf("policy %s: %w", id, repositories.ErrNotFound)
	}
	delete(m.policies, key)
	return nil
}

// mockTeamRepo is a map-backed TeamRepository keyed by "orgID/id"
type mockTeamRepo struct {
	repositories.TeamRepository
	teams map[string]*entities.Team
}

func newMockTeamRepo() *mockTeamRepo {
	return &mockTeamRepo{teams: make(map[string]*entities.Team)}
}

func (m *mockTeamRepo) Create(ctx context.Context, team *entities.Team) error {
	if err := team.Validate(); err != nil {
		return err
	}
	m.teams[team.OrganizationID+"/"+team.ID] = team
	return nil
}

func (m *mockTeamRepo) GetByID(ctx context.Context, orgID string, id string) (*entities.Team, error) {
	team, ok := m.teams[orgID+"/"+id]
	if !ok {
		return nil, fmt.Errorf("team %s: %w", id, repositories.ErrNotFound)
	}
	return team, nil
}

func (m *mockTeamRepo) Move(ctx context.Context, orgID string, id string, parentID *string) error {
	team, ok := m.teams[orgID+"/"+id]
	if !ok {
		return fmt.Errorf("team %s: %w", id, repositories.ErrNotFound)
	}
	if parentID != nil && *parentID == id {
		return fmt.Errorf("%w: team cannot be its own parent", entities.ErrValidation)
	}
	team.ParentID = parentID
	return nil
}
