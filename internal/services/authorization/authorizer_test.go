package authorization

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/kashiwade/menshen/internal/entities"
	"github.com/kashiwade/menshen/pkg/cache/memorycache"
)

func newTestAuthorizer(userRepo *mockUserRepository, teamRepo *mockTeamRepository, policyRepo *mockPolicyRepository) *Authorizer {
	return NewAuthorizer(NewAggregator(userRepo, teamRepo, policyRepo))
}

func TestAuthorizer_IsAuthorized_ViaTeamMembership(t *testing.T) {
	authorizer := newTestAuthorizer(wonkaFixtures())

	tests := []struct {
		name   string
		action string
		want   bool
	}{
		{
			name:   "allowed action inherited from root team",
			action: "finance:ReadBalanceSheet",
			want:   true,
		},
		{
			name:   "unlisted action is denied",
			action: "finance:DeleteBalanceSheet",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := authorizer.IsAuthorized(context.Background(), &AccessRequest{
				OrganizationID: "WONKA",
				UserID:         "salman",
				Resource:       "database:pg01:balancesheet",
				Action:         tt.action,
			})
			if err != nil {
				t.Fatalf("IsAuthorized() error = %v", err)
			}
			if resp.Access != tt.want {
				t.Errorf("IsAuthorized() access = %v, want %v", resp.Access, tt.want)
			}
		})
	}
}

func TestAuthorizer_IsAuthorized_ExplicitDenyWins(t *testing.T) {
	userRepo, teamRepo, policyRepo := wonkaFixtures()

	// A second, more specific policy attached closer to the user denies the
	// action the inherited policy allows.
	policyRepo.policies["WONKA/balance-sheet-lockdown"] = &entities.Policy{
		ID:             "balance-sheet-lockdown",
		Name:           "Balance sheet lockdown",
		Version:        "2016-07-01",
		OrganizationID: "WONKA",
		Statements: []entities.Statement{
			{
				Effect:    entities.EffectDeny,
				Actions:   []string{"finance:ReadBalanceSheet"},
				Resources: []string{"database:pg01:balancesheet"},
			},
		},
	}
	policyRepo.teamPolicies["WONKA/interns"] = []string{"balance-sheet-lockdown"}

	authorizer := newTestAuthorizer(userRepo, teamRepo, policyRepo)
	resp, err := authorizer.IsAuthorized(context.Background(), &AccessRequest{
		OrganizationID: "WONKA",
		UserID:         "salman",
		Resource:       "database:pg01:balancesheet",
		Action:         "finance:ReadBalanceSheet",
	})
	if err != nil {
		t.Fatalf("IsAuthorized() error = %v", err)
	}
	if resp.Access {
		t.Error("IsAuthorized() access = true, want false: explicit deny must win")
	}
}

func TestAuthorizer_IsAuthorized_Idempotent(t *testing.T) {
	authorizer := newTestAuthorizer(wonkaFixtures())
	req := &AccessRequest{
		OrganizationID: "WONKA",
		UserID:         "salman",
		Resource:       "database:pg01:balancesheet",
		Action:         "finance:ReadBalanceSheet",
	}

	var first bool
	for i := 0; i < 5; i++ {
		resp, err := authorizer.IsAuthorized(context.Background(), req)
		if err != nil {
			t.Fatalf("IsAuthorized() call %d error = %v", i, err)
		}
		if i == 0 {
			first = resp.Access
			continue
		}
		if resp.Access != first {
			t.Fatalf("IsAuthorized() call %d = %v, first call = %v", i, resp.Access, first)
		}
	}
}

func TestAuthorizer_IsAuthorized_Cancelled(t *testing.T) {
	authorizer := newTestAuthorizer(wonkaFixtures())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := authorizer.IsAuthorized(ctx, &AccessRequest{
		OrganizationID: "WONKA",
		UserID:         "salman",
		Resource:       "database:pg01:balancesheet",
		Action:         "finance:ReadBalanceSheet",
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("IsAuthorized() error = %v, want context.Canceled", err)
	}
}

func TestAuthorizer_IsAuthorized_InvalidRequest(t *testing.T) {
	authorizer := newTestAuthorizer(wonkaFixtures())

	_, err := authorizer.IsAuthorized(context.Background(), &AccessRequest{
		OrganizationID: "WONKA",
		UserID:         "salman",
		Resource:       "database:pg01:balancesheet",
		// Action missing
	})
	if !errors.Is(err, entities.ErrValidation) {
		t.Errorf("IsAuthorized() error = %v, want ErrValidation", err)
	}
}

func TestAuthorizer_ListAuthorizedActions(t *testing.T) {
	authorizer := newTestAuthorizer(wonkaFixtures())

	resp, err := authorizer.ListAuthorizedActions(context.Background(), &ActionsRequest{
		OrganizationID: "WONKA",
		UserID:         "salman",
		Resource:       "database:pg01:balancesheet",
	})
	if err != nil {
		t.Fatalf("ListAuthorizedActions() error = %v", err)
	}
	want := []string{"finance:ReadBalanceSheet", "finance:ImportBalanceSheet"}
	if !reflect.DeepEqual(resp.Actions, want) {
		t.Errorf("ListAuthorizedActions() = %v, want %v", resp.Actions, want)
	}
}

func TestAuthorizer_ListAuthorizedActions_SubtractsDenied(t *testing.T) {
	userRepo, teamRepo, policyRepo := wonkaFixtures()

	policyRepo.policies["WONKA/no-imports"] = &entities.Policy{
		ID:             "no-imports",
		Name:           "No imports",
		Version:        "2016-07-01",
		OrganizationID: "WONKA",
		Statements: []entities.Statement{
			{
				Effect:    entities.EffectDeny,
				Actions:   []string{"finance:ImportBalanceSheet"},
				Resources: []string{"database:pg01:balancesheet"},
			},
		},
	}
	policyRepo.teamPolicies["WONKA/interns"] = []string{"no-imports"}

	authorizer := newTestAuthorizer(userRepo, teamRepo, policyRepo)
	resp, err := authorizer.ListAuthorizedActions(context.Background(), &ActionsRequest{
		OrganizationID: "WONKA",
		UserID:         "salman",
		Resource:       "database:pg01:balancesheet",
	})
	if err != nil {
		t.Fatalf("ListAuthorizedActions() error = %v", err)
	}
	want := []string{"finance:ReadBalanceSheet"}
	if !reflect.DeepEqual(resp.Actions, want) {
		t.Errorf("ListAuthorizedActions() = %v, want %v", resp.Actions, want)
	}
}

func TestAuthorizer_CachedDecisionMatchesUncached(t *testing.T) {
	userRepo, teamRepo, policyRepo := wonkaFixtures()
	aggregator := NewAggregator(userRepo, teamRepo, policyRepo)

	c, err := memorycache.New(&memorycache.Config{
		MaxSizeBytes: 1 << 20,
		DefaultTTL:   time.Minute,
	})
	if err != nil {
		t.Fatalf("memorycache.New() error = %v", err)
	}
	defer c.Close()

	cached := NewAuthorizerWithCache(aggregator, c, time.Minute)
	uncached := NewAuthorizer(aggregator)

	req := &AccessRequest{
		OrganizationID: "WONKA",
		UserID:         "salman",
		Resource:       "database:pg01:balancesheet",
		Action:         "finance:ReadBalanceSheet",
	}

	// First call populates the cache, second call reads it; both must agree
	// with the uncached computation.
	for i := 0; i < 2; i++ {
		got, err := cached.IsAuthorized(context.Background(), req)
		if err != nil {
			t.Fatalf("cached IsAuthorized() error = %v", err)
		}
		want, err := uncached.IsAuthorized(context.Background(), req)
		if err != nil {
			t.Fatalf("uncached IsAuthorized() error = %v", err)
		}
		if got.Access != want.Access {
			t.Fatalf("cached access = %v, uncached = %v", got.Access, want.Access)
		}
	}
}
