package e2e

import (
	"net/http"
	"testing"
)

type accessBody struct {
	Access bool `json:"access"`
}

type actionsBody struct {
	Actions []string `json:"actions"`
}

// TestAccessScenario exercises the whole flow over HTTP: organization and
// principal setup, policy attachment through a team hierarchy, access
// decisions and action enumeration.
func TestAccessScenario(t *testing.T) {
	s := SetupE2ETest(t)

	// Organization and principals
	if code := s.Do(t, http.MethodPost, "/api/v1/orgs", `{"id":"WONKA","name":"Wonka Inc"}`, nil); code != http.StatusCreated {
		t.Fatalf("create org: expected 201, got %d", code)
	}
	if code := s.Do(t, http.MethodPost, "/api/v1/orgs/WONKA/users", `{"id":"salman","name":"Salman"}`, nil); code != http.StatusCreated {
		t.Fatalf("create user: expected 201, got %d", code)
	}
	if code := s.Do(t, http.MethodPost, "/api/v1/orgs/WONKA/users", `{"id":"willy","name":"Willy"}`, nil); code != http.StatusCreated {
		t.Fatalf("create user: expected 201, got %d", code)
	}

	// Team hierarchy: board <- finance <- interns
	if code := s.Do(t, http.MethodPost, "/api/v1/orgs/WONKA/teams", `{"id":"board","name":"Board"}`, nil); code != http.StatusCreated {
		t.Fatalf("create team: expected 201, got %d", code)
	}
	if code := s.Do(t, http.MethodPost, "/api/v1/orgs/WONKA/teams", `{"id":"finance","name":"Finance","parent":"board"}`, nil); code != http.StatusCreated {
		t.Fatalf("create team: expected 201, got %d", code)
	}
	if code := s.Do(t, http.MethodPost, "/api/v1/orgs/WONKA/teams", `{"id":"interns","name":"Interns","parent":"finance"}`, nil); code != http.StatusCreated {
		t.Fatalf("create team: expected 201, got %d", code)
	}
	if code := s.Do(t, http.MethodPut, "/api/v1/orgs/WONKA/teams/interns/members", `{"users":["salman"]}`, nil); code != http.StatusNoContent {
		t.Fatalf("replace members: expected 204, got %d", code)
	}

	// Policy attached at the root of the hierarchy
	policyDoc := `{
		"id": "balance-sheet-reader",
		"name": "balance sheet reader",
		"version": "0.1",
		"statements": {
			"Statement": [
				{
					"Effect": "Allow",
					"Action": ["finance:ReadBalanceSheet", "finance:ImportBalanceSheet"],
					"Resource": ["database:pg01:balancesheet"]
				}
			]
		}
	}`
	if code := s.Do(t, http.MethodPost, "/api/v1/orgs/WONKA/policies", policyDoc, nil); code != http.StatusCreated {
		t.Fatalf("create policy: expected 201, got %d", code)
	}
	if code := s.Do(t, http.MethodPut, "/api/v1/orgs/WONKA/teams/board/policies", `{"policies":["balance-sheet-reader"]}`, nil); code != http.StatusNoContent {
		t.Fatalf("attach policy: expected 204, got %d", code)
	}

	t.Run("member of grandchild team inherits root policy", func(t *testing.T) {
		var body accessBody
		code := s.Do(t, http.MethodGet, "/api/v1/orgs/WONKA/authorization/access/salman?resource=database:pg01:balancesheet&action=finance:ReadBalanceSheet", "", &body)
		if code != http.StatusOK {
			t.Fatalf("expected 200, got %d", code)
		}
		if !body.Access {
			t.Error("expected access true")
		}
	})

	t.Run("user without any attachment is denied", func(t *testing.T) {
		var body accessBody
		code := s.Do(t, http.MethodGet, "/api/v1/orgs/WONKA/authorization/access/willy?resource=database:pg01:balancesheet&action=finance:ReadBalanceSheet", "", &body)
		if code != http.StatusOK {
			t.Fatalf("expected 200, got %d", code)
		}
		if body.Access {
			t.Error("expected access false")
		}
	})

	t.Run("unknown user is 404", func(t *testing.T) {
		code := s.Do(t, http.MethodGet, "/api/v1/orgs/WONKA/authorization/access/ghost?resource=database:pg01:balancesheet&action=finance:ReadBalanceSheet", "", nil)
		if code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", code)
		}
	})

	t.Run("action enumeration", func(t *testing.T) {
		var body actionsBody
		code := s.Do(t, http.MethodGet, "/api/v1/orgs/WONKA/authorization/actions/salman?resource=database:pg01:balancesheet", "", &body)
		if code != http.StatusOK {
			t.Fatalf("expected 200, got %d", code)
		}
		want := []string{"finance:ReadBalanceSheet", "finance:ImportBalanceSheet"}
		if len(body.Actions) != len(want) {
			t.Fatalf("expected %v, got %v", want, body.Actions)
		}
		for i := range want {
			if body.Actions[i] != want[i] {
				t.Errorf("expected %v, got %v", want, body.Actions)
				break
			}
		}
	})

	t.Run("explicit deny wins over inherited allow", func(t *testing.T) {
		lockdown := `{
			"id": "import-lockdown",
			"name": "import lockdown",
			"version": "0.1",
			"statements": {
				"Statement": [
					{
						"Effect": "Deny",
						"Action": ["finance:ImportBalanceSheet"],
						"Resource": ["database:pg01:balancesheet"]
					}
				]
			}
		}`
		if code := s.Do(t, http.MethodPost, "/api/v1/orgs/WONKA/policies", lockdown, nil); code != http.StatusCreated {
			t.Fatalf("create policy: expected 201, got %d", code)
		}
		if code := s.Do(t, http.MethodPut, "/api/v1/orgs/WONKA/teams/interns/policies", `{"policies":["import-lockdown"]}`, nil); code != http.StatusNoContent {
			t.Fatalf("attach policy: expected 204, got %d", code)
		}

		var body accessBody
		code := s.Do(t, http.MethodGet, "/api/v1/orgs/WONKA/authorization/access/salman?resource=database:pg01:balancesheet&action=finance:ImportBalanceSheet", "", &body)
		if code != http.StatusOK {
			t.Fatalf("expected 200, got %d", code)
		}
		if body.Access {
			t.Error("expected deny to win")
		}

		// The denied action also disappears from the enumeration
		var actions actionsBody
		code = s.Do(t, http.MethodGet, "/api/v1/orgs/WONKA/authorization/actions/salman?resource=database:pg01:balancesheet", "", &actions)
		if code != http.StatusOK {
			t.Fatalf("expected 200, got %d", code)
		}
		if len(actions.Actions) != 1 || actions.Actions[0] != "finance:ReadBalanceSheet" {
			t.Errorf("expected only finance:ReadBalanceSheet, got %v", actions.Actions)
		}
	})

	t.Run("moving the team out of the hierarchy revokes inheritance", func(t *testing.T) {
		if code := s.Do(t, http.MethodPut, "/api/v1/orgs/WONKA/teams/interns/parent", `{"parent":null}`, nil); code != http.StatusOK {
			t.Fatalf("move team: expected 200, got %d", code)
		}

		var body accessBody
		code := s.Do(t, http.MethodGet, "/api/v1/orgs/WONKA/authorization/access/salman?resource=database:pg01:balancesheet&action=finance:ReadBalanceSheet", "", &body)
		if code != http.StatusOK {
			t.Fatalf("expected 200, got %d", code)
		}
		if body.Access {
			t.Error("expected access false after move")
		}
	})

	t.Run("hierarchy cycle via move is rejected", func(t *testing.T) {
		if code := s.Do(t, http.MethodPut, "/api/v1/orgs/WONKA/teams/board/parent", `{"parent":"finance"}`, nil); code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", code)
		}
	})
}

// TestOrgIsolationScenario verifies that principals and policies of one
// organization are invisible to another.
func TestOrgIsolationScenario(t *testing.T) {
	s := SetupE2ETest(t)

	if code := s.Do(t, http.MethodPost, "/api/v1/orgs", `{"id":"WONKA","name":"Wonka Inc"}`, nil); code != http.StatusCreated {
		t.Fatalf("create org: expected 201, got %d", code)
	}
	if code := s.Do(t, http.MethodPost, "/api/v1/orgs", `{"id":"SLUGWORTH","name":"Slugworth Corp"}`, nil); code != http.StatusCreated {
		t.Fatalf("create org: expected 201, got %d", code)
	}
	if code := s.Do(t, http.MethodPost, "/api/v1/orgs/WONKA/users", `{"id":"salman","name":"Salman"}`, nil); code != http.StatusCreated {
		t.Fatalf("create user: expected 201, got %d", code)
	}

	// The user exists in WONKA, not in SLUGWORTH
	if code := s.Do(t, http.MethodGet, "/api/v1/orgs/SLUGWORTH/users/salman", "", nil); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
	if code := s.Do(t, http.MethodGet, "/api/v1/orgs/SLUGWORTH/authorization/access/salman?resource=r:s&action=a:b", "", nil); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
}
