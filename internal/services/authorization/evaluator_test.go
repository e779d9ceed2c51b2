package authorization

import (
	"errors"
	"testing"

	"github.com/kashiwade/menshen/internal/entities"
)

func TestEvaluateEffects(t *testing.T) {
	statements := []entities.Statement{
		{
			Effect:    entities.EffectAllow,
			Actions:   []string{"finance:ReadBalanceSheet"},
			Resources: []string{"database:pg01:balancesheet"},
		},
		{
			Effect:    entities.EffectDeny,
			Actions:   []string{"finance:*"},
			Resources: []string{"database:pg02:*"},
		},
	}

	tests := []struct {
		name     string
		resource string
		action   string
		want     []entities.Effect
	}{
		{
			name:     "resource and action both match",
			resource: "database:pg01:balancesheet",
			action:   "finance:ReadBalanceSheet",
			want:     []entities.Effect{entities.EffectAllow},
		},
		{
			name:     "action matches but resource does not",
			resource: "database:pg03:balancesheet",
			action:   "finance:ReadBalanceSheet",
			want:     nil,
		},
		{
			name:     "resource matches but action does not",
			resource: "database:pg01:balancesheet",
			action:   "finance:DeleteBalanceSheet",
			want:     nil,
		},
		{
			name:     "wildcard statement matches",
			resource: "database:pg02:ledger",
			action:   "finance:Anything",
			want:     []entities.Effect{entities.EffectDeny},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evaluateEffects(statements, tt.resource, tt.action)
			if err != nil {
				t.Fatalf("evaluateEffects() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("evaluateEffects() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("evaluateEffects()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestEvaluateEffects_BadEffect(t *testing.T) {
	statements := []entities.Statement{
		{
			Effect:    "Grant", // corrupt stored data
			Actions:   []string{"finance:ReadBalanceSheet"},
			Resources: []string{"database:pg01:balancesheet"},
		},
	}

	_, err := evaluateEffects(statements, "other:resource", "other:action")
	if !errors.Is(err, ErrDataIntegrity) {
		t.Errorf("evaluateEffects() error = %v, want ErrDataIntegrity", err)
	}

	_, err = matchingStatements(statements, "other:resource")
	if !errors.Is(err, ErrDataIntegrity) {
		t.Errorf("matchingStatements() error = %v, want ErrDataIntegrity", err)
	}
}

func TestMatchingStatements(t *testing.T) {
	statements := []entities.Statement{
		{
			Effect:    entities.EffectAllow,
			Actions:   []string{"finance:ReadBalanceSheet", "finance:ImportBalanceSheet"},
			Resources: []string{"database:pg01:balancesheet"},
		},
		{
			Effect:    entities.EffectDeny,
			Actions:   []string{"finance:ImportBalanceSheet"},
			Resources: []string{"database:pg01:*"},
		},
		{
			Effect:    entities.EffectAllow,
			Actions:   []string{"hr:ListEmployees"},
			Resources: []string{"database:hr01:employees"},
		},
	}

	matched, err := matchingStatements(statements, "database:pg01:balancesheet")
	if err != nil {
		t.Fatalf("matchingStatements() error = %v", err)
	}
	if len(matched) != 2 {
		t.Fatalf("matchingStatements() returned %d statements, want 2", len(matched))
	}
	if matched[0].effect != entities.EffectAllow || matched[1].effect != entities.EffectDeny {
		t.Errorf("matchingStatements() effects = %v, %v", matched[0].effect, matched[1].effect)
	}
}
