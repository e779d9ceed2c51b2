package entities

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrValidation is the sentinel for malformed input data, such as a policy
// statement document that does not parse or carries an unknown effect.
// Callers check it with errors.Is.
var ErrValidation = errors.New("validation error")

// Effect is the outcome a policy statement contributes to a decision.
// Exactly two values are legal; anything else in stored data is a
// data-integrity fault, not a third kind of effect.
type Effect string

const (
	EffectAllow Effect = "Allow"
	EffectDeny  Effect = "Deny"
)

// Valid reports whether the effect is one of the two legal values
func (e Effect) Valid() bool {
	return e == EffectAllow || e == EffectDeny
}

// Statement represents one Allow/Deny rule of a policy.
// A statement applies to a request when at least one resource pattern
// matches the requested resource and at least one action pattern matches
// the requested action.
type Statement struct {
	Effect    Effect
	Actions   []string // Action patterns (e.g., "finance:ReadBalanceSheet", "finance:*")
	Resources []string // Resource patterns (e.g., "database:pg01:balancesheet")
}

// Validate checks if the statement is well formed
func (s *Statement) Validate() error {
	if !s.Effect.Valid() {
		return fmt.Errorf("%w: statement effect must be Allow or Deny, got %q", ErrValidation, s.Effect)
	}
	if len(s.Actions) == 0 {
		return fmt.Errorf("%w: statement requires at least one action pattern", ErrValidation)
	}
	if len(s.Resources) == 0 {
		return fmt.Errorf("%w: statement requires at least one resource pattern", ErrValidation)
	}
	for _, a := range s.Actions {
		if a == "" {
			return fmt.Errorf("%w: empty action pattern", ErrValidation)
		}
	}
	for _, r := range s.Resources {
		if r == "" {
			return fmt.Errorf("%w: empty resource pattern", ErrValidation)
		}
	}
	return nil
}

// Policy represents a named, versioned set of statements. Policies are
// attached to users and teams by reference, so an edit is visible everywhere
// the policy is attached.
type Policy struct {
	ID             string
	Name           string
	Version        string
	OrganizationID string
	Statements     []Statement
	CreatedAt      time.Time
}

// Validate checks if the policy and all its statements are valid
func (p *Policy) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: policy name is required", ErrValidation)
	}
	if p.Version == "" {
		return fmt.Errorf("%w: policy version is required", ErrValidation)
	}
	if p.OrganizationID == "" {
		return fmt.Errorf("%w: organization ID is required", ErrValidation)
	}
	for i := range p.Statements {
		if err := p.Statements[i].Validate(); err != nil {
			return fmt.Errorf("statement %d: %w", i, err)
		}
	}
	return nil
}

// statementJSON is the wire form of a single statement inside a policy
// document: {"Effect": "...", "Action": [...], "Resource": [...]}
type statementJSON struct {
	Effect   string   `json:"Effect"`
	Action   []string `json:"Action"`
	Resource []string `json:"Resource"`
}

// statementsJSON is the wire form of a policy's statements field:
// {"Statement": [ ... ]}
type statementsJSON struct {
	Statement []statementJSON `json:"Statement"`
}

// ParseStatements parses a policy statement document into a validated
// statement sequence. Statement order is preserved. Malformed documents and
// unknown effects fail with ErrValidation.
func ParseStatements(doc string) ([]Statement, error) {
	var wire statementsJSON
	if err := json.Unmarshal([]byte(doc), &wire); err != nil {
		return nil, fmt.Errorf("%w: malformed statement document: %v", ErrValidation, err)
	}
	statements := make([]Statement, 0, len(wire.Statement))
	for i, s := range wire.Statement {
		stmt := Statement{
			Effect:    Effect(s.Effect),
			Actions:   s.Action,
			Resources: s.Resource,
		}
		if err := stmt.Validate(); err != nil {
			return nil, fmt.Errorf("statement %d: %w", i, err)
		}
		statements = append(statements, stmt)
	}
	return statements, nil
}

// MarshalStatements serializes a statement sequence back into the document
// form used for storage and transport. Round-trips with ParseStatements.
func MarshalStatements(statements []Statement) (string, error) {
	wire := statementsJSON{Statement: make([]statementJSON, 0, len(statements))}
	for _, s := range statements {
		wire.Statement = append(wire.Statement, statementJSON{
			Effect:   string(s.Effect),
			Action:   s.Actions,
			Resource: s.Resources,
		})
	}
	data, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("failed to marshal statements: %w", err)
	}
	return string(data), nil
}
