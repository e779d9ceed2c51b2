package authorization

import (
	"fmt"

	"github.com/kashiwade/menshen/internal/entities"
)

// matchedStatement is the view of a statement the decision step needs once
// the statement is known to apply to a resource: its effect and its action
// patterns.
type matchedStatement struct {
	effect  entities.Effect
	actions []string
}

// evaluateEffects returns the effect of every statement that matches the
// (resource, action) pair: at least one resource pattern matches the resource
// and at least one action pattern matches the action. A statement with an
// effect outside Allow/Deny fails the whole evaluation with ErrDataIntegrity,
// even if that statement would not have matched.
func evaluateEffects(statements []entities.Statement, resource, action string) ([]entities.Effect, error) {
	var effects []entities.Effect
	for i := range statements {
		s := &statements[i]
		if !s.Effect.Valid() {
			return nil, fmt.Errorf("%w: statement %d has effect %q", ErrDataIntegrity, i, s.Effect)
		}
		if anyMatches(s.Resources, resource) && anyMatches(s.Actions, action) {
			effects = append(effects, s.Effect)
		}
	}
	return effects, nil
}

// matchingStatements returns, in statement order, every statement whose
// resource patterns match the resource, reduced to what action enumeration
// needs. Effect validation mirrors evaluateEffects.
func matchingStatements(statements []entities.Statement, resource string) ([]matchedStatement, error) {
	var matched []matchedStatement
	for i := range statements {
		s := &statements[i]
		if !s.Effect.Valid() {
			return nil, fmt.Errorf("%w: statement %d has effect %q", ErrDataIntegrity, i, s.Effect)
		}
		if anyMatches(s.Resources, resource) {
			matched = append(matched, matchedStatement{effect: s.Effect, actions: s.Actions})
		}
	}
	return matched, nil
}
