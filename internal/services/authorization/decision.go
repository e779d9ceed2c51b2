package authorization

import (
	"strings"

	"github.com/kashiwade/menshen/internal/entities"
)

// decide reduces the effects of all matching statements to a single access
// decision. An explicit Deny wins unconditionally, regardless of how many
// Allow statements also matched and in which order; with no matching
// statement at all the result is deny (fail-closed).
func decide(effects []entities.Effect) bool {
	allowed := false
	for _, e := range effects {
		if e == entities.EffectDeny {
			return false
		}
		if e == entities.EffectAllow {
			allowed = true
		}
	}
	return allowed
}

// listActions reduces the resource-matching statements to the distinct
// concrete actions reachable through at least one Allow statement, in
// first-seen order. Wildcarded action patterns name no concrete action and
// are skipped. With excludeDenied set, actions that any Deny statement's
// action patterns match are removed from the result.
func listActions(matched []matchedStatement, excludeDenied bool) []string {
	var actions []string
	seen := make(map[string]bool)
	for _, m := range matched {
		if m.effect != entities.EffectAllow {
			continue
		}
		for _, a := range m.actions {
			if strings.Contains(a, wildcard) {
				continue
			}
			if seen[a] {
				continue
			}
			seen[a] = true
			actions = append(actions, a)
		}
	}

	if !excludeDenied {
		return actions
	}

	kept := actions[:0]
	for _, a := range actions {
		denied := false
		for _, m := range matched {
			if m.effect == entities.EffectDeny && anyMatches(m.actions, a) {
				denied = true
				break
			}
		}
		if !denied {
			kept = append(kept, a)
		}
	}
	return kept
}
