package authorization

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/kashiwade/menshen/internal/entities"
	"github.com/kashiwade/menshen/pkg/cache"
)

// AuthorizerInterface defines the interface for access decisions
type AuthorizerInterface interface {
	IsAuthorized(ctx context.Context, req *AccessRequest) (*AccessResponse, error)
	ListAuthorizedActions(ctx context.Context, req *ActionsRequest) (*ActionsResponse, error)
}

// Authorizer is the decision facade: it aggregates the principal's effective
// policy set, matches it against the request and reduces the matches to a
// definitive answer. It holds no mutable state of its own; concurrent calls
// are independent.
type Authorizer struct {
	aggregator *Aggregator
	cache      cache.Cache   // Optional cache for decision results
	cacheTTL   time.Duration // TTL for cached results
}

// AccessRequest contains the parameters for an access check
type AccessRequest struct {
	OrganizationID string
	UserID         string
	Resource       string // Concrete resource (e.g., "database:pg01:balancesheet")
	Action         string // Concrete action (e.g., "finance:ReadBalanceSheet")
}

// AccessResponse contains the result of an access check
type AccessResponse struct {
	Access bool // Whether the user may perform the action on the resource
}

// ActionsRequest contains the parameters for action enumeration
type ActionsRequest struct {
	OrganizationID string
	UserID         string
	Resource       string
}

// ActionsResponse contains the distinct actions the user may perform on the
// resource, in first-seen statement order. Actions matched by an explicit
// Deny statement on the resource are excluded.
type ActionsResponse struct {
	Actions []string
}

// NewAuthorizer creates a new Authorizer without caching
func NewAuthorizer(aggregator *Aggregator) *Authorizer {
	return &Authorizer{aggregator: aggregator}
}

// NewAuthorizerWithCache creates a new Authorizer with an advisory decision
// cache. The cache is keyed per (org, user, resource, action) with a short
// TTL; a stale entry can only ever be as old as the TTL, and the cache is
// never consulted for correctness-critical invalidation.
func NewAuthorizerWithCache(aggregator *Aggregator, c cache.Cache, cacheTTL time.Duration) *Authorizer {
	return &Authorizer{
		aggregator: aggregator,
		cache:      c,
		cacheTTL:   cacheTTL,
	}
}

// IsAuthorized decides whether the user may perform the action on the
// resource. The answer is always a definitive boolean; any failure along the
// way (missing principal, unavailable store, corrupt policy data, cancelled
// context) surfaces as an error instead of a fabricated deny.
func (a *Authorizer) IsAuthorized(ctx context.Context, req *AccessRequest) (*AccessResponse, error) {
	if err := validateAccessRequest(req); err != nil {
		return nil, fmt.Errorf("invalid access request: %w", err)
	}

	cacheKey := ""
	if a.cache != nil {
		cacheKey = decisionCacheKey("access", req.OrganizationID, req.UserID, req.Resource, req.Action)
		if cached, found := a.cache.Get(ctx, cacheKey); found {
			if access, ok := cached.(bool); ok {
				return &AccessResponse{Access: access}, nil
			}
		}
	}

	statements, err := a.aggregator.CollectStatements(ctx, req.OrganizationID, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("collect statements: %w", err)
	}

	effects, err := evaluateEffects(statements, req.Resource, req.Action)
	if err != nil {
		return nil, fmt.Errorf("evaluate statements: %w", err)
	}

	access := decide(effects)

	if a.cache != nil {
		_ = a.cache.Set(ctx, cacheKey, access, a.cacheTTL)
	}

	return &AccessResponse{Access: access}, nil
}

// ListAuthorizedActions enumerates the concrete actions the user may perform
// on the resource.
func (a *Authorizer) ListAuthorizedActions(ctx context.Context, req *ActionsRequest) (*ActionsResponse, error) {
	if err := validateActionsRequest(req); err != nil {
		return nil, fmt.Errorf("invalid actions request: %w", err)
	}

	cacheKey := ""
	if a.cache != nil {
		cacheKey = decisionCacheKey("actions", req.OrganizationID, req.UserID, req.Resource, "")
		if cached, found := a.cache.Get(ctx, cacheKey); found {
			if actions, ok := cached.([]string); ok {
				return &ActionsResponse{Actions: actions}, nil
			}
		}
	}

	statements, err := a.aggregator.CollectStatements(ctx, req.OrganizationID, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("collect statements: %w", err)
	}

	matched, err := matchingStatements(statements, req.Resource)
	if err != nil {
		return nil, fmt.Errorf("evaluate statements: %w", err)
	}

	// Explicitly denied actions are subtracted from the enumerated set, so
	// the listing never names an action IsAuthorized would refuse.
	actions := listActions(matched, true)

	if a.cache != nil {
		_ = a.cache.Set(ctx, cacheKey, actions, a.cacheTTL)
	}

	return &ActionsResponse{Actions: actions}, nil
}

// decisionCacheKey builds the cache key for a decision. Hashed to keep keys
// short and uniform.
func decisionCacheKey(op, orgID, userID, resource, action string) string {
	keyData := fmt.Sprintf("%s:%s:%s:%s:%s", op, orgID, userID, resource, action)
	hash := sha256.Sum256([]byte(keyData))
	return hex.EncodeToString(hash[:])
}

func validateAccessRequest(req *AccessRequest) error {
	if req.OrganizationID == "" {
		return fmt.Errorf("%w: organization ID is required", entities.ErrValidation)
	}
	if req.UserID == "" {
		return fmt.Errorf("%w: user ID is required", entities.ErrValidation)
	}
	if req.Resource == "" {
		return fmt.Errorf("%w: resource is required", entities.ErrValidation)
	}
	if req.Action == "" {
		return fmt.Errorf("%w: action is required", entities.ErrValidation)
	}
	return nil
}

func validateActionsRequest(req *ActionsRequest) error {
	if req.OrganizationID == "" {
		return fmt.Errorf("%w: organization ID is required", entities.ErrValidation)
	}
	if req.UserID == "" {
		return fmt.Errorf("%w: user ID is required", entities.ErrValidation)
	}
	if req.Resource == "" {
		return fmt.Errorf("%w: resource is required", entities.ErrValidation)
	}
	return nil
}
