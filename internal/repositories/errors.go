package repositories

import "errors"

// Sentinel errors shared by all repository implementations. Services and
// handlers check them with errors.Is; implementations wrap them with the
// entity and id that was requested.
var (
	// ErrNotFound means the organization, user, team or policy does not exist
	ErrNotFound = errors.New("not found")

	// ErrUnavailable means a transient data-store failure. The repository does
	// not retry; the caller decides.
	ErrUnavailable = errors.New("data store unavailable")
)
