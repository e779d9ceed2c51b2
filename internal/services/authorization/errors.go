package authorization

import "errors"

// ErrDataIntegrity means the stored policy data is inconsistent: a statement
// carries an effect other than Allow/Deny, or a team ancestor chain contains
// a cycle. The request fails rather than silently denying, so that
// misconfiguration stays visible.
var ErrDataIntegrity = errors.New("data integrity error")
