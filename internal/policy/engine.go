package policy

import "pathfinder/internal/domain"

// Context is the minimal claim needed to evaluate one action against one
// role. Empty fields mean the caller requested no restriction of that kind.
type Context struct {
	Troop           string
	ScoutEmail      string
	ActingUserEmail string
}

// Engine evaluates role snapshots against the static action catalogs. The
// goal is to keep the rules centralized and testable: no I/O, no locking,
// safe to call from any number of concurrent authorization checks.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// CanAccess reports whether any role in the list independently authorizes the
// action. Every role is evaluated; access is the logical OR across them. An
// empty role list always denies, and callers must treat false as a hard
// authorization failure, not a recoverable condition.
func (e *Engine) CanAccess(roles []domain.Role, action Action, ctx Context) bool {
	for _, role := range roles {
		if roleAuthorizes(role, action, ctx) {
			return true
		}
	}
	return false
}

func roleAuthorizes(role domain.Role, action Action, ctx Context) bool {
	switch r := role.(type) {
	case domain.Superuser:
		return true
	case domain.Admin:
		return (IsAdminWrite(action) || IsReadAction(action)) && troopMatches(r.Troop, ctx)
	case domain.AdultReadonly:
		return IsReadAction(action) && troopMatches(r.Troop, ctx)
	case domain.Guide:
		if !IsReadAction(action) || ctx.ScoutEmail == "" {
			return false
		}
		_, ok := r.ScoutEmails[ctx.ScoutEmail]
		return ok
	case domain.ScoutRole:
		return scoutAuthorizes(r.Email, action, ctx)
	case domain.TestScoutRole:
		return scoutAuthorizes(r.Email, action, ctx)
	default:
		return false
	}
}

// troopMatches treats an absent troop context as "no troop restriction
// requested", which passes.
func troopMatches(roleTroop string, ctx Context) bool {
	return ctx.Troop == "" || ctx.Troop == roleTroop
}

// scoutAuthorizes enforces self-action only: both context emails must match
// the role's own email. A scout role never authorizes acting on another
// scout's data, even when the acting user is the scout itself.
func scoutAuthorizes(email string, action Action, ctx Context) bool {
	if !IsScoutAction(action) && !IsReadAction(action) {
		return false
	}
	return ctx.ScoutEmail != "" && ctx.ScoutEmail == ctx.ActingUserEmail && ctx.ScoutEmail == email
}
