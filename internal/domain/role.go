package domain

// Role is a closed tagged variant: one case per role kind, each carrying only
// the fields that kind needs. Roles are immutable snapshots read per request;
// this core never mutates them.
type Role interface {
	isRole()
}

// Superuser authorizes every action unconditionally.
type Superuser struct{}

// Admin holds admin-write and read access scoped to one troop.
type Admin struct {
	Troop string
}

// AdultReadonly holds read access scoped to one troop.
type AdultReadonly struct {
	Troop string
}

// Guide holds read access scoped to an explicit set of scout emails
// (parent or scoutmaster equivalent).
type Guide struct {
	ScoutEmails map[string]struct{}
}

// ScoutRole holds scout-write and read access for the scout's own data only.
type ScoutRole struct {
	Email string
}

// TestScoutRole behaves exactly like ScoutRole; it exists so fixture accounts
// are distinguishable in role snapshots.
type TestScoutRole struct {
	Email string
}

func (Superuser) isRole()     {}
func (Admin) isRole()         {}
func (AdultReadonly) isRole() {}
func (Guide) isRole()         {}
func (ScoutRole) isRole()     {}
func (TestScoutRole) isRole() {}

// NewGuide builds a Guide role from a list of scout emails.
func NewGuide(scoutEmails ...string) Guide {
	set := make(map[string]struct{}, len(scoutEmails))
	for _, email := range scoutEmails {
		set[email] = struct{}{}
	}
	return Guide{ScoutEmails: set}
}
