package app

// Authorizer classifies callers from a fixed set of privileged identities.
type Authorizer struct {
	admins map[int64]struct{}
}

func NewAuthorizer(adminIDs []int64) *Authorizer {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &Authorizer{admins: admins}
}

// IsAdmin reports whether userID is in the configured admin set.
func (a *Authorizer) IsAdmin(userID int64) bool {
	if a == nil {
		return false
	}
	_, ok := a.admins[userID]
	return ok
}

// AdminIDs returns the configured admins in no particular order.
func (a *Authorizer) AdminIDs() []int64 {
	if a == nil {
		return nil
	}
	ids := make([]int64, 0, len(a.admins))
	for id := range a.admins {
		ids = append(ids, id)
	}
	return ids
}
