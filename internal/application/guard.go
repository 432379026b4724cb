package application

// CanAccess reports whether actor may act on a resource owned by ownerID.
func CanAccess(actor Principal, ownerID string) bool {
	return actor.IsAdmin || (actor.UserID != "" && actor.UserID == ownerID)
}

// authorize returns a forbidden error carrying message when actor may not act
// on ownerID's resource.
func authorize(actor Principal, ownerID, message string) error {
	if CanAccess(actor, ownerID) {
		return nil
	}
	return forbidden(message)
}

// scopeFilter restricts filter to actor's own records unless actor is an admin.
func scopeFilter(actor Principal, filter ReservationFilter) ReservationFilter {
	if !actor.IsAdmin {
		filter.UserID = actor.UserID
	}
	return filter
}
