package auth

import (
	"github.com/google/uuid"
)

// Session carries the identity every repository call is scoped to. There is
// no ambient current-user state: callers pass a Session explicitly.
type Session struct {
	UserID   uuid.UUID
	Elevated bool
}

// UserSession returns a session scoped to one user's records.
func UserSession(userID uuid.UUID) Session {
	return Session{UserID: userID}
}

// ElevatedSession returns a session that bypasses user scoping. Only the
// lifecycle controller and the tracking reconciler use it, for cross-entity
// cleanup a normal session could not perform.
func ElevatedSession() Session {
	return Session{Elevated: true}
}
