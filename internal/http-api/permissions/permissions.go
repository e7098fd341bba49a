// Package permissions holds the role/ownership predicates consulted by every
// mutating operation. Predicates are plain functions over an explicit Actor so
// services never read an ambient request user.
package permissions

import "reviewhub/internal/http-api/models"

// Actor identifies who is performing an operation. A zero-ID actor is
// anonymous and may only read.
type Actor struct {
	ID       string
	Username string
	Role     string
}

// Anonymous returns the unauthenticated actor.
func Anonymous() Actor {
	return Actor{}
}

func (a Actor) IsAuthenticated() bool {
	return a.ID != ""
}

func (a Actor) isAdmin() bool {
	return a.Role == models.RoleAdmin || a.Role == models.RoleSuperAdmin
}

// CanWriteCatalog reports whether the actor may create, update, or delete
// categories, genres, and titles. Reads are open to everyone.
func CanWriteCatalog(a Actor) bool {
	return a.IsAuthenticated() && a.isAdmin()
}

// CanManageUsers reports whether the actor may use the admin user endpoints.
func CanManageUsers(a Actor) bool {
	return a.IsAuthenticated() && a.isAdmin()
}

// CanModerateContent reports whether the actor may edit or delete reviews and
// comments written by other users.
func CanModerateContent(a Actor) bool {
	return a.IsAuthenticated() && (a.Role == models.RoleModerator || a.isAdmin())
}

// CanEditContent reports whether the actor may mutate a review or comment
// owned by authorID: the author themselves, or a moderator-class role.
func CanEditContent(a Actor, authorID string) bool {
	if !a.IsAuthenticated() {
		return false
	}
	if a.ID == authorID {
		return true
	}
	return CanModerateContent(a)
}
