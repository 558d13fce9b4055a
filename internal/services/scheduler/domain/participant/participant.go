// Package participant defines the participant value shared by both aggregates.
package participant

import "strings"

// Role identifies the resource kind a participant contributes to a booking.
type Role string

const (
	// RoleStudent is the trainee taking the lesson.
	RoleStudent Role = "student"
	// RoleInstructor is the certified instructor running the lesson.
	RoleInstructor Role = "instructor"
	// RoleAircraft is the airframe reserved for the lesson.
	RoleAircraft Role = "aircraft"
)

// Roles lists every role a reservation must bind, in booking order.
func Roles() []Role {
	return []Role{RoleStudent, RoleInstructor, RoleAircraft}
}

// ParseRole normalizes a role label. The second return reports validity.
func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleStudent:
		return RoleStudent, true
	case RoleInstructor:
		return RoleInstructor, true
	case RoleAircraft:
		return RoleAircraft, true
	}
	return "", false
}

// IsValid reports whether the role is one of the three resource kinds.
func (r Role) IsValid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// Participant is an immutable (id, role) value. Two participants are the same
// resource when their ids match; membership checks always compare by value,
// never by reference.
type Participant struct {
	ID   string
	Role Role
}
