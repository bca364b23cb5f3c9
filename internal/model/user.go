package model

import (
	"strings"
	"time"
)

// Role is a requester's organizational role.  It decides the priority
// rank of every reservation the requester creates.
type Role string

const (
	RoleSecretary Role = "secretary"
	RolePrincipal Role = "principal"
	RoleHOD       Role = "hod"
	RoleStaff     Role = "staff"
	RoleAdmin     Role = "admin"
	RoleOther     Role = "other"
)

// RankLowest is assigned to requesters without a ranked role.
const RankLowest = 99

var roleRanks = map[Role]int{
	RoleSecretary: 1,
	RolePrincipal: 2,
	RoleHOD:       3,
	RoleStaff:     4,
}

// ParseRole normalizes a stored role name.  Unknown names map to RoleOther.
func ParseRole(s string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleSecretary, RolePrincipal, RoleHOD, RoleStaff, RoleAdmin:
		return r
	}
	return RoleOther
}

// LookupRole is ParseRole for input that assigns a role: it reports false
// for names that are not a known role instead of mapping them to RoleOther.
func LookupRole(s string) (Role, bool) {
	name := strings.ToLower(strings.TrimSpace(s))
	r := ParseRole(name)
	if r == RoleOther && name != string(RoleOther) {
		return "", false
	}
	return r, true
}

// Rank returns the priority rank of the role; lower is more senior.
func (r Role) Rank() int {
	if n, ok := roleRanks[r]; ok {
		return n
	}
	return RankLowest
}

// AutoApproves reports whether reservations by this role are confirmed
// without an administrator.
func (r Role) AutoApproves() bool {
	return r == RoleSecretary || r == RolePrincipal
}

// User mirrors the `users` table used as the identity store.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique, lower-cased email address.
//  Name         – display name.
//  PasswordHash – bcrypt hash.
//  Role         – organizational role.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	Name         string    // users.name
	PasswordHash string    // users.password_hash
	Role         Role      // users.role
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// Identity is an authenticated caller as seen by the booking engine.
type Identity struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IsAdmin reports whether the identity may perform administrative
// transitions.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin && i.Email != ""
}
