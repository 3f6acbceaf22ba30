package domain

import "slices"

// ClaimAdmin as a global claim lets the holder administrate every room.
const ClaimAdmin = "admin"

// Identity is the current user as seen by the local client.
type Identity interface {
	CurrentUserID() UserID
	HasRole(role string) bool
}

// StaticIdentity is an Identity with fixed claims.
type StaticIdentity struct {
	UserID UserID
	Roles  []string
}

func (s StaticIdentity) CurrentUserID() UserID { return s.UserID }

func (s StaticIdentity) HasRole(role string) bool {
	return slices.Contains(s.Roles, role)
}
