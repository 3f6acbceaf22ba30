// Package domain contains core concepts of the chat system.
// This file defines room membership, pins and typing presence.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

type Status string

const (
	// StatusNone is a user with transitions on record but no period yet,
	// e.g. a leave received before the join it follows.
	StatusNone    Status = ""
	StatusActive  Status = "active"
	StatusLeft    Status = "left"
	StatusRemoved Status = "removed"
)

// Membership is one membership period of a user in a room.
// Once left or removed it never becomes active again; a re-add opens a new period.
type Membership struct {
	RoomID    RoomID    `json:"room_id"`
	UserID    UserID    `json:"user_id"`
	Role      Role      `json:"role"`
	Status    Status    `json:"status"`
	JoinedAt  Timestamp `json:"joined_at"`
	ChangedAt Timestamp `json:"changed_at"`
	ChangedBy UserID    `json:"changed_by"`
	Stamp     Stamp     `json:"stamp"`
}

func (m Membership) IsActive() bool { return m.Status == StatusActive }

// IsPast reports whether the period is over.
func (m Membership) IsPast() bool {
	return m.Status == StatusLeft || m.Status == StatusRemoved
}

type MemberChange string

const (
	MemberJoin   MemberChange = "join"
	MemberAdd    MemberChange = "add"
	MemberLeave  MemberChange = "leave"
	MemberRemove MemberChange = "remove"
	MemberRole   MemberChange = "role"
)

// MemberTransition is an accepted membership change. Role is the role it
// grants, already settled against the actor's rights when it was accepted.
type MemberTransition struct {
	EventID string       `json:"event_id"`
	Change  MemberChange `json:"change"`
	Actor   UserID       `json:"actor"`
	Role    Role         `json:"role,omitempty"`
	Stamp   Stamp        `json:"stamp"`
}

// MemberRecord is the current membership of a user plus archived periods.
// Both are derived from Transitions, kept sorted by stamp.
type MemberRecord struct {
	Current     Membership         `json:"current"`
	History     []Membership       `json:"history,omitempty"`
	Transitions []MemberTransition `json:"transitions,omitempty"`
}

func (r MemberRecord) EntityKey() EntityKey {
	return EntityKey{Kind: EntityMembership, ID: string(r.Current.UserID)}
}

func (r MemberRecord) Clone() MemberRecord {
	c := r
	if r.History != nil {
		c.History = append([]Membership(nil), r.History...)
	}
	if r.Transitions != nil {
		c.Transitions = append([]MemberTransition(nil), r.Transitions...)
	}
	return c
}

// Pin with Pinned false is an unpin, kept so older pins lose against it.
type Pin struct {
	RoomID    RoomID    `json:"room_id"`
	MessageID MessageID `json:"message_id"`
	Pinned    bool      `json:"pinned"`
	PinnedBy  UserID    `json:"pinned_by"`
	PinnedAt  Timestamp `json:"pinned_at"`
	Stamp     Stamp     `json:"stamp"`
}

func (p Pin) EntityKey() EntityKey {
	return EntityKey{Kind: EntityPin, ID: string(p.MessageID)}
}

type Typing struct {
	RoomID RoomID `json:"room_id"`
	UserID UserID `json:"user_id"`
	Typing bool   `json:"typing"`
	Stamp  Stamp  `json:"stamp"`
}

func (t Typing) EntityKey() EntityKey {
	return EntityKey{Kind: EntityTyping, ID: string(t.UserID)}
}

// Expired reports whether the entry is older than ttl at now.
func (t Typing) Expired(now time.Time, ttl time.Duration) bool {
	return now.UnixMilli()-int64(t.Stamp.At) > ttl.Milliseconds()
}
