package domain

import "cmp"

// RoomID identifies a private chat, a group or a community channel.
type RoomID string

type UserID string

type MessageID string

// Timestamp is a sender-assigned logical timestamp, expressed in
// milliseconds so it can be compared with wall time for TTLs.
type Timestamp int64

// Stamp orders concurrent writes on the same key.
// The logical timestamp decides first, the arrival sequence breaks ties.
type Stamp struct {
	At  Timestamp `json:"at"`
	Seq uint64    `json:"seq"`
}

// After reports whether s wins over o.
func (s Stamp) After(o Stamp) bool {
	if s.At != o.At {
		return s.At > o.At
	}
	return s.Seq > o.Seq
}

// Compare orders stamps the way After does: -1 when s loses against o.
func (s Stamp) Compare(o Stamp) int {
	return cmp.Or(cmp.Compare(s.At, o.At), cmp.Compare(s.Seq, o.Seq))
}

func (s Stamp) IsZero() bool {
	return s.At == 0 && s.Seq == 0
}

// EntityKind names the family of entity a mutation targets.
type EntityKind string

const (
	EntityMessage    EntityKind = "message"
	EntityMembership EntityKind = "membership"
	EntityPin        EntityKind = "pin"
	EntityTyping     EntityKind = "typing"
)

// EntityKey addresses one entity inside a room projection.
type EntityKey struct {
	Kind EntityKind
	ID   string
}
