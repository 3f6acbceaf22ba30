// Package event defines the mutation records flowing from the transport
// into the room projections, and what the projections emit back.
package event

import (
	"chat-sync/domain"
)

type Kind string

const (
	KindMessageCreated  Kind = "message.created"
	KindMessageEdited   Kind = "message.edited"
	KindReceiptUpdated  Kind = "receipt.updated"
	KindDeleteRequested Kind = "message.deleted"
	KindReactionChanged Kind = "reaction.changed"
	KindMemberChanged   Kind = "member.changed"
	KindPinChanged      Kind = "pin.changed"
	KindTypingChanged   Kind = "typing.changed"
)

// RawMutation is a mutation as delivered by the transport, before validation.
type RawMutation struct {
	EventID   string `json:"event_id" validate:"required"`
	Kind      Kind   `json:"kind" validate:"required,oneof=message.created message.edited receipt.updated message.deleted reaction.changed member.changed pin.changed typing.changed"`
	RoomID    string `json:"room_id" validate:"required"`
	ActorID   string `json:"actor_id" validate:"required"`
	Timestamp int64  `json:"timestamp" validate:"gt=0"`

	MessageID   string         `json:"message_id,omitempty"`
	Text        string         `json:"text,omitempty"`
	Attachment  *RawAttachment `json:"attachment,omitempty"`
	ReplyTo     string         `json:"reply_to,omitempty"`
	Receipt     string         `json:"receipt,omitempty"`
	ForEveryone bool           `json:"for_everyone,omitempty"`
	Emoji       string         `json:"emoji,omitempty"`
	TargetID    string         `json:"target_id,omitempty"`
	Change      string         `json:"change,omitempty"`
	Role        string         `json:"role,omitempty"`
	Pinned      *bool          `json:"pinned,omitempty"`
	Typing      *bool          `json:"typing,omitempty"`
}

type RawAttachment struct {
	URL  string `json:"url" validate:"required,url"`
	Name string `json:"name,omitempty"`
	MIME string `json:"mime" validate:"required"`
	Size int64  `json:"size,omitempty" validate:"gte=0"`
}

// Meta is shared by every normalized mutation.
type Meta struct {
	EventID string
	Room    domain.RoomID
	Actor   domain.UserID
	At      domain.Timestamp
	// Seq is the arrival order assigned at ingest.
	Seq uint64
}

func (m Meta) Metadata() Meta { return m }

func (m Meta) RoomID() domain.RoomID { return m.Room }

func (m Meta) Stamp() domain.Stamp {
	return domain.Stamp{At: m.At, Seq: m.Seq}
}

// Mutation is a validated, typed mutation.
type Mutation interface {
	Metadata() Meta
	RoomID() domain.RoomID
	Stamp() domain.Stamp
	Target() domain.EntityKey
}

type MessageCreated struct {
	Meta
	MessageID domain.MessageID `validate:"required"`
	Content   domain.Content
	ReplyTo   domain.MessageID
}

func (m MessageCreated) Target() domain.EntityKey {
	return domain.EntityKey{Kind: domain.EntityMessage, ID: string(m.MessageID)}
}

type MessageEdited struct {
	Meta
	MessageID domain.MessageID `validate:"required"`
	Content   domain.Content
}

func (m MessageEdited) Target() domain.EntityKey {
	return domain.EntityKey{Kind: domain.EntityMessage, ID: string(m.MessageID)}
}

type ReceiptKind string

const (
	ReceiptDelivered ReceiptKind = "delivered"
	ReceiptRead      ReceiptKind = "read"
)

// ReceiptUpdated is written by the recipient, who is the actor.
type ReceiptUpdated struct {
	Meta
	MessageID domain.MessageID `validate:"required"`
	Receipt   ReceiptKind      `validate:"required,oneof=delivered read"`
}

func (m ReceiptUpdated) Target() domain.EntityKey {
	return domain.EntityKey{Kind: domain.EntityMessage, ID: string(m.MessageID)}
}

type DeleteRequested struct {
	Meta
	MessageID   domain.MessageID `validate:"required"`
	ForEveryone bool
}

func (m DeleteRequested) Target() domain.EntityKey {
	return domain.EntityKey{Kind: domain.EntityMessage, ID: string(m.MessageID)}
}

// ReactionChanged sets the actor's reaction; an empty Emoji removes it.
type ReactionChanged struct {
	Meta
	MessageID domain.MessageID `validate:"required"`
	Emoji     string
}

func (m ReactionChanged) Target() domain.EntityKey {
	return domain.EntityKey{Kind: domain.EntityMessage, ID: string(m.MessageID)}
}

type MemberChange = domain.MemberChange

const (
	MemberJoin   = domain.MemberJoin
	MemberAdd    = domain.MemberAdd
	MemberLeave  = domain.MemberLeave
	MemberRemove = domain.MemberRemove
	MemberRole   = domain.MemberRole
)

type MemberChanged struct {
	Meta
	TargetID domain.UserID `validate:"required"`
	Change   MemberChange  `validate:"required,oneof=join add leave remove role"`
	Role     domain.Role   `validate:"omitempty,oneof=admin member"`
}

func (m MemberChanged) Target() domain.EntityKey {
	return domain.EntityKey{Kind: domain.EntityMembership, ID: string(m.TargetID)}
}

type PinChanged struct {
	Meta
	MessageID domain.MessageID `validate:"required"`
	Pinned    bool
}

func (m PinChanged) Target() domain.EntityKey {
	return domain.EntityKey{Kind: domain.EntityPin, ID: string(m.MessageID)}
}

type TypingChanged struct {
	Meta
	Typing bool
}

func (m TypingChanged) Target() domain.EntityKey {
	return domain.EntityKey{Kind: domain.EntityTyping, ID: string(m.Actor)}
}

// KindOf returns the wire kind of a typed mutation.
func KindOf(m Mutation) Kind {
	switch m.(type) {
	case MessageCreated:
		return KindMessageCreated
	case MessageEdited:
		return KindMessageEdited
	case ReceiptUpdated:
		return KindReceiptUpdated
	case DeleteRequested:
		return KindDeleteRequested
	case ReactionChanged:
		return KindReactionChanged
	case MemberChanged:
		return KindMemberChanged
	case PinChanged:
		return KindPinChanged
	case TypingChanged:
		return KindTypingChanged
	default:
		return ""
	}
}
