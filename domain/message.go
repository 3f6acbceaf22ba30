// Package domain contains core concepts of the chat system.
// This file defines Message entities and their per-user state.
// No runtime, network, or UI logic should be added here.
package domain

import "maps"

type AttachmentKind string

const (
	AttachmentImage    AttachmentKind = "image"
	AttachmentAudio    AttachmentKind = "audio"
	AttachmentVideo    AttachmentKind = "video"
	AttachmentDocument AttachmentKind = "document"
)

type Attachment struct {
	URL  string         `json:"url"`
	Name string         `json:"name,omitempty"`
	MIME string         `json:"mime"`
	Kind AttachmentKind `json:"kind"`
	Size int64          `json:"size,omitempty"`
}

// Content is either a text or an attachment, never both.
type Content struct {
	Text       string      `json:"text,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

func (c Content) IsText() bool { return c.Attachment == nil }

func (c Content) IsEmpty() bool { return c.Attachment == nil && c.Text == "" }

// Receipt keeps the highest delivered and read stamps received for one recipient.
// Zero means unset.
type Receipt struct {
	Delivered Timestamp `json:"delivered,omitempty"`
	Read      Timestamp `json:"read,omitempty"`
}

// DeliveredAt is the projected delivery time. A read implies a delivery.
func (r Receipt) DeliveredAt() Timestamp {
	if r.Delivered == 0 {
		return r.Read
	}
	return r.Delivered
}

// ReadAt is the projected read time, never earlier than DeliveredAt.
func (r Receipt) ReadAt() Timestamp {
	if r.Read == 0 {
		return 0
	}
	return max(r.Read, r.Delivered)
}

// Reaction with an empty Emoji is a removed reaction kept for ordering.
type Reaction struct {
	Emoji string `json:"emoji,omitempty"`
	Stamp Stamp  `json:"stamp"`
}

type PendingKind string

const (
	PendingEdit           PendingKind = "edit"
	PendingDeleteEveryone PendingKind = "delete_everyone"
)

// PendingWrite is an edit or a delete-for-everyone received before the
// message itself. It is authorised once the sender is known.
type PendingWrite struct {
	Kind    PendingKind `json:"kind"`
	EventID string      `json:"event_id"`
	Actor   UserID      `json:"actor"`
	Stamp   Stamp       `json:"stamp"`
	Content Content     `json:"content,omitempty"`
}

type Message struct {
	ID        MessageID `json:"id"`
	RoomID    RoomID    `json:"room_id"`
	SenderID  UserID    `json:"sender_id,omitempty"`
	Timestamp Timestamp `json:"timestamp,omitempty"`
	Content   Content   `json:"content"`
	ReplyTo   MessageID `json:"reply_to,omitempty"`

	// Created is false while only receipts, reactions or deletions
	// referring to this message have been received.
	Created bool `json:"created"`

	Edited    bool  `json:"edited,omitempty"`
	EditStamp Stamp `json:"edit_stamp"`

	Receipts   map[UserID]Receipt   `json:"receipts,omitempty"`
	DeletedFor map[UserID]Timestamp `json:"deleted_for,omitempty"`
	Reactions  map[UserID]Reaction  `json:"reactions,omitempty"`

	// A message deleted for everyone keeps no content, edits or reactions.
	DeletedForEveryone bool      `json:"deleted_for_everyone,omitempty"`
	DeletedBy          UserID    `json:"deleted_by,omitempty"`
	DeletedAt          Timestamp `json:"deleted_at,omitempty"`
	DeleteStamp        Stamp     `json:"delete_stamp"`

	Pending []PendingWrite `json:"pending,omitempty"`
}

func NewPendingMessage(room RoomID, id MessageID) Message {
	return Message{ID: id, RoomID: room}
}

func (m Message) EntityKey() EntityKey {
	return EntityKey{Kind: EntityMessage, ID: string(m.ID)}
}

// Clone returns a copy sharing no maps or slices with m.
func (m Message) Clone() Message {
	c := m
	c.Receipts = maps.Clone(m.Receipts)
	c.DeletedFor = maps.Clone(m.DeletedFor)
	c.Reactions = maps.Clone(m.Reactions)
	if m.Pending != nil {
		c.Pending = append([]PendingWrite(nil), m.Pending...)
	}
	if m.Content.Attachment != nil {
		a := *m.Content.Attachment
		c.Content.Attachment = &a
	}
	for i := range c.Pending {
		if att := c.Pending[i].Content.Attachment; att != nil {
			a := *att
			c.Pending[i].Content.Attachment = &a
		}
	}
	return c
}

func (m Message) IsDeletedFor(user UserID) bool {
	_, ok := m.DeletedFor[user]
	return ok
}

// VisibleTo reports whether the message shows up in the viewer's history.
func (m Message) VisibleTo(viewer UserID) bool {
	return m.Created && !m.DeletedForEveryone && !m.IsDeletedFor(viewer)
}

func (m Message) ReceiptFor(user UserID) Receipt {
	return m.Receipts[user]
}

// Less orders messages by (timestamp, sender, id), a total order even when
// sender clocks disagree.
func (m Message) Less(o Message) bool {
	if m.Timestamp != o.Timestamp {
		return m.Timestamp < o.Timestamp
	}
	if m.SenderID != o.SenderID {
		return m.SenderID < o.SenderID
	}
	return m.ID < o.ID
}
