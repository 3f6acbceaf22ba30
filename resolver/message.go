package resolver

import (
	"chat-sync/domain"
	"chat-sync/domain/event"
	"chat-sync/errors"
	"fmt"
	"slices"
)

// ResolveMessage merges a message-scoped mutation. Receipts, reactions and
// deletions may arrive before the message itself; they accumulate on a
// pending entity that stays invisible until MessageCreated fills it.
// Held back edits and deletions refused at creation are returned as
// rejections, exactly as if they had arrived after it.
func (r Resolver) ResolveMessage(current *domain.Message, m event.Mutation) (domain.Message, []event.Rejection, error) {
	var next domain.Message
	if current == nil {
		key := m.Target()
		next = domain.NewPendingMessage(m.RoomID(), domain.MessageID(key.ID))
	} else {
		next = current.Clone()
	}

	var err error
	var rejected []event.Rejection
	switch mut := m.(type) {
	case event.MessageCreated:
		rejected, err = r.create(&next, mut)
	case event.MessageEdited:
		err = r.edit(&next, mut)
	case event.ReceiptUpdated:
		err = receipt(&next, mut)
	case event.DeleteRequested:
		err = r.delete(&next, mut)
	case event.ReactionChanged:
		err = react(&next, mut)
	default:
		err = fmt.Errorf("%w: %T is not a message mutation", errors.ErrUnknownMutation, m)
	}
	if err != nil {
		return domain.Message{}, nil, err
	}
	return next, rejected, nil
}

// create fills the message content. The first creation wins; writes that
// were waiting for the sender to be known are settled here.
func (r Resolver) create(msg *domain.Message, m event.MessageCreated) ([]event.Rejection, error) {
	if msg.Created {
		return nil, errors.Stale(m.EventID, "message already created")
	}
	msg.Created = true
	msg.SenderID = m.Actor
	msg.Timestamp = m.At
	msg.Content = m.Content
	msg.ReplyTo = m.ReplyTo

	pending := msg.Pending
	msg.Pending = nil
	slices.SortFunc(pending, func(a, b domain.PendingWrite) int {
		return a.Stamp.Compare(b.Stamp)
	})
	var rejected []event.Rejection
	for _, p := range pending {
		switch p.Kind {
		case domain.PendingDeleteEveryone:
			if p.Actor != msg.SenderID && !r.authz.IsAdmin(p.Actor) {
				rejected = append(rejected, pendingRejection(msg, p, "only the sender or a room admin can delete for everyone"))
				continue
			}
			tombstone(msg, p.Actor, p.Stamp)
		case domain.PendingEdit:
			if p.Actor != msg.SenderID {
				rejected = append(rejected, pendingRejection(msg, p, "only the sender can edit a message"))
				continue
			}
			if !msg.Content.IsText() || !p.Content.IsText() {
				rejected = append(rejected, pendingRejection(msg, p, "only text messages can be edited"))
				continue
			}
			if !msg.DeletedForEveryone && p.Stamp.After(msg.EditStamp) {
				msg.Content = p.Content
				msg.Edited = true
				msg.EditStamp = p.Stamp
			}
		}
	}
	if msg.DeletedForEveryone {
		redact(msg)
	}
	return rejected, nil
}

// pendingRejection rebuilds the mutation a held back write came from.
func pendingRejection(msg *domain.Message, p domain.PendingWrite, reason string) event.Rejection {
	meta := event.Meta{EventID: p.EventID, Room: msg.RoomID, Actor: p.Actor, At: p.Stamp.At, Seq: p.Stamp.Seq}
	var m event.Mutation = event.MessageEdited{Meta: meta, MessageID: msg.ID, Content: p.Content}
	if p.Kind == domain.PendingDeleteEveryone {
		m = event.DeleteRequested{Meta: meta, MessageID: msg.ID, ForEveryone: true}
	}
	return event.Rejection{Mutation: m, Reason: errors.Unauthorized(p.EventID, reason)}
}

func (r Resolver) edit(msg *domain.Message, m event.MessageEdited) error {
	if !msg.Created {
		msg.Pending = append(msg.Pending, domain.PendingWrite{
			Kind:    domain.PendingEdit,
			EventID: m.EventID,
			Actor:   m.Actor,
			Stamp:   m.Stamp(),
			Content: m.Content,
		})
		return nil
	}
	if m.Actor != msg.SenderID {
		return errors.Unauthorized(m.EventID, "only the sender can edit a message")
	}
	if !msg.Content.IsText() || !m.Content.IsText() {
		return errors.Unauthorized(m.EventID, "only text messages can be edited")
	}
	if msg.DeletedForEveryone {
		return errors.Stale(m.EventID, "message deleted for everyone")
	}
	if !m.Stamp().After(msg.EditStamp) {
		return errors.Stale(m.EventID, "newer edit already applied")
	}
	msg.Content = m.Content
	msg.Edited = true
	msg.EditStamp = m.Stamp()
	return nil
}

// receipt keeps the maximum per recipient; older receipts are no-ops.
func receipt(msg *domain.Message, m event.ReceiptUpdated) error {
	current := msg.Receipts[m.Actor]
	next := current
	switch m.Receipt {
	case event.ReceiptDelivered:
		next.Delivered = max(current.Delivered, m.At)
	case event.ReceiptRead:
		next.Read = max(current.Read, m.At)
	}
	if next == current {
		return errors.Stale(m.EventID, "receipt not newer than stored value")
	}
	if msg.Receipts == nil {
		msg.Receipts = make(map[domain.UserID]domain.Receipt)
	}
	msg.Receipts[m.Actor] = next
	return nil
}

func (r Resolver) delete(msg *domain.Message, m event.DeleteRequested) error {
	if !m.ForEveryone {
		if at, ok := msg.DeletedFor[m.Actor]; ok && at <= m.At {
			return errors.Stale(m.EventID, "already deleted for actor")
		}
		if msg.DeletedFor == nil {
			msg.DeletedFor = make(map[domain.UserID]domain.Timestamp)
		}
		// Keep the earliest deletion time so replays converge.
		msg.DeletedFor[m.Actor] = m.At
		return nil
	}

	if !msg.Created {
		if r.authz.IsAdmin(m.Actor) {
			if !tombstone(msg, m.Actor, m.Stamp()) {
				return errors.Stale(m.EventID, "earlier deletion already recorded")
			}
			return nil
		}
		msg.Pending = append(msg.Pending, domain.PendingWrite{
			Kind:    domain.PendingDeleteEveryone,
			EventID: m.EventID,
			Actor:   m.Actor,
			Stamp:   m.Stamp(),
		})
		return nil
	}
	if m.Actor != msg.SenderID && !r.authz.IsAdmin(m.Actor) {
		return errors.Unauthorized(m.EventID, "only the sender or a room admin can delete for everyone")
	}
	if !tombstone(msg, m.Actor, m.Stamp()) {
		return errors.Stale(m.EventID, "earlier deletion already recorded")
	}
	return nil
}

// tombstone sets the global deletion. Once set it never reverts; the
// earliest authorised deletion is the one recorded.
func tombstone(msg *domain.Message, actor domain.UserID, stamp domain.Stamp) bool {
	if msg.DeletedForEveryone && !msg.DeleteStamp.After(stamp) {
		return false
	}
	msg.DeletedForEveryone = true
	msg.DeletedBy = actor
	msg.DeletedAt = stamp.At
	msg.DeleteStamp = stamp
	redact(msg)
	return true
}

// redact drops what a delete for everyone hides for good, so the stored
// state does not depend on whether edits and reactions came before it.
func redact(msg *domain.Message) {
	msg.Content = domain.Content{}
	msg.Edited = false
	msg.EditStamp = domain.Stamp{}
	msg.Reactions = nil
}

func react(msg *domain.Message, m event.ReactionChanged) error {
	if msg.DeletedForEveryone {
		return errors.Stale(m.EventID, "message deleted for everyone")
	}
	if current, ok := msg.Reactions[m.Actor]; ok && !m.Stamp().After(current.Stamp) {
		return errors.Stale(m.EventID, "newer reaction already applied")
	}
	if msg.Reactions == nil {
		msg.Reactions = make(map[domain.UserID]domain.Reaction)
	}
	msg.Reactions[m.Actor] = domain.Reaction{Emoji: m.Emoji, Stamp: m.Stamp()}
	return nil
}
