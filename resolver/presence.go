package resolver

import (
	"chat-sync/domain"
	"chat-sync/domain/event"
	"chat-sync/errors"
)

// ResolvePin is last-writer-wins per message. Unpins are kept so an older
// pin arriving late cannot bring the message back.
func (r Resolver) ResolvePin(current *domain.Pin, m event.PinChanged) (domain.Pin, error) {
	if !r.authz.IsActiveMember(m.Actor) && !r.authz.IsAdmin(m.Actor) {
		return domain.Pin{}, errors.Unauthorized(m.EventID, "only members can pin messages")
	}
	if current != nil && !m.Stamp().After(current.Stamp) {
		return domain.Pin{}, errors.Stale(m.EventID, "newer pin change already applied")
	}
	return domain.Pin{
		RoomID:    m.Room,
		MessageID: m.MessageID,
		Pinned:    m.Pinned,
		PinnedBy:  m.Actor,
		PinnedAt:  m.At,
		Stamp:     m.Stamp(),
	}, nil
}

func (r Resolver) ResolveTyping(current *domain.Typing, m event.TypingChanged) (domain.Typing, error) {
	if current != nil && !m.Stamp().After(current.Stamp) {
		return domain.Typing{}, errors.Stale(m.EventID, "newer typing state already applied")
	}
	return domain.Typing{
		RoomID: m.Room,
		UserID: m.Actor,
		Typing: m.Typing,
		Stamp:  m.Stamp(),
	}, nil
}
