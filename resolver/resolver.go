// Package resolver merges one incoming mutation into the current state of
// the entity it targets. Every field has a single merge policy:
//
//   - single-writer content: first writer wins, edits only by the sender
//   - receipts: monotonic max per recipient
//   - tombstones: set union, once deleted stays deleted
//   - reactions, pins, typing: last writer wins by
//     (logical timestamp, arrival sequence)
//   - membership: every transition is kept and replayed in that order
//
// Resolution is pure: the current entity is never modified, a new value is
// returned. A mutation that changes nothing yields a stale conflict.
package resolver

import (
	"chat-sync/domain"
	"chat-sync/domain/event"
	"chat-sync/errors"
	"fmt"
)

// Entity is the state of one projected entity.
type Entity interface {
	EntityKey() domain.EntityKey
}

// Authorizer answers role questions from the room's membership table.
type Authorizer interface {
	IsAdmin(user domain.UserID) bool
	IsActiveMember(user domain.UserID) bool
	// HasMembers is false until the room's first membership is recorded.
	HasMembers() bool
}

type Resolver struct {
	authz Authorizer
}

func New(authz Authorizer) Resolver {
	return Resolver{authz: authz}
}

// Resolve returns the state of the targeted entity after m. current is nil
// when the entity is absent from the projection. Writes that were held back
// and turn out to be unauthorized once m is applied come back as rejections.
func (r Resolver) Resolve(current Entity, m event.Mutation) (Entity, []event.Rejection, error) {
	switch mut := m.(type) {
	case event.MessageCreated, event.MessageEdited, event.ReceiptUpdated,
		event.DeleteRequested, event.ReactionChanged:
		cur, err := as[domain.Message](current)
		if err != nil {
			return nil, nil, err
		}
		next, rejected, err := r.ResolveMessage(cur, m)
		if err != nil {
			return nil, nil, err
		}
		return next, rejected, nil
	case event.MemberChanged:
		cur, err := as[domain.MemberRecord](current)
		if err != nil {
			return nil, nil, err
		}
		return result(r.ResolveMember(cur, mut))
	case event.PinChanged:
		cur, err := as[domain.Pin](current)
		if err != nil {
			return nil, nil, err
		}
		return result(r.ResolvePin(cur, mut))
	case event.TypingChanged:
		cur, err := as[domain.Typing](current)
		if err != nil {
			return nil, nil, err
		}
		return result(r.ResolveTyping(cur, mut))
	default:
		return nil, nil, fmt.Errorf("%w: %T", errors.ErrUnknownMutation, m)
	}
}

func result[T Entity](v T, err error) (Entity, []event.Rejection, error) {
	if err != nil {
		return nil, nil, err
	}
	return v, nil, nil
}

func as[T Entity](e Entity) (*T, error) {
	if e == nil {
		return nil, nil
	}
	switch v := e.(type) {
	case T:
		return &v, nil
	default:
		return nil, fmt.Errorf("%w: entity %T", errors.ErrUnknownMutation, e)
	}
}
