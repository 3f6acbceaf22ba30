// Package projection builds the local state of a room from resolved mutations.
// Handles ordering, versioning and snapshots.
// Does not read from the network or write to disk.
package projection

import (
	"chat-sync/domain"
	"chat-sync/domain/event"
	"chat-sync/errors"
	"chat-sync/resolver"
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/samber/lo"
)

// Room is the projection of one room. Apply is meant to be called by a
// single goroutine (the room worker); readers may run concurrently.
type Room struct {
	mu       sync.RWMutex
	id       domain.RoomID
	identity domain.Identity
	resolver resolver.Resolver
	version  uint64

	messages map[domain.MessageID]domain.Message
	// order holds created messages by (timestamp, sender, id).
	order   []domain.MessageID
	members map[domain.UserID]domain.MemberRecord
	pins    map[domain.MessageID]domain.Pin
	typing  map[domain.UserID]domain.Typing
}

// NewRoom returns an empty projection. identity may be nil; when set, its
// global admin claim is honoured for the local user.
func NewRoom(id domain.RoomID, identity domain.Identity) *Room {
	r := &Room{
		id:       id,
		identity: identity,
		messages: make(map[domain.MessageID]domain.Message),
		members:  make(map[domain.UserID]domain.MemberRecord),
		pins:     make(map[domain.MessageID]domain.Pin),
		typing:   make(map[domain.UserID]domain.Typing),
	}
	r.resolver = resolver.New(roomAuthz{r})
	return r
}

func (r *Room) ID() domain.RoomID { return r.id }

func (r *Room) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Apply resolves m against the entity it targets and stores the result.
// Conflicts are returned untouched so the caller can tell stale no-ops from
// unauthorized writes.
func (r *Room) Apply(m event.Mutation) (event.Delta, error) {
	if m.RoomID() != r.id {
		return event.Delta{}, fmt.Errorf("%w: mutation for %s applied to %s", errors.ErrUnknownRoom, m.RoomID(), r.id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := m.Target()
	next, rejected, err := r.resolver.Resolve(r.entity(key), m)
	if err != nil {
		return event.Delta{}, err
	}

	r.version++
	delta := event.Delta{Room: r.id, Version: r.version, Cause: m.Metadata().EventID, Rejected: rejected}
	switch e := next.(type) {
	case domain.Message:
		r.storeMessage(e)
		delta.Messages = []domain.MessageID{e.ID}
	case domain.MemberRecord:
		r.members[e.Current.UserID] = e
		delta.Members = []domain.UserID{e.Current.UserID}
	case domain.Pin:
		r.pins[e.MessageID] = e
		delta.Pins = []domain.MessageID{e.MessageID}
	case domain.Typing:
		r.typing[e.UserID] = e
		delta.Typing = []domain.UserID{e.UserID}
	}
	return delta, nil
}

func (r *Room) entity(key domain.EntityKey) resolver.Entity {
	switch key.Kind {
	case domain.EntityMessage:
		if m, ok := r.messages[domain.MessageID(key.ID)]; ok {
			return m
		}
	case domain.EntityMembership:
		if m, ok := r.members[domain.UserID(key.ID)]; ok {
			return m
		}
	case domain.EntityPin:
		if p, ok := r.pins[domain.MessageID(key.ID)]; ok {
			return p
		}
	case domain.EntityTyping:
		if t, ok := r.typing[domain.UserID(key.ID)]; ok {
			return t
		}
	}
	return nil
}

func (r *Room) storeMessage(m domain.Message) {
	prev, existed := r.messages[m.ID]
	r.messages[m.ID] = m
	if m.Created && (!existed || !prev.Created) {
		r.insertOrdered(m)
	}
}

func (r *Room) insertOrdered(m domain.Message) {
	i, found := slices.BinarySearchFunc(r.order, m, func(id domain.MessageID, target domain.Message) int {
		return compareMessages(r.messages[id], target)
	})
	if !found {
		r.order = slices.Insert(r.order, i, m.ID)
	}
}

func compareMessages(a, b domain.Message) int {
	return cmp.Or(
		cmp.Compare(a.Timestamp, b.Timestamp),
		cmp.Compare(a.SenderID, b.SenderID),
		cmp.Compare(a.ID, b.ID),
	)
}

// Messages returns created messages in timeline order, including the ones
// deleted for everyone. Visibility is decided by the query layer.
func (r *Room) Messages() []domain.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Map(r.order, func(id domain.MessageID, _ int) domain.Message {
		return r.messages[id].Clone()
	})
}

// Message returns a message even when it is still pending creation.
func (r *Room) Message(id domain.MessageID) (domain.Message, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.messages[id]
	if !ok {
		return domain.Message{}, false
	}
	return m.Clone(), true
}

func (r *Room) Members() []domain.MemberRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	records := lo.MapToSlice(r.members, func(_ domain.UserID, rec domain.MemberRecord) domain.MemberRecord {
		return rec.Clone()
	})
	slices.SortFunc(records, func(a, b domain.MemberRecord) int {
		return cmp.Compare(a.Current.UserID, b.Current.UserID)
	})
	return records
}

func (r *Room) Member(user domain.UserID) (domain.MemberRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.members[user]
	return rec.Clone(), ok
}

// Pins returns pin states, unpin tombstones included.
func (r *Room) Pins() []domain.Pin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pins := lo.Values(r.pins)
	slices.SortFunc(pins, func(a, b domain.Pin) int {
		return cmp.Or(cmp.Compare(a.PinnedAt, b.PinnedAt), cmp.Compare(a.MessageID, b.MessageID))
	})
	return pins
}

// Typing returns raw typing entries; expiry is applied by readers.
func (r *Room) Typing() []domain.Typing {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := lo.Values(r.typing)
	slices.SortFunc(entries, func(a, b domain.Typing) int {
		return cmp.Compare(a.UserID, b.UserID)
	})
	return entries
}

// roomAuthz reads the membership table without locking: it is only used by
// the resolver from within Apply, which holds the write lock.
type roomAuthz struct {
	r *Room
}

func (a roomAuthz) IsAdmin(user domain.UserID) bool {
	if rec, ok := a.r.members[user]; ok && rec.Current.IsActive() && rec.Current.Role == domain.RoleAdmin {
		return true
	}
	id := a.r.identity
	return id != nil && id.CurrentUserID() == user && id.HasRole(domain.ClaimAdmin)
}

func (a roomAuthz) IsActiveMember(user domain.UserID) bool {
	rec, ok := a.r.members[user]
	return ok && rec.Current.IsActive()
}

func (a roomAuthz) HasMembers() bool {
	for _, rec := range a.r.members {
		if rec.Current.Status != domain.StatusNone || len(rec.History) > 0 {
			return true
		}
	}
	return false
}
