package projection

import (
	"chat-sync/domain"
	"cmp"
	"slices"

	"github.com/samber/lo"
)

// Snapshot is the persisted form of a room projection. Typing entries are
// ephemeral and never persisted.
type Snapshot struct {
	Room     domain.RoomID         `json:"room_id"`
	Version  uint64                `json:"version"`
	Messages []domain.Message      `json:"messages"`
	Members  []domain.MemberRecord `json:"members"`
	Pins     []domain.Pin          `json:"pins"`
}

// Snapshot returns a deep copy of the persisted state, pending messages included.
func (r *Room) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	messages := lo.MapToSlice(r.messages, func(_ domain.MessageID, m domain.Message) domain.Message {
		return m.Clone()
	})
	slices.SortFunc(messages, func(a, b domain.Message) int { return cmp.Compare(a.ID, b.ID) })

	members := lo.MapToSlice(r.members, func(_ domain.UserID, rec domain.MemberRecord) domain.MemberRecord {
		return rec.Clone()
	})
	slices.SortFunc(members, func(a, b domain.MemberRecord) int {
		return cmp.Compare(a.Current.UserID, b.Current.UserID)
	})

	pins := lo.Values(r.pins)
	slices.SortFunc(pins, func(a, b domain.Pin) int { return cmp.Compare(a.MessageID, b.MessageID) })

	return Snapshot{
		Room:     r.id,
		Version:  r.version,
		Messages: messages,
		Members:  members,
		Pins:     pins,
	}
}

// Restore replaces the projection state with s. Typing entries are cleared.
func (r *Room) Restore(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.version = s.Version
	r.messages = lo.SliceToMap(s.Messages, func(m domain.Message) (domain.MessageID, domain.Message) {
		return m.ID, m.Clone()
	})
	r.members = lo.SliceToMap(s.Members, func(rec domain.MemberRecord) (domain.UserID, domain.MemberRecord) {
		return rec.Current.UserID, rec.Clone()
	})
	r.pins = lo.SliceToMap(s.Pins, func(p domain.Pin) (domain.MessageID, domain.Pin) {
		return p.MessageID, p
	})
	r.typing = make(map[domain.UserID]domain.Typing)

	created := lo.Filter(lo.Values(r.messages), func(m domain.Message, _ int) bool { return m.Created })
	slices.SortFunc(created, compareMessages)
	r.order = lo.Map(created, func(m domain.Message, _ int) domain.MessageID { return m.ID })
}

// FromSnapshot builds a room projection from a persisted snapshot.
func FromSnapshot(s Snapshot, identity domain.Identity) *Room {
	r := NewRoom(s.Room, identity)
	r.Restore(s)
	return r
}
