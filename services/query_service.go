package services

import (
	"chat-sync/contract"
	"chat-sync/domain"
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/samber/lo"
)

// Searcher finds messages of a room matching free text.
type Searcher interface {
	Search(ctx context.Context, roomID domain.RoomID, terms string, limit int) ([]domain.MessageID, error)
}

// MessageView is a timeline row. Tombstone rows stand for messages deleted
// for everyone and carry no content.
type MessageView struct {
	ID        domain.MessageID
	SenderID  domain.UserID
	Timestamp domain.Timestamp
	Content   domain.Content
	ReplyTo   domain.MessageID
	Edited    bool
	Tombstone bool
	DeletedBy domain.UserID
	DeletedAt domain.Timestamp
	Reactions []ReactionCount
	// Receipt is the viewer's own receipt state.
	Receipt domain.Receipt
}

type ReactionCount struct {
	Emoji string
	Count int
	Users []domain.UserID
}

// QueryService is the read side of the engine. Reads never fail: an unknown
// room is an empty room.
type QueryService struct {
	rooms     contract.RoomLookup
	clock     domain.Clock
	typingTTL time.Duration
	searcher  Searcher
}

// NewQueryService builds the query surface. searcher may be nil.
func NewQueryService(rooms contract.RoomLookup, clock domain.Clock, typingTTL time.Duration, searcher Searcher) *QueryService {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &QueryService{rooms: rooms, clock: clock, typingTTL: typingTTL, searcher: searcher}
}

// VisibleMessages returns the messages the viewer can see, in timeline order.
// Messages deleted for everyone and messages the viewer deleted for
// themselves are omitted.
func (q *QueryService) VisibleMessages(roomID domain.RoomID, viewerID domain.UserID) []domain.Message {
	room, ok := q.rooms.Room(roomID)
	if !ok {
		return nil
	}
	return lo.Filter(room.Messages(), func(m domain.Message, _ int) bool {
		return m.VisibleTo(viewerID)
	})
}

// Timeline is VisibleMessages with placeholders where a message was deleted
// for everyone. Deletions for the viewer alone leave no trace.
func (q *QueryService) Timeline(roomID domain.RoomID, viewerID domain.UserID) []MessageView {
	room, ok := q.rooms.Room(roomID)
	if !ok {
		return nil
	}
	var views []MessageView
	for _, m := range room.Messages() {
		if m.IsDeletedFor(viewerID) {
			continue
		}
		views = append(views, toView(m, viewerID))
	}
	return views
}

func toView(m domain.Message, viewerID domain.UserID) MessageView {
	view := MessageView{
		ID:        m.ID,
		SenderID:  m.SenderID,
		Timestamp: m.Timestamp,
		ReplyTo:   m.ReplyTo,
		Receipt:   m.ReceiptFor(viewerID),
	}
	if m.DeletedForEveryone {
		view.Tombstone = true
		view.DeletedBy = m.DeletedBy
		view.DeletedAt = m.DeletedAt
		return view
	}
	view.Content = m.Content
	view.Edited = m.Edited
	view.Reactions = reactionCounts(m)
	return view
}

// UnreadCount counts visible messages from others the viewer has not read.
func (q *QueryService) UnreadCount(roomID domain.RoomID, viewerID domain.UserID) int {
	return lo.CountBy(q.VisibleMessages(roomID, viewerID), func(m domain.Message) bool {
		return m.SenderID != viewerID && m.ReceiptFor(viewerID).ReadAt() == 0
	})
}

// UnreadMessages lists what UnreadCount counts.
func (q *QueryService) UnreadMessages(roomID domain.RoomID, viewerID domain.UserID) []domain.Message {
	return lo.Filter(q.VisibleMessages(roomID, viewerID), func(m domain.Message, _ int) bool {
		return m.SenderID != viewerID && m.ReceiptFor(viewerID).ReadAt() == 0
	})
}

// ActiveMembers returns the active memberships ordered by user id.
func (q *QueryService) ActiveMembers(roomID domain.RoomID) []domain.Membership {
	room, ok := q.rooms.Room(roomID)
	if !ok {
		return nil
	}
	return lo.FilterMap(room.Members(), func(rec domain.MemberRecord, _ int) (domain.Membership, bool) {
		return rec.Current, rec.Current.IsActive()
	})
}

// PastMembers returns left or removed memberships, most recent transition first.
// Earlier periods of re-added members are included.
func (q *QueryService) PastMembers(roomID domain.RoomID) []domain.Membership {
	room, ok := q.rooms.Room(roomID)
	if !ok {
		return nil
	}
	var past []domain.Membership
	for _, rec := range room.Members() {
		past = append(past, rec.History...)
		if rec.Current.IsPast() {
			past = append(past, rec.Current)
		}
	}
	slices.SortStableFunc(past, func(a, b domain.Membership) int {
		return cmp.Or(cmp.Compare(b.ChangedAt, a.ChangedAt), cmp.Compare(a.UserID, b.UserID))
	})
	return past
}

// IsAdmin reports whether the user is an active admin of the room.
func (q *QueryService) IsAdmin(roomID domain.RoomID, userID domain.UserID) bool {
	room, ok := q.rooms.Room(roomID)
	if !ok {
		return false
	}
	rec, ok := room.Member(userID)
	return ok && rec.Current.IsActive() && rec.Current.Role == domain.RoleAdmin
}

// PinnedMessages returns pinned messages the viewer can see, oldest pin first.
func (q *QueryService) PinnedMessages(roomID domain.RoomID, viewerID domain.UserID) []domain.Message {
	room, ok := q.rooms.Room(roomID)
	if !ok {
		return nil
	}
	var pinned []domain.Message
	for _, pin := range room.Pins() {
		if !pin.Pinned {
			continue
		}
		if m, ok := room.Message(pin.MessageID); ok && m.VisibleTo(viewerID) {
			pinned = append(pinned, m)
		}
	}
	return pinned
}

// TypingUsers returns who is typing right now, the viewer excepted.
func (q *QueryService) TypingUsers(roomID domain.RoomID, viewerID domain.UserID) []domain.UserID {
	room, ok := q.rooms.Room(roomID)
	if !ok {
		return nil
	}
	now := q.clock.Now()
	return lo.FilterMap(room.Typing(), func(t domain.Typing, _ int) (domain.UserID, bool) {
		return t.UserID, t.Typing && t.UserID != viewerID && !t.Expired(now, q.typingTTL)
	})
}

// ReactionSummary groups the current reactions of a message by emoji.
func (q *QueryService) ReactionSummary(roomID domain.RoomID, messageID domain.MessageID) []ReactionCount {
	room, ok := q.rooms.Room(roomID)
	if !ok {
		return nil
	}
	m, ok := room.Message(messageID)
	if !ok || !m.Created || m.DeletedForEveryone {
		return nil
	}
	return reactionCounts(m)
}

func reactionCounts(m domain.Message) []ReactionCount {
	byEmoji := make(map[string][]domain.UserID)
	for user, r := range m.Reactions {
		if r.Emoji == "" {
			continue
		}
		byEmoji[r.Emoji] = append(byEmoji[r.Emoji], user)
	}
	counts := lo.MapToSlice(byEmoji, func(emoji string, users []domain.UserID) ReactionCount {
		slices.Sort(users)
		return ReactionCount{Emoji: emoji, Count: len(users), Users: users}
	})
	slices.SortFunc(counts, func(a, b ReactionCount) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Emoji, b.Emoji))
	})
	return counts
}

// Search returns the visible messages matching terms, best match first.
// Only the index may fail; without an index nothing is found.
func (q *QueryService) Search(ctx context.Context, roomID domain.RoomID, viewerID domain.UserID, terms string, limit int) ([]domain.Message, error) {
	if q.searcher == nil {
		return nil, nil
	}
	room, ok := q.rooms.Room(roomID)
	if !ok {
		return nil, nil
	}
	ids, err := q.searcher.Search(ctx, roomID, terms, limit)
	if err != nil {
		return nil, err
	}
	return lo.FilterMap(ids, func(id domain.MessageID, _ int) (domain.Message, bool) {
		m, ok := room.Message(id)
		return m, ok && m.VisibleTo(viewerID)
	}), nil
}
