package sink

import (
	"chat-sync/domain"
	"chat-sync/domain/event"
	"chat-sync/services"
	"context"
	"slices"
	"sync"
)

// Timeline holds the rendered timeline of one viewer, refreshed only when a
// delta touches the messages of a room.
type Timeline struct {
	mu      sync.RWMutex
	viewer  domain.UserID
	query   *services.QueryService
	rows    map[domain.RoomID][]services.MessageView
	unread  map[domain.RoomID]int
	version map[domain.RoomID]uint64
}

func NewTimeline(viewer domain.UserID, query *services.QueryService) *Timeline {
	return &Timeline{
		viewer:  viewer,
		query:   query,
		rows:    make(map[domain.RoomID][]services.MessageView),
		unread:  make(map[domain.RoomID]int),
		version: make(map[domain.RoomID]uint64),
	}
}

func (t *Timeline) Consume(_ context.Context, d event.Delta) error {
	if len(d.Messages) == 0 {
		return nil
	}
	rows := t.query.Timeline(d.Room, t.viewer)
	unread := t.query.UnreadCount(d.Room, t.viewer)

	t.mu.Lock()
	defer t.mu.Unlock()
	// a late delta must not overwrite a newer render
	if d.Version < t.version[d.Room] {
		return nil
	}
	t.version[d.Room] = d.Version
	t.rows[d.Room] = rows
	t.unread[d.Room] = unread
	return nil
}

func (t *Timeline) Rows(roomID domain.RoomID) []services.MessageView {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.rows[roomID])
}

func (t *Timeline) Unread(roomID domain.RoomID) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.unread[roomID]
}
