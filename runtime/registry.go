package runtime

import (
	"chat-sync/contract"
	"chat-sync/domain"
	"sync"
)

type Set map[string]struct{}

// Registry keeps the delta subscribers (UI collaborators) of each room.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]contract.DeltaSink // map subscriber -> Sink
	subscribers map[domain.RoomID]Set         // map room to subscribers
	rooms       map[string]int                // rooms followed per subscriber
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:    make(map[string]contract.DeltaSink),
		subscribers: make(map[domain.RoomID]Set),
		rooms:       make(map[string]int),
	}
}

// GetSinksForRoom retrieves the sinks following a room.
// A subscriber following several rooms owns a single sink, resolved from
// the sessions map. Returns nil if nobody follows the room.
func (r *Registry) GetSinksForRoom(roomID domain.RoomID) []contract.DeltaSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.subscribers[roomID]
	if !ok {
		return nil
	}
	var activeSinks []contract.DeltaSink
	for subscriberID := range members {
		if sink, exists := r.sessions[subscriberID]; exists {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}

// Subscribe registers the sink of a subscriber and attaches it to a room.
// Subscribing again with another sink replaces it for every followed room.
func (r *Registry) Subscribe(subscriberID string, roomID domain.RoomID, sink contract.DeltaSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[subscriberID] = sink

	if _, ok := r.subscribers[roomID]; !ok {
		r.subscribers[roomID] = make(Set)
	}
	if _, ok := r.subscribers[roomID][subscriberID]; !ok {
		r.subscribers[roomID][subscriberID] = struct{}{}
		r.rooms[subscriberID]++
	}
}

// Unsubscribe detaches a subscriber from a room. Its sink is forgotten once
// it follows no room, and empty rooms are removed.
func (r *Registry) Unsubscribe(subscriberID string, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.subscribers[roomID]
	if !ok {
		return
	}
	if _, ok := members[subscriberID]; !ok {
		return
	}
	delete(members, subscriberID)
	if len(members) == 0 {
		delete(r.subscribers, roomID)
	}

	r.rooms[subscriberID]--
	if r.rooms[subscriberID] <= 0 {
		delete(r.rooms, subscriberID)
		delete(r.sessions, subscriberID)
	}
}
