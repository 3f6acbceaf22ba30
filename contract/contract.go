//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-sync/domain"
	"chat-sync/domain/event"
	"chat-sync/projection"
	"context"
	"reflect"
)

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging during supervision so workers don't have to name themselves.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// DeltaSink receives what changed in a room projection after each applied mutation.
type DeltaSink interface {
	Consume(ctx context.Context, d event.Delta) error
}

// RejectionSink is told about mutations refused as unauthorized.
type RejectionSink interface {
	Reject(ctx context.Context, r event.Rejection) error
}

type IRegistry interface {
	GetSinksForRoom(roomID domain.RoomID) []DeltaSink
	Subscribe(subscriberID string, roomID domain.RoomID, sink DeltaSink)
	Unsubscribe(subscriberID string, roomID domain.RoomID)
}

// ProjectionStore is the Persistence Adapter.
// Load returns nil and no error when nothing was saved for the room.
type ProjectionStore interface {
	Load(ctx context.Context, roomID domain.RoomID) (*projection.Snapshot, error)
	Save(ctx context.Context, roomID domain.RoomID, snapshot projection.Snapshot) error
}

// MutationSource delivers raw mutations of a room, as received from the network.
type MutationSource interface {
	Subscribe(ctx context.Context, roomID domain.RoomID, onMutation func(event.RawMutation)) (Subscription, error)
}

type Subscription interface {
	Close() error
}

// RoomLookup gives read access to the projections of known rooms.
type RoomLookup interface {
	Room(roomID domain.RoomID) (*projection.Room, bool)
}
