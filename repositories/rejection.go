package repositories

import (
	"chat-sync/domain"
	"chat-sync/domain/event"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

const rejectionPrefix = "rej:"

// RejectionRepository keeps an audit log of mutations refused as unauthorized.
type RejectionRepository struct {
	db    *badger.DB
	log   *slog.Logger
	limit *int
}

func NewRejectionRepository(db *badger.DB, log *slog.Logger, limit *int) RejectionRepository {
	return RejectionRepository{db: db, log: log, limit: limit}
}

type DiskRejection struct {
	EventID string           `json:"event_id"`
	Room    domain.RoomID    `json:"room_id"`
	Kind    event.Kind       `json:"kind"`
	Actor   domain.UserID    `json:"actor_id"`
	At      domain.Timestamp `json:"timestamp"`
	Reason  string           `json:"reason"`
}

// rejectionRoomPrefix is "rej:{len(room_id)}:{room_id}:". The length keeps
// the prefix of room "a" from matching the keys of room "a:b".
func rejectionRoomPrefix(roomID domain.RoomID) string {
	return fmt.Sprintf("%s%d:%s:", rejectionPrefix, len(roomID), roomID)
}

// RejectionRoom reads the room id back out of a rejection key.
func RejectionRoom(key string) (domain.RoomID, bool) {
	rest, ok := strings.CutPrefix(key, rejectionPrefix)
	if !ok {
		return "", false
	}
	size, rest, ok := strings.Cut(rest, ":")
	if !ok {
		return "", false
	}
	n, err := strconv.Atoi(size)
	if err != nil || n < 0 || len(rest) <= n || rest[n] != ':' {
		return "", false
	}
	return domain.RoomID(rest[:n]), true
}

// Reject persists a rejection.
// The key is formatted as "rej:{len}:{room_id}:{timestamp_padded}:{event_id}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Keep two rejections with the same timestamp apart thanks to the event id.
func (r RejectionRepository) Reject(_ context.Context, rejection event.Rejection) error {
	meta := rejection.Mutation.Metadata()
	disk := DiskRejection{
		EventID: meta.EventID,
		Room:    meta.Room,
		Kind:    event.KindOf(rejection.Mutation),
		Actor:   meta.Actor,
		At:      meta.At,
	}
	if rejection.Reason != nil {
		disk.Reason = rejection.Reason.Error()
	}
	key := fmt.Sprintf("%s%019d:%s", rejectionRoomPrefix(disk.Room), disk.At, disk.EventID)
	bytes, err := json.Marshal(disk)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// GetRejections retrieves the rejections of a room, newest first, using a
// reverse prefix scan. The returned cursor continues after the last entry.
func (r RejectionRepository) GetRejections(roomID domain.RoomID, cursor *string) ([]DiskRejection, *string, error) {
	var rejections []DiskRejection
	var lastKey string
	err := r.db.View(func(txn *badger.Txn) error {
		prefixStr := rejectionRoomPrefix(roomID)
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Past the newest possible key, then walk backwards
			seekKey = append(prefix, []byte("9999999999999999999;")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if r.limit != nil && len(rejections) == *r.limit {
				r.log.Debug(fmt.Sprintf("Maximum of %d rejections reached", *r.limit))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[prefixLen:])
			err := item.Value(func(value []byte) error {
				var d DiskRejection
				if err := json.Unmarshal(value, &d); err != nil {
					return err
				}
				rejections = append(rejections, d)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return rejections, &lastKey, nil
}
