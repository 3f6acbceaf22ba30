package repositories

import (
	"chat-sync/domain"
	"chat-sync/projection"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

const projectionPrefix = "proj:"

// ProjectionRepository persists room snapshots in BadgerDB, one key per room.
type ProjectionRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewProjectionRepository(db *badger.DB, log *slog.Logger) ProjectionRepository {
	return ProjectionRepository{db: db, log: log}
}

func projectionKey(roomID domain.RoomID) []byte {
	return []byte(projectionPrefix + string(roomID))
}

// Load returns the last saved snapshot of a room, or nil when none exists.
func (p ProjectionRepository) Load(ctx context.Context, roomID domain.RoomID) (*projection.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var snapshot *projection.Snapshot
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(projectionKey(roomID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			var s projection.Snapshot
			if err := json.Unmarshal(value, &s); err != nil {
				return fmt.Errorf("decode snapshot of %s: %w", roomID, err)
			}
			snapshot = &s
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Save overwrites the snapshot of a room.
func (p ProjectionRepository) Save(ctx context.Context, roomID domain.RoomID, snapshot projection.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bytes, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot of %s: %w", roomID, err)
	}
	err = p.db.Update(func(txn *badger.Txn) error {
		return txn.Set(projectionKey(roomID), bytes)
	})
	if err != nil {
		return err
	}
	p.log.Debug("Projection saved", "room", roomID, "version", snapshot.Version, "bytes", len(bytes))
	return nil
}

func (p ProjectionRepository) Delete(roomID domain.RoomID) error {
	return p.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(projectionKey(roomID))
	})
}

// Rooms lists the rooms having a saved snapshot, in key order.
func (p ProjectionRepository) Rooms() ([]domain.RoomID, error) {
	var rooms []domain.RoomID
	err := p.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte(projectionPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			rooms = append(rooms, domain.RoomID(strings.TrimPrefix(key, projectionPrefix)))
		}
		return nil
	})
	return rooms, err
}
