// Package search keeps a full-text index of room messages up to date from
// projection deltas.
package search

import (
	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/domain/event"
	"context"
	"fmt"
	"log/slog"

	"github.com/blugelabs/bluge"
)

const (
	fieldRoom    = "room"
	fieldMessage = "message"
	fieldSender  = "sender"
	fieldContent = "content"
)

// Index is a DeltaSink: every changed message is re-indexed, or removed once
// it has no searchable text left.
type Index struct {
	log    *slog.Logger
	writer *bluge.Writer
	rooms  contract.RoomLookup
}

func NewIndex(log *slog.Logger, writer *bluge.Writer, rooms contract.RoomLookup) *Index {
	return &Index{log: log, writer: writer, rooms: rooms}
}

func documentID(roomID domain.RoomID, messageID domain.MessageID) string {
	return fmt.Sprintf("%s/%s", roomID, messageID)
}

func (i *Index) Consume(ctx context.Context, d event.Delta) error {
	if len(d.Messages) == 0 {
		return nil
	}
	room, ok := i.rooms.Room(d.Room)
	if !ok {
		return nil
	}
	batch := bluge.NewBatch()
	for _, id := range d.Messages {
		m, ok := room.Message(id)
		docID := documentID(d.Room, id)
		if !ok || !searchable(m) {
			batch.Delete(bluge.Identifier(docID))
			continue
		}
		batch.Update(bluge.Identifier(docID), document(docID, m))
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return i.writer.Batch(batch)
}

func searchable(m domain.Message) bool {
	return m.Created && !m.DeletedForEveryone && searchText(m.Content) != ""
}

func searchText(c domain.Content) string {
	if c.Attachment != nil {
		return c.Attachment.Name
	}
	return c.Text
}

func document(docID string, m domain.Message) *bluge.Document {
	return bluge.NewDocument(docID).
		AddField(bluge.NewKeywordField(fieldRoom, string(m.RoomID))).
		AddField(bluge.NewKeywordField(fieldMessage, string(m.ID)).StoreValue()).
		AddField(bluge.NewKeywordField(fieldSender, string(m.SenderID))).
		AddField(bluge.NewTextField(fieldContent, searchText(m.Content)))
}

// Search returns the ids of matching messages in the room, best score first.
// Per-viewer visibility is left to the caller.
func (i *Index) Search(ctx context.Context, roomID domain.RoomID, terms string, limit int) ([]domain.MessageID, error) {
	if limit <= 0 {
		limit = 20
	}
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("open index reader: %w", err)
	}
	defer func() { _ = reader.Close() }()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(string(roomID)).SetField(fieldRoom)).
		AddMust(bluge.NewMatchQuery(terms).SetField(fieldContent))
	matches, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, fmt.Errorf("search %q in %s: %w", terms, roomID, err)
	}

	var ids []domain.MessageID
	match, err := matches.Next()
	for err == nil && match != nil {
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == fieldMessage {
				ids = append(ids, domain.MessageID(value))
				return false
			}
			return true
		})
		if err != nil {
			break
		}
		match, err = matches.Next()
	}
	if err != nil {
		return nil, err
	}
	i.log.Debug("Search done", "room", roomID, "terms", terms, "hits", len(ids))
	return ids, nil
}
