// Package ingest turns raw transport mutations into typed, sequenced
// mutation records. It drops malformed events and exact re-deliveries.
package ingest

import (
	"chat-sync/domain"
	"chat-sync/domain/event"
	"chat-sync/domain/mimetypes"
	"chat-sync/errors"
	"chat-sync/moderation"
	"chat-sync/observability"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Stats are the ingest counters since start.
type Stats struct {
	Accepted   uint64
	Duplicates uint64
	Malformed  uint64
}

type Ingestor struct {
	mu        sync.Mutex
	log       *slog.Logger
	metrics   *observability.Metrics
	moderator *moderation.Moderator
	seen      *dedupSet
	seq       uint64
	stats     Stats
}

// NewIngestor remembers the last dedupCapacity event ids.
// moderator and metrics may be nil.
func NewIngestor(log *slog.Logger, dedupCapacity int,
	moderator *moderation.Moderator, metrics *observability.Metrics) *Ingestor {
	return &Ingestor{
		log:       log,
		metrics:   metrics,
		moderator: moderator,
		seen:      newDedupSet(dedupCapacity),
	}
}

// Ingest validates raw and returns its typed form tagged with the next
// arrival sequence. An exact re-delivery returns (nil, nil).
func (i *Ingestor) Ingest(raw event.RawMutation) (event.Mutation, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := validate.Struct(raw); err != nil {
		return nil, i.reject(raw, errors.Malformed(raw.EventID, "%v", err))
	}
	if i.seen.contains(raw.EventID) {
		i.stats.Duplicates++
		i.metrics.IncDuplicate()
		i.log.Debug("Duplicate mutation dropped", "event_id", raw.EventID)
		return nil, nil
	}

	meta := event.Meta{
		EventID: raw.EventID,
		Room:    domain.RoomID(raw.RoomID),
		Actor:   domain.UserID(raw.ActorID),
		At:      domain.Timestamp(raw.Timestamp),
		Seq:     i.seq + 1,
	}
	m, err := i.normalize(meta, raw)
	if err != nil {
		return nil, i.reject(raw, err)
	}
	if err := validate.Struct(m); err != nil {
		return nil, i.reject(raw, errors.Malformed(raw.EventID, "%v", err))
	}

	// Only accepted events consume a sequence number and a dedup slot, so a
	// corrected re-send of a malformed event is not mistaken for a duplicate.
	i.seq++
	i.seen.add(raw.EventID)
	i.stats.Accepted++
	i.metrics.IncIngested(string(raw.Kind))
	return m, nil
}

// Forget undoes the acceptance of m when it could not be handed over, so a
// later re-delivery of the same event is accepted instead of being dropped
// as a duplicate. Its sequence number is not reused.
func (i *Ingestor) Forget(m event.Mutation) {
	i.mu.Lock()
	defer i.mu.Unlock()
	eventID := m.Metadata().EventID
	if !i.seen.contains(eventID) {
		return
	}
	i.seen.remove(eventID)
	i.stats.Accepted--
	i.log.Debug("Mutation forgotten", "event_id", eventID)
}

func (i *Ingestor) Stats() Stats {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.stats
}

func (i *Ingestor) reject(raw event.RawMutation, err error) error {
	i.stats.Malformed++
	i.metrics.IncMalformed()
	i.log.Warn("Malformed mutation dropped", "event_id", raw.EventID, "kind", raw.Kind, "error", err)
	return err
}

func (i *Ingestor) normalize(meta event.Meta, raw event.RawMutation) (event.Mutation, error) {
	msgID := domain.MessageID(raw.MessageID)
	switch raw.Kind {
	case event.KindMessageCreated:
		content, err := i.content(raw)
		if err != nil {
			return nil, err
		}
		return event.MessageCreated{Meta: meta, MessageID: msgID, Content: content, ReplyTo: domain.MessageID(raw.ReplyTo)}, nil
	case event.KindMessageEdited:
		content, err := i.content(raw)
		if err != nil {
			return nil, err
		}
		return event.MessageEdited{Meta: meta, MessageID: msgID, Content: content}, nil
	case event.KindReceiptUpdated:
		return event.ReceiptUpdated{Meta: meta, MessageID: msgID, Receipt: event.ReceiptKind(raw.Receipt)}, nil
	case event.KindDeleteRequested:
		return event.DeleteRequested{Meta: meta, MessageID: msgID, ForEveryone: raw.ForEveryone}, nil
	case event.KindReactionChanged:
		return event.ReactionChanged{Meta: meta, MessageID: msgID, Emoji: raw.Emoji}, nil
	case event.KindMemberChanged:
		return event.MemberChanged{
			Meta:     meta,
			TargetID: domain.UserID(raw.TargetID),
			Change:   event.MemberChange(raw.Change),
			Role:     domain.Role(raw.Role),
		}, nil
	case event.KindPinChanged:
		if raw.Pinned == nil {
			return nil, errors.Malformed(raw.EventID, "pin change without pinned flag")
		}
		return event.PinChanged{Meta: meta, MessageID: msgID, Pinned: *raw.Pinned}, nil
	case event.KindTypingChanged:
		if raw.Typing == nil {
			return nil, errors.Malformed(raw.EventID, "typing change without typing flag")
		}
		return event.TypingChanged{Meta: meta, Typing: *raw.Typing}, nil
	default:
		return nil, errors.Malformed(raw.EventID, "unknown kind %q", raw.Kind)
	}
}

// content enforces the text/attachment exclusivity.
func (i *Ingestor) content(raw event.RawMutation) (domain.Content, error) {
	switch {
	case raw.Attachment != nil && raw.Text != "":
		return domain.Content{}, errors.Malformed(raw.EventID, "text and attachment are exclusive")
	case raw.Attachment != nil:
		if err := validate.Struct(raw.Attachment); err != nil {
			return domain.Content{}, errors.Malformed(raw.EventID, "%v", err)
		}
		mt, kind, err := mimetypes.Classify(raw.Attachment.MIME)
		if err != nil {
			return domain.Content{}, errors.Malformed(raw.EventID, "%v", err)
		}
		return domain.Content{Attachment: &domain.Attachment{
			URL:  raw.Attachment.URL,
			Name: raw.Attachment.Name,
			MIME: string(mt),
			Kind: kind,
			Size: raw.Attachment.Size,
		}}, nil
	case raw.Text != "":
		text := raw.Text
		if i.moderator != nil {
			var words []string
			text, words = i.moderator.Censor(text)
			if len(words) > 0 {
				i.log.Debug("Message censored", "event_id", raw.EventID, "words", len(words))
			}
		}
		return domain.Content{Text: text}, nil
	default:
		return domain.Content{}, errors.Malformed(raw.EventID, "empty content")
	}
}
