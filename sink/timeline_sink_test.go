package sink

import (
	"chat-sync/domain"
	"chat-sync/domain/event"
	"chat-sync/projection"
	"chat-sync/services"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type rooms map[domain.RoomID]*projection.Room

func (r rooms) Room(id domain.RoomID) (*projection.Room, bool) {
	p, ok := r[id]
	return p, ok
}

func created(id domain.MessageID, sender domain.UserID, seq uint64) event.MessageCreated {
	return event.MessageCreated{
		Meta:      event.Meta{EventID: "evt-" + string(id), Room: "general", Actor: sender, At: domain.Timestamp(seq), Seq: seq},
		MessageID: id,
		Content:   domain.Content{Text: "hello"},
	}
}

func TestTimeline_FollowsDeltas(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	room := projection.NewRoom("general", nil)
	query := services.NewQueryService(rooms{"general": room}, nil, time.Minute, nil)
	timeline := NewTimeline("bob", query)

	first, err := room.Apply(created("m1", "alice", 1))
	req.NoError(err)
	second, err := room.Apply(created("m2", "alice", 2))
	req.NoError(err)

	req.NoError(timeline.Consume(ctx, second))
	req.Len(timeline.Rows("general"), 2)
	req.Equal(2, timeline.Unread("general"))

	// an older delta delivered late is ignored
	req.NoError(timeline.Consume(ctx, first))
	req.Len(timeline.Rows("general"), 2)

	typing, err := room.Apply(event.TypingChanged{Meta: event.Meta{EventID: "t", Room: "general", Actor: "alice", At: 3, Seq: 3}, Typing: true})
	req.NoError(err)
	req.NoError(timeline.Consume(ctx, typing))
	req.Len(timeline.Rows("general"), 2)
	req.Empty(timeline.Rows("random"))
}

func TestLogSink(t *testing.T) {
	req := require.New(t)
	s := NewLogSink(logs.GetLoggerFromLevel(slog.LevelDebug))
	req.NoError(s.Consume(context.Background(), event.Delta{Room: "general", Version: 1}))
	req.NoError(s.Reject(context.Background(), event.Rejection{Mutation: created("m1", "alice", 1)}))
}
