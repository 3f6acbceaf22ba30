package ingest

import (
	"chat-sync/domain"
	"chat-sync/domain/event"
	"chat-sync/errors"
	"chat-sync/moderation"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func newIngestor(t *testing.T, capacity int) *Ingestor {
	t.Helper()
	return NewIngestor(logs.GetLoggerFromLevel(slog.LevelDebug), capacity, nil, nil)
}

func created(eventID, msgID, text string) event.RawMutation {
	return event.RawMutation{
		EventID:   eventID,
		Kind:      event.KindMessageCreated,
		RoomID:    "room-1",
		ActorID:   "alice",
		Timestamp: 100,
		MessageID: msgID,
		Text:      text,
	}
}

func TestIngestor_Ingest_MessageCreated(t *testing.T) {
	req := require.New(t)
	ingestor := newIngestor(t, 10)

	m, err := ingestor.Ingest(created("e1", "m1", "hello"))
	req.NoError(err)

	mc, ok := m.(event.MessageCreated)
	req.True(ok)
	req.Equal(domain.MessageID("m1"), mc.MessageID)
	req.Equal(domain.RoomID("room-1"), mc.RoomID())
	req.Equal(domain.UserID("alice"), mc.Actor)
	req.Equal("hello", mc.Content.Text)
	req.Equal(uint64(1), mc.Seq)
	req.Equal(domain.Stamp{At: 100, Seq: 1}, mc.Stamp())
}

func TestIngestor_Ingest_SequenceIsArrivalOrder(t *testing.T) {
	req := require.New(t)
	ingestor := newIngestor(t, 10)

	// Given the second event carries an older logical timestamp
	first := created("e1", "m1", "late")
	first.Timestamp = 500
	second := created("e2", "m2", "early")
	second.Timestamp = 10

	m1, err := ingestor.Ingest(first)
	req.NoError(err)
	m2, err := ingestor.Ingest(second)
	req.NoError(err)

	// Then sequence follows arrival, timestamps are untouched
	req.Equal(uint64(1), m1.Metadata().Seq)
	req.Equal(uint64(2), m2.Metadata().Seq)
	req.Equal(domain.Timestamp(10), m2.Metadata().At)
}

func TestIngestor_Ingest_DuplicateIsDroppedSilently(t *testing.T) {
	req := require.New(t)
	ingestor := newIngestor(t, 10)

	_, err := ingestor.Ingest(created("e1", "m1", "hello"))
	req.NoError(err)
	m, err := ingestor.Ingest(created("e1", "m1", "hello"))
	req.NoError(err)
	req.Nil(m)

	stats := ingestor.Stats()
	req.Equal(uint64(1), stats.Accepted)
	req.Equal(uint64(1), stats.Duplicates)
	req.Equal(uint64(0), stats.Malformed)
}

func TestIngestor_Ingest_DedupCapacityEvictsOldest(t *testing.T) {
	req := require.New(t)
	ingestor := newIngestor(t, 2)

	for _, id := range []string{"e1", "e2", "e3"} {
		_, err := ingestor.Ingest(created(id, "m-"+id, "x"))
		req.NoError(err)
	}

	// e1 was evicted, e3 is still remembered
	m, err := ingestor.Ingest(created("e1", "m-e1", "x"))
	req.NoError(err)
	req.NotNil(m)
	m, err = ingestor.Ingest(created("e3", "m-e3", "x"))
	req.NoError(err)
	req.Nil(m)
}

func TestIngestor_Forget_LetsRedeliveryThrough(t *testing.T) {
	req := require.New(t)
	ingestor := newIngestor(t, 2)

	m, err := ingestor.Ingest(created("e1", "m1", "hello"))
	req.NoError(err)
	ingestor.Forget(m)
	ingestor.Forget(m)

	again, err := ingestor.Ingest(created("e1", "m1", "hello"))
	req.NoError(err)
	req.NotNil(again)
	req.Equal(uint64(2), again.Metadata().Seq)

	// the freed slot is reused without evicting e1
	_, err = ingestor.Ingest(created("e2", "m2", "x"))
	req.NoError(err)
	dup, err := ingestor.Ingest(created("e1", "m1", "hello"))
	req.NoError(err)
	req.Nil(dup)

	stats := ingestor.Stats()
	req.Equal(uint64(2), stats.Accepted)
	req.Equal(uint64(1), stats.Duplicates)
}

func TestIngestor_Ingest_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *event.RawMutation)
	}{
		{"Missing room", func(r *event.RawMutation) { r.RoomID = "" }},
		{"Missing actor", func(r *event.RawMutation) { r.ActorID = "" }},
		{"Missing event id", func(r *event.RawMutation) { r.EventID = "" }},
		{"No timestamp", func(r *event.RawMutation) { r.Timestamp = 0 }},
		{"Unknown kind", func(r *event.RawMutation) { r.Kind = "message.exploded" }},
		{"Missing message id", func(r *event.RawMutation) { r.MessageID = "" }},
		{"Empty content", func(r *event.RawMutation) { r.Text = "" }},
		{"Text and attachment", func(r *event.RawMutation) {
			r.Attachment = &event.RawAttachment{URL: "https://cdn.example.com/a.png", MIME: "image/png"}
		}},
		{"Unknown attachment type", func(r *event.RawMutation) {
			r.Text = ""
			r.Attachment = &event.RawAttachment{URL: "https://cdn.example.com/a.bin", MIME: "application/x-nope"}
		}},
		{"Attachment without url", func(r *event.RawMutation) {
			r.Text = ""
			r.Attachment = &event.RawAttachment{MIME: "image/png"}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			ingestor := newIngestor(t, 10)
			raw := created("e1", "m1", "hello")
			tt.mutate(&raw)

			m, err := ingestor.Ingest(raw)
			req.Nil(m)
			req.True(errors.IsMalformed(err), "got %v", err)
			req.Equal(uint64(1), ingestor.Stats().Malformed)
		})
	}
}

func TestIngestor_Ingest_MalformedDoesNotPoisonDedup(t *testing.T) {
	req := require.New(t)
	ingestor := newIngestor(t, 10)

	bad := created("e1", "m1", "")
	_, err := ingestor.Ingest(bad)
	req.Error(err)

	// The corrected re-send is accepted
	m, err := ingestor.Ingest(created("e1", "m1", "fixed"))
	req.NoError(err)
	req.NotNil(m)
	req.Equal(uint64(1), m.Metadata().Seq)
}

func TestIngestor_Ingest_AllKinds(t *testing.T) {
	base := event.RawMutation{RoomID: "r", ActorID: "bob", Timestamp: 7}
	tests := []struct {
		name string
		raw  event.RawMutation
		want any
	}{
		{
			name: "Edit",
			raw:  with(base, "e1", event.KindMessageEdited, func(r *event.RawMutation) { r.MessageID = "m"; r.Text = "v2" }),
			want: event.MessageEdited{},
		},
		{
			name: "Receipt",
			raw:  with(base, "e2", event.KindReceiptUpdated, func(r *event.RawMutation) { r.MessageID = "m"; r.Receipt = "read" }),
			want: event.ReceiptUpdated{},
		},
		{
			name: "Delete",
			raw:  with(base, "e3", event.KindDeleteRequested, func(r *event.RawMutation) { r.MessageID = "m"; r.ForEveryone = true }),
			want: event.DeleteRequested{},
		},
		{
			name: "Reaction",
			raw:  with(base, "e4", event.KindReactionChanged, func(r *event.RawMutation) { r.MessageID = "m"; r.Emoji = "👍" }),
			want: event.ReactionChanged{},
		},
		{
			name: "Member",
			raw: with(base, "e5", event.KindMemberChanged, func(r *event.RawMutation) {
				r.TargetID = "carol"
				r.Change = "role"
				r.Role = "admin"
			}),
			want: event.MemberChanged{},
		},
		{
			name: "Pin",
			raw:  with(base, "e6", event.KindPinChanged, func(r *event.RawMutation) { r.MessageID = "m"; r.Pinned = lo.ToPtr(true) }),
			want: event.PinChanged{},
		},
		{
			name: "Typing",
			raw:  with(base, "e7", event.KindTypingChanged, func(r *event.RawMutation) { r.Typing = lo.ToPtr(true) }),
			want: event.TypingChanged{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			m, err := newIngestor(t, 10).Ingest(tt.raw)
			req.NoError(err)
			req.IsType(tt.want, m)
		})
	}
}

func TestIngestor_Ingest_InvalidKindSpecificFields(t *testing.T) {
	base := event.RawMutation{RoomID: "r", ActorID: "bob", Timestamp: 7}
	tests := []struct {
		name string
		raw  event.RawMutation
	}{
		{"Receipt kind", with(base, "e1", event.KindReceiptUpdated, func(r *event.RawMutation) { r.MessageID = "m"; r.Receipt = "seen" })},
		{"Member change", with(base, "e2", event.KindMemberChanged, func(r *event.RawMutation) { r.TargetID = "c"; r.Change = "ban" })},
		{"Member role", with(base, "e3", event.KindMemberChanged, func(r *event.RawMutation) { r.TargetID = "c"; r.Change = "role"; r.Role = "owner" })},
		{"Pin flag", with(base, "e4", event.KindPinChanged, func(r *event.RawMutation) { r.MessageID = "m" })},
		{"Typing flag", with(base, "e5", event.KindTypingChanged, func(r *event.RawMutation) {})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newIngestor(t, 10).Ingest(tt.raw)
			require.True(t, errors.IsMalformed(err), "got %v", err)
		})
	}
}

func TestIngestor_Ingest_AttachmentIsClassified(t *testing.T) {
	req := require.New(t)
	raw := created("e1", "m1", "")
	raw.Attachment = &event.RawAttachment{URL: "https://cdn.example.com/voice.mp3", MIME: "audio/mpeg", Size: 2048}

	m, err := newIngestor(t, 10).Ingest(raw)
	req.NoError(err)

	att := m.(event.MessageCreated).Content.Attachment
	req.NotNil(att)
	req.Equal(domain.AttachmentAudio, att.Kind)
	req.Equal("audio/mpeg", att.MIME)
}

func TestIngestor_Ingest_TextIsCensored(t *testing.T) {
	req := require.New(t)
	mod, err := moderation.NewModerator([]string{"badger"}, '*')
	req.NoError(err)
	ingestor := NewIngestor(slog.Default(), 10, mod, nil)

	m, err := ingestor.Ingest(created("e1", "m1", "hello badger"))
	req.NoError(err)
	req.Equal("hello ******", m.(event.MessageCreated).Content.Text)
}

func with(base event.RawMutation, id string, kind event.Kind, fn func(r *event.RawMutation)) event.RawMutation {
	r := base
	r.EventID = id
	r.Kind = kind
	fn(&r)
	return r
}
