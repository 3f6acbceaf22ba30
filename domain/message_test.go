package domain

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReceipt_ReadImpliesDelivered(t *testing.T) {
	tests := []struct {
		name      string
		receipt   Receipt
		delivered Timestamp
		read      Timestamp
	}{
		{"Nothing", Receipt{}, 0, 0},
		{"Delivered only", Receipt{Delivered: 5}, 5, 0},
		{"Read without delivery", Receipt{Read: 7}, 7, 7},
		{"Read after delivery", Receipt{Delivered: 5, Read: 9}, 5, 9},
		{"Read stamped before delivery", Receipt{Delivered: 9, Read: 5}, 9, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			req.Equal(tt.delivered, tt.receipt.DeliveredAt())
			req.Equal(tt.read, tt.receipt.ReadAt())
			if tt.receipt.ReadAt() != 0 {
				req.GreaterOrEqual(tt.receipt.ReadAt(), tt.receipt.DeliveredAt())
			}
		})
	}
}

func TestMessage_Visibility(t *testing.T) {
	req := require.New(t)
	m := Message{ID: "m1", Created: true, DeletedFor: map[UserID]Timestamp{"bob": 3}}

	req.True(m.VisibleTo("alice"))
	req.False(m.VisibleTo("bob"))
	req.False(NewPendingMessage("general", "m2").VisibleTo("alice"))

	m.DeletedForEveryone = true
	req.False(m.VisibleTo("alice"))
}

func TestMessage_CloneSharesNothing(t *testing.T) {
	req := require.New(t)
	m := Message{
		ID:        "m1",
		Content:   Content{Attachment: &Attachment{Name: "a.png"}},
		Receipts:  map[UserID]Receipt{"bob": {Delivered: 1}},
		Reactions: map[UserID]Reaction{"bob": {Emoji: "👍"}},
		Pending:   []PendingWrite{{Content: Content{Attachment: &Attachment{Name: "b.png"}}}},
	}
	c := m.Clone()
	c.Receipts["carol"] = Receipt{Read: 2}
	c.Reactions["bob"] = Reaction{Emoji: "👎"}
	c.Content.Attachment.Name = "changed"
	c.Pending[0].Content.Attachment.Name = "changed"

	req.Len(m.Receipts, 1)
	req.Equal("👍", m.Reactions["bob"].Emoji)
	req.Equal("a.png", m.Content.Attachment.Name)
	req.Equal("b.png", m.Pending[0].Content.Attachment.Name)
}

func TestMessage_OrderIsTotal(t *testing.T) {
	req := require.New(t)
	messages := []Message{
		{ID: "c", SenderID: "bob", Timestamp: 2},
		{ID: "b", SenderID: "alice", Timestamp: 2},
		{ID: "a", SenderID: "alice", Timestamp: 2},
		{ID: "z", SenderID: "zed", Timestamp: 1},
	}
	sort.Slice(messages, func(i, j int) bool { return messages[i].Less(messages[j]) })

	var ids []MessageID
	for _, m := range messages {
		ids = append(ids, m.ID)
	}
	req.Equal([]MessageID{"z", "a", "b", "c"}, ids)
}

func TestTyping_Expired(t *testing.T) {
	req := require.New(t)
	typing := Typing{UserID: "alice", Typing: true, Stamp: Stamp{At: 1_000}}
	req.False(typing.Expired(time.UnixMilli(5_000), 5*time.Second))
	req.True(typing.Expired(time.UnixMilli(7_000), 5*time.Second))
}
