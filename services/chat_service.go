package services

import (
	"chat-sync/domain"
	"chat-sync/domain/event"
	"context"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Submitter feeds a raw mutation into the same pipeline as remote ones.
type Submitter interface {
	Submit(ctx context.Context, raw event.RawMutation) error
}

// ChatService turns the local user's actions into mutations stamped with
// the hybrid clock and a fresh event id.
type ChatService struct {
	submitter Submitter
	identity  domain.Identity
	clock     *domain.HybridClock
	query     *QueryService
}

func NewChatService(submitter Submitter, identity domain.Identity, clock *domain.HybridClock, query *QueryService) *ChatService {
	return &ChatService{submitter: submitter, identity: identity, clock: clock, query: query}
}

func (s *ChatService) raw(kind event.Kind, roomID domain.RoomID) event.RawMutation {
	return event.RawMutation{
		EventID:   uuid.NewString(),
		Kind:      kind,
		RoomID:    string(roomID),
		ActorID:   string(s.identity.CurrentUserID()),
		Timestamp: int64(s.clock.Tick()),
	}
}

func (s *ChatService) SendText(ctx context.Context, roomID domain.RoomID, text string, replyTo domain.MessageID) (domain.MessageID, error) {
	raw := s.raw(event.KindMessageCreated, roomID)
	raw.MessageID = uuid.NewString()
	raw.Text = text
	raw.ReplyTo = string(replyTo)
	return domain.MessageID(raw.MessageID), s.submitter.Submit(ctx, raw)
}

func (s *ChatService) SendAttachment(ctx context.Context, roomID domain.RoomID, attachment event.RawAttachment, replyTo domain.MessageID) (domain.MessageID, error) {
	raw := s.raw(event.KindMessageCreated, roomID)
	raw.MessageID = uuid.NewString()
	raw.Attachment = &attachment
	raw.ReplyTo = string(replyTo)
	return domain.MessageID(raw.MessageID), s.submitter.Submit(ctx, raw)
}

func (s *ChatService) Edit(ctx context.Context, roomID domain.RoomID, messageID domain.MessageID, text string) error {
	raw := s.raw(event.KindMessageEdited, roomID)
	raw.MessageID = string(messageID)
	raw.Text = text
	return s.submitter.Submit(ctx, raw)
}

func (s *ChatService) Delete(ctx context.Context, roomID domain.RoomID, messageID domain.MessageID, forEveryone bool) error {
	raw := s.raw(event.KindDeleteRequested, roomID)
	raw.MessageID = string(messageID)
	raw.ForEveryone = forEveryone
	return s.submitter.Submit(ctx, raw)
}

// React sets the user's reaction; an empty emoji removes it.
func (s *ChatService) React(ctx context.Context, roomID domain.RoomID, messageID domain.MessageID, emoji string) error {
	raw := s.raw(event.KindReactionChanged, roomID)
	raw.MessageID = string(messageID)
	raw.Emoji = emoji
	return s.submitter.Submit(ctx, raw)
}

func (s *ChatService) MarkDelivered(ctx context.Context, roomID domain.RoomID, messageID domain.MessageID) error {
	return s.receipt(ctx, roomID, messageID, event.ReceiptDelivered)
}

func (s *ChatService) MarkRead(ctx context.Context, roomID domain.RoomID, messageID domain.MessageID) error {
	return s.receipt(ctx, roomID, messageID, event.ReceiptRead)
}

func (s *ChatService) receipt(ctx context.Context, roomID domain.RoomID, messageID domain.MessageID, kind event.ReceiptKind) error {
	raw := s.raw(event.KindReceiptUpdated, roomID)
	raw.MessageID = string(messageID)
	raw.Receipt = string(kind)
	return s.submitter.Submit(ctx, raw)
}

// MarkRoomRead sends a read receipt for every unread message of the room and
// returns how many were sent.
func (s *ChatService) MarkRoomRead(ctx context.Context, roomID domain.RoomID) (int, error) {
	unread := s.query.UnreadMessages(roomID, s.identity.CurrentUserID())
	for i, m := range unread {
		if err := s.MarkRead(ctx, roomID, m.ID); err != nil {
			return i, err
		}
	}
	return len(unread), nil
}

func (s *ChatService) Pin(ctx context.Context, roomID domain.RoomID, messageID domain.MessageID, pinned bool) error {
	raw := s.raw(event.KindPinChanged, roomID)
	raw.MessageID = string(messageID)
	raw.Pinned = lo.ToPtr(pinned)
	return s.submitter.Submit(ctx, raw)
}

func (s *ChatService) SetTyping(ctx context.Context, roomID domain.RoomID, typing bool) error {
	raw := s.raw(event.KindTypingChanged, roomID)
	raw.Typing = lo.ToPtr(typing)
	return s.submitter.Submit(ctx, raw)
}

func (s *ChatService) Join(ctx context.Context, roomID domain.RoomID) error {
	return s.member(ctx, roomID, s.identity.CurrentUserID(), event.MemberJoin, "")
}

func (s *ChatService) Leave(ctx context.Context, roomID domain.RoomID) error {
	return s.member(ctx, roomID, s.identity.CurrentUserID(), event.MemberLeave, "")
}

func (s *ChatService) AddMember(ctx context.Context, roomID domain.RoomID, userID domain.UserID, role domain.Role) error {
	return s.member(ctx, roomID, userID, event.MemberAdd, role)
}

func (s *ChatService) RemoveMember(ctx context.Context, roomID domain.RoomID, userID domain.UserID) error {
	return s.member(ctx, roomID, userID, event.MemberRemove, "")
}

func (s *ChatService) SetRole(ctx context.Context, roomID domain.RoomID, userID domain.UserID, role domain.Role) error {
	return s.member(ctx, roomID, userID, event.MemberRole, role)
}

func (s *ChatService) member(ctx context.Context, roomID domain.RoomID, target domain.UserID, change event.MemberChange, role domain.Role) error {
	raw := s.raw(event.KindMemberChanged, roomID)
	raw.TargetID = string(target)
	raw.Change = string(change)
	raw.Role = string(role)
	return s.submitter.Submit(ctx, raw)
}
