package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/benj-n/regami/internal/models"
	"github.com/benj-n/regami/internal/repositories"
	"github.com/benj-n/regami/internal/ws"
	"github.com/benj-n/regami/pkg/apperrors"
)

const messagePreviewLen = 100

// MessageService implements direct messaging between users: persistence,
// conversation aggregation, read-state tracking, and live delivery via the
// notification fan-out.
type MessageService struct {
	messages repositories.MessageRepository
	users    repositories.UserRepository
	push     PushSink
	realtime Realtime
}

// NewMessageService wires the messaging subsystem with its store and sinks.
func NewMessageService(
	messages repositories.MessageRepository,
	users repositories.UserRepository,
	pushSink PushSink,
	realtime Realtime,
) *MessageService {
	if pushSink == nil {
		pushSink = NoopPushSink()
	}
	if realtime == nil {
		realtime = NoopRealtime()
	}
	return &MessageService{
		messages: messages,
		users:    users,
		push:     pushSink,
		realtime: realtime,
	}
}

// Send persists a message and delivers a new_message event plus a push
// notification to the recipient. Persistence precedes fan-out dispatch, so
// per-pair delivery follows insertion order.
func (s *MessageService) Send(ctx context.Context, sender *models.User, recipientID, content string) (*models.Message, error) {
	if recipientID == sender.ID {
		return nil, apperrors.ErrSelfMessage
	}
	recipient, err := s.users.GetUserByID(recipientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRecipientNotFound
		}
		return nil, err
	}

	message := &models.Message{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
		Content:     content,
	}
	if err := s.messages.CreateMessage(message); err != nil {
		return nil, err
	}

	preview := truncate(content, messagePreviewLen)
	s.realtime.SendToUser(recipient.ID, ws.NewEvent(ws.EventNewMessage, map[string]interface{}{
		"message_id":   message.ID,
		"sender_id":    sender.ID,
		"sender_email": sender.Email,
		"content":      preview,
		"created_at":   message.CreatedAt,
	}))

	senderName := sender.Email
	if at := strings.IndexByte(senderName, '@'); at > 0 {
		senderName = senderName[:at]
	}
	s.push.Notify(ctx, recipient,
		"Nouveau message de "+senderName,
		preview,
		map[string]string{"type": ws.EventNewMessage, "sender_id": sender.ID, "deep_link": "/messages"})

	return message, nil
}

// ListConversations returns one summary per counterpart the user has
// exchanged messages with, sorted by most recent message first.
func (s *MessageService) ListConversations(userID string) ([]models.ConversationSummary, error) {
	rows, err := s.messages.ListConversations(userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ConversationSummary, 0, len(rows))
	for _, row := range rows {
		other, err := s.users.GetUserByID(row.OtherUserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		summaries = append(summaries, models.ConversationSummary{
			OtherUserID:    row.OtherUserID,
			OtherUserEmail: other.Email,
			LastMessage:    truncate(row.LastMessage.Content, messagePreviewLen),
			LastMessageAt:  row.LastMessage.CreatedAt,
			UnreadCount:    row.UnreadCount,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastMessageAt.After(summaries[j].LastMessageAt)
	})
	return summaries, nil
}

// GetThread returns the paginated messages between the user and the
// counterpart, newest first, and marks every unread message from the
// counterpart as read.
func (s *MessageService) GetThread(userID, otherUserID string, page, pageSize int) ([]models.Message, error) {
	if _, err := s.users.GetUserByID(otherUserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}

	thread, err := s.messages.ListThread(userID, otherUserID, page, pageSize)
	if err != nil {
		return nil, err
	}

	if err := s.messages.MarkThreadRead(userID, otherUserID); err != nil {
		return nil, err
	}
	return thread, nil
}

// MarkRead sets the read flag on a single message the user received.
func (s *MessageService) MarkRead(userID string, messageID uint) (*models.Message, error) {
	message, err := s.messages.GetMessageByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMessageNotFound
		}
		return nil, err
	}
	if message.RecipientID != userID {
		return nil, apperrors.ErrNotRecipient
	}

	if err := s.messages.MarkMessageRead(messageID); err != nil {
		return nil, err
	}
	message.IsRead = true
	return message, nil
}

// truncate cuts on rune boundaries so a multi-byte character is never split.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
