package models

import "time"

// Message represents a direct message between two users. A conversation
// is the derived, unordered pair of sender and recipient, not a stored entity.
type Message struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	SenderID    string    `json:"sender_id" gorm:"type:varchar(32);index;index:idx_messages_conversation,priority:1;not null"`
	RecipientID string    `json:"recipient_id" gorm:"type:varchar(32);index;index:idx_messages_conversation,priority:2;not null"`
	Content     string    `json:"content" gorm:"type:text;not null"`
	IsRead      bool      `json:"is_read" gorm:"default:false"`
	CreatedAt   time.Time `json:"created_at" gorm:"index;index:idx_messages_conversation,priority:3"`

	Sender    *User `json:"-" gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE"`
	Recipient *User `json:"-" gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE"`
}

// SendMessageRequest defines the request body for sending a message
type SendMessageRequest struct {
	RecipientID string `json:"recipient_id" validate:"required"`
	Content     string `json:"content" validate:"required,min=1,max=2000"`
}

// ConversationSummary aggregates one counterpart's thread for the conversation list
type ConversationSummary struct {
	OtherUserID    string    `json:"other_user_id"`
	OtherUserEmail string    `json:"other_user_email"`
	LastMessage    string    `json:"last_message"`
	LastMessageAt  time.Time `json:"last_message_at"`
	UnreadCount    int64     `json:"unread_count"`
}
