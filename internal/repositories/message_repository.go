package repositories

import (
	"github.com/benj-n/regami/internal/models"
	"gorm.io/gorm"
)

// ConversationRow is the per-counterpart aggregate behind the conversation list
type ConversationRow struct {
	OtherUserID string
	LastMessage models.Message
	UnreadCount int64
}

// MessageRepository defines the interface for direct-message data operations
type MessageRepository interface {
	CreateMessage(message *models.Message) error
	GetMessageByID(id uint) (*models.Message, error)
	ListThread(userID, otherUserID string, page, pageSize int) ([]models.Message, error)
	MarkThreadRead(userID, otherUserID string) error
	MarkMessageRead(id uint) error
	ListConversations(userID string) ([]ConversationRow, error)
}

// PostgresMessageRepository implements MessageRepository for PostgreSQL
type PostgresMessageRepository struct {
	db *gorm.DB
}

// NewPostgresMessageRepository creates a new PostgresMessageRepository
func NewPostgresMessageRepository(db *gorm.DB) *PostgresMessageRepository {
	return &PostgresMessageRepository{db: db}
}

// CreateMessage persists a new message
func (r *PostgresMessageRepository) CreateMessage(message *models.Message) error {
	return r.db.Create(message).Error
}

// GetMessageByID retrieves a message by ID
func (r *PostgresMessageRepository) GetMessageByID(id uint) (*models.Message, error) {
	var message models.Message
	if err := r.db.First(&message, id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

// ListThread pages through the messages between the pair, newest first
// (creation timestamp, tie-broken by id).
func (r *PostgresMessageRepository) ListThread(userID, otherUserID string, page, pageSize int) ([]models.Message, error) {
	page, pageSize = normalizePage(page, pageSize)
	var messages []models.Message
	err := r.db.
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userID, otherUserID, otherUserID, userID).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&messages).Error
	return messages, err
}

// MarkThreadRead marks as read every unread message sent by otherUserID to userID
func (r *PostgresMessageRepository) MarkThreadRead(userID, otherUserID string) error {
	return r.db.Model(&models.Message{}).
		Where("sender_id = ? AND recipient_id = ? AND is_read = false", otherUserID, userID).
		Update("is_read", true).Error
}

// MarkMessageRead sets the read flag on a single message
func (r *PostgresMessageRepository) MarkMessageRead(id uint) error {
	return r.db.Model(&models.Message{}).Where("id = ?", id).Update("is_read", true).Error
}

// ListConversations discovers the distinct counterparts the user has
// exchanged messages with, each with its most recent message and the count
// of unread messages sent by the counterpart to the user.
func (r *PostgresMessageRepository) ListConversations(userID string) ([]ConversationRow, error) {
	var counterparts []string
	err := r.db.Raw(
		`SELECT DISTINCT CASE WHEN sender_id = ? THEN recipient_id ELSE sender_id END
		 FROM messages WHERE sender_id = ? OR recipient_id = ?`,
		userID, userID, userID,
	).Scan(&counterparts).Error
	if err != nil {
		return nil, err
	}

	rows := make([]ConversationRow, 0, len(counterparts))
	for _, otherID := range counterparts {
		var last models.Message
		err := r.db.
			Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
				userID, otherID, otherID, userID).
			Order("created_at DESC, id DESC").
			First(&last).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				continue
			}
			return nil, err
		}

		var unread int64
		err = r.db.Model(&models.Message{}).
			Where("sender_id = ? AND recipient_id = ? AND is_read = false", otherID, userID).
			Count(&unread).Error
		if err != nil {
			return nil, err
		}

		rows = append(rows, ConversationRow{
			OtherUserID: otherID,
			LastMessage: last,
			UnreadCount: unread,
		})
	}
	return rows, nil
}
