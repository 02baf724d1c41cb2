package repositories

import (
	"github.com/benj-n/regami/internal/models"
	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateNotification(notification *models.Notification) error
	GetByUserID(userID string, unreadOnly bool, page, pageSize int) ([]models.Notification, int64, error)
	GetUnreadCount(userID string) (int64, error)
	MarkAsRead(notificationID uint, userID string) (bool, error)
	MarkAllAsRead(userID string) error
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) CreateNotification(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

func (r *postgresNotificationRepository) GetByUserID(userID string, unreadOnly bool, page, pageSize int) ([]models.Notification, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	q := r.db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = false")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []models.Notification
	err := q.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&notifications).Error

	return notifications, total, err
}

func (r *postgresNotificationRepository) GetUnreadCount(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = false", userID).
		Count(&count).Error
	return count, err
}

// MarkAsRead flips the read flag on the user's own notification; reports
// whether a row was updated (false for missing or foreign notifications).
func (r *postgresNotificationRepository) MarkAsRead(notificationID uint, userID string) (bool, error) {
	res := r.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	return res.RowsAffected > 0, res.Error
}

func (r *postgresNotificationRepository) MarkAllAsRead(userID string) error {
	return r.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = false", userID).
		Update("is_read", true).Error
}
