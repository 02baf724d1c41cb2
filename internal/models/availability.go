package models

import "time"

// AvailabilityOffer represents a time window during which a user can care for a dog
type AvailabilityOffer struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"type:varchar(32);index;not null"`
	StartAt   time.Time `json:"start_at" gorm:"not null"`
	EndAt     time.Time `json:"end_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// AvailabilityRequest represents a time window during which a user needs dog care
type AvailabilityRequest struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"type:varchar(32);index;not null"`
	StartAt   time.Time `json:"start_at" gorm:"not null"`
	EndAt     time.Time `json:"end_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// SlotRequest defines the request body for creating an offer or a request
type SlotRequest struct {
	StartAt time.Time `json:"start_at" validate:"required"`
	EndAt   time.Time `json:"end_at" validate:"required"`
}

// SlotSearchQuery defines the query parameters for searching offers or requests
type SlotSearchQuery struct {
	StartDate   *time.Time `query:"start_date"`
	EndDate     *time.Time `query:"end_date"`
	ExcludeMine bool       `query:"exclude_mine"`
	Page        int        `query:"page"`
	PageSize    int        `query:"page_size"`
	Sort        string     `query:"sort"`
}
