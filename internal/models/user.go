package models

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

// User represents a registered dog owner / sitter
type User struct {
	ID           string    `json:"id" gorm:"type:varchar(32);primaryKey"`
	Email        string    `json:"email" gorm:"size:254;uniqueIndex"` // Ensure email is unique across all users
	PasswordHash string    `json:"-" gorm:"size:255"`                 // Store hashed password, ignore for JSON serialization
	FCMToken     string    `json:"-" gorm:"size:255"`                 // Device token for push notifications, empty when none registered
	CreatedAt    time.Time `json:"created_at"`
}

// BeforeCreate assigns a random URL-safe identifier so user IDs are not enumerable.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		buf := make([]byte, 16)
		if _, err := rand.Read(buf); err != nil {
			return err
		}
		u.ID = base64.RawURLEncoding.EncodeToString(buf)
	}
	return nil
}

// RegisterRequest defines the request body for local registration
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest defines the request body for local login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateFCMTokenRequest defines the request body for registering a device push token
type UpdateFCMTokenRequest struct {
	FCMToken string `json:"fcm_token" validate:"required"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
