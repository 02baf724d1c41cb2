package models

import "time"

// Dog represents a dog profile
type Dog struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Name       string    `json:"name" gorm:"size:100;not null"`
	PhotoURL   string    `json:"photo_url,omitempty"`
	BirthMonth int       `json:"birth_month"` // 1-12
	BirthYear  int       `json:"birth_year"`
	Sex        string    `json:"sex" gorm:"size:6"` // "male" or "female"
	CreatedAt  time.Time `json:"created_at"`
}

// UserDog links a user to a dog they own or care for
type UserDog struct {
	UserID    string    `json:"user_id" gorm:"type:varchar(32);primaryKey"`
	DogID     uint      `json:"dog_id" gorm:"primaryKey"`
	IsOwner   bool      `json:"is_owner" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
}

// AgeYears computes the dog's age from its birth month and year.
func (d *Dog) AgeYears(now time.Time) int {
	age := now.Year() - d.BirthYear
	if int(now.Month()) < d.BirthMonth {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
