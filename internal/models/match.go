package models

import "time"

// MatchStatus is the state of a match in the two-way confirmation flow:
// pending → accepted → confirmed, with rejected reachable until confirmation.
type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"   // Match found, awaiting offer owner response
	MatchStatusAccepted  MatchStatus = "accepted"  // Offer owner accepted, awaiting requester confirmation
	MatchStatusConfirmed MatchStatus = "confirmed" // Both parties agreed, terminal
	MatchStatusRejected  MatchStatus = "rejected"  // Either party backed out, terminal
)

// Terminal reports whether no further transitions are possible.
func (s MatchStatus) Terminal() bool {
	return s == MatchStatusConfirmed || s == MatchStatusRejected
}

// Valid reports whether s is one of the defined statuses.
func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusPending, MatchStatusAccepted, MatchStatusConfirmed, MatchStatusRejected:
		return true
	}
	return false
}

// Match represents a proposed pairing of one offer and one request.
// The unique (offer_id, request_id) index together with the existence
// check inside the creating transaction guarantees at most one
// non-terminal match per pair.
type Match struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	OfferID   uint        `json:"offer_id" gorm:"index;uniqueIndex:idx_offer_request;not null"`
	RequestID uint        `json:"request_id" gorm:"index;uniqueIndex:idx_offer_request;not null"`
	Status    MatchStatus `json:"status" gorm:"type:varchar(20);index;default:'pending'"`

	// PendingUserID is the user whose action is currently awaited; nil once resolved.
	PendingUserID *string `json:"pending_user_id" gorm:"type:varchar(32)"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Offer   *AvailabilityOffer   `json:"-" gorm:"foreignKey:OfferID;constraint:OnDelete:CASCADE"`
	Request *AvailabilityRequest `json:"-" gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE"`
}

// MatchDetail is the API representation of a match with related window
// and counterpart data flattened in for easier display.
type MatchDetail struct {
	ID            uint        `json:"id"`
	OfferID       uint        `json:"offer_id"`
	RequestID     uint        `json:"request_id"`
	Status        MatchStatus `json:"status"`
	PendingUserID *string     `json:"pending_user_id"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`

	OfferStart      *time.Time `json:"offer_start,omitempty"`
	OfferEnd        *time.Time `json:"offer_end,omitempty"`
	RequestStart    *time.Time `json:"request_start,omitempty"`
	RequestEnd      *time.Time `json:"request_end,omitempty"`
	OfferOwnerEmail string     `json:"offer_owner_email,omitempty"`
	RequesterEmail  string     `json:"requester_email,omitempty"`
	IsMyOffer       bool       `json:"is_my_offer"`
	IsMyRequest     bool       `json:"is_my_request"`
}

// NewMatchDetail flattens a match and its preloaded offer/request into the
// API representation, marking which side belongs to the viewing user.
func NewMatchDetail(m *Match, viewerID string) MatchDetail {
	d := MatchDetail{
		ID:            m.ID,
		OfferID:       m.OfferID,
		RequestID:     m.RequestID,
		Status:        m.Status,
		PendingUserID: m.PendingUserID,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if m.Offer != nil {
		d.OfferStart = &m.Offer.StartAt
		d.OfferEnd = &m.Offer.EndAt
		d.IsMyOffer = m.Offer.UserID == viewerID
		if m.Offer.User != nil {
			d.OfferOwnerEmail = m.Offer.User.Email
		}
	}
	if m.Request != nil {
		d.RequestStart = &m.Request.StartAt
		d.RequestEnd = &m.Request.EndAt
		d.IsMyRequest = m.Request.UserID == viewerID
		if m.Request.User != nil {
			d.RequesterEmail = m.Request.User.Email
		}
	}
	return d
}
