package repositories

import (
	"strings"
	"time"

	"github.com/benj-n/regami/internal/models"
	"github.com/benj-n/regami/pkg/apperrors"
	"gorm.io/gorm"
)

// SlotPage is one page of offers or requests plus the total count
type SlotPage[T any] struct {
	Items    []T
	Total    int64
	Page     int
	PageSize int
}

// SlotSearchFilter narrows a search over other users' offers or requests
type SlotSearchFilter struct {
	StartDate   *time.Time
	EndDate     *time.Time
	ExcludeUser string // exclude this user's own rows when set
	Page        int
	PageSize    int
	Sort        string // start_at, end_at or created_at, "-" prefix for descending
}

// AvailabilityRepository defines the interface for offer/request data operations
type AvailabilityRepository interface {
	CreateOffer(offer *models.AvailabilityOffer) error
	CreateRequest(request *models.AvailabilityRequest) error
	GetOfferByID(id uint) (*models.AvailabilityOffer, error)
	GetRequestByID(id uint) (*models.AvailabilityRequest, error)
	DeleteOffer(id uint, userID string) (bool, error)
	DeleteRequest(id uint, userID string) (bool, error)
	OfferOverlaps(userID string, startAt, endAt time.Time) (bool, error)
	RequestOverlaps(userID string, startAt, endAt time.Time) (bool, error)
	FindCompatibleRequests(offer *models.AvailabilityOffer) ([]models.AvailabilityRequest, error)
	FindCompatibleOffers(request *models.AvailabilityRequest) ([]models.AvailabilityOffer, error)
	ListUserOffers(userID string, page, pageSize int, sortDesc bool) (*SlotPage[models.AvailabilityOffer], error)
	ListUserRequests(userID string, page, pageSize int, sortDesc bool) (*SlotPage[models.AvailabilityRequest], error)
	SearchOffers(filter SlotSearchFilter) (*SlotPage[models.AvailabilityOffer], error)
	SearchRequests(filter SlotSearchFilter) (*SlotPage[models.AvailabilityRequest], error)
}

// PostgresAvailabilityRepository implements AvailabilityRepository for PostgreSQL
type PostgresAvailabilityRepository struct {
	db *gorm.DB
}

// NewPostgresAvailabilityRepository creates a new PostgresAvailabilityRepository
func NewPostgresAvailabilityRepository(db *gorm.DB) *PostgresAvailabilityRepository {
	return &PostgresAvailabilityRepository{db: db}
}

// CreateOffer inserts a new availability offer
func (r *PostgresAvailabilityRepository) CreateOffer(offer *models.AvailabilityOffer) error {
	return r.db.Create(offer).Error
}

// CreateRequest inserts a new availability request
func (r *PostgresAvailabilityRepository) CreateRequest(request *models.AvailabilityRequest) error {
	return r.db.Create(request).Error
}

// GetOfferByID retrieves an offer by ID
func (r *PostgresAvailabilityRepository) GetOfferByID(id uint) (*models.AvailabilityOffer, error) {
	var offer models.AvailabilityOffer
	if err := r.db.Preload("User").First(&offer, id).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

// GetRequestByID retrieves a request by ID
func (r *PostgresAvailabilityRepository) GetRequestByID(id uint) (*models.AvailabilityRequest, error) {
	var request models.AvailabilityRequest
	if err := r.db.Preload("User").First(&request, id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// DeleteOffer removes an offer owned by the user; reports whether a row was
// deleted. An offer with a pending, accepted or confirmed match cannot be
// deleted: those matches own their own lifecycle and must be rejected first.
// Only rejected matches go with the window, via the foreign key cascade.
func (r *PostgresAvailabilityRepository) DeleteOffer(id uint, userID string) (bool, error) {
	deleted := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var owned int64
		if err := tx.Model(&models.AvailabilityOffer{}).
			Where("id = ? AND user_id = ?", id, userID).Count(&owned).Error; err != nil {
			return err
		}
		if owned == 0 {
			return nil
		}
		if err := guardSlotMatches(tx, "offer_id", id); err != nil {
			return err
		}
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.AvailabilityOffer{})
		deleted = res.RowsAffected > 0
		return res.Error
	})
	return deleted, err
}

// DeleteRequest removes a request owned by the user; reports whether a row
// was deleted. Same match guard as DeleteOffer.
func (r *PostgresAvailabilityRepository) DeleteRequest(id uint, userID string) (bool, error) {
	deleted := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var owned int64
		if err := tx.Model(&models.AvailabilityRequest{}).
			Where("id = ? AND user_id = ?", id, userID).Count(&owned).Error; err != nil {
			return err
		}
		if owned == 0 {
			return nil
		}
		if err := guardSlotMatches(tx, "request_id", id); err != nil {
			return err
		}
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.AvailabilityRequest{})
		deleted = res.RowsAffected > 0
		return res.Error
	})
	return deleted, err
}

// guardSlotMatches fails the enclosing transaction when the window still has
// a match in a state other than rejected.
func guardSlotMatches(tx *gorm.DB, column string, id uint) error {
	var count int64
	err := tx.Model(&models.Match{}).
		Where(column+" = ? AND status <> ?", id, models.MatchStatusRejected).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.ErrSlotHasMatches
	}
	return nil
}

// OfferOverlaps reports whether the user already has an offer whose window
// intersects [startAt, endAt). Two windows overlap when each starts before
// the other ends.
func (r *PostgresAvailabilityRepository) OfferOverlaps(userID string, startAt, endAt time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&models.AvailabilityOffer{}).
		Where("user_id = ? AND start_at < ? AND end_at > ?", userID, endAt, startAt).
		Count(&count).Error
	return count > 0, err
}

// RequestOverlaps reports whether the user already has a request whose window
// intersects [startAt, endAt).
func (r *PostgresAvailabilityRepository) RequestOverlaps(userID string, startAt, endAt time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&models.AvailabilityRequest{}).
		Where("user_id = ? AND start_at < ? AND end_at > ?", userID, endAt, startAt).
		Count(&count).Error
	return count > 0, err
}

// FindCompatibleRequests returns requests whose window is fully contained
// in the offer's window, excluding the offer owner's own requests. This is
// only a candidate generator: uniqueness is enforced by the locked
// match-creation protocol, not here.
func (r *PostgresAvailabilityRepository) FindCompatibleRequests(offer *models.AvailabilityOffer) ([]models.AvailabilityRequest, error) {
	var requests []models.AvailabilityRequest
	err := r.db.Preload("User").
		Where("start_at >= ? AND end_at <= ? AND user_id != ?", offer.StartAt, offer.EndAt, offer.UserID).
		Find(&requests).Error
	return requests, err
}

// FindCompatibleOffers returns offers whose window fully contains the
// request's window, excluding the requester's own offers.
func (r *PostgresAvailabilityRepository) FindCompatibleOffers(request *models.AvailabilityRequest) ([]models.AvailabilityOffer, error) {
	var offers []models.AvailabilityOffer
	err := r.db.Preload("User").
		Where("start_at <= ? AND end_at >= ? AND user_id != ?", request.StartAt, request.EndAt, request.UserID).
		Find(&offers).Error
	return offers, err
}

// ListUserOffers pages through the user's own offers sorted by start_at
func (r *PostgresAvailabilityRepository) ListUserOffers(userID string, page, pageSize int, sortDesc bool) (*SlotPage[models.AvailabilityOffer], error) {
	page, pageSize = normalizePage(page, pageSize)
	q := r.db.Model(&models.AvailabilityOffer{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.AvailabilityOffer
	err := q.Order(orderClause("start_at", sortDesc)).
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return &SlotPage[models.AvailabilityOffer]{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// ListUserRequests pages through the user's own requests sorted by start_at
func (r *PostgresAvailabilityRepository) ListUserRequests(userID string, page, pageSize int, sortDesc bool) (*SlotPage[models.AvailabilityRequest], error) {
	page, pageSize = normalizePage(page, pageSize)
	q := r.db.Model(&models.AvailabilityRequest{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.AvailabilityRequest
	err := q.Order(orderClause("start_at", sortDesc)).
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return &SlotPage[models.AvailabilityRequest]{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// SearchOffers filters other users' offers by date range with pagination and sorting
func (r *PostgresAvailabilityRepository) SearchOffers(filter SlotSearchFilter) (*SlotPage[models.AvailabilityOffer], error) {
	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	q := r.db.Model(&models.AvailabilityOffer{})
	q = applySlotFilter(q, filter)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	field, desc := parseSortField(filter.Sort)
	var items []models.AvailabilityOffer
	err := q.Order(orderClause(field, desc)).
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return &SlotPage[models.AvailabilityOffer]{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// SearchRequests filters other users' requests by date range with pagination and sorting
func (r *PostgresAvailabilityRepository) SearchRequests(filter SlotSearchFilter) (*SlotPage[models.AvailabilityRequest], error) {
	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	q := r.db.Model(&models.AvailabilityRequest{})
	q = applySlotFilter(q, filter)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	field, desc := parseSortField(filter.Sort)
	var items []models.AvailabilityRequest
	err := q.Order(orderClause(field, desc)).
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return &SlotPage[models.AvailabilityRequest]{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func applySlotFilter(q *gorm.DB, filter SlotSearchFilter) *gorm.DB {
	if filter.StartDate != nil {
		q = q.Where("start_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		q = q.Where("end_at <= ?", *filter.EndDate)
	}
	if filter.ExcludeUser != "" {
		q = q.Where("user_id != ?", filter.ExcludeUser)
	}
	return q
}

func parseSortField(sort string) (string, bool) {
	desc := strings.HasPrefix(sort, "-")
	field := strings.TrimPrefix(sort, "-")
	switch field {
	case "start_at", "end_at", "created_at":
		return field, desc
	default:
		return "start_at", true
	}
}

func orderClause(field string, desc bool) string {
	if desc {
		return field + " DESC"
	}
	return field + " ASC"
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
