package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/benj-n/regami/internal/models"
	"github.com/benj-n/regami/pkg/apperrors"
)

// lockNotAvailable is the SQLSTATE Postgres raises when lock_timeout expires
const lockNotAvailable = "55P03"

// MatchPage is one page of matches plus the total count
type MatchPage struct {
	Items    []models.Match
	Total    int64
	Page     int
	PageSize int
}

// MatchRepository defines the interface for match data operations. The two
// mutating operations own the transaction and row-locking protocol: callers
// supply domain decisions, the repository guarantees they execute against
// the committed state of concurrent writers.
type MatchRepository interface {
	// CreatePending runs the concurrency-safe match-creation protocol for one
	// (offer, request) pair: lock both rows, re-check for an existing
	// non-terminal match, insert PENDING otherwise. The bool reports whether a
	// new match was created (false when an existing one is returned idempotently).
	CreatePending(ctx context.Context, offer *models.AvailabilityOffer, request *models.AvailabilityRequest) (*models.Match, bool, error)

	// Transition locks the match row, loads it with its offer and request,
	// applies the domain closure and persists the mutation together with any
	// notifications the closure returns, all in one transaction. A closure
	// error rolls the transaction back untouched.
	Transition(ctx context.Context, id uint, apply func(match *models.Match) ([]models.Notification, error)) (*models.Match, error)

	GetPendingForUser(userID string, page, pageSize int) (*MatchPage, error)
	ListUserMatches(userID string, status models.MatchStatus, page, pageSize int) (*MatchPage, error)
}

// PostgresMatchRepository implements MatchRepository for PostgreSQL
type PostgresMatchRepository struct {
	db          *gorm.DB
	lockTimeout string // SET LOCAL lock_timeout value, e.g. "3000ms"
}

// NewPostgresMatchRepository creates a new PostgresMatchRepository with the
// given bound on row-lock waits.
func NewPostgresMatchRepository(db *gorm.DB, lockTimeoutMs int64) *PostgresMatchRepository {
	if lockTimeoutMs <= 0 {
		lockTimeoutMs = 3000
	}
	return &PostgresMatchRepository{
		db:          db,
		lockTimeout: fmt.Sprintf("%dms", lockTimeoutMs),
	}
}

// CreatePending creates a PENDING match for the pair unless a non-terminal
// one already exists. Locking both parent rows before the existence check
// totally orders concurrent creations targeting the same pair: the second
// transaction blocks until the first commits, then observes its match and
// returns it instead of inserting a duplicate.
func (r *PostgresMatchRepository) CreatePending(ctx context.Context, offer *models.AvailabilityOffer, request *models.AvailabilityRequest) (*models.Match, bool, error) {
	var match *models.Match
	created := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.boundLockWait(tx); err != nil {
			return err
		}

		var lockedOffer models.AvailabilityOffer
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&lockedOffer, offer.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrSlotNoLongerAvail
			}
			return err
		}
		var lockedRequest models.AvailabilityRequest
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&lockedRequest, request.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrSlotNoLongerAvail
			}
			return err
		}

		// Re-check under lock: a racing creation may have committed first.
		// The unique index on offer_id+request_id holds for every status,
		// so a terminal match blocks the pair from re-matching too.
		var existing models.Match
		err := tx.Where("offer_id = ? AND request_id = ?", offer.ID, request.ID).
			First(&existing).Error
		if err == nil {
			match = &existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		pendingUser := lockedOffer.UserID // offer owner responds first
		match = &models.Match{
			OfferID:       offer.ID,
			RequestID:     request.ID,
			Status:        models.MatchStatusPending,
			PendingUserID: &pendingUser,
		}
		if err := tx.Create(match).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, translateLockError(err)
	}
	return match, created, nil
}

// Transition applies a state-machine step under an exclusive lock on the
// match row. The lock is released by the transaction's commit or rollback,
// so the second of two concurrent callers observes the first caller's
// committed status before validating its own action.
func (r *PostgresMatchRepository) Transition(ctx context.Context, id uint, apply func(match *models.Match) ([]models.Notification, error)) (*models.Match, error) {
	var match models.Match

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.boundLockWait(tx); err != nil {
			return err
		}

		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Offer.User").Preload("Request.User").
			First(&match, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrMatchNotFound
			}
			return err
		}

		notifications, err := apply(&match)
		if err != nil {
			return err
		}

		if err := tx.Omit("Offer", "Request").Save(&match).Error; err != nil {
			return err
		}
		if len(notifications) > 0 {
			if err := tx.Create(&notifications).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, translateLockError(err)
	}
	return &match, nil
}

// GetPendingForUser pages through the matches awaiting the user's action
func (r *PostgresMatchRepository) GetPendingForUser(userID string, page, pageSize int) (*MatchPage, error) {
	page, pageSize = normalizePage(page, pageSize)
	q := r.db.Model(&models.Match{}).
		Where("pending_user_id = ? AND status IN ?", userID,
			[]models.MatchStatus{models.MatchStatusPending, models.MatchStatusAccepted})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.Match
	err := q.Preload("Offer.User").Preload("Request.User").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return &MatchPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// ListUserMatches pages through every match involving the user's offers or
// requests, optionally filtered by status.
func (r *PostgresMatchRepository) ListUserMatches(userID string, status models.MatchStatus, page, pageSize int) (*MatchPage, error) {
	page, pageSize = normalizePage(page, pageSize)
	q := r.db.Model(&models.Match{}).
		Joins("JOIN availability_offers ON availability_offers.id = matches.offer_id").
		Joins("JOIN availability_requests ON availability_requests.id = matches.request_id").
		Where("availability_offers.user_id = ? OR availability_requests.user_id = ?", userID, userID)
	if status != "" {
		q = q.Where("matches.status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.Match
	err := q.Preload("Offer.User").Preload("Request.User").
		Order("matches.updated_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return &MatchPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// boundLockWait bounds every row-lock wait in the transaction so a caller
// blocked behind a slow writer surfaces a retryable signal instead of
// hanging indefinitely. SET LOCAL scopes the setting to this transaction.
func (r *PostgresMatchRepository) boundLockWait(tx *gorm.DB) error {
	return tx.Exec("SET LOCAL lock_timeout = '" + r.lockTimeout + "'").Error
}

// translateLockError maps a Postgres lock_timeout expiry to the retryable
// UNAVAILABLE signal; other errors pass through unchanged.
func translateLockError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == lockNotAvailable {
		return apperrors.ErrLockUnavailable
	}
	return err
}
