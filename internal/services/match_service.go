package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/benj-n/regami/internal/models"
	"github.com/benj-n/regami/internal/repositories"
	"github.com/benj-n/regami/internal/ws"
	"github.com/benj-n/regami/pkg/apperrors"
	"github.com/benj-n/regami/pkg/email"
)

const fallbackDogName = "un chien"

// MatchService owns the matching engine and the match lifecycle state
// machine. Availability windows come in, pending matches come out, and
// accept/confirm/reject drive each match to a terminal state with
// notification, email, push and live-event side effects along the way.
type MatchService struct {
	availability  repositories.AvailabilityRepository
	matches       repositories.MatchRepository
	notifications repositories.NotificationRepository
	dogs          repositories.DogRepository
	email         EmailSink
	push          PushSink
	realtime      Realtime
	appURL        string
	now           func() time.Time
}

// NewMatchService wires the matching engine with its stores and sinks.
func NewMatchService(
	availability repositories.AvailabilityRepository,
	matches repositories.MatchRepository,
	notifications repositories.NotificationRepository,
	dogs repositories.DogRepository,
	emailSink EmailSink,
	pushSink PushSink,
	realtime Realtime,
	appURL string,
) *MatchService {
	if emailSink == nil {
		emailSink = NoopEmailSink()
	}
	if pushSink == nil {
		pushSink = NoopPushSink()
	}
	if realtime == nil {
		realtime = NoopRealtime()
	}
	return &MatchService{
		availability:  availability,
		matches:       matches,
		notifications: notifications,
		dogs:          dogs,
		email:         emailSink,
		push:          pushSink,
		realtime:      realtime,
		appURL:        appURL,
		now:           time.Now,
	}
}

// CreateOffer validates and persists a new availability offer, then runs
// the matching engine against existing requests.
func (s *MatchService) CreateOffer(ctx context.Context, user *models.User, startAt, endAt time.Time) (*models.AvailabilityOffer, []models.Match, error) {
	if err := s.validateWindow(startAt, endAt); err != nil {
		return nil, nil, err
	}
	overlaps, err := s.availability.OfferOverlaps(user.ID, startAt, endAt)
	if err != nil {
		return nil, nil, err
	}
	if overlaps {
		return nil, nil, apperrors.ErrOverlappingSlot
	}

	offer := &models.AvailabilityOffer{
		UserID:  user.ID,
		StartAt: startAt,
		EndAt:   endAt,
		User:    user,
	}
	if err := s.availability.CreateOffer(offer); err != nil {
		return nil, nil, err
	}

	matches := s.MatchOffer(ctx, offer)
	return offer, matches, nil
}

// CreateRequest validates and persists a new availability request, then
// runs the matching engine against existing offers.
func (s *MatchService) CreateRequest(ctx context.Context, user *models.User, startAt, endAt time.Time) (*models.AvailabilityRequest, []models.Match, error) {
	if err := s.validateWindow(startAt, endAt); err != nil {
		return nil, nil, err
	}
	overlaps, err := s.availability.RequestOverlaps(user.ID, startAt, endAt)
	if err != nil {
		return nil, nil, err
	}
	if overlaps {
		return nil, nil, apperrors.ErrOverlappingSlot
	}

	request := &models.AvailabilityRequest{
		UserID:  user.ID,
		StartAt: startAt,
		EndAt:   endAt,
		User:    user,
	}
	if err := s.availability.CreateRequest(request); err != nil {
		return nil, nil, err
	}

	matches := s.MatchRequest(ctx, request)
	return request, matches, nil
}

func (s *MatchService) validateWindow(startAt, endAt time.Time) error {
	if !endAt.After(startAt) {
		return apperrors.ErrInvalidTimeRange
	}
	now := s.now()
	if !startAt.After(now) || !endAt.After(now) {
		return apperrors.ErrPastTimeRange
	}
	return nil
}

// MatchOffer finds all requests whose window is fully contained in the
// offer's window and materializes pending matches for them. A failed
// pairing never aborts the others: it is logged and skipped.
func (s *MatchService) MatchOffer(ctx context.Context, offer *models.AvailabilityOffer) []models.Match {
	candidates, err := s.availability.FindCompatibleRequests(offer)
	if err != nil {
		log.Printf("Matching engine: candidate search failed for offer %d: %v\n", offer.ID, err)
		return nil
	}

	var matched []models.Match
	for i := range candidates {
		match, err := s.createMatch(ctx, offer, &candidates[i])
		if err != nil {
			log.Printf("Matching engine: skipping pair offer=%d request=%d: %v\n", offer.ID, candidates[i].ID, err)
			continue
		}
		if match == nil {
			continue
		}
		matched = append(matched, *match)
	}
	return matched
}

// MatchRequest is the symmetric operation: find offers containing the
// request's window.
func (s *MatchService) MatchRequest(ctx context.Context, request *models.AvailabilityRequest) []models.Match {
	candidates, err := s.availability.FindCompatibleOffers(request)
	if err != nil {
		log.Printf("Matching engine: candidate search failed for request %d: %v\n", request.ID, err)
		return nil
	}

	var matched []models.Match
	for i := range candidates {
		match, err := s.createMatch(ctx, &candidates[i], request)
		if err != nil {
			log.Printf("Matching engine: skipping pair offer=%d request=%d: %v\n", candidates[i].ID, request.ID, err)
			continue
		}
		if match == nil {
			continue
		}
		matched = append(matched, *match)
	}
	return matched
}

// createMatch runs the locked match-creation protocol for one pair and, when
// a new match came out of it, emits the offer owner's side effects.
func (s *MatchService) createMatch(ctx context.Context, offer *models.AvailabilityOffer, request *models.AvailabilityRequest) (*models.Match, error) {
	match, created, err := s.matches.CreatePending(ctx, offer, request)
	if err != nil {
		return nil, err
	}
	if !created {
		if match.Status.Terminal() {
			// The pair already ran its course; never resurrect it.
			return nil, nil
		}
		return match, nil
	}
	match.Offer = offer
	match.Request = request

	owner := offer.User
	subject := "Regami - Nouvelle demande de garde"
	s.persistNotification(owner.ID, subject)
	s.email.SendTemplate(owner.Email, subject, email.TemplateMatchPending, s.emailContext(owner, subject, match))

	requesterDog := s.firstDogName(request.UserID)
	s.push.Notify(ctx, owner,
		"Nouveau match ! 🎉",
		fmt.Sprintf("Vous avez un nouveau match avec %s !", requesterDog),
		map[string]string{"type": ws.EventNewMatch, "match_id": matchIDString(match), "deep_link": "/availability"})

	s.realtime.SendToUser(owner.ID, ws.NewEvent(ws.EventNewMatch, models.NewMatchDetail(match, owner.ID)))

	return match, nil
}

// Accept advances a PENDING match to ACCEPTED. Only the current pending
// responder (the offer owner) may accept; the requester becomes the next
// pending responder.
func (s *MatchService) Accept(ctx context.Context, matchID uint, actor *models.User) (*models.Match, error) {
	subject := "Regami - Votre demande a été acceptée!"
	match, err := s.matches.Transition(ctx, matchID, func(m *models.Match) ([]models.Notification, error) {
		if m.PendingUserID == nil || *m.PendingUserID != actor.ID {
			return nil, apperrors.ErrNotMatchParty
		}
		if m.Status != models.MatchStatusPending {
			return nil, apperrors.ErrInvalidTransition("accept", string(m.Status))
		}
		requester := m.Request.UserID
		m.Status = models.MatchStatusAccepted
		m.PendingUserID = &requester
		return []models.Notification{{UserID: requester, Message: subject}}, nil
	})
	if err != nil {
		return nil, err
	}

	requester := match.Request.User
	s.email.SendTemplate(requester.Email, subject, email.TemplateMatchAccepted, s.emailContext(requester, subject, match))

	ownerDog := s.firstDogName(match.Offer.UserID)
	s.push.Notify(ctx, requester,
		"Match accepté ! 💚",
		fmt.Sprintf("%s a accepté votre match !", ownerDog),
		map[string]string{"type": ws.EventMatchAccepted, "match_id": matchIDString(match), "deep_link": "/availability"})

	s.realtime.SendToUser(requester.ID, ws.NewEvent(ws.EventMatchAccepted, models.NewMatchDetail(match, requester.ID)))

	return match, nil
}

// Confirm advances an ACCEPTED match to CONFIRMED, the terminal success
// state. Only the current pending responder (the requester) may confirm;
// both parties are notified.
func (s *MatchService) Confirm(ctx context.Context, matchID uint, actor *models.User) (*models.Match, error) {
	subject := "Regami - Garde confirmée!"
	match, err := s.matches.Transition(ctx, matchID, func(m *models.Match) ([]models.Notification, error) {
		if m.PendingUserID == nil || *m.PendingUserID != actor.ID {
			return nil, apperrors.ErrNotMatchParty
		}
		if m.Status != models.MatchStatusAccepted {
			return nil, apperrors.ErrInvalidTransition("confirm", string(m.Status))
		}
		m.Status = models.MatchStatusConfirmed
		m.PendingUserID = nil
		return []models.Notification{
			{UserID: m.Offer.UserID, Message: subject},
			{UserID: m.Request.UserID, Message: subject},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	owner := match.Offer.User
	requester := match.Request.User
	s.email.SendTemplate(owner.Email, subject, email.TemplateMatchConfirmed, s.emailContext(owner, subject, match))
	s.email.SendTemplate(requester.Email, subject, email.TemplateMatchConfirmed, s.emailContext(requester, subject, match))

	ownerDog := s.firstDogName(owner.ID)
	requesterDog := s.firstDogName(requester.ID)
	body := "Votre rendez-vous avec %s est confirmé ! Vous pouvez maintenant échanger des messages."
	data := map[string]string{"type": ws.EventMatchConfirmed, "match_id": matchIDString(match), "deep_link": "/messages"}
	s.push.Notify(ctx, owner, "Match confirmé ! 🎊", fmt.Sprintf(body, requesterDog), data)
	s.push.Notify(ctx, requester, "Match confirmé ! 🎊", fmt.Sprintf(body, ownerDog), data)

	s.realtime.SendToUser(owner.ID, ws.NewEvent(ws.EventMatchConfirmed, models.NewMatchDetail(match, owner.ID)))
	s.realtime.SendToUser(requester.ID, ws.NewEvent(ws.EventMatchConfirmed, models.NewMatchDetail(match, requester.ID)))

	return match, nil
}

// Reject resolves a PENDING or ACCEPTED match as REJECTED. Either the offer
// owner or the requester may reject; the other party is notified.
func (s *MatchService) Reject(ctx context.Context, matchID uint, actor *models.User) (*models.Match, error) {
	subject := "Regami - Demande de garde annulée"
	match, err := s.matches.Transition(ctx, matchID, func(m *models.Match) ([]models.Notification, error) {
		isOfferOwner := m.Offer != nil && m.Offer.UserID == actor.ID
		isRequester := m.Request != nil && m.Request.UserID == actor.ID
		if !isOfferOwner && !isRequester {
			return nil, apperrors.ErrNotMatchParty
		}
		if m.Status != models.MatchStatusPending && m.Status != models.MatchStatusAccepted {
			return nil, apperrors.ErrInvalidTransition("reject", string(m.Status))
		}
		m.Status = models.MatchStatusRejected
		m.PendingUserID = nil

		other := m.Offer.UserID
		if isOfferOwner {
			other = m.Request.UserID
		}
		return []models.Notification{{UserID: other, Message: subject}}, nil
	})
	if err != nil {
		return nil, err
	}

	other := match.Offer.User
	if match.Offer.UserID == actor.ID {
		other = match.Request.User
	}
	s.email.SendTemplate(other.Email, subject, email.TemplateMatchRejected, s.emailContext(other, subject, match))
	s.push.Notify(ctx, other,
		"Match refusé",
		"Un de vos matchs a été refusé.",
		map[string]string{"type": ws.EventMatchRejected, "match_id": matchIDString(match), "deep_link": "/availability"})
	s.realtime.SendToUser(other.ID, ws.NewEvent(ws.EventMatchRejected, models.NewMatchDetail(match, other.ID)))

	return match, nil
}

// PendingMatches lists the matches currently awaiting the user's action.
func (s *MatchService) PendingMatches(userID string, page, pageSize int) ([]models.MatchDetail, int64, error) {
	result, err := s.matches.GetPendingForUser(userID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return s.toDetails(result.Items, userID), result.Total, nil
}

// UserMatches lists every match involving the user, optionally filtered by status.
func (s *MatchService) UserMatches(userID string, status models.MatchStatus, page, pageSize int) ([]models.MatchDetail, int64, error) {
	result, err := s.matches.ListUserMatches(userID, status, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return s.toDetails(result.Items, userID), result.Total, nil
}

func (s *MatchService) toDetails(items []models.Match, viewerID string) []models.MatchDetail {
	details := make([]models.MatchDetail, 0, len(items))
	for i := range items {
		details = append(details, models.NewMatchDetail(&items[i], viewerID))
	}
	return details
}

func (s *MatchService) persistNotification(userID, message string) {
	if err := s.notifications.CreateNotification(&models.Notification{UserID: userID, Message: message}); err != nil {
		log.Printf("Failed to persist notification for user %s: %v\n", userID, err)
	}
}

// firstDogName resolves the display name used in push notification copy.
func (s *MatchService) firstDogName(userID string) string {
	name, err := s.dogs.GetFirstDogName(userID)
	if err != nil {
		log.Printf("Failed to look up dog name for user %s: %v\n", userID, err)
		return fallbackDogName
	}
	if name == "" {
		return fallbackDogName
	}
	return name
}

func (s *MatchService) emailContext(recipient *models.User, subject string, match *models.Match) map[string]string {
	data := map[string]string{
		"subject":    subject,
		"app_url":    s.appURL,
		"user_email": recipient.Email,
	}
	if match.Offer != nil {
		data["start_date"] = match.Offer.StartAt.Format("2006-01-02 15:04")
		data["end_date"] = match.Offer.EndAt.Format("2006-01-02 15:04")
		if match.Offer.User != nil {
			data["offer_owner_email"] = match.Offer.User.Email
		}
	}
	if match.Request != nil && match.Request.User != nil {
		data["requester_email"] = match.Request.User.Email
	}
	return data
}

func matchIDString(match *models.Match) string {
	return strconv.FormatUint(uint64(match.ID), 10)
}
