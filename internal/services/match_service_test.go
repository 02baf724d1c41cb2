package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benj-n/regami/internal/models"
	"github.com/benj-n/regami/internal/repositories"
	"github.com/benj-n/regami/internal/ws"
	"github.com/benj-n/regami/pkg/apperrors"
)

// --- in-memory fakes mirroring the repository contracts ---

type fakeAvailabilityRepo struct {
	offers   []*models.AvailabilityOffer
	requests []*models.AvailabilityRequest
	nextID   uint
}

func newFakeAvailabilityRepo() *fakeAvailabilityRepo {
	return &fakeAvailabilityRepo{nextID: 1}
}

func (f *fakeAvailabilityRepo) CreateOffer(offer *models.AvailabilityOffer) error {
	offer.ID = f.nextID
	f.nextID++
	f.offers = append(f.offers, offer)
	return nil
}

func (f *fakeAvailabilityRepo) CreateRequest(request *models.AvailabilityRequest) error {
	request.ID = f.nextID
	f.nextID++
	f.requests = append(f.requests, request)
	return nil
}

func (f *fakeAvailabilityRepo) GetOfferByID(id uint) (*models.AvailabilityOffer, error) {
	for _, o := range f.offers {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, apperrors.ErrOfferNotFound
}

func (f *fakeAvailabilityRepo) GetRequestByID(id uint) (*models.AvailabilityRequest, error) {
	for _, r := range f.requests {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, apperrors.ErrRequestNotFound
}

func (f *fakeAvailabilityRepo) DeleteOffer(id uint, userID string) (bool, error) {
	for i, o := range f.offers {
		if o.ID == id && o.UserID == userID {
			f.offers = append(f.offers[:i], f.offers[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAvailabilityRepo) DeleteRequest(id uint, userID string) (bool, error) {
	for i, r := range f.requests {
		if r.ID == id && r.UserID == userID {
			f.requests = append(f.requests[:i], f.requests[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAvailabilityRepo) OfferOverlaps(userID string, startAt, endAt time.Time) (bool, error) {
	for _, o := range f.offers {
		if o.UserID == userID && o.StartAt.Before(endAt) && o.EndAt.After(startAt) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAvailabilityRepo) RequestOverlaps(userID string, startAt, endAt time.Time) (bool, error) {
	for _, r := range f.requests {
		if r.UserID == userID && r.StartAt.Before(endAt) && r.EndAt.After(startAt) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAvailabilityRepo) FindCompatibleRequests(offer *models.AvailabilityOffer) ([]models.AvailabilityRequest, error) {
	var out []models.AvailabilityRequest
	for _, r := range f.requests {
		if r.UserID == offer.UserID {
			continue
		}
		if !r.StartAt.Before(offer.StartAt) && !r.EndAt.After(offer.EndAt) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeAvailabilityRepo) FindCompatibleOffers(request *models.AvailabilityRequest) ([]models.AvailabilityOffer, error) {
	var out []models.AvailabilityOffer
	for _, o := range f.offers {
		if o.UserID == request.UserID {
			continue
		}
		if !request.StartAt.Before(o.StartAt) && !request.EndAt.After(o.EndAt) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeAvailabilityRepo) ListUserOffers(userID string, page, pageSize int, sortDesc bool) (*repositories.SlotPage[models.AvailabilityOffer], error) {
	var items []models.AvailabilityOffer
	for _, o := range f.offers {
		if o.UserID == userID {
			items = append(items, *o)
		}
	}
	return &repositories.SlotPage[models.AvailabilityOffer]{Items: items, Total: int64(len(items)), Page: page, PageSize: pageSize}, nil
}

func (f *fakeAvailabilityRepo) ListUserRequests(userID string, page, pageSize int, sortDesc bool) (*repositories.SlotPage[models.AvailabilityRequest], error) {
	var items []models.AvailabilityRequest
	for _, r := range f.requests {
		if r.UserID == userID {
			items = append(items, *r)
		}
	}
	return &repositories.SlotPage[models.AvailabilityRequest]{Items: items, Total: int64(len(items)), Page: page, PageSize: pageSize}, nil
}

func (f *fakeAvailabilityRepo) SearchOffers(filter repositories.SlotSearchFilter) (*repositories.SlotPage[models.AvailabilityOffer], error) {
	return &repositories.SlotPage[models.AvailabilityOffer]{}, nil
}

func (f *fakeAvailabilityRepo) SearchRequests(filter repositories.SlotSearchFilter) (*repositories.SlotPage[models.AvailabilityRequest], error) {
	return &repositories.SlotPage[models.AvailabilityRequest]{}, nil
}

// fakeMatchRepo keeps matches in memory and applies the same pair-uniqueness
// and closure semantics the Postgres implementation guarantees with row locks.
type fakeMatchRepo struct {
	mu            sync.Mutex
	matches       map[uint]*models.Match
	notifications *fakeNotificationRepo
	nextID        uint
}

func newFakeMatchRepo(notifications *fakeNotificationRepo) *fakeMatchRepo {
	return &fakeMatchRepo{
		matches:       make(map[uint]*models.Match),
		notifications: notifications,
		nextID:        1,
	}
}

func (f *fakeMatchRepo) CreatePending(ctx context.Context, offer *models.AvailabilityOffer, request *models.AvailabilityRequest) (*models.Match, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.matches {
		if m.OfferID == offer.ID && m.RequestID == request.ID {
			return m, false, nil
		}
	}
	owner := offer.UserID
	m := &models.Match{
		ID:            f.nextID,
		OfferID:       offer.ID,
		RequestID:     request.ID,
		Status:        models.MatchStatusPending,
		PendingUserID: &owner,
		Offer:         offer,
		Request:       request,
	}
	f.nextID++
	f.matches[m.ID] = m
	return m, true, nil
}

func (f *fakeMatchRepo) Transition(ctx context.Context, id uint, apply func(match *models.Match) ([]models.Notification, error)) (*models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[id]
	if !ok {
		return nil, apperrors.ErrMatchNotFound
	}
	snapshot := *m
	notes, err := apply(&snapshot)
	if err != nil {
		return nil, err
	}
	*m = snapshot
	for i := range notes {
		f.notifications.CreateNotification(&notes[i])
	}
	return m, nil
}

func (f *fakeMatchRepo) GetPendingForUser(userID string, page, pageSize int) (*repositories.MatchPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []models.Match
	for _, m := range f.matches {
		if m.PendingUserID != nil && *m.PendingUserID == userID && !m.Status.Terminal() {
			items = append(items, *m)
		}
	}
	return &repositories.MatchPage{Items: items, Total: int64(len(items)), Page: page, PageSize: pageSize}, nil
}

func (f *fakeMatchRepo) ListUserMatches(userID string, status models.MatchStatus, page, pageSize int) (*repositories.MatchPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []models.Match
	for _, m := range f.matches {
		involved := (m.Offer != nil && m.Offer.UserID == userID) || (m.Request != nil && m.Request.UserID == userID)
		if !involved {
			continue
		}
		if status != "" && m.Status != status {
			continue
		}
		items = append(items, *m)
	}
	return &repositories.MatchPage{Items: items, Total: int64(len(items)), Page: page, PageSize: pageSize}, nil
}

type fakeNotificationRepo struct {
	created []models.Notification
}

func (f *fakeNotificationRepo) CreateNotification(n *models.Notification) error {
	n.ID = uint(len(f.created) + 1)
	f.created = append(f.created, *n)
	return nil
}

func (f *fakeNotificationRepo) GetByUserID(userID string, unreadOnly bool, page, pageSize int) ([]models.Notification, int64, error) {
	var out []models.Notification
	for _, n := range f.created {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeNotificationRepo) GetUnreadCount(userID string) (int64, error) { return 0, nil }
func (f *fakeNotificationRepo) MarkAsRead(id uint, userID string) (bool, error) {
	return false, nil
}
func (f *fakeNotificationRepo) MarkAllAsRead(userID string) error { return nil }

func (f *fakeNotificationRepo) forUser(userID string) []models.Notification {
	out, _, _ := f.GetByUserID(userID, false, 1, 100)
	return out
}

type fakeDogRepo struct {
	names map[string]string
}

func (f *fakeDogRepo) GetFirstDogName(userID string) (string, error) {
	return f.names[userID], nil
}

func (f *fakeDogRepo) GetUserDogs(userID string) ([]models.Dog, error) { return nil, nil }

type sentEmail struct {
	To      string
	Subject string
	Name    string
	Data    map[string]string
}

type recordEmailSink struct {
	sent []sentEmail
}

func (r *recordEmailSink) SendTemplate(to, subject, name string, data map[string]string) {
	r.sent = append(r.sent, sentEmail{To: to, Subject: subject, Name: name, Data: data})
}

type sentPush struct {
	UserID string
	Title  string
	Body   string
	Data   map[string]string
}

type recordPushSink struct {
	sent []sentPush
}

func (r *recordPushSink) Notify(ctx context.Context, user *models.User, title, body string, data map[string]string) {
	r.sent = append(r.sent, sentPush{UserID: user.ID, Title: title, Body: body, Data: data})
}

type sentEvent struct {
	UserID string
	Event  ws.Event
}

type recordRealtime struct {
	sent []sentEvent
}

func (r *recordRealtime) SendToUser(userID string, event ws.Event) {
	r.sent = append(r.sent, sentEvent{UserID: userID, Event: event})
}

func (r *recordRealtime) forUser(userID string) []ws.Event {
	var out []ws.Event
	for _, e := range r.sent {
		if e.UserID == userID {
			out = append(out, e.Event)
		}
	}
	return out
}

// --- test harness ---

type matchFixture struct {
	svc      *MatchService
	avail    *fakeAvailabilityRepo
	matches  *fakeMatchRepo
	notifs   *fakeNotificationRepo
	dogs     *fakeDogRepo
	email    *recordEmailSink
	push     *recordPushSink
	realtime *recordRealtime
	now      time.Time
}

func newMatchFixture(t *testing.T) *matchFixture {
	t.Helper()
	f := &matchFixture{
		avail:    newFakeAvailabilityRepo(),
		notifs:   &fakeNotificationRepo{},
		dogs:     &fakeDogRepo{names: map[string]string{}},
		email:    &recordEmailSink{},
		push:     &recordPushSink{},
		realtime: &recordRealtime{},
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.matches = newFakeMatchRepo(f.notifs)
	f.svc = NewMatchService(f.avail, f.matches, f.notifs, f.dogs, f.email, f.push, f.realtime, "https://regami.test")
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *matchFixture) at(hour int) time.Time {
	return f.now.Add(time.Duration(hour) * time.Hour)
}

var (
	alice = &models.User{ID: "alice", Email: "alice@example.com"}
	bob   = &models.User{ID: "bob", Email: "bob@example.com"}
	carol = &models.User{ID: "carol", Email: "carol@example.com"}
)

func TestCreateOffer_Validation(t *testing.T) {
	f := newMatchFixture(t)
	ctx := context.Background()

	t.Run("end before start", func(t *testing.T) {
		_, _, err := f.svc.CreateOffer(ctx, alice, f.at(10), f.at(8))
		assert.ErrorIs(t, err, apperrors.ErrInvalidTimeRange)
	})

	t.Run("window in the past", func(t *testing.T) {
		_, _, err := f.svc.CreateOffer(ctx, alice, f.at(-4), f.at(-2))
		assert.ErrorIs(t, err, apperrors.ErrPastTimeRange)
	})

	t.Run("overlap with own existing offer", func(t *testing.T) {
		_, _, err := f.svc.CreateOffer(ctx, alice, f.at(2), f.at(8))
		require.NoError(t, err)

		_, _, err = f.svc.CreateOffer(ctx, alice, f.at(6), f.at(10))
		assert.ErrorIs(t, err, apperrors.ErrOverlappingSlot)
	})

	t.Run("adjacent window is allowed", func(t *testing.T) {
		_, _, err := f.svc.CreateOffer(ctx, alice, f.at(8), f.at(12))
		assert.NoError(t, err)
	})
}

func TestCreateOffer_MatchesContainedRequests(t *testing.T) {
	f := newMatchFixture(t)
	ctx := context.Background()
	f.dogs.names["bob"] = "Rex"

	// Contained in the upcoming offer.
	_, _, err := f.svc.CreateRequest(ctx, bob, f.at(3), f.at(5))
	require.NoError(t, err)
	// Overlapping but sticking out: not a candidate.
	_, _, err = f.svc.CreateRequest(ctx, carol, f.at(5), f.at(12))
	require.NoError(t, err)

	offer, matched, err := f.svc.CreateOffer(ctx, alice, f.at(2), f.at(8))
	require.NoError(t, err)
	require.Len(t, matched, 1)

	match := matched[0]
	assert.Equal(t, models.MatchStatusPending, match.Status)
	assert.Equal(t, offer.ID, match.OfferID)
	require.NotNil(t, match.PendingUserID)
	assert.Equal(t, "alice", *match.PendingUserID, "new match waits on the offer owner")

	// Side effects target the offer owner only.
	notifs := f.notifs.forUser("alice")
	require.Len(t, notifs, 1)
	assert.Contains(t, notifs[0].Message, "Nouvelle demande de garde")

	require.Len(t, f.push.sent, 1)
	assert.Equal(t, "alice", f.push.sent[0].UserID)
	assert.Contains(t, f.push.sent[0].Body, "Rex")

	events := f.realtime.forUser("alice")
	require.Len(t, events, 1)
	assert.Equal(t, ws.EventNewMatch, events[0].Type)
}

func TestCreateRequest_MatchesContainingOffers(t *testing.T) {
	f := newMatchFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.CreateOffer(ctx, alice, f.at(2), f.at(10))
	require.NoError(t, err)

	_, matched, err := f.svc.CreateRequest(ctx, bob, f.at(4), f.at(6))
	require.NoError(t, err)
	require.Len(t, matched, 1)
	require.NotNil(t, matched[0].PendingUserID)
	assert.Equal(t, "alice", *matched[0].PendingUserID)
}

func TestMatchingEngine_NeverPairsOwnWindows(t *testing.T) {
	f := newMatchFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.CreateRequest(ctx, alice, f.at(3), f.at(5))
	require.NoError(t, err)

	_, matched, err := f.svc.CreateOffer(ctx, alice, f.at(20), f.at(30))
	require.NoError(t, err)
	assert.Empty(t, matched)
}

func TestMatchingEngine_IdempotentPerPair(t *testing.T) {
	f := newMatchFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.CreateRequest(ctx, bob, f.at(3), f.at(5))
	require.NoError(t, err)
	offer, matched, err := f.svc.CreateOffer(ctx, alice, f.at(2), f.at(8))
	require.NoError(t, err)
	require.Len(t, matched, 1)

	// Re-running the engine over the same pair returns the existing match
	// without creating a duplicate or re-notifying.
	again := f.svc.MatchOffer(ctx, offer)
	require.Len(t, again, 1)
	assert.Equal(t, matched[0].ID, again[0].ID)
	assert.Len(t, f.notifs.forUser("alice"), 1)
	assert.Len(t, f.push.sent, 1)
}

func TestMatchingEngine_RejectedPairNeverRematches(t *testing.T) {
	f := newMatchFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.CreateRequest(ctx, bob, f.at(3), f.at(5))
	require.NoError(t, err)
	offer, matched, err := f.svc.CreateOffer(ctx, alice, f.at(2), f.at(8))
	require.NoError(t, err)
	require.Len(t, matched, 1)

	_, err = f.svc.Reject(ctx, matched[0].ID, alice)
	require.NoError(t, err)

	// The pair carries one match for life: once rejected, re-running the
	// engine over the same windows creates nothing and stays silent.
	notifsBefore := len(f.notifs.forUser("alice"))
	pushBefore := len(f.push.sent)
	again := f.svc.MatchOffer(ctx, offer)
	assert.Empty(t, again)
	assert.Len(t, f.notifs.forUser("alice"), notifsBefore)
	assert.Len(t, f.push.sent, pushBefore)
}

func TestAccept(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*matchFixture, models.Match) {
		f := newMatchFixture(t)
		_, _, err := f.svc.CreateRequest(ctx, bob, f.at(3), f.at(5))
		require.NoError(t, err)
		_, matched, err := f.svc.CreateOffer(ctx, alice, f.at(2), f.at(8))
		require.NoError(t, err)
		require.Len(t, matched, 1)
		return f, matched[0]
	}

	t.Run("requester cannot accept", func(t *testing.T) {
		f, m := setup(t)
		_, err := f.svc.Accept(ctx, m.ID, bob)
		assert.ErrorIs(t, err, apperrors.ErrNotMatchParty)
	})

	t.Run("stranger cannot accept", func(t *testing.T) {
		f, m := setup(t)
		_, err := f.svc.Accept(ctx, m.ID, carol)
		assert.ErrorIs(t, err, apperrors.ErrNotMatchParty)
	})

	t.Run("owner accepts, requester becomes pending", func(t *testing.T) {
		f, m := setup(t)
		accepted, err := f.svc.Accept(ctx, m.ID, alice)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusAccepted, accepted.Status)
		require.NotNil(t, accepted.PendingUserID)
		assert.Equal(t, "bob", *accepted.PendingUserID)

		notifs := f.notifs.forUser("bob")
		require.Len(t, notifs, 1)
		assert.Contains(t, notifs[0].Message, "acceptée")

		events := f.realtime.forUser("bob")
		require.Len(t, events, 1)
		assert.Equal(t, ws.EventMatchAccepted, events[0].Type)
	})

	t.Run("accept twice fails", func(t *testing.T) {
		f, m := setup(t)
		_, err := f.svc.Accept(ctx, m.ID, alice)
		require.NoError(t, err)
		_, err = f.svc.Accept(ctx, m.ID, alice)
		assert.Equal(t, apperrors.CodeFailedPrecondition, apperrors.CodeOf(err))
	})

	t.Run("unknown match", func(t *testing.T) {
		f, _ := setup(t)
		_, err := f.svc.Accept(ctx, 999, alice)
		assert.ErrorIs(t, err, apperrors.ErrMatchNotFound)
	})
}

func TestConfirm(t *testing.T) {
	ctx := context.Background()

	setupAccepted := func(t *testing.T) (*matchFixture, models.Match) {
		f := newMatchFixture(t)
		_, _, err := f.svc.CreateRequest(ctx, bob, f.at(3), f.at(5))
		require.NoError(t, err)
		_, matched, err := f.svc.CreateOffer(ctx, alice, f.at(2), f.at(8))
		require.NoError(t, err)
		require.Len(t, matched, 1)
		_, err = f.svc.Accept(ctx, matched[0].ID, alice)
		require.NoError(t, err)
		return f, matched[0]
	}

	t.Run("confirm before accept fails", func(t *testing.T) {
		f := newMatchFixture(t)
		_, _, err := f.svc.CreateRequest(ctx, bob, f.at(3), f.at(5))
		require.NoError(t, err)
		_, matched, err := f.svc.CreateOffer(ctx, alice, f.at(2), f.at(8))
		require.NoError(t, err)

		_, err = f.svc.Confirm(ctx, matched[0].ID, alice)
		assert.Equal(t, apperrors.CodeFailedPrecondition, apperrors.CodeOf(err))
	})

	t.Run("owner cannot confirm", func(t *testing.T) {
		f, m := setupAccepted(t)
		_, err := f.svc.Confirm(ctx, m.ID, alice)
		assert.ErrorIs(t, err, apperrors.ErrNotMatchParty)
	})

	t.Run("requester confirms, both parties notified", func(t *testing.T) {
		f, m := setupAccepted(t)
		confirmed, err := f.svc.Confirm(ctx, m.ID, bob)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusConfirmed, confirmed.Status)
		assert.Nil(t, confirmed.PendingUserID)

		assert.Len(t, f.notifs.forUser("alice"), 2, "pending + confirmed")
		assert.Len(t, f.notifs.forUser("bob"), 2, "accepted + confirmed")

		var confirmedEvents int
		for _, e := range f.realtime.sent {
			if e.Event.Type == ws.EventMatchConfirmed {
				confirmedEvents++
			}
		}
		assert.Equal(t, 2, confirmedEvents)
	})

	t.Run("confirm is terminal", func(t *testing.T) {
		f, m := setupAccepted(t)
		_, err := f.svc.Confirm(ctx, m.ID, bob)
		require.NoError(t, err)
		_, err = f.svc.Reject(ctx, m.ID, bob)
		assert.Equal(t, apperrors.CodeFailedPrecondition, apperrors.CodeOf(err))
	})
}

func TestReject(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*matchFixture, models.Match) {
		f := newMatchFixture(t)
		_, _, err := f.svc.CreateRequest(ctx, bob, f.at(3), f.at(5))
		require.NoError(t, err)
		_, matched, err := f.svc.CreateOffer(ctx, alice, f.at(2), f.at(8))
		require.NoError(t, err)
		require.Len(t, matched, 1)
		return f, matched[0]
	}

	t.Run("owner rejects pending, requester notified", func(t *testing.T) {
		f, m := setup(t)
		rejected, err := f.svc.Reject(ctx, m.ID, alice)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusRejected, rejected.Status)
		assert.Nil(t, rejected.PendingUserID)

		notifs := f.notifs.forUser("bob")
		require.Len(t, notifs, 1)
		assert.Contains(t, notifs[0].Message, "annulée")
	})

	t.Run("requester rejects accepted, owner notified", func(t *testing.T) {
		f, m := setup(t)
		_, err := f.svc.Accept(ctx, m.ID, alice)
		require.NoError(t, err)

		rejected, err := f.svc.Reject(ctx, m.ID, bob)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusRejected, rejected.Status)

		events := f.realtime.forUser("alice")
		require.NotEmpty(t, events)
		assert.Equal(t, ws.EventMatchRejected, events[len(events)-1].Type)
	})

	t.Run("stranger cannot reject", func(t *testing.T) {
		f, m := setup(t)
		_, err := f.svc.Reject(ctx, m.ID, carol)
		assert.ErrorIs(t, err, apperrors.ErrNotMatchParty)
	})

	t.Run("reject twice fails", func(t *testing.T) {
		f, m := setup(t)
		_, err := f.svc.Reject(ctx, m.ID, alice)
		require.NoError(t, err)
		_, err = f.svc.Reject(ctx, m.ID, alice)
		assert.Equal(t, apperrors.CodeFailedPrecondition, apperrors.CodeOf(err))
	})
}

func TestPendingMatches_FollowsResponder(t *testing.T) {
	f := newMatchFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.CreateRequest(ctx, bob, f.at(3), f.at(5))
	require.NoError(t, err)
	_, matched, err := f.svc.CreateOffer(ctx, alice, f.at(2), f.at(8))
	require.NoError(t, err)
	require.Len(t, matched, 1)

	pending, total, err := f.svc.PendingMatches("alice", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, pending, 1)
	assert.True(t, pending[0].IsMyOffer)

	_, err = f.svc.Accept(ctx, matched[0].ID, alice)
	require.NoError(t, err)

	pending, _, err = f.svc.PendingMatches("alice", 1, 20)
	require.NoError(t, err)
	assert.Empty(t, pending, "after accepting, the ball is in bob's court")

	pending, _, err = f.svc.PendingMatches("bob", 1, 20)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.MatchStatusAccepted, pending[0].Status)
}

func TestUserMatches_StatusFilter(t *testing.T) {
	f := newMatchFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.CreateRequest(ctx, bob, f.at(3), f.at(5))
	require.NoError(t, err)
	_, matched, err := f.svc.CreateOffer(ctx, alice, f.at(2), f.at(8))
	require.NoError(t, err)
	_, err = f.svc.Reject(ctx, matched[0].ID, bob)
	require.NoError(t, err)

	rejected, total, err := f.svc.UserMatches("alice", models.MatchStatusRejected, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, rejected, 1)

	confirmed, total, err := f.svc.UserMatches("alice", models.MatchStatusConfirmed, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
	assert.Empty(t, confirmed)
}

func TestPushFallsBackWhenNoDog(t *testing.T) {
	f := newMatchFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.CreateRequest(ctx, bob, f.at(3), f.at(5))
	require.NoError(t, err)
	_, _, err = f.svc.CreateOffer(ctx, alice, f.at(2), f.at(8))
	require.NoError(t, err)

	require.Len(t, f.push.sent, 1)
	assert.Contains(t, f.push.sent[0].Body, fallbackDogName)
}

func TestEmailContextCarriesWindowDates(t *testing.T) {
	f := newMatchFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.CreateRequest(ctx, bob, f.at(3), f.at(5))
	require.NoError(t, err)
	_, _, err = f.svc.CreateOffer(ctx, alice, f.at(2), f.at(8))
	require.NoError(t, err)

	require.Len(t, f.email.sent, 1)
	mail := f.email.sent[0]
	assert.Equal(t, "alice@example.com", mail.To)
	assert.Equal(t, "https://regami.test", mail.Data["app_url"])
	assert.Equal(t, f.at(2).Format("2006-01-02 15:04"), mail.Data["start_date"])
	assert.Equal(t, "bob@example.com", mail.Data["requester_email"])
}
