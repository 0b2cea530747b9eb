package reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"counseling/internal/database"
	"counseling/internal/domain"
	"counseling/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRefresher struct {
	mock.Mock
}

func (m *MockRefresher) Revalidate(ctx context.Context, paths ...string) {
	m.Called(ctx, paths)
}

type MockReservationRepository struct {
	mock.Mock
}

func (m *MockReservationRepository) GetForUser(ctx context.Context, id, userID string) (*domain.Reservation, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationRepository) ListByUser(ctx context.Context, userID string) ([]domain.Reservation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockReservationRepository) CancelBooked(ctx context.Context, id, userID string) (bool, error) {
	args := m.Called(ctx, id, userID)
	return args.Bool(0), args.Error(1)
}

var now = time.Date(2025, 9, 29, 3, 0, 0, 0, time.UTC)

type fixture struct {
	svc          *Service
	slots        *repository.SlotRepository
	reservations *repository.ReservationRepository
	refresher    *MockRefresher
}

func setup(t *testing.T) *fixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.ConnectWith(fmt.Sprintf("file:reservation_%s?mode=memory&cache=shared", name),
		database.Options{Silent: true, MaxOpenConns: 1})
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	refresher := new(MockRefresher)
	refresher.On("Revalidate", mock.Anything, mock.Anything).Return()

	reservations := repository.NewReservationRepository(db)
	svc := NewService(reservations, refresher)
	svc.now = func() time.Time { return now }

	return &fixture{
		svc:          svc,
		slots:        repository.NewSlotRepository(db),
		reservations: reservations,
		refresher:    refresher,
	}
}

func (f *fixture) book(t *testing.T, start time.Time, userID string) *domain.Reservation {
	t.Helper()
	ctx := context.Background()
	slot := &domain.Slot{StartTS: start, EndTS: start.Add(time.Hour), IsActive: true, CounselorID: "admin-1"}
	require.NoError(t, f.slots.Create(ctx, slot))
	r := &domain.Reservation{SlotID: slot.ID, UserID: userID, Status: domain.ReservationBooked}
	require.NoError(t, f.reservations.Create(ctx, r))
	return r
}

func (f *fixture) status(t *testing.T, id, userID string) domain.ReservationStatus {
	t.Helper()
	r, err := f.reservations.GetForUser(context.Background(), id, userID)
	require.NoError(t, err)
	return r.Status
}

func TestCancel_FutureSlot(t *testing.T) {
	f := setup(t)
	r := f.book(t, now.Add(24*time.Hour), "owner")

	outcome, err := f.svc.Cancel(context.Background(), r.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancelled, outcome)
	assert.Equal(t, domain.ReservationCancelled, f.status(t, r.ID, "owner"))
	f.refresher.AssertCalled(t, "Revalidate", mock.Anything, []string{"/reservations", "/booking"})
}

func TestCancel_TwiceIsNoOp(t *testing.T) {
	f := setup(t)
	r := f.book(t, now.Add(24*time.Hour), "owner")

	_, err := f.svc.Cancel(context.Background(), r.ID, "owner")
	require.NoError(t, err)

	outcome, err := f.svc.Cancel(context.Background(), r.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyCancelled, outcome)
	assert.Equal(t, domain.ReservationCancelled, f.status(t, r.ID, "owner"))
}

func TestCancel_AfterStartRejected(t *testing.T) {
	f := setup(t)
	started := f.book(t, now, "owner")
	past := f.book(t, now.Add(-time.Hour), "owner")

	for _, r := range []*domain.Reservation{started, past} {
		_, err := f.svc.Cancel(context.Background(), r.ID, "owner")
		assert.ErrorIs(t, err, domain.ErrTooLate)
		assert.Equal(t, domain.ReservationBooked, f.status(t, r.ID, "owner"))
	}
	f.refresher.AssertCalled(t, "Revalidate", mock.Anything, []string{"/reservations"})
}

func TestCancel_NonOwner(t *testing.T) {
	f := setup(t)
	r := f.book(t, now.Add(24*time.Hour), "owner")

	_, err := f.svc.Cancel(context.Background(), r.ID, "intruder")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, domain.ReservationBooked, f.status(t, r.ID, "owner"))
}

func TestCancel_InputChecks(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Cancel(context.Background(), "", "owner")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.Cancel(context.Background(), "res-1", "")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = f.svc.Cancel(context.Background(), "missing", "owner")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	f.refresher.AssertNumberOfCalls(t, "Revalidate", 3)
}

func TestCancel_MissingSlotIsSchemaError(t *testing.T) {
	repo := new(MockReservationRepository)
	refresher := new(MockRefresher)
	refresher.On("Revalidate", mock.Anything, []string{"/reservations"}).Return()
	repo.On("GetForUser", mock.Anything, "res-1", "owner").Return(&domain.Reservation{
		ID: "res-1", UserID: "owner", Status: domain.ReservationBooked,
	}, nil)

	svc := NewService(repo, refresher)
	svc.now = func() time.Time { return now }

	_, err := svc.Cancel(context.Background(), "res-1", "owner")
	assert.ErrorIs(t, err, domain.ErrSchema)
	repo.AssertNotCalled(t, "CancelBooked", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancel_LostRaceReportsAlreadyCancelled(t *testing.T) {
	repo := new(MockReservationRepository)
	refresher := new(MockRefresher)
	refresher.On("Revalidate", mock.Anything, mock.Anything).Return()
	repo.On("GetForUser", mock.Anything, "res-1", "owner").Return(&domain.Reservation{
		ID: "res-1", UserID: "owner", Status: domain.ReservationBooked,
		Slot: &domain.Slot{StartTS: now.Add(time.Hour)},
	}, nil)
	repo.On("CancelBooked", mock.Anything, "res-1", "owner").Return(false, nil)

	svc := NewService(repo, refresher)
	svc.now = func() time.Time { return now }

	outcome, err := svc.Cancel(context.Background(), "res-1", "owner")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyCancelled, outcome)
}

func TestCancel_StoreError(t *testing.T) {
	repo := new(MockReservationRepository)
	refresher := new(MockRefresher)
	refresher.On("Revalidate", mock.Anything, mock.Anything).Return()
	repo.On("GetForUser", mock.Anything, "res-1", "owner").Return(nil, errors.New("broken pipe"))

	svc := NewService(repo, refresher)
	_, err := svc.Cancel(context.Background(), "res-1", "owner")

	var se *domain.StoreError
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, "store_error", errorCode(err))
}

func TestListMine(t *testing.T) {
	f := setup(t)
	future := f.book(t, now.Add(time.Hour), "me")
	past := f.book(t, now.Add(-time.Hour), "me")
	f.book(t, now.Add(2*time.Hour), "someone-else")

	items, err := f.svc.ListMine(context.Background(), "me")
	require.NoError(t, err)
	require.Len(t, items, 2)

	byID := map[string]View{}
	for _, it := range items {
		byID[it.ID] = it
	}
	assert.True(t, byID[future.ID].CanCancel)
	assert.False(t, byID[past.ID].CanCancel)

	_, err = f.svc.ListMine(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}
