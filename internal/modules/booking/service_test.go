package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"counseling/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSlotRepository struct {
	mock.Mock
}

func (m *MockSlotRepository) GetByID(ctx context.Context, id string) (*domain.Slot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Slot), args.Error(1)
}

func (m *MockSlotRepository) ListBookable(ctx context.Context, now time.Time) ([]domain.Slot, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Slot), args.Error(1)
}

type MockReservationRepository struct {
	mock.Mock
}

func (m *MockReservationRepository) Create(ctx context.Context, r *domain.Reservation) error {
	args := m.Called(ctx, r)
	if args.Error(0) == nil && r != nil {
		r.ID = "res-1"
	}
	return args.Error(0)
}

type MockRefresher struct {
	mock.Mock
}

func (m *MockRefresher) Revalidate(ctx context.Context, paths ...string) {
	m.Called(ctx, paths)
}

var now = time.Date(2025, 9, 29, 3, 0, 0, 0, time.UTC)

func newTestService() (*Service, *MockSlotRepository, *MockReservationRepository, *MockRefresher) {
	slots := new(MockSlotRepository)
	reservations := new(MockReservationRepository)
	refresher := new(MockRefresher)
	svc := NewService(slots, reservations, refresher)
	svc.now = func() time.Time { return now }
	return svc, slots, reservations, refresher
}

func openSlot(id string) *domain.Slot {
	return &domain.Slot{ID: id, IsActive: true, StartTS: now.Add(time.Hour), EndTS: now.Add(2 * time.Hour)}
}

func TestService_ListBookableSlots(t *testing.T) {
	svc, slots, _, _ := newTestService()
	want := []domain.Slot{*openSlot("a"), *openSlot("b")}
	slots.On("ListBookable", mock.Anything, now).Return(want, nil)

	got, err := svc.ListBookableSlots(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestService_ListBookableSlots_StoreError(t *testing.T) {
	svc, slots, _, _ := newTestService()
	slots.On("ListBookable", mock.Anything, now).Return(nil, errors.New("timeout"))

	_, err := svc.ListBookableSlots(context.Background(), now)
	var se *domain.StoreError
	assert.True(t, errors.As(err, &se))
}

func TestService_Book_Success(t *testing.T) {
	svc, slots, reservations, refresher := newTestService()
	slots.On("GetByID", mock.Anything, "slot-1").Return(openSlot("slot-1"), nil)
	reservations.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.Reservation) bool {
		return r.SlotID == "slot-1" && r.UserID == "user-1" && r.Status == domain.ReservationBooked
	})).Return(nil)
	refresher.On("Revalidate", mock.Anything, []string{"/booking", "/reservations"}).Return()

	r, err := svc.Book(context.Background(), "slot-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "res-1", r.ID)
	assert.Equal(t, "slot-1", r.Slot.ID)
	reservations.AssertExpectations(t)
	refresher.AssertExpectations(t)
}

func TestService_Book_AlreadyBooked(t *testing.T) {
	svc, slots, reservations, refresher := newTestService()
	slots.On("GetByID", mock.Anything, "slot-1").Return(openSlot("slot-1"), nil)
	reservations.On("Create", mock.Anything, mock.Anything).Return(domain.ErrConflict)

	_, err := svc.Book(context.Background(), "slot-1", "user-2")
	assert.ErrorIs(t, err, domain.ErrConflict)
	refresher.AssertNotCalled(t, "Revalidate", mock.Anything, mock.Anything)
}

func TestService_Book_StoreError(t *testing.T) {
	svc, slots, reservations, _ := newTestService()
	slots.On("GetByID", mock.Anything, "slot-1").Return(openSlot("slot-1"), nil)
	reservations.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	_, err := svc.Book(context.Background(), "slot-1", "user-1")
	var se *domain.StoreError
	require.True(t, errors.As(err, &se))
	assert.NotErrorIs(t, err, domain.ErrConflict)
}

func TestService_Book_Rejections(t *testing.T) {
	inactive := openSlot("inactive")
	inactive.IsActive = false
	started := openSlot("started")
	started.StartTS = now

	cases := []struct {
		name   string
		slotID string
		userID string
		setup  func(*MockSlotRepository)
		want   error
	}{
		{name: "no user", slotID: "slot-1", userID: "", want: domain.ErrUnauthenticated},
		{name: "no slot id", slotID: "  ", userID: "user-1", want: domain.ErrInvalidInput},
		{
			name: "missing slot", slotID: "ghost", userID: "user-1",
			setup: func(m *MockSlotRepository) { m.On("GetByID", mock.Anything, "ghost").Return(nil, domain.ErrNotFound) },
			want:  domain.ErrNotFound,
		},
		{
			name: "inactive slot", slotID: "inactive", userID: "user-1",
			setup: func(m *MockSlotRepository) { m.On("GetByID", mock.Anything, "inactive").Return(inactive, nil) },
			want:  domain.ErrSlotNotBookable,
		},
		{
			name: "slot already started", slotID: "started", userID: "user-1",
			setup: func(m *MockSlotRepository) { m.On("GetByID", mock.Anything, "started").Return(started, nil) },
			want:  domain.ErrSlotNotBookable,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, slots, reservations, _ := newTestService()
			if tc.setup != nil {
				tc.setup(slots)
			}
			_, err := svc.Book(context.Background(), tc.slotID, tc.userID)
			assert.ErrorIs(t, err, tc.want)
			reservations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "already_booked", errorCode(domain.ErrConflict))
	assert.Equal(t, "not_bookable", errorCode(domain.ErrSlotNotBookable))
	assert.Equal(t, "invalid_input", errorCode(domain.ErrInvalidInput))
	assert.Equal(t, "not_found", errorCode(domain.ErrNotFound))
	assert.Equal(t, "store_error", errorCode(&domain.StoreError{Err: errors.New("x")}))
}
