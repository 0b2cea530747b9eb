package admin

import (
	"context"
	"errors"
	"strings"
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

func (m *MockSlotRepository) Create(ctx context.Context, s *domain.Slot) error {
	args := m.Called(ctx, s)
	if args.Error(0) == nil && s != nil {
		s.ID = "slot-new"
	}
	return args.Error(0)
}

func (m *MockSlotRepository) SetActive(ctx context.Context, id string, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}

func (m *MockSlotRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSlotRepository) ListRecent(ctx context.Context, limit int) ([]domain.Slot, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Slot), args.Error(1)
}

type MockRefresher struct {
	mock.Mock
}

func (m *MockRefresher) Revalidate(ctx context.Context, paths ...string) {
	m.Called(ctx, paths)
}

var jst = time.FixedZone("JST", 9*60*60)

func newTestService(slots *MockSlotRepository, refresher *MockRefresher) *Service {
	return NewService(slots, NewPolicy("admin-1"), refresher, jst)
}

func TestService_CreateSlot_Success(t *testing.T) {
	slots := new(MockSlotRepository)
	refresher := new(MockRefresher)
	svc := newTestService(slots, refresher)

	slots.On("Create", mock.Anything, mock.MatchedBy(func(s *domain.Slot) bool {
		return s.StartTS.Equal(time.Date(2025, 9, 28, 17, 40, 0, 0, time.UTC)) &&
			s.EndTS.Equal(time.Date(2025, 9, 28, 18, 30, 0, 0, time.UTC)) &&
			!s.IsActive &&
			s.CounselorID == "admin-1" &&
			s.Note != nil && *s.Note == "Room 2"
	})).Return(nil)
	refresher.On("Revalidate", mock.Anything, []string{"/booking", "/admin/slots"}).Return()

	slot, err := svc.CreateSlot(context.Background(), CreateSlotInput{
		Start: "2025-09-29 02:40",
		End:   "2025-09-29T03:30",
		Note:  "  Room 2 ",
	}, "admin-1")

	require.NoError(t, err)
	assert.Equal(t, "slot-new", slot.ID)
	slots.AssertExpectations(t)
	refresher.AssertExpectations(t)
}

func TestService_CreateSlot_BrowserTimezone(t *testing.T) {
	slots := new(MockSlotRepository)
	refresher := new(MockRefresher)
	svc := newTestService(slots, refresher)

	slots.On("Create", mock.Anything, mock.MatchedBy(func(s *domain.Slot) bool {
		return s.StartTS.Equal(time.Date(2025, 9, 29, 2, 40, 0, 0, time.UTC)) && s.Note == nil
	})).Return(nil)
	refresher.On("Revalidate", mock.Anything, mock.Anything).Return()

	_, err := svc.CreateSlot(context.Background(), CreateSlotInput{
		Start:    "2025-09-29T02:40",
		End:      "2025-09-29T03:30",
		TimeZone: "UTC",
	}, "admin-1")
	require.NoError(t, err)
	slots.AssertExpectations(t)
}

func TestService_CreateSlot_Failures(t *testing.T) {
	valid := CreateSlotInput{Start: "2025-09-29 02:40", End: "2025-09-29 03:30"}

	cases := []struct {
		name   string
		in     CreateSlotInput
		caller string
		want   error
	}{
		{name: "no caller", in: valid, caller: "", want: domain.ErrUnauthenticated},
		{name: "non admin", in: valid, caller: "user-1", want: domain.ErrForbidden},
		{name: "auth before parsing", in: CreateSlotInput{Start: "bad"}, caller: "user-1", want: domain.ErrForbidden},
		{name: "bad start", in: CreateSlotInput{Start: "bad", End: valid.End}, caller: "admin-1", want: domain.ErrInvalidDateTime},
		{name: "missing end", in: CreateSlotInput{Start: valid.Start}, caller: "admin-1", want: domain.ErrInvalidDateTime},
		{name: "unknown timezone", in: CreateSlotInput{Start: valid.Start, End: valid.End, TimeZone: "Mars/Base"}, caller: "admin-1", want: domain.ErrInvalidDateTime},
		{name: "equal bounds", in: CreateSlotInput{Start: valid.Start, End: valid.Start}, caller: "admin-1", want: domain.ErrInvalidRange},
		{name: "reversed", in: CreateSlotInput{Start: valid.End, End: valid.Start}, caller: "admin-1", want: domain.ErrInvalidRange},
		{name: "note too long", in: CreateSlotInput{Start: valid.Start, End: valid.End, Note: strings.Repeat("x", maxNoteLength+1)}, caller: "admin-1", want: domain.ErrInvalidInput},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			slots := new(MockSlotRepository)
			refresher := new(MockRefresher)
			svc := newTestService(slots, refresher)

			_, err := svc.CreateSlot(context.Background(), tc.in, tc.caller)
			assert.ErrorIs(t, err, tc.want)
			slots.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			refresher.AssertNotCalled(t, "Revalidate", mock.Anything, mock.Anything)
		})
	}
}

func TestService_CreateSlot_StoreError(t *testing.T) {
	slots := new(MockSlotRepository)
	refresher := new(MockRefresher)
	svc := newTestService(slots, refresher)

	slots.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	_, err := svc.CreateSlot(context.Background(), CreateSlotInput{Start: "2025-09-29 02:40", End: "2025-09-29 03:30"}, "admin-1")
	var se *domain.StoreError
	require.True(t, errors.As(err, &se))
	assert.Contains(t, se.Error(), "disk full")
	refresher.AssertNotCalled(t, "Revalidate", mock.Anything, mock.Anything)
}

func TestService_SetSlotActive(t *testing.T) {
	slots := new(MockSlotRepository)
	refresher := new(MockRefresher)
	svc := newTestService(slots, refresher)
	ctx := context.Background()

	slots.On("SetActive", mock.Anything, "slot-1", true).Return(nil).Twice()
	slots.On("SetActive", mock.Anything, "missing", false).Return(domain.ErrNotFound)
	refresher.On("Revalidate", mock.Anything, []string{"/booking", "/admin/slots"}).Return()

	require.NoError(t, svc.SetSlotActive(ctx, "slot-1", true, "admin-1"))
	require.NoError(t, svc.SetSlotActive(ctx, "slot-1", true, "admin-1"))
	assert.ErrorIs(t, svc.SetSlotActive(ctx, "missing", false, "admin-1"), domain.ErrNotFound)
	assert.ErrorIs(t, svc.SetSlotActive(ctx, "slot-1", false, "user-1"), domain.ErrForbidden)
	assert.ErrorIs(t, svc.SetSlotActive(ctx, "", false, "admin-1"), domain.ErrInvalidInput)

	slots.AssertExpectations(t)
	refresher.AssertNumberOfCalls(t, "Revalidate", 2)
}

func TestService_DeleteSlot(t *testing.T) {
	slots := new(MockSlotRepository)
	refresher := new(MockRefresher)
	svc := newTestService(slots, refresher)
	ctx := context.Background()

	slots.On("Delete", mock.Anything, "slot-1").Return(nil)
	slots.On("Delete", mock.Anything, "referenced").Return(errors.New("FOREIGN KEY constraint failed"))
	refresher.On("Revalidate", mock.Anything, mock.Anything).Return()

	require.NoError(t, svc.DeleteSlot(ctx, "slot-1", "admin-1"))

	var se *domain.StoreError
	assert.True(t, errors.As(svc.DeleteSlot(ctx, "referenced", "admin-1"), &se))
	assert.ErrorIs(t, svc.DeleteSlot(ctx, "slot-1", ""), domain.ErrUnauthenticated)
	refresher.AssertNumberOfCalls(t, "Revalidate", 1)
}

func TestService_ListSlots(t *testing.T) {
	slots := new(MockSlotRepository)
	svc := newTestService(slots, new(MockRefresher))

	want := []domain.Slot{{ID: "b"}, {ID: "a"}}
	slots.On("ListRecent", mock.Anything, 100).Return(want, nil)

	got, err := svc.ListSlots(context.Background(), "admin-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = svc.ListSlots(context.Background(), "user-1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
