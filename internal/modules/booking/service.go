package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"counseling/internal/domain"
)

type Service struct {
	slots        SlotRepository
	reservations ReservationRepository
	refresher    Refresher
	now          func() time.Time
}

func NewService(slots SlotRepository, reservations ReservationRepository, refresher Refresher) *Service {
	return &Service{
		slots:        slots,
		reservations: reservations,
		refresher:    refresher,
		now:          time.Now,
	}
}

func (s *Service) Now() time.Time { return s.now().UTC() }

// ListBookableSlots returns active slots starting after now, earliest first.
func (s *Service) ListBookableSlots(ctx context.Context, now time.Time) ([]domain.Slot, error) {
	slots, err := s.slots.ListBookable(ctx, now.UTC())
	if err != nil {
		return nil, domain.WrapStore("list bookable slots", err)
	}
	return slots, nil
}

// Book claims the slot for userID. The store's uniqueness rule decides
// concurrent attempts: the loser gets domain.ErrConflict.
func (s *Service) Book(ctx context.Context, slotID, userID string) (*domain.Reservation, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	slotID = strings.TrimSpace(slotID)
	if slotID == "" {
		return nil, domain.ErrInvalidInput
	}

	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, domain.WrapStore("get slot", err)
	}
	if !slot.Bookable(s.Now()) {
		return nil, domain.ErrSlotNotBookable
	}

	r := &domain.Reservation{
		SlotID: slot.ID,
		UserID: userID,
		Status: domain.ReservationBooked,
	}
	if err := s.reservations.Create(ctx, r); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.ErrConflict
		}
		return nil, domain.WrapStore("create reservation", err)
	}
	r.Slot = slot

	if s.refresher != nil {
		s.refresher.Revalidate(ctx, "/booking", "/reservations")
	}
	return r, nil
}
