package reservation

import (
	"context"
	"strings"
	"time"

	"counseling/internal/domain"
)

const listPath = "/reservations"

// Outcome reports how a successful cancel call ended.
type Outcome string

const (
	OutcomeCancelled        Outcome = "cancelled"
	OutcomeAlreadyCancelled Outcome = "already_cancelled"
)

// View is a reservation as listed to its owner.
type View struct {
	domain.Reservation
	CanCancel bool
}

type Service struct {
	reservations ReservationRepository
	refresher    Refresher
	now          func() time.Time
}

func NewService(reservations ReservationRepository, refresher Refresher) *Service {
	return &Service{
		reservations: reservations,
		refresher:    refresher,
		now:          time.Now,
	}
}

// ListMine returns the caller's reservations newest first.
func (s *Service) ListMine(ctx context.Context, userID string) ([]View, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}

	list, err := s.reservations.ListByUser(ctx, userID)
	if err != nil {
		return nil, domain.WrapStore("list reservations", err)
	}

	now := s.now().UTC()
	out := make([]View, 0, len(list))
	for _, r := range list {
		out = append(out, View{Reservation: r, CanCancel: r.Cancellable(now)})
	}
	return out, nil
}

// Cancel lets the owner cancel a booked reservation whose slot has not started.
// Every failure cause is reported separately; cancelling twice is a no-op.
func (s *Service) Cancel(ctx context.Context, reservationID, callerID string) (outcome Outcome, err error) {
	defer func() {
		paths := []string{listPath}
		if outcome == OutcomeCancelled {
			paths = append(paths, "/booking")
		}
		if s.refresher != nil {
			s.refresher.Revalidate(ctx, paths...)
		}
	}()

	reservationID = strings.TrimSpace(reservationID)
	if reservationID == "" {
		return "", domain.ErrInvalidInput
	}
	if callerID == "" {
		return "", domain.ErrUnauthenticated
	}

	r, err := s.reservations.GetForUser(ctx, reservationID, callerID)
	if err != nil {
		return "", domain.WrapStore("get reservation", err)
	}
	if r.Status == domain.ReservationCancelled {
		return OutcomeAlreadyCancelled, nil
	}
	if r.Slot == nil {
		return "", domain.ErrSchema
	}
	if r.Slot.Started(s.now().UTC()) {
		return "", domain.ErrTooLate
	}

	changed, err := s.reservations.CancelBooked(ctx, reservationID, callerID)
	if err != nil {
		return "", domain.WrapStore("cancel reservation", err)
	}
	if !changed {
		return OutcomeAlreadyCancelled, nil
	}
	return OutcomeCancelled, nil
}
