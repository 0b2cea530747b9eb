package booking

import (
	"context"
	"time"

	"counseling/internal/domain"
)

type SlotRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Slot, error)
	ListBookable(ctx context.Context, now time.Time) ([]domain.Slot, error)
}

type ReservationRepository interface {
	Create(ctx context.Context, r *domain.Reservation) error
}

type Refresher interface {
	Revalidate(ctx context.Context, paths ...string)
}
