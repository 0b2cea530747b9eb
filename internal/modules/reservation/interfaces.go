package reservation

import (
	"context"

	"counseling/internal/domain"
)

type ReservationRepository interface {
	GetForUser(ctx context.Context, id, userID string) (*domain.Reservation, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Reservation, error)
	CancelBooked(ctx context.Context, id, userID string) (bool, error)
}

type Refresher interface {
	Revalidate(ctx context.Context, paths ...string)
}
