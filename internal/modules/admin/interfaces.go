package admin

import (
	"context"

	"counseling/internal/domain"
)

type SlotRepository interface {
	Create(ctx context.Context, s *domain.Slot) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
	ListRecent(ctx context.Context, limit int) ([]domain.Slot, error)
}

type Refresher interface {
	Revalidate(ctx context.Context, paths ...string)
}
