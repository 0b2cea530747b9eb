package auth

import (
	"context"

	"counseling/internal/domain"
	"counseling/internal/pkg/jwt"
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type tokenService interface {
	GenerateToken(userID, email string) (string, *jwt.Claims, error)
	ValidateToken(token string) (*jwt.Claims, error)
}
