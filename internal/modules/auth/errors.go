package auth

import (
	"errors"
	"fmt"

	"counseling/internal/domain"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidSignUp      = fmt.Errorf("%w: invalid sign up details", domain.ErrInvalidInput)
)
