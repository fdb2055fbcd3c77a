package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidID    = errors.New("invalid_device_id")
)

type MintRequest struct {
	Secret  string
	StoreID *string
	GroupID *string
}

type Service interface {
	// Mint creates a device identity inside the caller's transaction so that
	// pairing-claim atomicity covers identity creation.
	Mint(ctx context.Context, tx *gorm.DB, req MintRequest) (*Device, error)

	// Authenticate exchanges a presented bearer secret for a device. Side-effect-free.
	Authenticate(ctx context.Context, secret string) (*Device, error)

	GetByID(ctx context.Context, id string) (*Device, error)
}
