package domain

import (
	"context"
	"time"
)

type RegisterRequest struct {
	DeviceInfo map[string]any
}

type RegisterResponse struct {
	// Code is the plaintext pairing code. It is returned exactly once.
	Code         string
	ExpiresAt    time.Time
	PollInterval time.Duration
}

type StatusResponse struct {
	Status    string
	ExpiresAt time.Time

	// DeviceID and DeviceToken are set only while the session is CLAIMED and
	// the one-time secret has not been erased by acknowledgment.
	DeviceID    *string
	DeviceToken *string
}

type ClaimRequest struct {
	Code    string
	StoreID *string
	GroupID *string
}

type ClaimResponse struct {
	DeviceID string
	Status   string
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	Status(ctx context.Context, code string) (*StatusResponse, error)
	Claim(ctx context.Context, req ClaimRequest) (*ClaimResponse, error)
	Acknowledge(ctx context.Context, code string) error
}
