package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/vanillasomethin/ALIVE-Backend/internal/clock"
	"github.com/vanillasomethin/ALIVE-Backend/internal/device/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("device.service"),
		clock: p.Clock,
	}
}

func (s *Service) Mint(ctx context.Context, tx *gorm.DB, req domain.MintRequest) (*domain.Device, error) {
	if tx == nil {
		tx = s.db
	}

	now := s.clock.Now()
	device := &domain.Device{
		ID:        uuid.NewString(),
		Status:    domain.DeviceStatusOnline,
		TokenHash: domain.HashToken(req.Secret),
		StoreID:   normalizeID(req.StoreID),
		GroupID:   normalizeID(req.GroupID),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := tx.WithContext(ctx).Create(device).Error; err != nil {
		return nil, err
	}
	return device, nil
}

func (s *Service) Authenticate(ctx context.Context, secret string) (*domain.Device, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, domain.ErrUnauthorized
	}

	hash := domain.HashToken(secret)

	var device domain.Device
	err := s.db.WithContext(ctx).Where("token_hash = ?", hash).First(&device).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}

	if subtle.ConstantTimeCompare([]byte(device.TokenHash), []byte(hash)) != 1 {
		return nil, domain.ErrUnauthorized
	}
	return &device, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.Device, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrInvalidID
	}

	var device domain.Device
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&device).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidID
		}
		return nil, err
	}
	return &device, nil
}

func normalizeID(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
