package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/vanillasomethin/ALIVE-Backend/internal/cache"
	"github.com/vanillasomethin/ALIVE-Backend/internal/clock"
	"github.com/vanillasomethin/ALIVE-Backend/internal/config"
	devicedomain "github.com/vanillasomethin/ALIVE-Backend/internal/device/domain"
	plandomain "github.com/vanillasomethin/ALIVE-Backend/internal/plan/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const cacheTTL = 30 * time.Second

type cachedPlan struct {
	fingerprint string
	validUntil  time.Time
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Cfg   config.Config
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	cfg   config.Config

	// localCache is a best-effort, per-process optimization. It is never the
	// source of truth: a hit only skips storage when it agrees with the
	// freshly computed fingerprint, and other instances never see it.
	localCache *cache.TTLCache[string, cachedPlan]
}

func NewService(p ServiceParam) plandomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("plan.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		cfg:        p.Cfg,
		localCache: cache.NewTTLCache[string, cachedPlan](),
	}
}

func (s *Service) GetPlan(ctx context.Context, device *devicedomain.Device, ifNoneMatch string) (*plandomain.Result, error) {
	if device == nil {
		return nil, devicedomain.ErrUnauthorized
	}

	content := buildContent(device)
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	fingerprint := fingerprintOf(raw)
	now := s.clock.Now()

	if entry, ok := s.localCache.Get(device.ID); ok &&
		entry.fingerprint == fingerprint && now.Before(entry.validUntil) {
		return s.respond(raw, fingerprint, ifNoneMatch), nil
	}

	current, err := s.latestValidPlan(ctx, device.ID, now)
	if err != nil {
		return nil, err
	}

	validUntil := now.Add(s.cfg.PlanTTL)
	switch {
	case current != nil && current.Fingerprint == fingerprint:
		// Content unchanged: keep the issued token stable, no new record needed.
		validUntil = current.ValidUntil
	default:
		record := &plandomain.DevicePlan{
			ID:          s.genID.Generate(),
			DeviceID:    device.ID,
			Fingerprint: fingerprint,
			Content:     datatypes.JSON(raw),
			ValidFrom:   now,
			ValidUntil:  validUntil,
			CreatedAt:   now,
		}
		if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
			return nil, err
		}
	}

	s.localCache.Set(device.ID, cachedPlan{fingerprint: fingerprint, validUntil: validUntil}, cacheTTL)
	return s.respond(raw, fingerprint, ifNoneMatch), nil
}

func (s *Service) respond(raw []byte, fingerprint, ifNoneMatch string) *plandomain.Result {
	if strings.TrimSpace(ifNoneMatch) == fingerprint {
		return &plandomain.Result{NotModified: true, Fingerprint: fingerprint}
	}
	return &plandomain.Result{Content: raw, Fingerprint: fingerprint}
}

func (s *Service) latestValidPlan(ctx context.Context, deviceID string, now time.Time) (*plandomain.DevicePlan, error) {
	var record plandomain.DevicePlan
	err := s.db.WithContext(ctx).
		Where("device_id = ? AND valid_until > ?", deviceID, now).
		Order("valid_from DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func buildContent(device *devicedomain.Device) plandomain.Content {
	content := plandomain.Content{
		DeviceID: device.ID,
		PlanType: "loop",
		Playlist: "default",
	}
	if device.StoreID != nil {
		content.StoreID = *device.StoreID
	}
	if device.GroupID != nil {
		content.GroupID = *device.GroupID
	}
	return content
}

func fingerprintOf(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
