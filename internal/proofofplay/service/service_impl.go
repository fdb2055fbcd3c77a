package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/vanillasomethin/ALIVE-Backend/internal/clock"
	devicedomain "github.com/vanillasomethin/ALIVE-Backend/internal/device/domain"
	popdomain "github.com/vanillasomethin/ALIVE-Backend/internal/proofofplay/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
}

func NewService(p ServiceParam) popdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("proofofplay.service"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) IngestBatch(ctx context.Context, device *devicedomain.Device, submissions []popdomain.EventSubmission) (popdomain.BatchResult, error) {
	if device == nil {
		return popdomain.BatchResult{}, devicedomain.ErrUnauthorized
	}

	var result popdomain.BatchResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.clock.Now()
		for i := range submissions {
			accepted, err := s.ingestOne(ctx, tx, device, &submissions[i], now)
			if err != nil {
				return err
			}
			if accepted {
				result.Accepted++
			} else {
				result.Rejected++
			}
		}
		return nil
	})
	if err != nil {
		return popdomain.BatchResult{}, err
	}

	s.log.Debug("batch ingested",
		zap.String("device_id", device.ID),
		zap.Int("accepted", result.Accepted),
		zap.Int("rejected", result.Rejected),
	)
	return result, nil
}

func (s *Service) ingestOne(ctx context.Context, tx *gorm.DB, device *devicedomain.Device, sub *popdomain.EventSubmission, now time.Time) (bool, error) {
	eventID := strings.TrimSpace(sub.EventID)
	campaignID := strings.TrimSpace(sub.CampaignID)
	contentID := strings.TrimSpace(sub.ContentID)
	if eventID == "" || campaignID == "" || contentID == "" {
		return false, nil
	}

	duration, ok := normalizeDuration(sub.DurationMS)
	if !ok {
		return false, nil
	}

	storeID := resolveStoreID(sub.StoreID, device)
	if storeID == "" {
		return false, nil
	}

	record := &popdomain.Event{
		ID:         s.genID.Generate(),
		EventID:    eventID,
		DeviceID:   device.ID,
		StoreID:    storeID,
		CampaignID: campaignID,
		ContentID:  contentID,
		EventType:  normalizeEventType(sub.EventType),
		PlayedAt:   sub.PlayedAt,
		DurationMS: duration,
		CreatedAt:  now,
	}
	if v := strings.TrimSpace(sub.ContentVersion); v != "" {
		record.ContentVersion = &v
	}
	if r := strings.TrimSpace(sub.Result); r != "" {
		record.Result = &r
	}
	if sub.Payload != nil {
		record.Payload = datatypes.JSONMap(sub.Payload)
	}

	// The unique constraint on event_id resolves concurrent duplicates to one
	// winner; RowsAffected == 0 means some earlier insert already holds the id.
	insert := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(record)
	if insert.Error != nil {
		return false, insert.Error
	}
	if insert.RowsAffected == 0 {
		return false, nil
	}

	if err := s.bumpAggregate(ctx, tx, record, now); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) bumpAggregate(ctx context.Context, tx *gorm.DB, event *popdomain.Event, now time.Time) error {
	var duration int64
	if event.DurationMS != nil {
		duration = *event.DurationMS
	}

	aggregate := &popdomain.DailyAggregate{
		ID:              s.genID.Generate(),
		Day:             aggregateDay(event.PlayedAt, now),
		CampaignID:      event.CampaignID,
		StoreID:         event.StoreID,
		ContentID:       event.ContentID,
		PlayCount:       1,
		TotalDurationMS: duration,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// Upsert-with-increment keeps concurrent writers to the same key from
	// losing updates; never read-modify-write here.
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "day"}, {Name: "campaign_id"}, {Name: "store_id"}, {Name: "content_id"},
			},
			DoUpdates: clause.Assignments(map[string]any{
				"play_count":        gorm.Expr("daily_aggregates.play_count + 1"),
				"total_duration_ms": gorm.Expr("daily_aggregates.total_duration_ms + ?", duration),
				"updated_at":        now,
			}),
		}).
		Create(aggregate).Error
}

func normalizeDuration(duration *int64) (*int64, bool) {
	if duration == nil {
		return nil, true
	}
	if *duration < 0 {
		return nil, false
	}
	value := *duration
	if value > popdomain.MaxDurationMS {
		value = popdomain.MaxDurationMS
	}
	return &value, true
}

func resolveStoreID(submitted string, device *devicedomain.Device) string {
	if trimmed := strings.TrimSpace(submitted); trimmed != "" {
		return trimmed
	}
	if device.StoreID != nil {
		return strings.TrimSpace(*device.StoreID)
	}
	return ""
}

func normalizeEventType(eventType string) string {
	trimmed := strings.TrimSpace(eventType)
	if trimmed == "" {
		return "play"
	}
	return trimmed
}

func aggregateDay(playedAt *time.Time, now time.Time) time.Time {
	at := now
	if playedAt != nil && !playedAt.IsZero() {
		at = playedAt.UTC()
	}
	return time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
}
