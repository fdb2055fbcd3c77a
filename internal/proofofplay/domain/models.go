// Package domain contains the proof-of-play event and rollup models.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	devicedomain "github.com/vanillasomethin/ALIVE-Backend/internal/device/domain"
	"gorm.io/datatypes"
)

// MaxDurationMS caps a reported play duration at 24 hours.
const MaxDurationMS = int64(24 * time.Hour / time.Millisecond)

// Event asserts that specific content played on a device for a campaign.
// EventID is the caller-supplied idempotency key; the unique constraint on it
// is the sole deduplication mechanism.
type Event struct {
	ID             snowflake.ID      `gorm:"primaryKey"`
	EventID        string            `gorm:"type:text;not null;uniqueIndex"`
	DeviceID       string            `gorm:"type:text;not null"`
	StoreID        string            `gorm:"type:text;not null"`
	CampaignID     string            `gorm:"type:text;not null"`
	ContentID      string            `gorm:"type:text;not null"`
	ContentVersion *string           `gorm:"type:text"`
	EventType      string            `gorm:"type:text;not null"`
	PlayedAt       *time.Time        `gorm:""`
	DurationMS     *int64            `gorm:""`
	Result         *string           `gorm:"type:text"`
	Payload        datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Event) TableName() string { return "proof_of_play_events" }

// DailyAggregate is the additive rollup keyed by (day, campaign, store, content).
// Count and duration only grow, exactly once per accepted event.
type DailyAggregate struct {
	ID              snowflake.ID `gorm:"primaryKey"`
	Day             time.Time    `gorm:"type:date;not null;uniqueIndex:idx_daily_aggregate_key"`
	CampaignID      string       `gorm:"type:text;not null;uniqueIndex:idx_daily_aggregate_key"`
	StoreID         string       `gorm:"type:text;not null;uniqueIndex:idx_daily_aggregate_key"`
	ContentID       string       `gorm:"type:text;not null;uniqueIndex:idx_daily_aggregate_key"`
	PlayCount       int64        `gorm:"not null;default:0"`
	TotalDurationMS int64        `gorm:"not null;default:0"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (DailyAggregate) TableName() string { return "daily_aggregates" }

// EventSubmission is one element of a device's batch upload.
type EventSubmission struct {
	EventID        string
	CampaignID     string
	ContentID      string
	ContentVersion string
	StoreID        string
	EventType      string
	PlayedAt       *time.Time
	DurationMS     *int64
	Result         string
	Payload        map[string]any
}

// BatchResult reports per-event outcomes as counts only.
type BatchResult struct {
	Accepted int
	Rejected int
}

type Service interface {
	// IngestBatch processes every submission inside one transaction. Individual
	// validation failures and duplicates are counted as rejected without
	// aborting the batch; only unexpected storage errors roll it back.
	IngestBatch(ctx context.Context, device *devicedomain.Device, submissions []EventSubmission) (BatchResult, error)
}
