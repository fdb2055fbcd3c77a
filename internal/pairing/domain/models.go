// Package domain contains the pairing session model and state machine contract.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Session status values. Transitions are monotone:
// PENDING -> CLAIMED -> COMPLETED, PENDING -> EXPIRED. No other edge exists.
const (
	StatusPending   = "PENDING"
	StatusClaimed   = "CLAIMED"
	StatusCompleted = "COMPLETED"
	StatusExpired   = "EXPIRED"
)

// PairingSession is the durable record behind a pairing code. The code itself
// is never stored; lookups go through its sha256 hash. DeviceToken holds the
// one-time bearer secret while the session is CLAIMED and is erased on the
// COMPLETED transition.
type PairingSession struct {
	ID                  snowflake.ID      `gorm:"primaryKey"`
	CodeHash            string            `gorm:"type:text;not null;uniqueIndex"`
	Status              string            `gorm:"type:text;not null"`
	DeviceInfo          datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	ExpiresAt           time.Time         `gorm:"not null"`
	PollIntervalSeconds int               `gorm:"not null"`
	LastPollAt          *time.Time        `gorm:""`
	DeviceID            *string           `gorm:"type:text"`
	DeviceToken         *string           `gorm:"type:text"`
	ClaimedAt           *time.Time        `gorm:""`
	CompletedAt         *time.Time        `gorm:""`
	CreatedAt           time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt           time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PairingSession) TableName() string { return "pairing_sessions" }
