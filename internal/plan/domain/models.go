// Package domain contains the versioned device plan model and service contract.
package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	devicedomain "github.com/vanillasomethin/ALIVE-Backend/internal/device/domain"
	"gorm.io/datatypes"
)

// DevicePlan is one issued plan document. The fingerprint doubles as the
// conditional-read token; a still-valid record with identical content keeps
// its fingerprint stable across regenerations.
type DevicePlan struct {
	ID          snowflake.ID   `gorm:"primaryKey"`
	DeviceID    string         `gorm:"type:text;not null;index"`
	Fingerprint string         `gorm:"type:text;not null"`
	Content     datatypes.JSON `gorm:"type:jsonb;not null"`
	ValidFrom   time.Time      `gorm:"not null"`
	ValidUntil  time.Time      `gorm:"not null"`
	CreatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (DevicePlan) TableName() string { return "device_plans" }

// Content is the plan document served to a device. Field order is fixed so the
// marshaled form, and therefore the fingerprint, is deterministic.
type Content struct {
	DeviceID string `json:"device_id"`
	StoreID  string `json:"store_id,omitempty"`
	GroupID  string `json:"group_id,omitempty"`
	PlanType string `json:"plan_type"`
	Playlist string `json:"playlist"`
}

type Result struct {
	NotModified bool
	Content     json.RawMessage
	Fingerprint string
}

type Service interface {
	// GetPlan computes the device's plan and serves it with conditional-read
	// semantics: a matching ifNoneMatch token yields NotModified with no body.
	GetPlan(ctx context.Context, device *devicedomain.Device, ifNoneMatch string) (*Result, error)
}
