// Package domain contains the device identity model and its service contract.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

const (
	DeviceStatusOnline  = "online"
	DeviceStatusOffline = "offline"
)

// Device is a paired physical player. The bearer secret is stored only as a
// sha256 hash; authentication is lookup-by-hash.
type Device struct {
	ID        string    `gorm:"primaryKey;type:text"`
	Status    string    `gorm:"type:text;not null"`
	TokenHash string    `gorm:"type:text;not null;uniqueIndex"`
	StoreID   *string   `gorm:"type:text"`
	GroupID   *string   `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Device) TableName() string { return "devices" }

// HashToken derives the stored form of a bearer secret or pairing code.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
