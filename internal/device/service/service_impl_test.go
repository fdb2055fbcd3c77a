package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/vanillasomethin/ALIVE-Backend/internal/clock"
	"github.com/vanillasomethin/ALIVE-Backend/internal/device/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var deviceTestEpoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestMintAndAuthenticate(t *testing.T) {
	svc := setupDeviceService(t)
	storeID := "store-1"

	minted, err := svc.Mint(context.Background(), nil, domain.MintRequest{
		Secret:  "super-secret-token",
		StoreID: &storeID,
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if minted.ID == "" || minted.Status != domain.DeviceStatusOnline {
		t.Fatalf("unexpected device %+v", minted)
	}
	if minted.TokenHash == "super-secret-token" {
		t.Fatalf("secret must not be stored in reversible form")
	}
	if !minted.CreatedAt.Equal(deviceTestEpoch) {
		t.Fatalf("created_at must come from the injected clock, got %s", minted.CreatedAt)
	}

	device, err := svc.Authenticate(context.Background(), "super-secret-token")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if device.ID != minted.ID {
		t.Fatalf("authenticated wrong device: %s vs %s", device.ID, minted.ID)
	}
	if device.StoreID == nil || *device.StoreID != storeID {
		t.Fatalf("expected store association to round-trip")
	}
}

func TestAuthenticateRejectsUnknownSecret(t *testing.T) {
	svc := setupDeviceService(t)

	if _, err := svc.Authenticate(context.Background(), "nope"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), ""); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for empty secret, got %v", err)
	}
}

func TestGetByIDReturnsMintedDevice(t *testing.T) {
	svc := setupDeviceService(t)

	minted, err := svc.Mint(context.Background(), nil, domain.MintRequest{Secret: "lookup-secret"})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	device, err := svc.GetByID(context.Background(), minted.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if device.ID != minted.ID {
		t.Fatalf("looked up wrong device: %s vs %s", device.ID, minted.ID)
	}

	if _, err := svc.GetByID(context.Background(), "missing"); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("expected invalid id, got %v", err)
	}
	if _, err := svc.GetByID(context.Background(), ""); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("expected invalid id for empty input, got %v", err)
	}
}

func setupDeviceService(t *testing.T) domain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Exec(
		`CREATE TABLE IF NOT EXISTS devices (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			token_hash TEXT NOT NULL UNIQUE,
			store_id TEXT,
			group_id TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
	).Error; err != nil {
		t.Fatalf("create devices: %v", err)
	}

	return NewService(ServiceParam{DB: db, Log: zap.NewNop(), Clock: clock.NewFake(deviceTestEpoch)})
}
