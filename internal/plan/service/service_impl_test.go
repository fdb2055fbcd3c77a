package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/vanillasomethin/ALIVE-Backend/internal/clock"
	"github.com/vanillasomethin/ALIVE-Backend/internal/config"
	devicedomain "github.com/vanillasomethin/ALIVE-Backend/internal/device/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestGetPlanFingerprintStableAcrossFetches(t *testing.T) {
	svc, db, _ := setupPlanService(t)
	device := planTestDevice("store-1")

	first, err := svc.GetPlan(context.Background(), device, "")
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if first.Fingerprint == "" || len(first.Content) == 0 {
		t.Fatalf("unexpected first result %+v", first)
	}

	second, err := svc.GetPlan(context.Background(), device, "")
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if second.Fingerprint != first.Fingerprint {
		t.Fatalf("fingerprint changed for identical content: %s vs %s", first.Fingerprint, second.Fingerprint)
	}

	var records int64
	if err := db.Table("device_plans").Count(&records).Error; err != nil {
		t.Fatalf("count plans: %v", err)
	}
	if records != 1 {
		t.Fatalf("identical content must not write a second record, got %d", records)
	}
}

func TestGetPlanNotModified(t *testing.T) {
	svc, _, _ := setupPlanService(t)
	device := planTestDevice("store-1")

	first, err := svc.GetPlan(context.Background(), device, "")
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	second, err := svc.GetPlan(context.Background(), device, first.Fingerprint)
	if err != nil {
		t.Fatalf("conditional fetch: %v", err)
	}
	if !second.NotModified {
		t.Fatalf("expected not modified")
	}
	if len(second.Content) != 0 {
		t.Fatalf("not-modified result must carry no body")
	}
	if second.Fingerprint != first.Fingerprint {
		t.Fatalf("token must stay stable")
	}
}

func TestGetPlanContentChangeChangesFingerprint(t *testing.T) {
	svc, db, _ := setupPlanService(t)
	device := planTestDevice("store-1")

	first, err := svc.GetPlan(context.Background(), device, "")
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	moved := "store-2"
	device.StoreID = &moved
	second, err := svc.GetPlan(context.Background(), device, first.Fingerprint)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if second.NotModified {
		t.Fatalf("changed content must not be reported as unmodified")
	}
	if second.Fingerprint == first.Fingerprint {
		t.Fatalf("fingerprint must change with the content")
	}

	var records int64
	if err := db.Table("device_plans").Count(&records).Error; err != nil {
		t.Fatalf("count plans: %v", err)
	}
	if records != 2 {
		t.Fatalf("changed content must persist a new record, got %d", records)
	}
}

func TestGetPlanExpiredRecordIsReissued(t *testing.T) {
	svc, db, clk := setupPlanService(t)
	device := planTestDevice("store-1")

	first, err := svc.GetPlan(context.Background(), device, "")
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	clk.Advance(2 * time.Hour)
	second, err := svc.GetPlan(context.Background(), device, "")
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if second.Fingerprint != first.Fingerprint {
		t.Fatalf("identical content keeps its fingerprint even after expiry")
	}

	var records int64
	if err := db.Table("device_plans").Count(&records).Error; err != nil {
		t.Fatalf("count plans: %v", err)
	}
	if records != 2 {
		t.Fatalf("expired validity must persist a fresh record, got %d", records)
	}
}

func setupPlanService(t *testing.T) (*Service, *gorm.DB, *clock.Fake) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Exec(
		`CREATE TABLE IF NOT EXISTS device_plans (
			id INTEGER PRIMARY KEY,
			device_id TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			content TEXT NOT NULL,
			valid_from DATETIME NOT NULL,
			valid_until DATETIME NOT NULL,
			created_at DATETIME NOT NULL
		)`,
	).Error; err != nil {
		t.Fatalf("create device_plans: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	svc := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Cfg:   config.Config{PlanTTL: time.Hour},
	}).(*Service)
	return svc, db, clk
}

func planTestDevice(storeID string) *devicedomain.Device {
	return &devicedomain.Device{
		ID:      "device-1",
		Status:  devicedomain.DeviceStatusOnline,
		StoreID: &storeID,
	}
}
