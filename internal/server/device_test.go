package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/vanillasomethin/ALIVE-Backend/internal/clock"
	devicedomain "github.com/vanillasomethin/ALIVE-Backend/internal/device/domain"
	deviceservice "github.com/vanillasomethin/ALIVE-Backend/internal/device/service"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestGetDeviceReturnsRegistration(t *testing.T) {
	gin.SetMode(gin.TestMode)

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

	deviceSvc := deviceservice.NewService(deviceservice.ServiceParam{DB: db, Log: zap.NewNop(), Clock: clock.SystemClock{}})
	storeID := "store-1"
	minted, err := deviceSvc.Mint(context.Background(), nil, devicedomain.MintRequest{
		Secret:  "lookup-secret",
		StoreID: &storeID,
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	s := &Server{log: zap.NewNop(), deviceSvc: deviceSvc}
	router := gin.New()
	router.GET("/admin/device/:id", s.GetDevice)

	req := httptest.NewRequest(http.MethodGet, "/admin/device/"+minted.ID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["id"] != minted.ID || body["store_id"] != storeID {
		t.Fatalf("unexpected body %v", body)
	}
	if _, leaked := body["token_hash"]; leaked {
		t.Fatalf("token hash must not be exposed")
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/device/missing", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown device, got %d", w.Code)
	}
}
