package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/vanillasomethin/ALIVE-Backend/internal/clock"
	"github.com/vanillasomethin/ALIVE-Backend/internal/config"
	devicedomain "github.com/vanillasomethin/ALIVE-Backend/internal/device/domain"
	deviceservice "github.com/vanillasomethin/ALIVE-Backend/internal/device/service"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestDeviceAuthRejectsMissingHeader(t *testing.T) {
	router, _ := setupDeviceRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/device/ping", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestDeviceAuthRejectsMalformedHeader(t *testing.T) {
	router, _ := setupDeviceRouter(t)

	for _, header := range []string{"token-without-scheme", "Basic abc", "Bearer "} {
		req := httptest.NewRequest(http.MethodGet, "/device/ping", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, w.Code)
		}
	}
}

func TestDeviceAuthAcceptsMintedSecret(t *testing.T) {
	router, secret := setupDeviceRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/device/ping", nil)
	req.Header.Set("Authorization", "Bearer "+secret)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
}

func setupDeviceRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
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
	secret := "test-device-secret"
	if _, err := deviceSvc.Mint(context.Background(), nil, devicedomain.MintRequest{Secret: secret}); err != nil {
		t.Fatalf("mint: %v", err)
	}

	s := &Server{
		cfg:       config.Config{},
		log:       zap.NewNop(),
		deviceSvc: deviceSvc,
	}

	router := gin.New()
	router.GET("/device/ping", s.DeviceAuthRequired(), func(c *gin.Context) {
		if _, ok := deviceFromContext(c); !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})
	return router, secret
}
