// Package server wires the HTTP transport around the core services.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/vanillasomethin/ALIVE-Backend/internal/audit/domain"
	"github.com/vanillasomethin/ALIVE-Backend/internal/config"
	devicedomain "github.com/vanillasomethin/ALIVE-Backend/internal/device/domain"
	pairingdomain "github.com/vanillasomethin/ALIVE-Backend/internal/pairing/domain"
	plandomain "github.com/vanillasomethin/ALIVE-Backend/internal/plan/domain"
	popdomain "github.com/vanillasomethin/ALIVE-Backend/internal/proofofplay/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServerParam struct {
	fx.In

	Cfg        config.Config
	Log        *zap.Logger
	PairingSvc pairingdomain.Service
	DeviceSvc  devicedomain.Service
	EventSvc   popdomain.Service
	PlanSvc    plandomain.Service
	AuditSvc   auditdomain.Service
}

type Server struct {
	cfg        config.Config
	log        *zap.Logger
	pairingSvc pairingdomain.Service
	deviceSvc  devicedomain.Service
	eventSvc   popdomain.Service
	planSvc    plandomain.Service
	auditSvc   auditdomain.Service

	registerLimiter *rateLimiter
}

func NewServer(p ServerParam) *Server {
	return &Server{
		cfg:             p.Cfg,
		log:             p.Log.Named("server"),
		pairingSvc:      p.PairingSvc,
		deviceSvc:       p.DeviceSvc,
		eventSvc:        p.EventSvc,
		planSvc:         p.PlanSvc,
		auditSvc:        p.AuditSvc,
		registerLimiter: newRateLimiter(p.Cfg.RegisterRateLimit, p.Cfg.RegisterRateWindow),
	}
}

// NewEngine builds the gin engine with recovery and request logging.
func NewEngine(cfg config.Config, log *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(log.Named("http")))
	return engine
}

// RegisterRoutes attaches all v1 routes.
func (s *Server) RegisterRoutes(engine *gin.Engine) {
	v1 := engine.Group("/v1")
	v1.GET("/health", s.Health)

	pairing := v1.Group("/device/pairing")
	pairing.POST("/register", s.RegisterPairing)
	pairing.GET("/status", s.PairingStatus)
	pairing.POST("/acknowledge", s.AcknowledgePairing)

	device := v1.Group("/device", s.DeviceAuthRequired())
	device.POST("/events", s.SubmitEvents)
	device.GET("/plan", s.GetPlan)

	admin := v1.Group("/admin", s.AdminRequired())
	admin.POST("/device/pairing/claim", s.ClaimPairing)
	admin.GET("/device/:id", s.GetDevice)
	admin.GET("/audit", s.ListAudit)
}

// RunHTTP starts the HTTP listener under the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, engine *gin.Engine, s *Server) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.RegisterRoutes(engine)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					s.log.Error("http server stopped", zap.Error(err))
				}
			}()
			s.log.Info("http server listening", zap.Int("port", s.cfg.Port))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(RunHTTP),
)
