package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	auditdomain "github.com/vanillasomethin/ALIVE-Backend/internal/audit/domain"
	"github.com/vanillasomethin/ALIVE-Backend/internal/clock"
	"github.com/vanillasomethin/ALIVE-Backend/internal/config"
	devicedomain "github.com/vanillasomethin/ALIVE-Backend/internal/device/domain"
	pairingdomain "github.com/vanillasomethin/ALIVE-Backend/internal/pairing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	codeBytes          = 4
	maxDeviceInfoBytes = 4096
	registerAttempts   = 3
)

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Cfg       config.Config
	DeviceSvc devicedomain.Service
	AuditSvc  auditdomain.Service
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	cfg       config.Config
	deviceSvc devicedomain.Service
	auditSvc  auditdomain.Service
}

func NewService(p ServiceParam) pairingdomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("pairing.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		cfg:       p.Cfg,
		deviceSvc: p.DeviceSvc,
		auditSvc:  p.AuditSvc,
	}
}

func (s *Service) Register(ctx context.Context, req pairingdomain.RegisterRequest) (*pairingdomain.RegisterResponse, error) {
	info, err := validateDeviceInfo(req.DeviceInfo)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.cfg.PairingTTL)
	interval := s.cfg.PairingPollInterval

	// Codes are short, so collisions with live sessions are possible. Retry on
	// the unique constraint instead of pre-checking.
	for attempt := 0; attempt < registerAttempts; attempt++ {
		code, err := generateCode()
		if err != nil {
			return nil, err
		}

		session := &pairingdomain.PairingSession{
			ID:                  s.genID.Generate(),
			CodeHash:            devicedomain.HashToken(code),
			Status:              pairingdomain.StatusPending,
			DeviceInfo:          info,
			ExpiresAt:           expiresAt,
			PollIntervalSeconds: int(interval / time.Second),
			CreatedAt:           now,
			UpdatedAt:           now,
		}

		err = s.db.WithContext(ctx).Create(session).Error
		if err == nil {
			return &pairingdomain.RegisterResponse{
				Code:         code,
				ExpiresAt:    expiresAt,
				PollInterval: interval,
			}, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
	}
	return nil, errors.New("pairing code space exhausted")
}

func (s *Service) Status(ctx context.Context, code string) (*pairingdomain.StatusResponse, error) {
	hash, err := hashCode(code)
	if err != nil {
		return nil, err
	}

	var resp *pairingdomain.StatusResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := s.findSession(ctx, tx, hash, false)
		if err != nil {
			return err
		}

		now := s.clock.Now()

		if session.Status == pairingdomain.StatusPending && !now.Before(session.ExpiresAt) {
			session, err = s.expireSession(ctx, tx, session, now)
			if err != nil {
				return err
			}
		}

		if session.Status == pairingdomain.StatusPending || session.Status == pairingdomain.StatusClaimed {
			if session.LastPollAt != nil {
				nextAllowed := session.LastPollAt.Add(time.Duration(session.PollIntervalSeconds) * time.Second)
				if now.Before(nextAllowed) {
					return &pairingdomain.RateLimitError{RetryAfter: nextAllowed.Sub(now)}
				}
			}
			if err := tx.WithContext(ctx).Model(&pairingdomain.PairingSession{}).
				Where("id = ?", session.ID).
				Updates(map[string]any{"last_poll_at": now, "updated_at": now}).Error; err != nil {
				return err
			}
		}

		resp = &pairingdomain.StatusResponse{
			Status:    session.Status,
			ExpiresAt: session.ExpiresAt,
		}
		if session.Status == pairingdomain.StatusClaimed || session.Status == pairingdomain.StatusCompleted {
			resp.DeviceID = session.DeviceID
		}
		if session.Status == pairingdomain.StatusClaimed && session.DeviceToken != nil {
			resp.DeviceToken = session.DeviceToken
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *Service) Claim(ctx context.Context, req pairingdomain.ClaimRequest) (*pairingdomain.ClaimResponse, error) {
	hash, err := hashCode(req.Code)
	if err != nil {
		return nil, err
	}

	var (
		resp  *pairingdomain.ClaimResponse
		opErr error
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := s.findSession(ctx, tx, hash, true)
		if err != nil {
			return err
		}

		now := s.clock.Now()

		if session.Status == pairingdomain.StatusPending && !now.Before(session.ExpiresAt) {
			// The lazy EXPIRED transition must survive the failed claim, so it
			// commits with this transaction while the claim itself reports failure.
			if _, err := s.expireSession(ctx, tx, session, now); err != nil {
				return err
			}
			opErr = pairingdomain.ErrSessionExpired
			return nil
		}
		if session.Status == pairingdomain.StatusExpired {
			opErr = pairingdomain.ErrSessionExpired
			return nil
		}
		if session.Status != pairingdomain.StatusPending {
			opErr = pairingdomain.ErrAlreadyClaimed
			return nil
		}

		secret := uuid.NewString()
		device, err := s.deviceSvc.Mint(ctx, tx, devicedomain.MintRequest{
			Secret:  secret,
			StoreID: req.StoreID,
			GroupID: req.GroupID,
		})
		if err != nil {
			return err
		}

		result := tx.WithContext(ctx).Model(&pairingdomain.PairingSession{}).
			Where("id = ? AND status = ?", session.ID, pairingdomain.StatusPending).
			Updates(map[string]any{
				"status":       pairingdomain.StatusClaimed,
				"device_id":    device.ID,
				"device_token": secret,
				"claimed_at":   now,
				"updated_at":   now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Lost the race to a concurrent claim. Roll back so the minted
			// device disappears with the transaction.
			return pairingdomain.ErrAlreadyClaimed
		}

		targetID := device.ID
		if err := s.auditSvc.Record(ctx, tx, auditdomain.Entry{
			ActorType:  auditdomain.ActorTypeAdmin,
			Action:     "pairing.claim",
			TargetType: "device",
			TargetID:   &targetID,
			Metadata: map[string]any{
				"session_id": session.ID.String(),
				"store_id":   req.StoreID,
				"group_id":   req.GroupID,
			},
		}); err != nil {
			return err
		}

		resp = &pairingdomain.ClaimResponse{
			DeviceID: device.ID,
			Status:   pairingdomain.StatusClaimed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if opErr != nil {
		return nil, opErr
	}
	return resp, nil
}

func (s *Service) Acknowledge(ctx context.Context, code string) error {
	hash, err := hashCode(code)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := s.findSession(ctx, tx, hash, true)
		if err != nil {
			return err
		}
		if session.Status != pairingdomain.StatusClaimed {
			return pairingdomain.ErrInvalidState
		}

		now := s.clock.Now()
		result := tx.WithContext(ctx).Model(&pairingdomain.PairingSession{}).
			Where("id = ? AND status = ?", session.ID, pairingdomain.StatusClaimed).
			Updates(map[string]any{
				"status":       pairingdomain.StatusCompleted,
				"device_token": nil,
				"completed_at": now,
				"updated_at":   now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pairingdomain.ErrInvalidState
		}
		return nil
	})
}

// findSession loads a session by code hash, optionally under an exclusive row
// lock. SQLite (tests) serializes writers itself and rejects FOR UPDATE, so the
// locking clause is applied only on Postgres; the status-guarded updates remain
// the correctness backstop on both.
func (s *Service) findSession(ctx context.Context, tx *gorm.DB, hash string, forUpdate bool) (*pairingdomain.PairingSession, error) {
	query := tx.WithContext(ctx)
	if forUpdate && tx.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var session pairingdomain.PairingSession
	err := query.Where("code_hash = ?", hash).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pairingdomain.ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (s *Service) expireSession(ctx context.Context, tx *gorm.DB, session *pairingdomain.PairingSession, now time.Time) (*pairingdomain.PairingSession, error) {
	result := tx.WithContext(ctx).Model(&pairingdomain.PairingSession{}).
		Where("id = ? AND status = ?", session.ID, pairingdomain.StatusPending).
		Updates(map[string]any{"status": pairingdomain.StatusExpired, "updated_at": now})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// Raced with a claim or another poll; reload and report the fresher state.
		return s.findSession(ctx, tx, session.CodeHash, false)
	}
	session.Status = pairingdomain.StatusExpired
	return session, nil
}

func hashCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", pairingdomain.ErrInvalidCode
	}
	return devicedomain.HashToken(strings.ToUpper(code)), nil
}

func generateCode() (string, error) {
	buf := make([]byte, codeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}

func validateDeviceInfo(info map[string]any) (datatypes.JSONMap, error) {
	if info == nil {
		return datatypes.JSONMap{}, nil
	}
	raw, err := json.Marshal(info)
	if err != nil {
		return nil, pairingdomain.ErrInvalidDeviceInfo
	}
	if len(raw) > maxDeviceInfoBytes {
		return nil, pairingdomain.ErrInvalidDeviceInfo
	}
	return datatypes.JSONMap(info), nil
}
