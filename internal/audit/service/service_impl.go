package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/vanillasomethin/ALIVE-Backend/internal/audit/domain"
	"github.com/vanillasomethin/ALIVE-Backend/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Record(ctx context.Context, db *gorm.DB, entry domain.Entry) error {
	if db == nil {
		db = s.db
	}

	record := &domain.AuditLog{
		ID:         s.genID.Generate(),
		ActorType:  string(entry.ActorType),
		ActorID:    entry.ActorID,
		Action:     entry.Action,
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
		CreatedAt:  s.clock.Now(),
	}
	if entry.Metadata != nil {
		record.Metadata = datatypes.JSONMap(entry.Metadata)
	}

	return s.repo.Insert(ctx, db, record)
}

func (s *Service) List(ctx context.Context, filter domain.ListFilter) ([]*domain.AuditLog, error) {
	return s.repo.List(ctx, s.db, filter)
}
