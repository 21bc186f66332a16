package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collecta/internal/audit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Record(ctx context.Context, entry domain.Entry) {
	row := &domain.AuditLog{
		ID:         s.genID.Generate(),
		ActorType:  string(entry.ActorType),
		Action:     entry.Action,
		TargetType: entry.TargetType,
		Metadata:   datatypes.JSONMap{},
	}
	if entry.OrgID != 0 {
		orgID := entry.OrgID
		row.OrgID = &orgID
	}
	if entry.ActorID != "" {
		actorID := entry.ActorID
		row.ActorID = &actorID
	}
	if entry.TargetID != "" {
		targetID := entry.TargetID
		row.TargetID = &targetID
	}
	for key, value := range entry.Metadata {
		row.Metadata[key] = value
	}

	if err := s.repo.Insert(ctx, s.db, row); err != nil {
		s.log.Warn("audit insert failed",
			zap.String("action", entry.Action),
			zap.Error(err),
		)
	}
}

func (s *Service) List(ctx context.Context, filter domain.ListFilter) ([]*domain.AuditLog, error) {
	return s.repo.List(ctx, s.db, filter)
}
