package repository

import (
	"context"

	"github.com/smallbiznis/collecta/internal/audit/domain"
	"gorm.io/gorm"
)

type Repository struct{}

func Provide() domain.Repository {
	return &Repository{}
}

func (r *Repository) Insert(ctx context.Context, db *gorm.DB, entry *domain.AuditLog) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *Repository) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.AuditLog, error) {
	query := db.WithContext(ctx).Table("audit_logs")
	if filter.OrgID != 0 {
		query = query.Where("org_id = ?", filter.OrgID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.TargetType != "" {
		query = query.Where("target_type = ?", filter.TargetType)
	}
	if filter.TargetID != "" {
		query = query.Where("target_id = ?", filter.TargetID)
	}
	if filter.StartAt != nil {
		query = query.Where("created_at >= ?", *filter.StartAt)
	}
	if filter.EndAt != nil {
		query = query.Where("created_at < ?", *filter.EndAt)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var rows []*domain.AuditLog
	if err := query.Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
