package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collecta/internal/debtcase/domain"
	"gorm.io/gorm"
)

type Repository struct{}

func Provide() domain.Repository {
	return &Repository{}
}

func (r *Repository) Find(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.DebtCase, error) {
	var row domain.DebtCase
	err := db.WithContext(ctx).Raw(
		`SELECT *
		 FROM debt_cases
		 WHERE id = ? AND deleted_at IS NULL`,
		id,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *Repository) Update(ctx context.Context, db *gorm.DB, update domain.CaseUpdate) error {
	assignments := map[string]any{}
	if update.Status != nil {
		assignments["status"] = *update.Status
	}
	if update.Priority != nil {
		assignments["priority"] = *update.Priority
	}
	if update.AgentID != nil {
		assignments["assigned_agent_id"] = *update.AgentID
	}
	if update.LastContactAt != nil {
		assignments["last_contact_at"] = *update.LastContactAt
	}
	if update.NextActionAt != nil {
		assignments["next_action_at"] = *update.NextActionAt
	}
	if update.EscalatedAt != nil {
		assignments["escalated_at"] = *update.EscalatedAt
	}
	if update.ResolvedAt != nil {
		assignments["resolved_at"] = *update.ResolvedAt
	}
	if len(assignments) == 0 {
		return nil
	}
	assignments["updated_at"] = db.NowFunc()

	return db.WithContext(ctx).
		Table("debt_cases").
		Where("id = ? AND deleted_at IS NULL", update.ID).
		Updates(assignments).Error
}

func (r *Repository) InsertActivity(ctx context.Context, db *gorm.DB, activity *domain.CaseActivity) error {
	return db.WithContext(ctx).Create(activity).Error
}

func (r *Repository) FindAgent(ctx context.Context, db *gorm.DB, orgID, agentID snowflake.ID) (*domain.CollectionAgent, error) {
	var row domain.CollectionAgent
	err := db.WithContext(ctx).Raw(
		`SELECT *
		 FROM collection_agents
		 WHERE id = ? AND org_id = ? AND is_active`,
		agentID,
		orgID,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}
