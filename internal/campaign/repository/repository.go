package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collecta/internal/campaign/domain"
	"gorm.io/gorm"
)

type Store struct {
	db    *gorm.DB
	genID *snowflake.Node
}

func Provide(db *gorm.DB, genID *snowflake.Node) domain.Store {
	return &Store{db: db, genID: genID}
}

func (s *Store) AddContact(ctx context.Context, orgID snowflake.ID, campaignID string, debtCaseID, customerID snowflake.ID) error {
	return s.db.WithContext(ctx).Exec(
		`INSERT INTO campaign_contacts (id, org_id, campaign_id, debt_case_id, customer_id, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (campaign_id, debt_case_id) DO NOTHING`,
		s.genID.Generate(),
		orgID,
		campaignID,
		debtCaseID,
		customerID,
		domain.ContactStatusPending,
		time.Now().UTC(),
	).Error
}
