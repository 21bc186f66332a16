// Package domain contains the campaign contact store consumed by the rule
// engine's add_to_campaign action.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// ContactStatus is the campaign membership lifecycle.
type ContactStatus string

const (
	ContactStatusPending   ContactStatus = "pending"
	ContactStatusActive    ContactStatus = "active"
	ContactStatusCompleted ContactStatus = "completed"
)

// CampaignContact is one pending membership of a case's customer in an
// outreach campaign.
type CampaignContact struct {
	ID         snowflake.ID  `gorm:"primaryKey"`
	OrgID      snowflake.ID  `gorm:"not null;index"`
	CampaignID string        `gorm:"type:text;not null"`
	DebtCaseID snowflake.ID  `gorm:"not null"`
	CustomerID snowflake.ID  `gorm:"not null"`
	Status     ContactStatus `gorm:"type:text;not null;default:pending"`
	CreatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CampaignContact) TableName() string { return "campaign_contacts" }

// Store enrolls debt case customers into campaigns. Adding the same case to
// the same campaign twice is a no-op.
type Store interface {
	AddContact(ctx context.Context, orgID snowflake.ID, campaignID string, debtCaseID, customerID snowflake.ID) error
}
