package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collecta/internal/cache"
	"github.com/smallbiznis/collecta/internal/debtcase/domain"
	"gorm.io/gorm"
)

// ContactResolver reads reachability data from the platform's invoice and
// customer tables. Results are cached per case for the duration of a sweep.
type ContactResolver struct {
	db    *gorm.DB
	cache cache.ContactCache
}

func NewContactResolver(db *gorm.DB, contactCache cache.ContactCache) domain.ContactResolver {
	return &ContactResolver{db: db, cache: contactCache}
}

type contactRow struct {
	CustomerID     snowflake.ID
	Phone          string
	Email          string
	InvoiceDueDate time.Time
}

func (r *ContactResolver) ResolveContact(ctx context.Context, debtCaseID snowflake.ID) (*domain.Contact, error) {
	if cached, ok := r.cache.Get(debtCaseID); ok {
		contact := cached
		return &contact, nil
	}

	var row contactRow
	err := r.db.WithContext(ctx).Raw(
		`SELECT c.id AS customer_id, c.phone, c.email, i.due_date AS invoice_due_date
		 FROM debt_cases dc
		 JOIN customers c ON c.id = dc.customer_id
		 JOIN invoices i ON i.id = dc.invoice_id
		 WHERE dc.id = ? AND dc.deleted_at IS NULL`,
		debtCaseID,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.CustomerID == 0 {
		return nil, domain.ErrCustomerNotFound
	}

	contact := domain.Contact{
		CustomerID:     row.CustomerID,
		Phone:          row.Phone,
		Email:          row.Email,
		InvoiceDueDate: row.InvoiceDueDate,
	}
	r.cache.Set(debtCaseID, contact, cache.ContactTTL)
	return &contact, nil
}
