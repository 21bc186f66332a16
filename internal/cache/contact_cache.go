package cache

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collecta/internal/debtcase/domain"
)

// ContactTTL bounds staleness of resolved contact data during a sweep.
const ContactTTL = 5 * time.Minute

// ContactCache caches resolved customer contacts keyed by debt case.
// Cooldown decisions never read from here; they are always derived from the
// durable execution records.
type ContactCache = Cache[snowflake.ID, domain.Contact]

// NewContactCache constructs the contact resolution cache.
func NewContactCache() ContactCache {
	return NewTTLCache[snowflake.ID, domain.Contact]()
}
