// Package domain declares the notification boundary. Delivery is owned by the
// surrounding platform; the engine only hands over template invocations.
package domain

import "context"

// Message is one templated notification to a debtor.
type Message struct {
	TemplateID string
	Recipient  string
	Variables  map[string]any
}

// Notifier sends fire-and-forget notifications. Implementations must not
// block beyond the caller's context deadline.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
