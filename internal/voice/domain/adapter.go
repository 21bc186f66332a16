package domain

import "context"

// CallContext carries the conversational context handed to the provider.
type CallContext struct {
	DebtCaseID string
	Currency   string
	DebtCents  int64
}

// ProviderCallStatus is the provider's view of an in-flight call.
type ProviderCallStatus struct {
	Status          string
	DurationSeconds int
	Outcome         string
	ExtractedData   map[string]any
}

// Provider is the telephony integration boundary. Implemented elsewhere; this
// engine only decides when and with what parameters to invoke it.
type Provider interface {
	InitiateCall(ctx context.Context, agentID, phoneNumber string, callCtx CallContext) (string, error)
	GetCallStatus(ctx context.Context, callHandle string) (ProviderCallStatus, error)
}

// ProviderFactory builds a provider by configured name.
type ProviderFactory interface {
	Name() string
	NewProvider() (Provider, error)
}
