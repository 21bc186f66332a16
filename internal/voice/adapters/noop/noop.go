// Package noop is the default voice provider: it accepts every call request
// and reports it as still pending. Used in development and when no telephony
// integration is configured.
package noop

import (
	"context"
	"fmt"
	"time"

	"github.com/smallbiznis/collecta/internal/voice/domain"
)

type Factory struct{}

func NewFactory() domain.ProviderFactory { return Factory{} }

func (Factory) Name() string { return "noop" }

func (Factory) NewProvider() (domain.Provider, error) { return Provider{}, nil }

type Provider struct{}

func (Provider) InitiateCall(_ context.Context, agentID, _ string, _ domain.CallContext) (string, error) {
	return fmt.Sprintf("noop-%s-%d", agentID, time.Now().UnixNano()), nil
}

func (Provider) GetCallStatus(_ context.Context, _ string) (domain.ProviderCallStatus, error) {
	return domain.ProviderCallStatus{Status: "pending"}, nil
}
