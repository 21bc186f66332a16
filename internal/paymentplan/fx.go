package paymentplan

import (
	"github.com/smallbiznis/collecta/internal/paymentplan/repository"
	"github.com/smallbiznis/collecta/internal/paymentplan/service"
	"go.uber.org/fx"
)

// Module wires the payment plan repository and service.
var Module = fx.Module("paymentplan",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
