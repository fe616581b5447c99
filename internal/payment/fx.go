package payment

import (
	"github.com/comparepco/rentalcore/internal/payment/repository"
	"github.com/comparepco/rentalcore/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
