package booking

import (
	"github.com/comparepco/rentalcore/internal/booking/repository"
	"github.com/comparepco/rentalcore/internal/booking/service"
	"go.uber.org/fx"
)

var Module = fx.Module("booking.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
