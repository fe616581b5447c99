package bookingquery

import "go.uber.org/fx"

var Module = fx.Module("bookingquery.service",
	fx.Provide(NewService),
)
