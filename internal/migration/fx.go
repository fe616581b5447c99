package migration

import (
	bookingdomain "github.com/comparepco/rentalcore/internal/booking/domain"
	"github.com/comparepco/rentalcore/internal/config"
	notificationdomain "github.com/comparepco/rentalcore/internal/notification/domain"
	paymentdomain "github.com/comparepco/rentalcore/internal/payment/domain"
	"github.com/comparepco/rentalcore/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			if err := conn.AutoMigrate(
				&bookingdomain.Booking{},
				&bookingdomain.ReturnRequest{},
				&bookingdomain.Issue{},
				&paymentdomain.PaymentEvent{},
				&paymentdomain.RecurringSchedule{},
				&notificationdomain.NotificationIntent{},
			); err != nil {
				return err
			}
		}

		if cfg.SeedDemoFleet {
			return seed.EnsureDemoFleet(conn)
		}
		return nil
	}),
)
