package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/comparepco/rentalcore/internal/booking/domain"
	paymentdomain "github.com/comparepco/rentalcore/internal/payment/domain"
	"gorm.io/gorm"
)

const demoPartnerName = "Demo Fleet Ltd"

// EnsureDemoFleet seeds a handful of bookings across the lifecycle so
// a local instance has data to browse. Idempotent: it does nothing
// once any booking for the demo partner exists.
func EnsureDemoFleet(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&bookingdomain.Booking{}).
			Where("partner_name = ?", demoPartnerName).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		partnerID := node.Generate()

		pending := demoBooking(node, partnerID, now, bookingdomain.StatusPendingPartnerApproval,
			"Aisha Patel", "Toyota", "Prius", "LD71 KXV", "hybrid")
		deadline := now.Add(12 * time.Hour)
		pending.ApprovalDeadline = &deadline

		active := demoBooking(node, partnerID, now.AddDate(0, 0, -28), bookingdomain.StatusActive,
			"Marcus Boateng", "Kia", "e-Niro", "LT21 WRX", "electric")
		active.DocumentsComplete = true

		awaitingPayment := demoBooking(node, partnerID, now.AddDate(0, 0, -3), bookingdomain.StatusPendingPayment,
			"Elena Vasquez", "Ford", "Transit", "LV70 HJC", "van")
		awaitingPayment.DocumentsComplete = true

		for _, booking := range []*bookingdomain.Booking{pending, active, awaitingPayment} {
			if err := tx.Create(booking).Error; err != nil {
				return err
			}
		}

		charge := paymentdomain.PaymentEvent{
			ID:          node.Generate(),
			BookingID:   active.ID,
			Kind:        paymentdomain.KindCharge,
			Status:      paymentdomain.EventStatusSucceeded,
			AmountCents: active.TotalAmountCents,
			OccurredAt:  now.AddDate(0, 0, -27),
			CreatedAt:   now,
		}
		if err := tx.Create(&charge).Error; err != nil {
			return err
		}

		schedule := paymentdomain.RecurringSchedule{
			ID:                  node.Generate(),
			BookingID:           active.ID,
			AmountPerCycleCents: 25000,
			CycleEnd:            now.AddDate(0, 0, 7),
			Status:              paymentdomain.ScheduleStatusActive,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		return tx.Create(&schedule).Error
	})
}

func demoBooking(
	node *snowflake.Node,
	partnerID snowflake.ID,
	start time.Time,
	status bookingdomain.BookingStatus,
	driverName, make, model, registration, category string,
) *bookingdomain.Booking {
	return &bookingdomain.Booking{
		ID:        node.Generate(),
		DriverID:  node.Generate(),
		PartnerID: partnerID,
		VehicleID: node.Generate(),

		TermWeeks:        12,
		TotalAmountCents: 25000,
		StartDate:        start,
		EndDate:          start.AddDate(0, 0, 12*7),
		Status:           status,

		DriverName:          driverName,
		PartnerName:         demoPartnerName,
		VehicleMake:         make,
		VehicleModel:        model,
		VehicleRegistration: registration,
		VehicleCategory:     category,

		CreatedAt: start,
		UpdatedAt: start,
	}
}
