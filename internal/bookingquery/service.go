package bookingquery

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/comparepco/rentalcore/internal/booking/domain"
	"github.com/comparepco/rentalcore/internal/cache"
	"github.com/comparepco/rentalcore/internal/clock"
	"github.com/comparepco/rentalcore/internal/config"
	paymentdomain "github.com/comparepco/rentalcore/internal/payment/domain"
	"github.com/comparepco/rentalcore/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const associationTTL = 30 * time.Second

// Service is the read-side facade: it fetches raw rows, runs them
// through the pure enrichment, and hands back filtered views. A short
// TTL cache absorbs repeated association lookups from list screens.
type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	urgency *config.UrgencyConfigHolder

	bookingRepo  repository.Repository[bookingdomain.Booking]
	eventRepo    repository.Repository[paymentdomain.PaymentEvent]
	scheduleRepo repository.Repository[paymentdomain.RecurringSchedule]

	eventCache    cache.Cache[snowflake.ID, []paymentdomain.PaymentEvent]
	scheduleCache cache.Cache[snowflake.ID, *paymentdomain.RecurringSchedule]
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Urgency *config.UrgencyConfigHolder
}

func NewService(p ServiceParam) *Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("bookingquery.service"),
		clock:   p.Clock,
		urgency: p.Urgency,

		bookingRepo:  repository.ProvideStore[bookingdomain.Booking](p.DB),
		eventRepo:    repository.ProvideStore[paymentdomain.PaymentEvent](p.DB),
		scheduleRepo: repository.ProvideStore[paymentdomain.RecurringSchedule](p.DB),

		eventCache:    cache.NewTTLCache[snowflake.ID, []paymentdomain.PaymentEvent](),
		scheduleCache: cache.NewTTLCache[snowflake.ID, *paymentdomain.RecurringSchedule](),
	}
}

// QueryBookings materializes a snapshot for the filter and enriches
// it. Status is applied at the database where possible; the remaining
// predicates run in the pure filter.
func (s *Service) QueryBookings(ctx context.Context, filter Filter) ([]EnrichedBooking, error) {
	rowFilter := &bookingdomain.Booking{}
	if filter.Status != "" {
		status := bookingdomain.BookingStatus(filter.Status)
		if !bookingdomain.IsValidStatus(status) {
			return nil, bookingdomain.ErrInvalidStatus
		}
		rowFilter.Status = status
	}
	if filter.VehicleCategory != "" {
		rowFilter.VehicleCategory = filter.VehicleCategory
	}

	rows, err := s.bookingRepo.Find(ctx, rowFilter)
	if err != nil {
		return nil, err
	}

	snap := Snapshot{
		Bookings:  make([]bookingdomain.Booking, 0, len(rows)),
		Events:    make(map[snowflake.ID][]paymentdomain.PaymentEvent, len(rows)),
		Schedules: make(map[snowflake.ID]*paymentdomain.RecurringSchedule, len(rows)),
	}
	for _, row := range rows {
		if row == nil {
			continue
		}
		snap.Bookings = append(snap.Bookings, *row)

		events, err := s.eventsFor(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		snap.Events[row.ID] = events

		schedule, err := s.scheduleFor(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		snap.Schedules[row.ID] = schedule
	}

	return Query(snap, filter, s.clock.Now(), s.urgency.Get())
}

// GetEnriched returns one booking with its annotations, bypassing the
// cache so writes are immediately visible.
func (s *Service) GetEnriched(ctx context.Context, bookingID snowflake.ID) (EnrichedBooking, error) {
	row, err := s.bookingRepo.FindOne(ctx, &bookingdomain.Booking{ID: bookingID})
	if err != nil {
		return EnrichedBooking{}, err
	}
	if row == nil {
		return EnrichedBooking{}, bookingdomain.ErrBookingNotFound
	}

	events, err := s.eventRepo.Find(ctx, &paymentdomain.PaymentEvent{BookingID: bookingID})
	if err != nil {
		return EnrichedBooking{}, err
	}
	flat := make([]paymentdomain.PaymentEvent, 0, len(events))
	for _, e := range events {
		if e != nil {
			flat = append(flat, *e)
		}
	}

	schedule, err := s.scheduleRepo.FindOne(ctx, &paymentdomain.RecurringSchedule{
		BookingID: bookingID,
		Status:    paymentdomain.ScheduleStatusActive,
	})
	if err != nil {
		return EnrichedBooking{}, err
	}

	return Enrich(*row, flat, schedule, s.clock.Now(), s.urgency.Get())
}

func (s *Service) eventsFor(ctx context.Context, bookingID snowflake.ID) ([]paymentdomain.PaymentEvent, error) {
	if cached, ok := s.eventCache.Get(bookingID); ok {
		return cached, nil
	}

	rows, err := s.eventRepo.Find(ctx, &paymentdomain.PaymentEvent{BookingID: bookingID})
	if err != nil {
		return nil, err
	}

	events := make([]paymentdomain.PaymentEvent, 0, len(rows))
	for _, row := range rows {
		if row != nil {
			events = append(events, *row)
		}
	}
	s.eventCache.Set(bookingID, events, associationTTL)
	return events, nil
}

func (s *Service) scheduleFor(ctx context.Context, bookingID snowflake.ID) (*paymentdomain.RecurringSchedule, error) {
	if cached, ok := s.scheduleCache.Get(bookingID); ok {
		return cached, nil
	}

	schedule, err := s.scheduleRepo.FindOne(ctx, &paymentdomain.RecurringSchedule{
		BookingID: bookingID,
		Status:    paymentdomain.ScheduleStatusActive,
	})
	if err != nil {
		return nil, err
	}
	s.scheduleCache.Set(bookingID, schedule, associationTTL)
	return schedule, nil
}
