package service

import (
	"context"
	"encoding/json"

	"github.com/bwmarrin/snowflake"
	"github.com/comparepco/rentalcore/internal/clock"
	notificationdomain "github.com/comparepco/rentalcore/internal/notification/domain"
	"github.com/comparepco/rentalcore/internal/observability/metrics"
	"github.com/comparepco/rentalcore/pkg/repository"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock

	metrics *metrics.Metrics
	repo    repository.Repository[notificationdomain.NotificationIntent]
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Metrics *metrics.Metrics
}

func New(p ServiceParam) notificationdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("notification.service"),
		clock: p.Clock,

		metrics: p.Metrics,
		repo:    repository.ProvideStore[notificationdomain.NotificationIntent](p.DB),
	}
}

func (s *Service) Emit(ctx context.Context, tx *gorm.DB, req notificationdomain.EmitRequest) error {
	if tx == nil {
		tx = s.db
	}

	recipients, err := json.Marshal(req.Recipients)
	if err != nil {
		return err
	}

	intent := notificationdomain.NotificationIntent{
		ID:         ulid.Make().String(),
		BookingID:  req.BookingID,
		Type:       req.Type,
		Recipients: datatypes.JSON(recipients),
		CreatedAt:  s.clock.Now(),
	}
	if req.Metadata != nil {
		intent.Metadata = datatypes.JSONMap(req.Metadata)
	}

	if err := s.repo.WithTrx(tx).Create(ctx, &intent); err != nil {
		return err
	}

	s.metrics.RecordNotificationIntent(ctx, string(req.Type))
	s.log.Info("notification intent recorded",
		zap.String("intent_id", intent.ID),
		zap.String("intent_type", string(req.Type)),
		zap.String("booking_id", req.BookingID.String()),
	)
	return nil
}

func (s *Service) ListByBooking(ctx context.Context, bookingID snowflake.ID) ([]notificationdomain.NotificationIntent, error) {
	items, err := s.repo.Find(ctx, &notificationdomain.NotificationIntent{BookingID: bookingID})
	if err != nil {
		return nil, err
	}

	intents := make([]notificationdomain.NotificationIntent, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		intents = append(intents, *item)
	}
	return intents, nil
}
