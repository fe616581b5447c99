package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/comparepco/rentalcore/internal/booking/domain"
	"github.com/comparepco/rentalcore/internal/clock"
	"github.com/comparepco/rentalcore/internal/lockguard"
	notificationdomain "github.com/comparepco/rentalcore/internal/notification/domain"
	"github.com/comparepco/rentalcore/internal/observability/metrics"
	paymentdomain "github.com/comparepco/rentalcore/internal/payment/domain"
	"github.com/comparepco/rentalcore/pkg/db"
	"github.com/comparepco/rentalcore/pkg/db/option"
	"github.com/comparepco/rentalcore/pkg/db/pagination"
	"github.com/comparepco/rentalcore/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID *snowflake.Node
	clock clock.Clock
	repo  bookingdomain.Repository

	bookingRepo repository.Repository[bookingdomain.Booking]

	notifier notificationdomain.Service
	locker   *lockguard.Locker
	metrics  *metrics.Metrics
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  bookingdomain.Repository

	Notifier notificationdomain.Service
	Locker   *lockguard.Locker `optional:"true"`
	Metrics  *metrics.Metrics
}

func NewService(p ServiceParam) bookingdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("booking.service"),

		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,

		bookingRepo: repository.ProvideStore[bookingdomain.Booking](p.DB),

		notifier: p.Notifier,
		locker:   p.Locker,
		metrics:  p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req bookingdomain.CreateBookingRequest) (bookingdomain.Booking, error) {
	driverID, err := s.parseID(req.DriverID, bookingdomain.ErrInvalidBookingID)
	if err != nil {
		return bookingdomain.Booking{}, err
	}
	partnerID, err := s.parseID(req.PartnerID, bookingdomain.ErrInvalidBookingID)
	if err != nil {
		return bookingdomain.Booking{}, err
	}
	vehicleID, err := s.parseID(req.VehicleID, bookingdomain.ErrInvalidBookingID)
	if err != nil {
		return bookingdomain.Booking{}, err
	}

	if req.TermWeeks <= 0 || req.TotalAmountCents < 0 {
		return bookingdomain.Booking{}, gorm.ErrInvalidData
	}
	if req.EndDate.Before(req.StartDate) {
		return bookingdomain.Booking{}, gorm.ErrInvalidData
	}

	now := s.clock.Now()
	booking := bookingdomain.Booking{
		ID:        s.genID.Generate(),
		DriverID:  driverID,
		PartnerID: partnerID,
		VehicleID: vehicleID,

		TermWeeks:        req.TermWeeks,
		TotalAmountCents: req.TotalAmountCents,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		Status:           bookingdomain.StatusPendingPartnerApproval,

		ApprovalDeadline: req.ApprovalDeadline,

		DriverName:          strings.TrimSpace(req.DriverName),
		PartnerName:         strings.TrimSpace(req.PartnerName),
		VehicleMake:         strings.TrimSpace(req.VehicleMake),
		VehicleModel:        strings.TrimSpace(req.VehicleModel),
		VehicleRegistration: strings.TrimSpace(req.VehicleRegistration),
		VehicleCategory:     strings.TrimSpace(req.VehicleCategory),

		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Metadata != nil {
		booking.Metadata = datatypes.JSONMap(req.Metadata)
	}

	if err := s.repo.Insert(ctx, s.db, &booking); err != nil {
		return bookingdomain.Booking{}, err
	}
	return booking, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (bookingdomain.Booking, error) {
	bookingID, err := s.parseID(id, bookingdomain.ErrInvalidBookingID)
	if err != nil {
		return bookingdomain.Booking{}, err
	}

	booking, err := s.repo.FindByID(ctx, s.db, bookingID)
	if err != nil {
		return bookingdomain.Booking{}, err
	}
	if booking == nil {
		return bookingdomain.Booking{}, bookingdomain.ErrBookingNotFound
	}
	return *booking, nil
}

func (s *Service) List(ctx context.Context, req bookingdomain.ListBookingRequest) (bookingdomain.ListBookingResponse, error) {
	filter := &bookingdomain.Booking{}

	if req.Status != "" {
		status := bookingdomain.BookingStatus(strings.TrimSpace(req.Status))
		if !bookingdomain.IsValidStatus(status) {
			return bookingdomain.ListBookingResponse{}, bookingdomain.ErrInvalidStatus
		}
		filter.Status = status
	}
	if req.DriverID != "" {
		driverID, err := s.parseID(req.DriverID, bookingdomain.ErrInvalidBookingID)
		if err != nil {
			return bookingdomain.ListBookingResponse{}, err
		}
		filter.DriverID = driverID
	}
	if req.PartnerID != "" {
		partnerID, err := s.parseID(req.PartnerID, bookingdomain.ErrInvalidBookingID)
		if err != nil {
			return bookingdomain.ListBookingResponse{}, err
		}
		filter.PartnerID = partnerID
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	options := []option.QueryOption{
		option.ApplyPagination(pagination.Pagination{
			PageToken: req.PageToken,
			PageSize:  int(pageSize),
		}),
		option.WithSortBy(option.WithQuerySortBy("created_at", "desc", map[string]bool{"created_at": true})),
	}

	items, err := s.bookingRepo.Find(ctx, filter, options...)
	if err != nil {
		return bookingdomain.ListBookingResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(item *bookingdomain.Booking) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	bookings := make([]bookingdomain.Booking, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		bookings = append(bookings, *item)
	}

	resp := bookingdomain.ListBookingResponse{Bookings: bookings}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

// Transition applies one edge of the status table. The row is locked
// for the duration so the guard checks and the write are atomic.
func (s *Service) Transition(ctx context.Context, req bookingdomain.TransitionRequest) (bookingdomain.Booking, error) {
	bookingID, err := s.parseID(req.BookingID, bookingdomain.ErrInvalidBookingID)
	if err != nil {
		return bookingdomain.Booking{}, err
	}

	if !bookingdomain.IsValidStatus(req.Target) {
		return bookingdomain.Booking{}, bookingdomain.ErrInvalidStatus
	}
	if !isValidActor(req.Actor) {
		return bookingdomain.Booking{}, bookingdomain.ErrInvalidActor
	}

	var result bookingdomain.Booking
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := s.repo.FindByIDForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return bookingdomain.ErrBookingNotFound
		}

		if booking.Status == req.Target {
			result = *booking
			return nil
		}

		if !bookingdomain.TransitionAllowedBy(booking.Status, req.Target, req.Actor) {
			return bookingdomain.NewTransitionError(booking.Status, req.Target)
		}

		from := booking.Status
		now := s.clock.Now()

		switch req.Target {
		case bookingdomain.StatusActive:
			if err := s.validateActivation(ctx, tx, booking); err != nil {
				return err
			}
		case bookingdomain.StatusCompleted:
			if err := s.validateCompletion(ctx, tx, booking, now); err != nil {
				return err
			}
		}

		booking.Status = req.Target
		booking.UpdatedAt = now
		if err := s.repo.UpdateStatus(ctx, tx, booking); err != nil {
			return err
		}

		if err := s.notifier.Emit(ctx, tx, notificationdomain.EmitRequest{
			BookingID: booking.ID,
			Type:      notificationdomain.IntentBookingTransition,
			Recipients: []string{
				booking.PartnerID.String(),
				booking.DriverID.String(),
			},
			Metadata: map[string]any{
				"from":  string(from),
				"to":    string(req.Target),
				"actor": string(req.Actor),
			},
		}); err != nil {
			return err
		}

		s.metrics.RecordTransition(ctx, string(from), string(req.Target))
		s.log.Info("booking transitioned",
			zap.String("booking_id", booking.ID.String()),
			zap.String("from", string(from)),
			zap.String("to", string(req.Target)),
			zap.String("actor", string(req.Actor)),
		)

		result = *booking
		return nil
	})
	if err != nil {
		return bookingdomain.Booking{}, err
	}
	return result, nil
}

// RequestReturn records a driver's early-return request. The redis
// guard and the live-request check both run before the insert so
// concurrent submissions collapse to a single row.
func (s *Service) RequestReturn(ctx context.Context, req bookingdomain.RequestReturnRequest) (bookingdomain.ReturnRequest, error) {
	bookingID, err := s.parseID(req.BookingID, bookingdomain.ErrInvalidBookingID)
	if err != nil {
		return bookingdomain.ReturnRequest{}, err
	}
	if req.Actor != bookingdomain.ActorDriver {
		return bookingdomain.ReturnRequest{}, bookingdomain.ErrInvalidActor
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return bookingdomain.ReturnRequest{}, bookingdomain.ErrEmptyReason
	}

	lockKey := "rentalcore:return:" + bookingID.String()
	token, err := s.locker.Acquire(ctx, lockKey)
	if err != nil {
		if errors.Is(err, lockguard.ErrLockHeld) {
			s.metrics.RecordGuardDenied(ctx, "request_return")
			return bookingdomain.ReturnRequest{}, bookingdomain.ErrDuplicateRequest
		}
		return bookingdomain.ReturnRequest{}, err
	}
	defer func() {
		if err := s.locker.Release(ctx, lockKey, token); err != nil {
			s.log.Warn("release return lock", zap.Error(err))
		}
	}()

	var result bookingdomain.ReturnRequest
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := s.repo.FindByIDForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return bookingdomain.ErrBookingNotFound
		}

		if booking.Status != bookingdomain.StatusActive && booking.Status != bookingdomain.StatusPartnerAccepted {
			return bookingdomain.ErrInvalidState
		}

		live, err := s.repo.FindLiveReturnRequest(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if live != nil {
			return bookingdomain.ErrDuplicateRequest
		}

		request := bookingdomain.ReturnRequest{
			ID:          s.genID.Generate(),
			BookingID:   bookingID,
			Status:      bookingdomain.ReturnStatusPending,
			Reason:      reason,
			RequestedBy: booking.DriverID,
			RequestedAt: s.clock.Now(),
		}
		if err := s.repo.InsertReturnRequest(ctx, tx, &request); err != nil {
			// Concurrent submissions that slip past the lock land on the
			// partial unique index instead.
			if db.IsDuplicateKeyErr(err) {
				return bookingdomain.ErrDuplicateRequest
			}
			return err
		}

		if err := s.notifier.Emit(ctx, tx, notificationdomain.EmitRequest{
			BookingID: bookingID,
			Type:      notificationdomain.IntentReturnRequested,
			Recipients: []string{
				booking.PartnerID.String(),
				string(bookingdomain.ActorAdmin),
			},
			Metadata: map[string]any{"reason": reason},
		}); err != nil {
			return err
		}

		result = request
		return nil
	})
	if err != nil {
		return bookingdomain.ReturnRequest{}, err
	}
	return result, nil
}

// ResolveReturn closes the live request. Re-resolving a terminal
// request fails: approval and rejection are business decisions, not
// idempotent writes.
func (s *Service) ResolveReturn(ctx context.Context, req bookingdomain.ResolveReturnRequest) (bookingdomain.ReturnRequest, error) {
	bookingID, err := s.parseID(req.BookingID, bookingdomain.ErrInvalidBookingID)
	if err != nil {
		return bookingdomain.ReturnRequest{}, err
	}
	if req.Decision != bookingdomain.ReturnDecisionApproved && req.Decision != bookingdomain.ReturnDecisionRejected {
		return bookingdomain.ReturnRequest{}, bookingdomain.ErrInvalidDecision
	}
	if req.Actor != bookingdomain.ActorPartner && req.Actor != bookingdomain.ActorAdmin {
		return bookingdomain.ReturnRequest{}, bookingdomain.ErrInvalidActor
	}

	var result bookingdomain.ReturnRequest
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := s.repo.FindByIDForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return bookingdomain.ErrBookingNotFound
		}

		request, err := s.repo.FindLatestReturnRequest(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if request == nil {
			return bookingdomain.ErrReturnNotFound
		}
		if request.Status != bookingdomain.ReturnStatusPending {
			return bookingdomain.ErrAlreadyResolved
		}

		now := s.clock.Now()
		actor := req.Actor
		request.Status = bookingdomain.ReturnStatus(req.Decision)
		request.ResolvedAt = &now
		request.ResolvedBy = &actor
		if err := s.repo.UpdateReturnRequest(ctx, tx, request); err != nil {
			return err
		}

		if err := s.notifier.Emit(ctx, tx, notificationdomain.EmitRequest{
			BookingID:  bookingID,
			Type:       notificationdomain.IntentReturnResolved,
			Recipients: []string{booking.DriverID.String()},
			Metadata:   map[string]any{"decision": string(req.Decision)},
		}); err != nil {
			return err
		}

		result = *request
		return nil
	})
	if err != nil {
		return bookingdomain.ReturnRequest{}, err
	}
	return result, nil
}

func (s *Service) ReportIssue(ctx context.Context, req bookingdomain.ReportIssueRequest) (bookingdomain.Issue, error) {
	bookingID, err := s.parseID(req.BookingID, bookingdomain.ErrInvalidBookingID)
	if err != nil {
		return bookingdomain.Issue{}, err
	}
	if bookingdomain.SeverityRank(req.Severity) < 0 {
		return bookingdomain.Issue{}, bookingdomain.ErrInvalidSeverity
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return bookingdomain.Issue{}, bookingdomain.ErrEmptyDescription
	}
	if req.Reporter != bookingdomain.ActorDriver && req.Reporter != bookingdomain.ActorPartner {
		return bookingdomain.Issue{}, bookingdomain.ErrInvalidActor
	}

	var result bookingdomain.Issue
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := s.repo.FindByID(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return bookingdomain.ErrBookingNotFound
		}
		if bookingdomain.IsTerminal(booking.Status) {
			return bookingdomain.ErrInvalidState
		}

		now := s.clock.Now()
		issue := bookingdomain.Issue{
			ID:          s.genID.Generate(),
			BookingID:   bookingID,
			Severity:    req.Severity,
			Status:      bookingdomain.IssueStatusOpen,
			Description: description,
			ReportedBy:  req.Reporter,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.InsertIssue(ctx, tx, &issue); err != nil {
			return err
		}

		if err := s.notifier.Emit(ctx, tx, notificationdomain.EmitRequest{
			BookingID: bookingID,
			Type:      notificationdomain.IntentIssueReported,
			Recipients: []string{
				booking.PartnerID.String(),
				string(bookingdomain.ActorAdmin),
			},
			Metadata: map[string]any{
				"severity": string(req.Severity),
				"reporter": string(req.Reporter),
			},
		}); err != nil {
			return err
		}

		result = issue
		return nil
	})
	if err != nil {
		return bookingdomain.Issue{}, err
	}
	return result, nil
}

// ResolveIssue is idempotent: resolving an already-resolved issue
// returns the row unchanged.
func (s *Service) ResolveIssue(ctx context.Context, req bookingdomain.ResolveIssueRequest) (bookingdomain.Issue, error) {
	issueID, err := s.parseID(req.IssueID, bookingdomain.ErrInvalidBookingID)
	if err != nil {
		return bookingdomain.Issue{}, err
	}
	if !isValidActor(req.Resolver) {
		return bookingdomain.Issue{}, bookingdomain.ErrInvalidActor
	}

	var result bookingdomain.Issue
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		issue, err := s.repo.FindIssueByID(ctx, tx, issueID)
		if err != nil {
			return err
		}
		if issue == nil {
			return bookingdomain.ErrIssueNotFound
		}

		if issue.Status == bookingdomain.IssueStatusResolved {
			result = *issue
			return nil
		}

		now := s.clock.Now()
		resolver := req.Resolver
		issue.Status = bookingdomain.IssueStatusResolved
		issue.ResolvedAt = &now
		issue.ResolvedBy = &resolver
		issue.ResolutionNotes = req.Notes
		issue.UpdatedAt = now
		if err := s.repo.UpdateIssue(ctx, tx, issue); err != nil {
			return err
		}

		if err := s.notifier.Emit(ctx, tx, notificationdomain.EmitRequest{
			BookingID:  issue.BookingID,
			Type:       notificationdomain.IntentIssueResolved,
			Recipients: []string{string(bookingdomain.ActorAdmin)},
			Metadata:   map[string]any{"resolver": string(req.Resolver)},
		}); err != nil {
			return err
		}

		result = *issue
		return nil
	})
	if err != nil {
		return bookingdomain.Issue{}, err
	}
	return result, nil
}

func (s *Service) ListIssues(ctx context.Context, bookingID string) ([]bookingdomain.Issue, error) {
	id, err := s.parseID(bookingID, bookingdomain.ErrInvalidBookingID)
	if err != nil {
		return nil, err
	}

	booking, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, bookingdomain.ErrBookingNotFound
	}

	return s.repo.FindIssuesByBooking(ctx, s.db, id)
}

func (s *Service) parseID(value string, invalidErr error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalidErr
	}
	return id, nil
}

// validateActivation requires complete documents and a settled charge
// total covering the booking amount.
func (s *Service) validateActivation(ctx context.Context, tx *gorm.DB, booking *bookingdomain.Booking) error {
	if !booking.DocumentsComplete {
		return bookingdomain.ErrActivationIncomplete
	}

	settled, err := s.settledChargeTotal(ctx, tx, booking.ID)
	if err != nil {
		return err
	}
	if settled < booking.TotalAmountCents {
		return bookingdomain.ErrActivationIncomplete
	}
	return nil
}

// validateCompletion lets a booking complete at or after its end date,
// or early when a return request has been approved.
func (s *Service) validateCompletion(ctx context.Context, tx *gorm.DB, booking *bookingdomain.Booking, now time.Time) error {
	if !now.Before(booking.EndDate) {
		return nil
	}

	live, err := s.repo.FindLiveReturnRequest(ctx, tx, booking.ID)
	if err != nil {
		return err
	}
	if live != nil && live.Status == bookingdomain.ReturnStatusApproved {
		return nil
	}
	return bookingdomain.ErrCompletionNotDue
}

func (s *Service) settledChargeTotal(ctx context.Context, tx *gorm.DB, bookingID snowflake.ID) (int64, error) {
	var total int64
	if err := tx.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(amount_cents), 0)
		 FROM payment_events
		 WHERE booking_id = ? AND kind = ? AND status IN (?, ?, ?)`,
		bookingID,
		paymentdomain.KindCharge,
		paymentdomain.EventStatusSucceeded,
		paymentdomain.EventStatusPaid,
		paymentdomain.EventStatusConfirmed,
	).Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func isValidActor(actor bookingdomain.Actor) bool {
	switch actor {
	case bookingdomain.ActorDriver, bookingdomain.ActorPartner, bookingdomain.ActorAdmin, bookingdomain.ActorSystem:
		return true
	default:
		return false
	}
}
