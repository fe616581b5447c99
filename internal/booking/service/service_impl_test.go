package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/comparepco/rentalcore/internal/booking/domain"
	"github.com/comparepco/rentalcore/internal/booking/repository"
	"github.com/comparepco/rentalcore/internal/clock"
	notificationdomain "github.com/comparepco/rentalcore/internal/notification/domain"
	paymentdomain "github.com/comparepco/rentalcore/internal/payment/domain"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// stubNotifier records emissions in memory so tests can assert on them
// without a notification table round trip.
type stubNotifier struct {
	emitted []notificationdomain.EmitRequest
}

func (n *stubNotifier) Emit(ctx context.Context, tx *gorm.DB, req notificationdomain.EmitRequest) error {
	n.emitted = append(n.emitted, req)
	return nil
}

func (n *stubNotifier) ListByBooking(ctx context.Context, bookingID snowflake.ID) ([]notificationdomain.NotificationIntent, error) {
	return nil, nil
}

func (n *stubNotifier) lastType() notificationdomain.IntentType {
	if len(n.emitted) == 0 {
		return ""
	}
	return n.emitted[len(n.emitted)-1].Type
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&bookingdomain.Booking{},
		&bookingdomain.ReturnRequest{},
		&bookingdomain.Issue{},
		&paymentdomain.PaymentEvent{},
	))
	return db
}

type fixture struct {
	svc      bookingdomain.Service
	db       *gorm.DB
	node     *snowflake.Node
	clock    *clock.FakeClock
	notifier *stubNotifier
}

func setupService(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	notifier := &stubNotifier{}

	svc := NewService(ServiceParam{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    fake,
		Repo:     repository.Provide(),
		Notifier: notifier,
	})
	return &fixture{svc: svc, db: db, node: node, clock: fake, notifier: notifier}
}

func (f *fixture) seedBooking(t *testing.T, status bookingdomain.BookingStatus, mutate ...func(*bookingdomain.Booking)) bookingdomain.Booking {
	t.Helper()
	now := f.clock.Now()
	booking := bookingdomain.Booking{
		ID:               f.node.Generate(),
		DriverID:         f.node.Generate(),
		PartnerID:        f.node.Generate(),
		VehicleID:        f.node.Generate(),
		TermWeeks:        12,
		TotalAmountCents: 50000,
		StartDate:        now,
		EndDate:          now.AddDate(0, 0, 84),
		Status:           status,
		DriverName:       "Amir Hassan",
		PartnerName:      "City Fleet Ltd",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for _, fn := range mutate {
		fn(&booking)
	}
	require.NoError(t, f.db.Create(&booking).Error)
	return booking
}

func (f *fixture) seedSettledCharge(t *testing.T, bookingID snowflake.ID, amount int64) {
	t.Helper()
	event := paymentdomain.PaymentEvent{
		ID:          f.node.Generate(),
		BookingID:   bookingID,
		Kind:        paymentdomain.KindCharge,
		Status:      paymentdomain.EventStatusSucceeded,
		AmountCents: amount,
		OccurredAt:  f.clock.Now(),
		CreatedAt:   f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&event).Error)
}

func TestCreateBookingValidation(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	valid := bookingdomain.CreateBookingRequest{
		DriverID:         f.node.Generate().String(),
		PartnerID:        f.node.Generate().String(),
		VehicleID:        f.node.Generate().String(),
		TermWeeks:        4,
		TotalAmountCents: 20000,
		StartDate:        f.clock.Now(),
		EndDate:          f.clock.Now().AddDate(0, 0, 28),
	}

	booking, err := f.svc.Create(ctx, valid)
	require.NoError(t, err)
	assert.Equal(t, bookingdomain.StatusPendingPartnerApproval, booking.Status)

	bad := valid
	bad.TermWeeks = 0
	_, err = f.svc.Create(ctx, bad)
	assert.Error(t, err)

	bad = valid
	bad.EndDate = valid.StartDate.AddDate(0, 0, -1)
	_, err = f.svc.Create(ctx, bad)
	assert.Error(t, err)

	bad = valid
	bad.DriverID = "not-a-number"
	_, err = f.svc.Create(ctx, bad)
	assert.ErrorIs(t, err, bookingdomain.ErrInvalidBookingID)
}

func TestTransitionSameStatusIsNoOp(t *testing.T) {
	f := setupService(t)
	booking := f.seedBooking(t, bookingdomain.StatusPendingPartnerApproval)

	result, err := f.svc.Transition(context.Background(), bookingdomain.TransitionRequest{
		BookingID: booking.ID.String(),
		Target:    bookingdomain.StatusPendingPartnerApproval,
		Actor:     bookingdomain.ActorAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, bookingdomain.StatusPendingPartnerApproval, result.Status)
	assert.Empty(t, f.notifier.emitted)
}

func TestTransitionRejectsIllegalEdge(t *testing.T) {
	f := setupService(t)
	booking := f.seedBooking(t, bookingdomain.StatusPendingPartnerApproval)

	_, err := f.svc.Transition(context.Background(), bookingdomain.TransitionRequest{
		BookingID: booking.ID.String(),
		Target:    bookingdomain.StatusCompleted,
		Actor:     bookingdomain.ActorAdmin,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, bookingdomain.ErrInvalidTransition)

	var tErr *bookingdomain.TransitionError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, bookingdomain.StatusPendingPartnerApproval, tErr.From)
	assert.Equal(t, bookingdomain.StatusCompleted, tErr.To)
}

func TestTransitionActorGate(t *testing.T) {
	f := setupService(t)
	booking := f.seedBooking(t, bookingdomain.StatusPendingPartnerApproval)

	_, err := f.svc.Transition(context.Background(), bookingdomain.TransitionRequest{
		BookingID: booking.ID.String(),
		Target:    bookingdomain.StatusPartnerAccepted,
		Actor:     bookingdomain.ActorDriver,
	})
	assert.ErrorIs(t, err, bookingdomain.ErrInvalidTransition)

	result, err := f.svc.Transition(context.Background(), bookingdomain.TransitionRequest{
		BookingID: booking.ID.String(),
		Target:    bookingdomain.StatusPartnerAccepted,
		Actor:     bookingdomain.ActorPartner,
	})
	require.NoError(t, err)
	assert.Equal(t, bookingdomain.StatusPartnerAccepted, result.Status)
	assert.Equal(t, notificationdomain.IntentBookingTransition, f.notifier.lastType())
}

func TestTerminalBookingsAreImmutable(t *testing.T) {
	f := setupService(t)

	for _, status := range []bookingdomain.BookingStatus{
		bookingdomain.StatusCompleted,
		bookingdomain.StatusCancelled,
		bookingdomain.StatusRejected,
	} {
		booking := f.seedBooking(t, status)
		_, err := f.svc.Transition(context.Background(), bookingdomain.TransitionRequest{
			BookingID: booking.ID.String(),
			Target:    bookingdomain.StatusActive,
			Actor:     bookingdomain.ActorAdmin,
		})
		assert.ErrorIsf(t, err, bookingdomain.ErrInvalidTransition, "status %s", status)
	}
}

func TestActivationRequiresDocumentsAndPayment(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	booking := f.seedBooking(t, bookingdomain.StatusPendingPayment)
	activate := bookingdomain.TransitionRequest{
		BookingID: booking.ID.String(),
		Target:    bookingdomain.StatusActive,
		Actor:     bookingdomain.ActorSystem,
	}

	_, err := f.svc.Transition(ctx, activate)
	assert.ErrorIs(t, err, bookingdomain.ErrActivationIncomplete)

	require.NoError(t, f.db.Model(&bookingdomain.Booking{}).
		Where("id = ?", booking.ID).
		Update("documents_complete", true).Error)

	_, err = f.svc.Transition(ctx, activate)
	assert.ErrorIs(t, err, bookingdomain.ErrActivationIncomplete)

	f.seedSettledCharge(t, booking.ID, 30000)
	_, err = f.svc.Transition(ctx, activate)
	assert.ErrorIs(t, err, bookingdomain.ErrActivationIncomplete)

	f.seedSettledCharge(t, booking.ID, 20000)
	result, err := f.svc.Transition(ctx, activate)
	require.NoError(t, err)
	assert.Equal(t, bookingdomain.StatusActive, result.Status)
}

func TestCompletionRequiresEndDateOrApprovedReturn(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	booking := f.seedBooking(t, bookingdomain.StatusActive)
	complete := bookingdomain.TransitionRequest{
		BookingID: booking.ID.String(),
		Target:    bookingdomain.StatusCompleted,
		Actor:     bookingdomain.ActorPartner,
	}

	_, err := f.svc.Transition(ctx, complete)
	assert.ErrorIs(t, err, bookingdomain.ErrCompletionNotDue)

	f.clock.Advance(85 * 24 * time.Hour)
	result, err := f.svc.Transition(ctx, complete)
	require.NoError(t, err)
	assert.Equal(t, bookingdomain.StatusCompleted, result.Status)
}

func TestEarlyCompletionViaApprovedReturn(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	booking := f.seedBooking(t, bookingdomain.StatusActive)

	_, err := f.svc.RequestReturn(ctx, bookingdomain.RequestReturnRequest{
		BookingID: booking.ID.String(),
		Actor:     bookingdomain.ActorDriver,
		Reason:    "moving abroad",
	})
	require.NoError(t, err)
	assert.Equal(t, notificationdomain.IntentReturnRequested, f.notifier.lastType())

	resolved, err := f.svc.ResolveReturn(ctx, bookingdomain.ResolveReturnRequest{
		BookingID: booking.ID.String(),
		Decision:  bookingdomain.ReturnDecisionApproved,
		Actor:     bookingdomain.ActorPartner,
	})
	require.NoError(t, err)
	assert.Equal(t, bookingdomain.ReturnStatusApproved, resolved.Status)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, bookingdomain.ActorPartner, *resolved.ResolvedBy)

	// End date is months away; the approved return unlocks completion.
	result, err := f.svc.Transition(ctx, bookingdomain.TransitionRequest{
		BookingID: booking.ID.String(),
		Target:    bookingdomain.StatusCompleted,
		Actor:     bookingdomain.ActorPartner,
	})
	require.NoError(t, err)
	assert.Equal(t, bookingdomain.StatusCompleted, result.Status)

	// The decision is final.
	_, err = f.svc.ResolveReturn(ctx, bookingdomain.ResolveReturnRequest{
		BookingID: booking.ID.String(),
		Decision:  bookingdomain.ReturnDecisionRejected,
		Actor:     bookingdomain.ActorAdmin,
	})
	assert.ErrorIs(t, err, bookingdomain.ErrAlreadyResolved)
}

func TestRequestReturnGuards(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	booking := f.seedBooking(t, bookingdomain.StatusActive)
	request := bookingdomain.RequestReturnRequest{
		BookingID: booking.ID.String(),
		Actor:     bookingdomain.ActorDriver,
		Reason:    "no longer needed",
	}

	_, err := f.svc.RequestReturn(ctx, bookingdomain.RequestReturnRequest{
		BookingID: booking.ID.String(),
		Actor:     bookingdomain.ActorPartner,
		Reason:    "no longer needed",
	})
	assert.ErrorIs(t, err, bookingdomain.ErrInvalidActor)

	_, err = f.svc.RequestReturn(ctx, bookingdomain.RequestReturnRequest{
		BookingID: booking.ID.String(),
		Actor:     bookingdomain.ActorDriver,
		Reason:    "   ",
	})
	assert.ErrorIs(t, err, bookingdomain.ErrEmptyReason)

	first, err := f.svc.RequestReturn(ctx, request)
	require.NoError(t, err)
	assert.Equal(t, bookingdomain.ReturnStatusPending, first.Status)

	_, err = f.svc.RequestReturn(ctx, request)
	assert.ErrorIs(t, err, bookingdomain.ErrDuplicateRequest)

	// A rejected request frees the slot for a new one.
	_, err = f.svc.ResolveReturn(ctx, bookingdomain.ResolveReturnRequest{
		BookingID: booking.ID.String(),
		Decision:  bookingdomain.ReturnDecisionRejected,
		Actor:     bookingdomain.ActorAdmin,
	})
	require.NoError(t, err)

	second, err := f.svc.RequestReturn(ctx, request)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestRequestReturnRequiresEligibleStatus(t *testing.T) {
	f := setupService(t)
	booking := f.seedBooking(t, bookingdomain.StatusPendingPayment)

	_, err := f.svc.RequestReturn(context.Background(), bookingdomain.RequestReturnRequest{
		BookingID: booking.ID.String(),
		Actor:     bookingdomain.ActorDriver,
		Reason:    "changed my mind",
	})
	assert.ErrorIs(t, err, bookingdomain.ErrInvalidState)
}

func TestResolveReturnWithoutRequest(t *testing.T) {
	f := setupService(t)
	booking := f.seedBooking(t, bookingdomain.StatusActive)

	_, err := f.svc.ResolveReturn(context.Background(), bookingdomain.ResolveReturnRequest{
		BookingID: booking.ID.String(),
		Decision:  bookingdomain.ReturnDecisionApproved,
		Actor:     bookingdomain.ActorPartner,
	})
	assert.ErrorIs(t, err, bookingdomain.ErrReturnNotFound)
}

func TestReportIssueValidation(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	booking := f.seedBooking(t, bookingdomain.StatusActive)

	_, err := f.svc.ReportIssue(ctx, bookingdomain.ReportIssueRequest{
		BookingID:   booking.ID.String(),
		Severity:    "catastrophic",
		Description: "engine light",
		Reporter:    bookingdomain.ActorDriver,
	})
	assert.ErrorIs(t, err, bookingdomain.ErrInvalidSeverity)

	_, err = f.svc.ReportIssue(ctx, bookingdomain.ReportIssueRequest{
		BookingID:   booking.ID.String(),
		Severity:    bookingdomain.SeverityHigh,
		Description: "  ",
		Reporter:    bookingdomain.ActorDriver,
	})
	assert.ErrorIs(t, err, bookingdomain.ErrEmptyDescription)

	issue, err := f.svc.ReportIssue(ctx, bookingdomain.ReportIssueRequest{
		BookingID:   booking.ID.String(),
		Severity:    bookingdomain.SeverityHigh,
		Description: "engine light on",
		Reporter:    bookingdomain.ActorDriver,
	})
	require.NoError(t, err)
	assert.Equal(t, bookingdomain.IssueStatusOpen, issue.Status)
	assert.Equal(t, notificationdomain.IntentIssueReported, f.notifier.lastType())

	issues, err := f.svc.ListIssues(ctx, booking.ID.String())
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, issue.ID, issues[0].ID)

	cancelled := f.seedBooking(t, bookingdomain.StatusCancelled)
	_, err = f.svc.ReportIssue(ctx, bookingdomain.ReportIssueRequest{
		BookingID:   cancelled.ID.String(),
		Severity:    bookingdomain.SeverityLow,
		Description: "scratch on door",
		Reporter:    bookingdomain.ActorPartner,
	})
	assert.ErrorIs(t, err, bookingdomain.ErrInvalidState)
}

func TestResolveIssueIsIdempotent(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	booking := f.seedBooking(t, bookingdomain.StatusActive)
	issue, err := f.svc.ReportIssue(ctx, bookingdomain.ReportIssueRequest{
		BookingID:   booking.ID.String(),
		Severity:    bookingdomain.SeverityMedium,
		Description: "wiper blade worn",
		Reporter:    bookingdomain.ActorDriver,
	})
	require.NoError(t, err)

	notes := "replaced blade"
	resolved, err := f.svc.ResolveIssue(ctx, bookingdomain.ResolveIssueRequest{
		IssueID:  issue.ID.String(),
		Resolver: bookingdomain.ActorPartner,
		Notes:    &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, bookingdomain.IssueStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)
	firstResolvedAt := *resolved.ResolvedAt

	f.clock.Advance(time.Hour)
	emittedBefore := len(f.notifier.emitted)

	again, err := f.svc.ResolveIssue(ctx, bookingdomain.ResolveIssueRequest{
		IssueID:  issue.ID.String(),
		Resolver: bookingdomain.ActorAdmin,
	})
	require.NoError(t, err)
	require.NotNil(t, again.ResolvedAt)
	assert.True(t, again.ResolvedAt.Equal(firstResolvedAt))
	require.NotNil(t, again.ResolvedBy)
	assert.Equal(t, bookingdomain.ActorPartner, *again.ResolvedBy)
	assert.Len(t, f.notifier.emitted, emittedBefore)
}

func TestGetByIDNotFound(t *testing.T) {
	f := setupService(t)

	_, err := f.svc.GetByID(context.Background(), f.node.Generate().String())
	assert.ErrorIs(t, err, bookingdomain.ErrBookingNotFound)
}
