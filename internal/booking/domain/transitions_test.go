package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var allStatuses = []BookingStatus{
	StatusPendingPartnerApproval,
	StatusPendingDriverApproval,
	StatusPendingDocuments,
	StatusPendingPayment,
	StatusPendingVehicleAssignment,
	StatusPartnerAccepted,
	StatusActive,
	StatusCompleted,
	StatusCancelled,
	StatusRejected,
}

var allActors = []Actor{ActorDriver, ActorPartner, ActorAdmin, ActorSystem}

func TestCanTransitionMatchesTable(t *testing.T) {
	legal := map[BookingStatus]map[BookingStatus]bool{
		StatusPendingPartnerApproval: {
			StatusPartnerAccepted: true,
			StatusRejected:        true,
			StatusCancelled:       true,
		},
		StatusPendingDriverApproval: {
			StatusCancelled: true,
		},
		StatusPendingVehicleAssignment: {
			StatusCancelled: true,
		},
		StatusPartnerAccepted: {
			StatusPendingDocuments: true,
			StatusPendingPayment:   true,
			StatusActive:           true,
		},
		StatusPendingDocuments: {
			StatusPendingPayment: true,
			StatusActive:         true,
			StatusCancelled:      true,
		},
		StatusPendingPayment: {
			StatusActive:    true,
			StatusCancelled: true,
		},
		StatusActive: {
			StatusCompleted: true,
			StatusCancelled: true,
		},
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := legal[from][to]
			assert.Equalf(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTerminalStatesHaveNoOutgoingEdges(t *testing.T) {
	for _, from := range []BookingStatus{StatusCompleted, StatusCancelled, StatusRejected} {
		assert.True(t, IsTerminal(from))
		for _, to := range allStatuses {
			assert.Falsef(t, CanTransition(from, to), "%s -> %s should be illegal", from, to)
			for _, actor := range allActors {
				assert.False(t, TransitionAllowedBy(from, to, actor))
			}
		}
		assert.Empty(t, AllowedTargets(from))
	}
}

func TestTransitionActorGates(t *testing.T) {
	cases := []struct {
		from, to BookingStatus
		allowed  []Actor
	}{
		{StatusPendingPartnerApproval, StatusPartnerAccepted, []Actor{ActorPartner}},
		{StatusPendingPartnerApproval, StatusRejected, []Actor{ActorPartner}},
		{StatusPendingPartnerApproval, StatusCancelled, []Actor{ActorDriver, ActorPartner, ActorAdmin}},
		{StatusPartnerAccepted, StatusActive, []Actor{ActorSystem}},
		{StatusPendingDocuments, StatusPendingPayment, []Actor{ActorSystem}},
		{StatusPendingPayment, StatusActive, []Actor{ActorSystem}},
		{StatusActive, StatusCompleted, []Actor{ActorPartner, ActorSystem}},
		{StatusActive, StatusCancelled, []Actor{ActorPartner, ActorAdmin}},
	}

	for _, tc := range cases {
		allowedSet := map[Actor]bool{}
		for _, a := range tc.allowed {
			allowedSet[a] = true
		}
		for _, actor := range allActors {
			got := TransitionAllowedBy(tc.from, tc.to, actor)
			assert.Equalf(t, allowedSet[actor], got, "%s -> %s by %s", tc.from, tc.to, actor)
		}
	}
}

func TestPartnerAcceptedHasNoCancelEdge(t *testing.T) {
	assert.False(t, CanTransition(StatusPartnerAccepted, StatusCancelled))
}

func TestAllowedTargetsForFiltersByActor(t *testing.T) {
	targets := AllowedTargetsFor(StatusActive, ActorSystem)
	assert.Equal(t, []BookingStatus{StatusCompleted}, targets)

	targets = AllowedTargetsFor(StatusActive, ActorAdmin)
	assert.Equal(t, []BookingStatus{StatusCancelled}, targets)

	assert.Empty(t, AllowedTargetsFor(StatusActive, ActorDriver))
}

func TestSeverityRank(t *testing.T) {
	assert.True(t, SeverityRank(SeverityCritical) > SeverityRank(SeverityHigh))
	assert.True(t, SeverityRank(SeverityHigh) > SeverityRank(SeverityMedium))
	assert.True(t, SeverityRank(SeverityMedium) > SeverityRank(SeverityLow))
	assert.Equal(t, -1, SeverityRank(IssueSeverity("unknown")))
}
