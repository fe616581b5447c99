package domain

// transitionTable maps each source status to its legal targets and the
// actors allowed to trigger each edge. Edges absent from the table are
// invalid for every actor.
var transitionTable = map[BookingStatus]map[BookingStatus][]Actor{
	StatusPendingPartnerApproval: {
		StatusPartnerAccepted: {ActorPartner},
		StatusRejected:        {ActorPartner},
		StatusCancelled:       {ActorDriver, ActorPartner, ActorAdmin},
	},
	StatusPendingDriverApproval: {
		StatusCancelled: {ActorDriver, ActorPartner, ActorAdmin},
	},
	StatusPendingVehicleAssignment: {
		StatusCancelled: {ActorDriver, ActorPartner, ActorAdmin},
	},
	StatusPartnerAccepted: {
		StatusPendingDocuments: {ActorSystem},
		StatusPendingPayment:   {ActorSystem},
		StatusActive:           {ActorSystem},
	},
	StatusPendingDocuments: {
		StatusPendingPayment: {ActorSystem},
		StatusActive:         {ActorSystem},
		StatusCancelled:      {ActorDriver, ActorPartner, ActorAdmin},
	},
	StatusPendingPayment: {
		StatusActive:    {ActorSystem},
		StatusCancelled: {ActorDriver, ActorPartner, ActorAdmin},
	},
	StatusActive: {
		StatusCompleted: {ActorPartner, ActorSystem},
		StatusCancelled: {ActorPartner, ActorAdmin},
	},
}

// IsValidStatus reports whether s is one of the defined booking states.
func IsValidStatus(s BookingStatus) bool {
	switch s {
	case StatusPendingPartnerApproval,
		StatusPendingDriverApproval,
		StatusPendingDocuments,
		StatusPendingPayment,
		StatusPendingVehicleAssignment,
		StatusPartnerAccepted,
		StatusActive,
		StatusCompleted,
		StatusCancelled,
		StatusRejected:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no transitions leave s.
func IsTerminal(s BookingStatus) bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusRejected
}

// CanTransition reports whether the edge current→target exists for any
// actor. Same-status is not an edge; callers treat it as a no-op.
func CanTransition(current, target BookingStatus) bool {
	targets, ok := transitionTable[current]
	if !ok {
		return false
	}
	_, ok = targets[target]
	return ok
}

// TransitionAllowedBy reports whether actor may trigger current→target.
func TransitionAllowedBy(current, target BookingStatus, actor Actor) bool {
	targets, ok := transitionTable[current]
	if !ok {
		return false
	}
	actors, ok := targets[target]
	if !ok {
		return false
	}
	for _, a := range actors {
		if a == actor {
			return true
		}
	}
	return false
}

// AllowedTargets lists the statuses reachable from current in one step,
// in a stable order.
func AllowedTargets(current BookingStatus) []BookingStatus {
	targets, ok := transitionTable[current]
	if !ok {
		return nil
	}

	order := []BookingStatus{
		StatusPartnerAccepted,
		StatusPendingDocuments,
		StatusPendingPayment,
		StatusActive,
		StatusCompleted,
		StatusRejected,
		StatusCancelled,
	}

	out := make([]BookingStatus, 0, len(targets))
	for _, candidate := range order {
		if _, ok := targets[candidate]; ok {
			out = append(out, candidate)
		}
	}
	return out
}

// AllowedTargetsFor lists the statuses actor may move the booking to.
func AllowedTargetsFor(current BookingStatus, actor Actor) []BookingStatus {
	var out []BookingStatus
	for _, target := range AllowedTargets(current) {
		if TransitionAllowedBy(current, target, actor) {
			out = append(out, target)
		}
	}
	return out
}
