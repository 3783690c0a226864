package models

import "github.com/pkg/errors"

type Status string

const (
	StatusPending         Status = "pending"
	StatusPaymentReceived Status = "payment_received"
	StatusConfirmed       Status = "confirmed"
	StatusPreparing       Status = "preparing"
	StatusDispatched      Status = "dispatched"
	StatusDelivered       Status = "delivered"
	StatusCancelled       Status = "cancelled"
)

// InitialStatus is the status every order is created with.
const InitialStatus = StatusPending

// transitions lists the legal next states. Terminal states have no entry.
var transitions = map[Status][]Status{
	StatusPending:         {StatusPaymentReceived, StatusCancelled},
	StatusPaymentReceived: {StatusConfirmed, StatusCancelled},
	StatusConfirmed:       {StatusPreparing, StatusCancelled},
	StatusPreparing:       {StatusDispatched},
	StatusDispatched:      {StatusDelivered},
}

var allStatuses = []Status{
	StatusPending,
	StatusPaymentReceived,
	StatusConfirmed,
	StatusPreparing,
	StatusDispatched,
	StatusDelivered,
	StatusCancelled,
}

func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", errors.Errorf("unknown order status: %q", s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	for _, st := range allStatuses {
		if st == s {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Next returns the legal targets from s.
func (s Status) Next() []Status {
	next := transitions[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// ValidHistory reports whether seq starts at the initial status and only ever
// follows legal transitions.
func ValidHistory(seq []Status) bool {
	if len(seq) == 0 || seq[0] != InitialStatus {
		return false
	}
	for i := 1; i < len(seq); i++ {
		if !seq[i-1].CanTransitionTo(seq[i]) {
			return false
		}
	}
	return true
}
