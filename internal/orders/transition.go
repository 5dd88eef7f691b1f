package orders

import (
	"errors"
	"strings"
	"time"

	"github.com/meridian-dist/meridian/internal/shared"
)

// Transition is the tagged set of delivery-status changes. Each transition
// kind carries exactly the side data it requires, so invalid combinations
// cannot be expressed.
type Transition interface {
	Status() DeliveryStatus
	validate() error
}

// PlainTransition covers the statuses that need no side data: Pending,
// In Transit, Returned and Failed. Delivered, Rescheduled and Cancelled have
// dedicated detail types.
type PlainTransition struct {
	To DeliveryStatus
}

// DeliveredDetails marks an order delivered. The logistics cost is a forced
// side input supplied with the transition; it is not validated against any
// historical average.
type DeliveredDetails struct {
	LogisticsCost int64
}

// RescheduledDetails moves delivery to a later date. This is the only
// transition a sales agent may perform.
type RescheduledDetails struct {
	Date     time.Time
	Notes    string
	Reminder bool
}

// CancelledDetails cancels the order. No compensating stock reversal is
// performed.
type CancelledDetails struct {
	Reason string
}

func (t PlainTransition) Status() DeliveryStatus { return t.To }

func (DeliveredDetails) Status() DeliveryStatus { return StatusDelivered }

func (RescheduledDetails) Status() DeliveryStatus { return StatusRescheduled }

func (CancelledDetails) Status() DeliveryStatus { return StatusCancelled }

var (
	// ErrUnknownStatus indicates an unrecognised target status.
	ErrUnknownStatus = errors.New("orders: unknown delivery status")
	// ErrDetailsRequired indicates a plain transition to a status that
	// needs its dedicated detail type.
	ErrDetailsRequired = errors.New("orders: transition requires details")
	// ErrNegativeLogisticsCost rejects a negative delivered cost.
	ErrNegativeLogisticsCost = errors.New("orders: logistics cost must be >= 0")
	// ErrScheduleIncomplete indicates a reschedule without date or notes.
	ErrScheduleIncomplete = errors.New("orders: reschedule requires date and notes")
)

func (t PlainTransition) validate() error {
	if !t.To.Valid() {
		return ErrUnknownStatus
	}
	switch t.To {
	case StatusDelivered, StatusRescheduled, StatusCancelled:
		return ErrDetailsRequired
	}
	return nil
}

func (t DeliveredDetails) validate() error {
	if t.LogisticsCost < 0 {
		return ErrNegativeLogisticsCost
	}
	return nil
}

func (t RescheduledDetails) validate() error {
	if t.Date.IsZero() || strings.TrimSpace(t.Notes) == "" {
		return ErrScheduleIncomplete
	}
	return nil
}

func (t CancelledDetails) validate() error {
	return nil
}

// AllowedFor reports whether the actor's role may apply the transition.
// Sales agents may only reschedule; every other transition needs an
// elevated role.
func AllowedFor(role shared.Role, to DeliveryStatus) bool {
	if role.Elevated() {
		return true
	}
	return to == StatusRescheduled
}

// StatusPatch holds the persisted effect of an applied transition.
type StatusPatch struct {
	Status          DeliveryStatus
	LogisticsCost   *int64
	DeliveredAt     *time.Time
	RescheduledDate *time.Time
	RescheduleNotes *string
	ReminderSet     *bool
	CancelReason    *string
}

func buildPatch(t Transition, now time.Time) (StatusPatch, error) {
	if err := t.validate(); err != nil {
		return StatusPatch{}, err
	}
	patch := StatusPatch{Status: t.Status()}
	switch details := t.(type) {
	case DeliveredDetails:
		patch.LogisticsCost = &details.LogisticsCost
		patch.DeliveredAt = &now
	case RescheduledDetails:
		date := details.Date
		notes := details.Notes
		reminder := details.Reminder
		patch.RescheduledDate = &date
		patch.RescheduleNotes = &notes
		patch.ReminderSet = &reminder
	case CancelledDetails:
		reason := details.Reason
		patch.CancelReason = &reason
	}
	return patch, nil
}
