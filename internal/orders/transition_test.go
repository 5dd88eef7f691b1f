package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-dist/meridian/internal/shared"
)

func TestAllowedForGatesSalesAgent(t *testing.T) {
	for _, status := range []DeliveryStatus{
		StatusPending, StatusInTransit, StatusDelivered,
		StatusReturned, StatusFailed, StatusCancelled,
	} {
		require.False(t, AllowedFor(shared.RoleSalesAgent, status), "agent must not set %s", status)
	}
	require.True(t, AllowedFor(shared.RoleSalesAgent, StatusRescheduled))

	for _, role := range []shared.Role{shared.RoleAdmin, shared.RoleStateManager} {
		for _, status := range []DeliveryStatus{StatusDelivered, StatusCancelled, StatusRescheduled, StatusInTransit} {
			require.True(t, AllowedFor(role, status))
		}
	}
}

func TestPlainTransitionRejectsDetailStatuses(t *testing.T) {
	for _, status := range []DeliveryStatus{StatusDelivered, StatusRescheduled, StatusCancelled} {
		_, err := buildPatch(PlainTransition{To: status}, time.Now())
		require.ErrorIs(t, err, ErrDetailsRequired)
	}
	_, err := buildPatch(PlainTransition{To: "LOST"}, time.Now())
	require.ErrorIs(t, err, ErrUnknownStatus)
}

func TestDeliveredPatchStampsCostAndTime(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	patch, err := buildPatch(DeliveredDetails{LogisticsCost: 2500}, now)
	require.NoError(t, err)
	require.Equal(t, StatusDelivered, patch.Status)
	require.NotNil(t, patch.LogisticsCost)
	require.EqualValues(t, 2500, *patch.LogisticsCost)
	require.NotNil(t, patch.DeliveredAt)
	require.Equal(t, now, *patch.DeliveredAt)

	_, err = buildPatch(DeliveredDetails{LogisticsCost: -1}, now)
	require.ErrorIs(t, err, ErrNegativeLogisticsCost)
}

func TestReschedulePatchRequiresDateAndNotes(t *testing.T) {
	date := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)

	_, err := buildPatch(RescheduledDetails{Notes: "customer travelling"}, time.Now())
	require.ErrorIs(t, err, ErrScheduleIncomplete)

	_, err = buildPatch(RescheduledDetails{Date: date}, time.Now())
	require.ErrorIs(t, err, ErrScheduleIncomplete)

	patch, err := buildPatch(RescheduledDetails{Date: date, Notes: "customer travelling", Reminder: true}, time.Now())
	require.NoError(t, err)
	require.Equal(t, StatusRescheduled, patch.Status)
	require.Equal(t, date, *patch.RescheduledDate)
	require.Equal(t, "customer travelling", *patch.RescheduleNotes)
	require.True(t, *patch.ReminderSet)
}

func TestCancelledPatchCarriesReason(t *testing.T) {
	patch, err := buildPatch(CancelledDetails{Reason: "duplicate order"}, time.Now())
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, patch.Status)
	require.Equal(t, "duplicate order", *patch.CancelReason)
	require.Nil(t, patch.LogisticsCost)
	require.Nil(t, patch.DeliveredAt)
}
