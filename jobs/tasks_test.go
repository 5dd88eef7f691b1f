package jobs

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type captureMailer struct {
	to      string
	subject string
	body    string
}

func (m *captureMailer) Send(_ context.Context, to, subject, body string) error {
	m.to, m.subject, m.body = to, subject, body
	return nil
}

func TestLogMailerIncludesSender(t *testing.T) {
	var buf bytes.Buffer
	mailer := LogMailer{Logger: slog.New(slog.NewTextHandler(&buf, nil)), From: "no-reply@meridian.ng"}

	require.NoError(t, mailer.Send(context.Background(), "ops@meridian.ng", "subject", "body"))
	require.Contains(t, buf.String(), "no-reply@meridian.ng")
	require.Contains(t, buf.String(), "ops@meridian.ng")
}

func TestFormatNairaGroupsDigits(t *testing.T) {
	require.Equal(t, "₦1,250,000", formatNaira(1250000))
	require.Equal(t, "₦0", formatNaira(0))
	require.Equal(t, "₦999", formatNaira(999))
}

func TestRescheduleReminderHandlerSendsMail(t *testing.T) {
	mailer := &captureMailer{}
	handler := NewRescheduleReminderHandler(slog.Default(), mailer, "ops@meridian.ng")

	task, err := NewRescheduleReminderTask(RescheduleReminderPayload{
		OrderID:      42,
		TrackingCode: "MRD-ABC12345",
		CustomerName: "Bisi Ade",
		TotalAmount:  45000,
		Date:         time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		Notes:        "call before noon",
	})
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), task))
	require.Equal(t, "ops@meridian.ng", mailer.to)
	require.Contains(t, mailer.subject, "MRD-ABC12345")
	require.Contains(t, mailer.body, "₦45,000")
	require.Contains(t, mailer.body, "call before noon")
}

func TestRescheduleReminderHandlerSkipsBadPayload(t *testing.T) {
	handler := NewRescheduleReminderHandler(slog.Default(), &captureMailer{}, "ops@meridian.ng")
	err := handler(context.Background(), asynq.NewTask(TaskTypeRescheduleReminder, []byte("not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}
