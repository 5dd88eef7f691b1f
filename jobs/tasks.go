package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeRescheduleReminder fires on the rescheduled delivery date.
	TaskTypeRescheduleReminder = "order:reschedule_reminder"
	// TaskTypeDashboardWarmup re-primes the dashboard cache.
	TaskTypeDashboardWarmup = "dashboard:warmup"
)

// RescheduleReminderPayload carries what the reminder email needs.
type RescheduleReminderPayload struct {
	OrderID      int64     `json:"order_id"`
	TrackingCode string    `json:"tracking_code"`
	CustomerName string    `json:"customer_name"`
	TotalAmount  int64     `json:"total_amount"`
	Date         time.Time `json:"date"`
	Notes        string    `json:"notes,omitempty"`
}

// NewRescheduleReminderTask constructs the reminder task.
func NewRescheduleReminderTask(payload RescheduleReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeRescheduleReminder, data), nil
}

// NewDashboardWarmupTask constructs the warmup task.
func NewDashboardWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeDashboardWarmup, nil)
}

// Mailer sends transactional mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer writes mail to the log instead of sending it. Used when no SMTP
// transport is configured.
type LogMailer struct {
	Logger *slog.Logger
	From   string
}

// Send logs the message.
func (m LogMailer) Send(_ context.Context, to, subject, body string) error {
	if m.Logger != nil {
		m.Logger.Info("mail (log only)",
			slog.String("from", m.From),
			slog.String("to", to),
			slog.String("subject", subject),
			slog.String("body", body))
	}
	return nil
}

// naira formats integer Naira amounts with grouping, e.g. ₦1,250,000.
var naira = message.NewPrinter(language.English)

func formatNaira(amount int64) string {
	return naira.Sprintf("₦%d", amount)
}

// NewRescheduleReminderHandler builds the handler that emits the reminder
// email for a rescheduled delivery.
func NewRescheduleReminderHandler(logger *slog.Logger, mailer Mailer, opsAddress string) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload RescheduleReminderPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		subject := fmt.Sprintf("Delivery due today: %s", payload.TrackingCode)
		body := fmt.Sprintf("Order %s for %s (%s) was rescheduled to %s.",
			payload.TrackingCode, payload.CustomerName, formatNaira(payload.TotalAmount),
			payload.Date.Format("Mon, 2 Jan 2006"))
		if payload.Notes != "" {
			body += " Notes: " + payload.Notes
		}
		if err := mailer.Send(ctx, opsAddress, subject, body); err != nil {
			return fmt.Errorf("jobs: send reminder for order %d: %w", payload.OrderID, err)
		}
		logger.Info("reschedule reminder sent",
			slog.Int64("order_id", payload.OrderID),
			slog.String("tracking_code", payload.TrackingCode))
		return nil
	}
}

// DashboardWarmer primes the KPI cache.
type DashboardWarmer interface {
	Warmup(ctx context.Context) error
}

// NewDashboardWarmupHandler builds the handler behind the nightly warmup.
func NewDashboardWarmupHandler(logger *slog.Logger, warmer DashboardWarmer) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		if err := warmer.Warmup(ctx); err != nil {
			return fmt.Errorf("jobs: dashboard warmup: %w", err)
		}
		logger.Info("dashboard cache warmed")
		return nil
	}
}
