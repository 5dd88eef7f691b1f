package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-dist/meridian/internal/catalog"
	"github.com/meridian-dist/meridian/internal/shared"
)

// CatalogPort resolves current catalog pricing for snapshot capture.
type CatalogPort interface {
	ProductSnapshot(ctx context.Context, id int64) (catalog.Snapshot, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// NotifierPort publishes coarse change signals after successful mutations.
type NotifierPort interface {
	Changed(ctx context.Context, entity string) error
}

// ReminderInput describes a delivery reminder to schedule.
type ReminderInput struct {
	OrderID      int64
	TrackingCode string
	CustomerName string
	TotalAmount  int64
	Date         time.Time
	Notes        string
}

// ReminderPort schedules reschedule reminders for later delivery dates.
type ReminderPort interface {
	ScheduleReminder(ctx context.Context, reminder ReminderInput) error
}

// CreateItemInput is an order line request. Pricing is captured from the
// catalog at creation; FallbackPrice is used only when the product no longer
// exists in the catalog (lead conversion of a stale capture).
type CreateItemInput struct {
	ProductID     int64
	Qty           int64
	FallbackName  string
	FallbackPrice *int64
}

// CreateOrderInput describes a new order request.
type CreateOrderInput struct {
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	RegionCode      string
	PaymentStatus   PaymentStatus
	Items           []CreateItemInput
	LeadID          *int64
}

// Service coordinates order operations.
type Service struct {
	repo      RepositoryPort
	catalog   CatalogPort
	audit     AuditPort
	notifier  NotifierPort
	reminders ReminderPort
	now       func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, catalogPort CatalogPort, audit AuditPort, notifier NotifierPort, reminders ReminderPort) *Service {
	return &Service{repo: repo, catalog: catalogPort, audit: audit, notifier: notifier, reminders: reminders, now: time.Now}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Create captures a new order. Prices and costs are snapshotted from the
// catalog; the stored total is never recomputed afterwards. Stock is not
// decremented here — it only moves through explicit ledger operations.
func (s *Service) Create(ctx context.Context, input CreateOrderInput, actor shared.Actor) (Order, error) {
	if strings.TrimSpace(input.CustomerName) == "" || strings.TrimSpace(input.CustomerPhone) == "" {
		return Order{}, ErrCustomerRequired
	}
	if len(input.Items) == 0 {
		return Order{}, ErrNoItems
	}

	items := make([]OrderItem, 0, len(input.Items))
	for _, line := range input.Items {
		if line.Qty <= 0 {
			return Order{}, ErrInvalidItem
		}
		snapshot, err := s.catalog.ProductSnapshot(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) && line.FallbackPrice != nil {
				name := line.FallbackName
				if name == "" {
					name = fmt.Sprintf("Product #%d", line.ProductID)
				}
				items = append(items, OrderItem{
					ProductID:   line.ProductID,
					ProductName: name,
					Qty:         line.Qty,
					UnitPrice:   *line.FallbackPrice,
				})
				continue
			}
			return Order{}, err
		}
		items = append(items, OrderItem{
			ProductID:   line.ProductID,
			ProductName: snapshot.Name,
			Qty:         line.Qty,
			UnitPrice:   snapshot.SellingPrice,
			UnitCost:    snapshot.CostPrice,
		})
	}

	payment := input.PaymentStatus
	if payment == "" {
		payment = PaymentPending
	}

	now := s.now().UTC()
	order := Order{
		TrackingCode:    newTrackingCode(),
		CustomerName:    strings.TrimSpace(input.CustomerName),
		CustomerPhone:   strings.TrimSpace(input.CustomerPhone),
		CustomerAddress: strings.TrimSpace(input.CustomerAddress),
		RegionCode:      strings.ToUpper(strings.TrimSpace(input.RegionCode)),
		Items:           items,
		TotalAmount:     TotalAmount(items),
		PaymentStatus:   payment,
		DeliveryStatus:  StatusPending,
		CreatedBy:       actor.ID,
		AgentName:       actor.Name,
		LeadID:          input.LeadID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	created, err := s.repo.Create(ctx, order)
	if err != nil {
		return Order{}, err
	}

	s.record(ctx, actor.ID, "orders:create", created.ID, map[string]any{
		"tracking_code": created.TrackingCode,
		"total_amount":  created.TotalAmount,
		"region":        created.RegionCode,
	})
	s.changed(ctx)
	return created, nil
}

// UpdateStatus applies a delivery-status transition. Sales agents may only
// reschedule; rejected attempts leave the order untouched. The stored total
// is never recomputed, and cancellation performs no stock reversal.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, transition Transition, actor shared.Actor) (Order, error) {
	patch, err := buildPatch(transition, s.now().UTC())
	if err != nil {
		return Order{}, err
	}
	if !AllowedFor(actor.Role, transition.Status()) {
		return Order{}, shared.ErrForbidden
	}

	if err := s.repo.UpdateStatus(ctx, orderID, patch); err != nil {
		return Order{}, err
	}
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}

	s.record(ctx, actor.ID, fmt.Sprintf("orders:status:%s", patch.Status), orderID, map[string]any{
		"status": patch.Status,
	})
	s.changed(ctx)

	if details, ok := transition.(RescheduledDetails); ok && details.Reminder && s.reminders != nil {
		err := s.reminders.ScheduleReminder(ctx, ReminderInput{
			OrderID:      order.ID,
			TrackingCode: order.TrackingCode,
			CustomerName: order.CustomerName,
			TotalAmount:  order.TotalAmount,
			Date:         details.Date,
			Notes:        details.Notes,
		})
		if err != nil {
			// The transition already committed; a reminder failure is
			// reported but does not roll it back.
			return order, fmt.Errorf("orders: schedule reminder: %w", err)
		}
	}
	return order, nil
}

// Get returns an order with its lines.
func (s *Service) Get(ctx context.Context, id int64) (Order, error) {
	return s.repo.Get(ctx, id)
}

// List returns orders matching the filters.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Order, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) record(ctx context.Context, actorID int64, action string, orderID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "order",
		EntityID: fmt.Sprintf("%d", orderID),
		Meta:     meta,
	})
}

func (s *Service) changed(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Changed(ctx, "orders")
}

func newTrackingCode() string {
	id := uuid.NewString()
	return "MRD-" + strings.ToUpper(id[:8])
}
