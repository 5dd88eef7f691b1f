package leads

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/meridian-dist/meridian/internal/orders"
	"github.com/meridian-dist/meridian/internal/shared"
)

// OrdersPort creates orders on conversion.
type OrdersPort interface {
	Create(ctx context.Context, input orders.CreateOrderInput, actor shared.Actor) (orders.Order, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// NotifierPort publishes coarse change signals after successful mutations.
type NotifierPort interface {
	Changed(ctx context.Context, entity string) error
}

// CaptureItemInput is a line captured with a lead or cart.
type CaptureItemInput struct {
	ProductID     int64
	ProductName   string
	Qty           int64
	CapturedPrice *int64
}

// CaptureLeadInput is a public-site lead submission.
type CaptureLeadInput struct {
	Name    string
	Phone   string
	Email   string
	Address string
	Source  string
	Items   []CaptureItemInput
}

// CaptureCartInput is an abandoned checkout submission.
type CaptureCartInput struct {
	Name  string
	Phone string
	Email string
	Items []CaptureItemInput
}

// ConvertInput supplies the data a conversion needs beyond the lead itself.
type ConvertInput struct {
	RegionCode      string
	CustomerAddress string
}

// Service coordinates lead capture, follow-up and conversion into orders.
type Service struct {
	repo     RepositoryPort
	orders   OrdersPort
	audit    AuditPort
	notifier NotifierPort
	now      func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, ordersPort OrdersPort, audit AuditPort, notifier NotifierPort) *Service {
	return &Service{repo: repo, orders: ordersPort, audit: audit, notifier: notifier, now: time.Now}
}

// CaptureLead records a lead from the public site.
func (s *Service) CaptureLead(ctx context.Context, input CaptureLeadInput) (WebLead, error) {
	if strings.TrimSpace(input.Phone) == "" {
		return WebLead{}, ErrPhoneRequired
	}
	now := s.now().UTC()
	lead := WebLead{
		Name:      strings.TrimSpace(input.Name),
		Phone:     strings.TrimSpace(input.Phone),
		Email:     strings.TrimSpace(input.Email),
		Address:   strings.TrimSpace(input.Address),
		Source:    strings.TrimSpace(input.Source),
		Status:    LeadNew,
		Items:     captureItems(input.Items),
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := s.repo.CreateLead(ctx, lead)
	if err != nil {
		return WebLead{}, err
	}
	s.changed(ctx)
	return created, nil
}

// CaptureCart records an abandoned checkout.
func (s *Service) CaptureCart(ctx context.Context, input CaptureCartInput) (AbandonedCart, error) {
	if strings.TrimSpace(input.Phone) == "" {
		return AbandonedCart{}, ErrPhoneRequired
	}
	now := s.now().UTC()
	cart := AbandonedCart{
		Name:      strings.TrimSpace(input.Name),
		Phone:     strings.TrimSpace(input.Phone),
		Email:     strings.TrimSpace(input.Email),
		Status:    CartOpen,
		Items:     captureItems(input.Items),
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := s.repo.CreateCart(ctx, cart)
	if err != nil {
		return AbandonedCart{}, err
	}
	s.changed(ctx)
	return created, nil
}

// Convert turns a lead into an order: one line per lead item at the current
// catalog price, falling back to the captured lead price when the product has
// left the catalog. The lead is marked Converted and the order back-references
// it; the lead itself does not track the order.
func (s *Service) Convert(ctx context.Context, leadID int64, input ConvertInput, actor shared.Actor) (orders.Order, error) {
	lead, err := s.repo.GetLead(ctx, leadID)
	if err != nil {
		return orders.Order{}, err
	}
	if lead.Status == LeadConverted {
		return orders.Order{}, ErrAlreadyConverted
	}
	if len(lead.Items) == 0 {
		return orders.Order{}, ErrNoLeadItems
	}

	address := strings.TrimSpace(input.CustomerAddress)
	if address == "" {
		address = lead.Address
	}
	order, err := s.orders.Create(ctx, orders.CreateOrderInput{
		CustomerName:    lead.Name,
		CustomerPhone:   lead.Phone,
		CustomerAddress: address,
		RegionCode:      input.RegionCode,
		Items:           orderLines(lead.Items),
		LeadID:          &lead.ID,
	}, actor)
	if err != nil {
		return orders.Order{}, err
	}

	if err := s.repo.UpdateLeadStatus(ctx, leadID, LeadConverted); err != nil {
		return orders.Order{}, fmt.Errorf("leads: mark converted: %w", err)
	}
	s.record(ctx, actor.ID, "leads:convert", leadID, map[string]any{
		"order_id":      order.ID,
		"tracking_code": order.TrackingCode,
	})
	s.changed(ctx)
	return order, nil
}

// RecoverCart converts an abandoned cart into an order and marks it Recovered.
func (s *Service) RecoverCart(ctx context.Context, cartID int64, input ConvertInput, actor shared.Actor) (orders.Order, error) {
	cart, err := s.repo.GetCart(ctx, cartID)
	if err != nil {
		return orders.Order{}, err
	}
	if cart.Status == CartRecovered {
		return orders.Order{}, ErrAlreadyConverted
	}
	if len(cart.Items) == 0 {
		return orders.Order{}, ErrNoLeadItems
	}

	order, err := s.orders.Create(ctx, orders.CreateOrderInput{
		CustomerName:    cart.Name,
		CustomerPhone:   cart.Phone,
		CustomerAddress: strings.TrimSpace(input.CustomerAddress),
		RegionCode:      input.RegionCode,
		Items:           orderLines(cart.Items),
	}, actor)
	if err != nil {
		return orders.Order{}, err
	}

	if err := s.repo.UpdateCartStatus(ctx, cartID, CartRecovered); err != nil {
		return orders.Order{}, fmt.Errorf("leads: mark recovered: %w", err)
	}
	s.record(ctx, actor.ID, "carts:recover", cartID, map[string]any{
		"order_id": order.ID,
	})
	s.changed(ctx)
	return order, nil
}

// UpdateLeadStatus moves a lead between follow-up states. Converted is set
// only through Convert.
func (s *Service) UpdateLeadStatus(ctx context.Context, id int64, status LeadStatus, actor shared.Actor) error {
	if !status.Valid() || status == LeadConverted {
		return ErrInvalidStatus
	}
	if err := s.repo.UpdateLeadStatus(ctx, id, status); err != nil {
		return err
	}
	s.record(ctx, actor.ID, "leads:status", id, map[string]any{"status": status})
	s.changed(ctx)
	return nil
}

// DiscardCart marks a cart as not worth pursuing.
func (s *Service) DiscardCart(ctx context.Context, id int64, actor shared.Actor) error {
	if err := s.repo.UpdateCartStatus(ctx, id, CartDiscarded); err != nil {
		return err
	}
	s.record(ctx, actor.ID, "carts:discard", id, nil)
	s.changed(ctx)
	return nil
}

// ListLeads returns leads, optionally filtered by status.
func (s *Service) ListLeads(ctx context.Context, status LeadStatus) ([]WebLead, error) {
	return s.repo.ListLeads(ctx, status)
}

// ListCarts returns abandoned carts, optionally filtered by status.
func (s *Service) ListCarts(ctx context.Context, status CartStatus) ([]AbandonedCart, error) {
	return s.repo.ListCarts(ctx, status)
}

// GetLead returns a single lead with its items.
func (s *Service) GetLead(ctx context.Context, id int64) (WebLead, error) {
	return s.repo.GetLead(ctx, id)
}

func captureItems(input []CaptureItemInput) []Item {
	items := make([]Item, 0, len(input))
	for _, line := range input {
		if line.Qty <= 0 {
			continue
		}
		items = append(items, Item{
			ProductID:     line.ProductID,
			ProductName:   strings.TrimSpace(line.ProductName),
			Qty:           line.Qty,
			CapturedPrice: line.CapturedPrice,
		})
	}
	return items
}

// orderLines builds exactly one order line per captured item. The captured
// price rides along as the fallback; the order service prefers the current
// catalog price.
func orderLines(items []Item) []orders.CreateItemInput {
	lines := make([]orders.CreateItemInput, 0, len(items))
	for _, item := range items {
		lines = append(lines, orders.CreateItemInput{
			ProductID:     item.ProductID,
			Qty:           item.Qty,
			FallbackName:  item.ProductName,
			FallbackPrice: item.CapturedPrice,
		})
	}
	return lines
}

func (s *Service) record(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "lead",
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
	})
}

func (s *Service) changed(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Changed(ctx, "leads")
}
