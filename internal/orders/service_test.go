package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-dist/meridian/internal/catalog"
	"github.com/meridian-dist/meridian/internal/shared"
)

type memoryOrderRepo struct {
	nextID int64
	orders map[int64]*Order
}

func newMemoryOrderRepo() *memoryOrderRepo {
	return &memoryOrderRepo{nextID: 1, orders: make(map[int64]*Order)}
}

func (m *memoryOrderRepo) Create(_ context.Context, order Order) (Order, error) {
	order.ID = m.nextID
	m.nextID++
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	stored := order
	m.orders[order.ID] = &stored
	return order, nil
}

func (m *memoryOrderRepo) Get(_ context.Context, id int64) (Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return Order{}, shared.ErrNotFound
	}
	return *order, nil
}

func (m *memoryOrderRepo) List(_ context.Context, _ ListFilters) ([]Order, int, error) {
	result := make([]Order, 0, len(m.orders))
	for _, order := range m.orders {
		result = append(result, *order)
	}
	return result, len(result), nil
}

func (m *memoryOrderRepo) UpdateStatus(_ context.Context, id int64, patch StatusPatch) error {
	order, ok := m.orders[id]
	if !ok {
		return shared.ErrNotFound
	}
	order.DeliveryStatus = patch.Status
	if patch.LogisticsCost != nil {
		order.LogisticsCost = patch.LogisticsCost
	}
	if patch.DeliveredAt != nil {
		order.DeliveredAt = patch.DeliveredAt
	}
	if patch.RescheduledDate != nil {
		order.RescheduledDate = patch.RescheduledDate
	}
	if patch.RescheduleNotes != nil {
		order.RescheduleNotes = *patch.RescheduleNotes
	}
	if patch.ReminderSet != nil {
		order.ReminderSet = *patch.ReminderSet
	}
	if patch.CancelReason != nil {
		order.CancelReason = *patch.CancelReason
	}
	return nil
}

type fakeCatalog struct {
	snapshots map[int64]catalog.Snapshot
}

func (f *fakeCatalog) ProductSnapshot(_ context.Context, id int64) (catalog.Snapshot, error) {
	snapshot, ok := f.snapshots[id]
	if !ok {
		return catalog.Snapshot{}, shared.ErrNotFound
	}
	return snapshot, nil
}

type fakeReminders struct {
	scheduled []ReminderInput
	fail      error
}

func (f *fakeReminders) ScheduleReminder(_ context.Context, reminder ReminderInput) error {
	if f.fail != nil {
		return f.fail
	}
	f.scheduled = append(f.scheduled, reminder)
	return nil
}

func newTestOrderService(repo RepositoryPort, cat CatalogPort, reminders ReminderPort) *Service {
	return NewService(repo, cat, nil, nil, reminders)
}

var (
	admin = shared.Actor{ID: 1, Name: "Ada", Role: shared.RoleAdmin}
	agent = shared.Actor{ID: 2, Name: "Femi", Role: shared.RoleSalesAgent}
)

func TestCreateSnapshotsPricesFromCatalog(t *testing.T) {
	repo := newMemoryOrderRepo()
	cat := &fakeCatalog{snapshots: map[int64]catalog.Snapshot{
		10: {Name: "Solar Lamp", SellingPrice: 15000, CostPrice: 9000},
		11: {Name: "Power Bank", SellingPrice: 8000, CostPrice: 5000},
	}}
	svc := newTestOrderService(repo, cat, nil)

	order, err := svc.Create(context.Background(), CreateOrderInput{
		CustomerName:  "Bisi Ade",
		CustomerPhone: "08030000000",
		RegionCode:    "lag",
		Items: []CreateItemInput{
			{ProductID: 10, Qty: 2},
			{ProductID: 11, Qty: 1},
		},
	}, agent)
	require.NoError(t, err)

	require.Equal(t, "LAG", order.RegionCode)
	require.EqualValues(t, 2*15000+8000, order.TotalAmount)
	require.Equal(t, StatusPending, order.DeliveryStatus)
	require.Equal(t, "Femi", order.AgentName)
	require.Contains(t, order.TrackingCode, "MRD-")
	require.Equal(t, "Solar Lamp", order.Items[0].ProductName)
	require.EqualValues(t, 9000, order.Items[0].UnitCost)
}

func TestCreateTotalSurvivesCatalogRepricing(t *testing.T) {
	repo := newMemoryOrderRepo()
	cat := &fakeCatalog{snapshots: map[int64]catalog.Snapshot{
		10: {Name: "Solar Lamp", SellingPrice: 15000, CostPrice: 9000},
	}}
	svc := newTestOrderService(repo, cat, nil)

	order, err := svc.Create(context.Background(), CreateOrderInput{
		CustomerName:  "Bisi Ade",
		CustomerPhone: "08030000000",
		RegionCode:    "LAG",
		Items:         []CreateItemInput{{ProductID: 10, Qty: 3}},
	}, admin)
	require.NoError(t, err)
	require.EqualValues(t, 45000, order.TotalAmount)

	// Reprice the catalog, then run the order through transitions. The
	// stored total must stay exactly as captured at creation.
	cat.snapshots[10] = catalog.Snapshot{Name: "Solar Lamp", SellingPrice: 99000, CostPrice: 9000}

	_, err = svc.UpdateStatus(context.Background(), order.ID, PlainTransition{To: StatusInTransit}, admin)
	require.NoError(t, err)
	updated, err := svc.UpdateStatus(context.Background(), order.ID, DeliveredDetails{LogisticsCost: 1200}, admin)
	require.NoError(t, err)

	require.EqualValues(t, 45000, updated.TotalAmount)
	require.EqualValues(t, 15000, updated.Items[0].UnitPrice)
}

func TestCreateFallbackPriceForMissingProduct(t *testing.T) {
	repo := newMemoryOrderRepo()
	cat := &fakeCatalog{snapshots: map[int64]catalog.Snapshot{}}
	svc := newTestOrderService(repo, cat, nil)

	fallback := int64(12000)
	order, err := svc.Create(context.Background(), CreateOrderInput{
		CustomerName:  "Bisi Ade",
		CustomerPhone: "08030000000",
		RegionCode:    "LAG",
		Items:         []CreateItemInput{{ProductID: 99, Qty: 1, FallbackName: "Retired Lamp", FallbackPrice: &fallback}},
	}, admin)
	require.NoError(t, err)
	require.EqualValues(t, 12000, order.TotalAmount)
	require.Equal(t, "Retired Lamp", order.Items[0].ProductName)

	// Without a fallback price a missing product is an error.
	_, err = svc.Create(context.Background(), CreateOrderInput{
		CustomerName:  "Bisi Ade",
		CustomerPhone: "08030000000",
		RegionCode:    "LAG",
		Items:         []CreateItemInput{{ProductID: 99, Qty: 1}},
	}, admin)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestOrderService(newMemoryOrderRepo(), &fakeCatalog{snapshots: map[int64]catalog.Snapshot{}}, nil)

	_, err := svc.Create(context.Background(), CreateOrderInput{
		CustomerPhone: "08030000000",
		Items:         []CreateItemInput{{ProductID: 1, Qty: 1}},
	}, admin)
	require.ErrorIs(t, err, ErrCustomerRequired)

	_, err = svc.Create(context.Background(), CreateOrderInput{
		CustomerName:  "Bisi Ade",
		CustomerPhone: "08030000000",
	}, admin)
	require.ErrorIs(t, err, ErrNoItems)

	_, err = svc.Create(context.Background(), CreateOrderInput{
		CustomerName:  "Bisi Ade",
		CustomerPhone: "08030000000",
		Items:         []CreateItemInput{{ProductID: 1, Qty: 0}},
	}, admin)
	require.ErrorIs(t, err, ErrInvalidItem)
}

func TestAgentBlockedFromNonRescheduleTransitions(t *testing.T) {
	repo := newMemoryOrderRepo()
	cat := &fakeCatalog{snapshots: map[int64]catalog.Snapshot{
		10: {Name: "Solar Lamp", SellingPrice: 15000},
	}}
	svc := newTestOrderService(repo, cat, nil)

	order, err := svc.Create(context.Background(), CreateOrderInput{
		CustomerName:  "Bisi Ade",
		CustomerPhone: "08030000000",
		RegionCode:    "LAG",
		Items:         []CreateItemInput{{ProductID: 10, Qty: 1}},
	}, agent)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), order.ID, DeliveredDetails{LogisticsCost: 500}, agent)
	require.ErrorIs(t, err, shared.ErrForbidden)
	_, err = svc.UpdateStatus(context.Background(), order.ID, CancelledDetails{Reason: "nope"}, agent)
	require.ErrorIs(t, err, shared.ErrForbidden)

	// Rejected attempts leave the order untouched.
	stored, err := svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPending, stored.DeliveryStatus)
	require.Nil(t, stored.LogisticsCost)

	updated, err := svc.UpdateStatus(context.Background(), order.ID, RescheduledDetails{
		Date:  time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		Notes: "customer asked for Tuesday",
	}, agent)
	require.NoError(t, err)
	require.Equal(t, StatusRescheduled, updated.DeliveryStatus)
}

func TestRescheduleSchedulesReminderWhenRequested(t *testing.T) {
	repo := newMemoryOrderRepo()
	cat := &fakeCatalog{snapshots: map[int64]catalog.Snapshot{
		10: {Name: "Solar Lamp", SellingPrice: 15000},
	}}
	reminders := &fakeReminders{}
	svc := newTestOrderService(repo, cat, reminders)

	order, err := svc.Create(context.Background(), CreateOrderInput{
		CustomerName:  "Bisi Ade",
		CustomerPhone: "08030000000",
		RegionCode:    "LAG",
		Items:         []CreateItemInput{{ProductID: 10, Qty: 1}},
	}, admin)
	require.NoError(t, err)

	date := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.UpdateStatus(context.Background(), order.ID, RescheduledDetails{
		Date: date, Notes: "moved", Reminder: true,
	}, admin)
	require.NoError(t, err)
	require.Len(t, reminders.scheduled, 1)
	require.Equal(t, order.ID, reminders.scheduled[0].OrderID)
	require.Equal(t, date, reminders.scheduled[0].Date)

	// Without the reminder flag nothing is scheduled.
	_, err = svc.UpdateStatus(context.Background(), order.ID, RescheduledDetails{
		Date: date, Notes: "moved again",
	}, admin)
	require.NoError(t, err)
	require.Len(t, reminders.scheduled, 1)
}

func TestCancelKeepsTotalAndReason(t *testing.T) {
	repo := newMemoryOrderRepo()
	cat := &fakeCatalog{snapshots: map[int64]catalog.Snapshot{
		10: {Name: "Solar Lamp", SellingPrice: 15000},
	}}
	svc := newTestOrderService(repo, cat, nil)

	order, err := svc.Create(context.Background(), CreateOrderInput{
		CustomerName:  "Bisi Ade",
		CustomerPhone: "08030000000",
		RegionCode:    "LAG",
		Items:         []CreateItemInput{{ProductID: 10, Qty: 2}},
	}, admin)
	require.NoError(t, err)

	cancelled, err := svc.UpdateStatus(context.Background(), order.ID, CancelledDetails{Reason: "customer declined"}, admin)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.DeliveryStatus)
	require.Equal(t, "customer declined", cancelled.CancelReason)
	require.EqualValues(t, 30000, cancelled.TotalAmount)
}
