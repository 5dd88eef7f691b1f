package orders

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-dist/meridian/internal/platform/httpx"
	"github.com/meridian-dist/meridian/internal/rbac"
	"github.com/meridian-dist/meridian/internal/shared"
)

// Handler wires HTTP endpoints for the orders module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	rbac     rbac.Middleware
	validate *validator.Validate
}

// NewHandler constructs orders handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac, validate: validator.New()}
}

// MountRoutes registers order routes. Role gating for status transitions is
// enforced in the service so that the agent-only reschedule rule lives in
// one place.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.Authenticate)
	r.Get("/", h.handleList)
	r.Get("/{id}", h.handleGet)
	r.Post("/", h.handleCreate)
	r.Post("/{id}/status", h.handleUpdateStatus)
}

type createOrderItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Qty       int64 `json:"qty" validate:"required,gt=0"`
}

type createOrderRequest struct {
	CustomerName    string                   `json:"customer_name" validate:"required,max=200"`
	CustomerPhone   string                   `json:"customer_phone" validate:"required,max=32"`
	CustomerAddress string                   `json:"customer_address" validate:"omitempty,max=500"`
	RegionCode      string                   `json:"region_code" validate:"required"`
	PaymentStatus   string                   `json:"payment_status" validate:"omitempty,oneof=PENDING PAID"`
	Items           []createOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type updateStatusRequest struct {
	Status        string     `json:"status" validate:"required"`
	LogisticsCost *int64     `json:"logistics_cost,omitempty"`
	Date          *time.Time `json:"date,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	Reminder      bool       `json:"reminder,omitempty"`
	Reason        string     `json:"reason,omitempty"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	items := make([]CreateItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, CreateItemInput{ProductID: item.ProductID, Qty: item.Qty})
	}
	actor := shared.ActorFromContext(r.Context())
	order, err := h.service.Create(r.Context(), CreateOrderInput{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: req.CustomerAddress,
		RegionCode:      req.RegionCode,
		PaymentStatus:   PaymentStatus(req.PaymentStatus),
		Items:           items,
	}, actor)
	if err != nil {
		h.respondOrderError(w, "create order", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}
	var req updateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	transition, err := transitionFromRequest(req)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := shared.ActorFromContext(r.Context())
	order, err := h.service.UpdateStatus(r.Context(), id, transition, actor)
	if err != nil {
		h.respondOrderError(w, "update order status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

// transitionFromRequest maps the wire shape onto the tagged transition set.
func transitionFromRequest(req updateStatusRequest) (Transition, error) {
	status := DeliveryStatus(req.Status)
	switch status {
	case StatusDelivered:
		if req.LogisticsCost == nil {
			return nil, errors.New("orders: logistics_cost is required for DELIVERED")
		}
		return DeliveredDetails{LogisticsCost: *req.LogisticsCost}, nil
	case StatusRescheduled:
		if req.Date == nil {
			return nil, ErrScheduleIncomplete
		}
		return RescheduledDetails{Date: *req.Date, Notes: req.Notes, Reminder: req.Reminder}, nil
	case StatusCancelled:
		return CancelledDetails{Reason: req.Reason}, nil
	default:
		if !status.Valid() {
			return nil, ErrUnknownStatus
		}
		return PlainTransition{To: status}, nil
	}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondOrderError(w, "get order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := ListFilters{
		Status:     DeliveryStatus(q.Get("status")),
		RegionCode: q.Get("region_code"),
		PerPage:    50,
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		filters.Page = page
	}
	if from := q.Get("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			filters.From = t
		}
	}
	if to := q.Get("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			filters.To = t.Add(24*time.Hour - time.Nanosecond)
		}
	}
	result, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list orders", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"orders":     result,
		"pagination": shared.NewPagination(filters.Page, filters.PerPage, total),
	})
}

func (h *Handler) respondOrderError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, shared.ErrForbidden):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "your role cannot perform this transition")
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "order not found")
	case errors.Is(err, ErrNoItems), errors.Is(err, ErrInvalidItem), errors.Is(err, ErrCustomerRequired),
		errors.Is(err, ErrUnknownStatus), errors.Is(err, ErrDetailsRequired),
		errors.Is(err, ErrNegativeLogisticsCost), errors.Is(err, ErrScheduleIncomplete):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(action, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
