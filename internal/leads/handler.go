package leads

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-dist/meridian/internal/orders"
	"github.com/meridian-dist/meridian/internal/platform/httpx"
	"github.com/meridian-dist/meridian/internal/rbac"
	"github.com/meridian-dist/meridian/internal/shared"
)

// Handler wires HTTP endpoints for leads and abandoned carts.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	rbac     rbac.Middleware
	validate *validator.Validate
}

// NewHandler constructs leads handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac, validate: validator.New()}
}

// MountLeadRoutes registers lead routes. Capture is public (website
// submissions carry no session); everything else needs a signed-in actor.
func (h *Handler) MountLeadRoutes(r chi.Router) {
	r.Post("/", h.handleCaptureLead)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Authenticate)
		r.Get("/", h.handleListLeads)
		r.Get("/{id}", h.handleGetLead)
		r.Post("/{id}/status", h.handleLeadStatus)
		r.Post("/{id}/convert", h.handleConvert)
	})
}

// MountCartRoutes registers abandoned-cart routes.
func (h *Handler) MountCartRoutes(r chi.Router) {
	r.Post("/", h.handleCaptureCart)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Authenticate)
		r.Get("/", h.handleListCarts)
		r.Post("/{id}/recover", h.handleRecoverCart)
		r.Post("/{id}/discard", h.handleDiscardCart)
	})
}

type captureItemRequest struct {
	ProductID     int64  `json:"product_id" validate:"required,gt=0"`
	ProductName   string `json:"product_name" validate:"omitempty,max=200"`
	Qty           int64  `json:"qty" validate:"required,gt=0"`
	CapturedPrice *int64 `json:"captured_price,omitempty" validate:"omitempty,gte=0"`
}

type captureLeadRequest struct {
	Name    string               `json:"name" validate:"omitempty,max=200"`
	Phone   string               `json:"phone" validate:"required,max=32"`
	Email   string               `json:"email" validate:"omitempty,email"`
	Address string               `json:"address" validate:"omitempty,max=500"`
	Source  string               `json:"source" validate:"omitempty,max=100"`
	Items   []captureItemRequest `json:"items" validate:"omitempty,dive"`
}

type captureCartRequest struct {
	Name  string               `json:"name" validate:"omitempty,max=200"`
	Phone string               `json:"phone" validate:"required,max=32"`
	Email string               `json:"email" validate:"omitempty,email"`
	Items []captureItemRequest `json:"items" validate:"omitempty,dive"`
}

type convertRequest struct {
	RegionCode      string `json:"region_code" validate:"required"`
	CustomerAddress string `json:"customer_address" validate:"omitempty,max=500"`
}

func (h *Handler) handleCaptureLead(w http.ResponseWriter, r *http.Request) {
	var req captureLeadRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	lead, err := h.service.CaptureLead(r.Context(), CaptureLeadInput{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
		Source:  req.Source,
		Items:   captureInputs(req.Items),
	})
	if err != nil {
		h.respondLeadError(w, "capture lead", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, lead)
}

func (h *Handler) handleCaptureCart(w http.ResponseWriter, r *http.Request) {
	var req captureCartRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	cart, err := h.service.CaptureCart(r.Context(), CaptureCartInput{
		Name:  req.Name,
		Phone: req.Phone,
		Email: req.Email,
		Items: captureInputs(req.Items),
	})
	if err != nil {
		h.respondLeadError(w, "capture cart", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, cart)
}

func (h *Handler) handleConvert(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid lead id")
		return
	}
	var req convertRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := shared.ActorFromContext(r.Context())
	order, err := h.service.Convert(r.Context(), id, ConvertInput{
		RegionCode:      req.RegionCode,
		CustomerAddress: req.CustomerAddress,
	}, actor)
	if err != nil {
		h.respondLeadError(w, "convert lead", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) handleRecoverCart(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid cart id")
		return
	}
	var req convertRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := shared.ActorFromContext(r.Context())
	order, err := h.service.RecoverCart(r.Context(), id, ConvertInput{
		RegionCode:      req.RegionCode,
		CustomerAddress: req.CustomerAddress,
	}, actor)
	if err != nil {
		h.respondLeadError(w, "recover cart", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) handleLeadStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid lead id")
		return
	}
	var req struct {
		Status string `json:"status" validate:"required"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	actor := shared.ActorFromContext(r.Context())
	if err := h.service.UpdateLeadStatus(r.Context(), id, LeadStatus(req.Status), actor); err != nil {
		h.respondLeadError(w, "update lead status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

func (h *Handler) handleDiscardCart(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid cart id")
		return
	}
	actor := shared.ActorFromContext(r.Context())
	if err := h.service.DiscardCart(r.Context(), id, actor); err != nil {
		h.respondLeadError(w, "discard cart", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": string(CartDiscarded)})
}

func (h *Handler) handleListLeads(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ListLeads(r.Context(), LeadStatus(r.URL.Query().Get("status")))
	if err != nil {
		h.logger.Error("list leads", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"leads": result})
}

func (h *Handler) handleListCarts(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ListCarts(r.Context(), CartStatus(r.URL.Query().Get("status")))
	if err != nil {
		h.logger.Error("list carts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"carts": result})
}

func (h *Handler) handleGetLead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid lead id")
		return
	}
	lead, err := h.service.GetLead(r.Context(), id)
	if err != nil {
		h.respondLeadError(w, "get lead", err)
		return
	}
	httpx.JSON(w, http.StatusOK, lead)
}

func (h *Handler) respondLeadError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "record not found")
	case errors.Is(err, ErrAlreadyConverted):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrPhoneRequired), errors.Is(err, ErrNoLeadItems), errors.Is(err, ErrInvalidStatus),
		errors.Is(err, orders.ErrCustomerRequired), errors.Is(err, orders.ErrNoItems), errors.Is(err, orders.ErrInvalidItem):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(action, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func captureInputs(items []captureItemRequest) []CaptureItemInput {
	result := make([]CaptureItemInput, 0, len(items))
	for _, item := range items {
		result = append(result, CaptureItemInput{
			ProductID:     item.ProductID,
			ProductName:   item.ProductName,
			Qty:           item.Qty,
			CapturedPrice: item.CapturedPrice,
		})
	}
	return result
}
