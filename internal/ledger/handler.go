package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-dist/meridian/internal/platform/httpx"
	"github.com/meridian-dist/meridian/internal/rbac"
	"github.com/meridian-dist/meridian/internal/shared"
)

// Handler wires HTTP endpoints for the ledger module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	rbac     rbac.Middleware
	validate *validator.Validate
}

// NewHandler constructs ledger handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac, validate: validator.New()}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.Authenticate)
	r.Get("/movements", h.handleMovements)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireRole(shared.RoleAdmin, shared.RoleStateManager))
		r.Post("/transfers", h.handleTransfer)
		r.Post("/region-adjustments", h.handleRegionAdjust)
		r.Post("/central-adjustments", h.handleCentralAdjust)
	})
}

type transferRequest struct {
	ProductID  int64  `json:"product_id" validate:"required,gt=0"`
	RegionCode string `json:"region_code" validate:"required"`
	Qty        int64  `json:"qty" validate:"required,gt=0"`
	Note       string `json:"note" validate:"omitempty,max=500"`
}

type regionAdjustRequest struct {
	ProductID  int64  `json:"product_id" validate:"required,gt=0"`
	RegionCode string `json:"region_code" validate:"required"`
	Delta      int64  `json:"delta"`
	Clear      bool   `json:"clear"`
	Note       string `json:"note" validate:"omitempty,max=500"`
}

type centralAdjustRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Delta     int64  `json:"delta" validate:"required"`
	Note      string `json:"note" validate:"omitempty,max=500"`
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !h.decode(w, r, &req) {
		return
	}
	actor := shared.ActorFromContext(r.Context())
	err := h.service.Transfer(r.Context(), TransferInput{
		ProductID:      req.ProductID,
		RegionCode:     req.RegionCode,
		Qty:            req.Qty,
		Note:           req.Note,
		ActorID:        actor.ID,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		h.respondLedgerError(w, "post transfer", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "transferred"})
}

func (h *Handler) handleRegionAdjust(w http.ResponseWriter, r *http.Request) {
	var req regionAdjustRequest
	if !h.decode(w, r, &req) {
		return
	}
	actor := shared.ActorFromContext(r.Context())
	qty, err := h.service.AdjustRegion(r.Context(), RegionAdjustInput{
		ProductID:  req.ProductID,
		RegionCode: req.RegionCode,
		Delta:      req.Delta,
		Clear:      req.Clear,
		Note:       req.Note,
		ActorID:    actor.ID,
	})
	if err != nil {
		h.respondLedgerError(w, "adjust region stock", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"qty": qty})
}

func (h *Handler) handleCentralAdjust(w http.ResponseWriter, r *http.Request) {
	var req centralAdjustRequest
	if !h.decode(w, r, &req) {
		return
	}
	actor := shared.ActorFromContext(r.Context())
	qty, err := h.service.AdjustCentral(r.Context(), CentralAdjustInput{
		ProductID: req.ProductID,
		Delta:     req.Delta,
		Note:      req.Note,
		ActorID:   actor.ID,
	})
	if err != nil {
		h.respondLedgerError(w, "adjust central stock", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"total_stock": qty})
}

func (h *Handler) handleMovements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	productID, err := strconv.ParseInt(q.Get("product_id"), 10, 64)
	if err != nil || productID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "product_id required")
		return
	}
	filter := MovementFilter{ProductID: productID, RegionCode: q.Get("region_code")}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = limit
	}
	movements, err := h.service.Movements(r.Context(), filter)
	if err != nil {
		h.respondLedgerError(w, "list movements", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"movements": movements})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) respondLedgerError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, ErrInsufficientStock):
		httpx.Problem(w, http.StatusConflict, "Insufficient Stock", "central stock is lower than the requested quantity")
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrRegionRequired), errors.Is(err, ErrUnknownRegion):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "product not found")
	default:
		h.logger.Error(action, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
