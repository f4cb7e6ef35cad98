package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tavolo/fulfillment/internal/domain"
	"github.com/tavolo/fulfillment/internal/service"
	"github.com/tavolo/fulfillment/pkg/httputil"
	"github.com/tavolo/fulfillment/pkg/validator"
)

// InventoryHandler serves the stock ledger endpoints.
type InventoryHandler struct {
	ledger *service.StockLedger
	logger *slog.Logger
}

// NewInventoryHandler creates an inventory handler.
func NewInventoryHandler(ledger *service.StockLedger, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, logger: logger}
}

type adjustStockRequest struct {
	Quantity int    `json:"quantity" validate:"gte=0"`
	Kind     string `json:"kind" validate:"required,oneof=in out set"`
	Reason   string `json:"reason,omitempty" validate:"omitempty,max=256"`
}

type adjustStockResponse struct {
	Item     *domain.InventoryItem `json:"item"`
	Movement *domain.StockMovement `json:"movement"`
}

// Adjust handles POST /api/v1/inventory/{id}/adjust.
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req adjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	item, movement, err := h.ledger.Adjust(r.Context(), id.String(), req.Quantity, req.Kind, req.Reason)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: adjustStockResponse{Item: item, Movement: movement},
	})
}

// Get handles GET /api/v1/inventory/{id}.
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	item, err := h.ledger.GetItem(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: item})
}

// ListLowStock handles GET /api/v1/inventory/low-stock.
func (h *InventoryHandler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 20)

	items, total, err := h.ledger.ListLowStock(r.Context(), page, perPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(items, total, page, perPage))
}
