package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tavolo/fulfillment/internal/domain"
	"github.com/tavolo/fulfillment/internal/repository"
	"github.com/tavolo/fulfillment/internal/service"
	"github.com/tavolo/fulfillment/pkg/httputil"
	"github.com/tavolo/fulfillment/pkg/validator"
)

// OrderHandler serves the order lifecycle endpoints.
type OrderHandler struct {
	fulfillment *service.FulfillmentService
	logger      *slog.Logger
}

// NewOrderHandler creates an order handler.
func NewOrderHandler(fulfillment *service.FulfillmentService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{fulfillment: fulfillment, logger: logger}
}

type createOrderLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type createOrderRequest struct {
	Lines         []createOrderLineRequest `json:"lines" validate:"required,min=1,dive"`
	DiscountID    *string                  `json:"discount_id,omitempty" validate:"omitempty,uuid"`
	PaymentMethod string                   `json:"payment_method" validate:"required,oneof=cash card transfer"`
	TableRef      string                   `json:"table_ref,omitempty" validate:"omitempty,max=32"`
	CustomerName  string                   `json:"customer_name,omitempty" validate:"omitempty,max=128"`
	Notes         string                   `json:"notes,omitempty" validate:"omitempty,max=512"`
}

type advanceStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in_preparation ready delivered cancelled"`
}

// Create handles POST /api/v1/orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := service.CreateOrderInput{
		DiscountID:    req.DiscountID,
		PaymentMethod: req.PaymentMethod,
		TableRef:      req.TableRef,
		CustomerName:  req.CustomerName,
		Notes:         req.Notes,
	}
	for _, l := range req.Lines {
		input.Lines = append(input.Lines, service.CreateOrderLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
		})
	}

	order, err := h.fulfillment.CreateOrder(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: order})
}

// Get handles GET /api/v1/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.fulfillment.GetOrder(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// List handles GET /api/v1/orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repository.OrderFilter{
		Page:    queryInt(r, "page", 1),
		PerPage: queryInt(r, "per_page", 20),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		if !domain.IsValidStatus(status) {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{
					Code:    "INVALID_PARAMETER",
					Message: "invalid status filter: " + status,
				},
			})
			return
		}
		filter.Status = &status
	}

	orders, total, err := h.fulfillment.ListOrders(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK,
		httputil.NewPaginatedResponse(orders, total, filter.Page, filter.PerPage))
}

// AdvanceStatus handles POST /api/v1/orders/{id}/status.
func (h *OrderHandler) AdvanceStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req advanceStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	order, err := h.fulfillment.AdvanceStatus(r.Context(), id.String(), req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// Cancel handles POST /api/v1/orders/{id}/cancel.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.fulfillment.CancelOrder(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}
