package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tavolo/fulfillment/internal/service"
	"github.com/tavolo/fulfillment/pkg/httputil"
)

// AnalyticsHandler serves the forecast, reorder point, and ABC endpoints.
type AnalyticsHandler struct {
	forecaster *service.Forecaster
	reorder    *service.ReorderCalculator
	abc        *service.ABCClassifier
	logger     *slog.Logger
}

// NewAnalyticsHandler creates an analytics handler.
func NewAnalyticsHandler(
	forecaster *service.Forecaster,
	reorder *service.ReorderCalculator,
	abc *service.ABCClassifier,
	logger *slog.Logger,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		forecaster: forecaster,
		reorder:    reorder,
		abc:        abc,
		logger:     logger,
	}
}

// Forecast handles GET /api/v1/analytics/forecast/{productId}.
// Optional query parameter window_days overrides the default trailing window.
func (h *AnalyticsHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	windowDays := queryInt(r, "window_days", 0)
	if windowDays < 0 || windowDays > 365 {
		writeBadParam(w, "window_days must be in [1,365]")
		return
	}

	forecast, err := h.forecaster.Forecast(r.Context(), productID.String(), windowDays)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: forecast})
}

// ReorderPoint handles GET /api/v1/analytics/reorder-point/{itemId}.
// Optional query parameter service_level overrides the default target.
func (h *AnalyticsHandler) ReorderPoint(w http.ResponseWriter, r *http.Request) {
	itemID, ok := httputil.ParseUUID(w, chi.URLParam(r, "itemId"))
	if !ok {
		return
	}

	var serviceLevel float64
	if raw := r.URL.Query().Get("service_level"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 || parsed >= 1 {
			writeBadParam(w, "service_level must be a number in (0,1)")
			return
		}
		serviceLevel = parsed
	}

	point, err := h.reorder.Compute(r.Context(), itemID.String(), serviceLevel)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: point})
}

// ABC handles GET /api/v1/analytics/abc. Query parameters from and to bound
// the analysis period as YYYY-MM-DD dates; from defaults to 30 days ago and
// to defaults to tomorrow so today's sales are included.
func (h *AnalyticsHandler) ABC(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now.AddDate(0, 0, 1)

	var err error
	if raw := r.URL.Query().Get("from"); raw != "" {
		if from, err = time.Parse("2006-01-02", raw); err != nil {
			writeBadParam(w, "from must be a YYYY-MM-DD date")
			return
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if to, err = time.Parse("2006-01-02", raw); err != nil {
			writeBadParam(w, "to must be a YYYY-MM-DD date")
			return
		}
	}
	if !from.Before(to) {
		writeBadParam(w, "from must be before to")
		return
	}

	tiers, err := h.abc.Classify(r.Context(), from, to)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: tiers})
}

func writeBadParam(w http.ResponseWriter, msg string) {
	httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: msg},
	})
}

// queryInt parses an integer query parameter, falling back to def when the
// parameter is absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
