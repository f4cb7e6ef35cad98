package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/tavolo/fulfillment/internal/cache"
	"github.com/tavolo/fulfillment/internal/domain"
	"github.com/tavolo/fulfillment/internal/repository"
)

// Smoothing parameters, fixed.
const (
	smoothingAlpha = 0.3
	smoothingBeta  = 0.1
	seedObs        = 7
)

// Forecaster derives next-period demand per product from delivered-order
// history using double exponential smoothing (a level+trend model). Days with
// no sales are omitted from the series rather than counted as zero demand;
// the smoothing runs over observed days only.
type Forecaster struct {
	orders     repository.OrderRepository
	cache      *cache.Cache
	windowDays int
	now        func() time.Time
}

// NewForecaster creates a demand forecaster. windowDays is the default
// trailing window when the caller does not override it.
func NewForecaster(orders repository.OrderRepository, c *cache.Cache, windowDays int) *Forecaster {
	return &Forecaster{
		orders:     orders,
		cache:      c,
		windowDays: windowDays,
		now:        time.Now,
	}
}

// Forecast computes the next-period demand forecast for a product. A
// windowDays of 0 uses the configured default. Missing history is not an
// error: the forecast degrades to 0 with confidence 0.
func (f *Forecaster) Forecast(ctx context.Context, productID string, windowDays int) (*domain.DemandForecast, error) {
	if windowDays <= 0 {
		windowDays = f.windowDays
	}

	key := fmt.Sprintf("forecast:%s:%d", productID, windowDays)
	var cached domain.DemandForecast
	if err := f.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	to := f.now().UTC()
	from := to.AddDate(0, 0, -windowDays)

	series, err := f.orders.DailyDemand(ctx, productID, from, to)
	if err != nil {
		return nil, err
	}

	forecast := &domain.DemandForecast{
		ProductID:  productID,
		WindowDays: windowDays,
		ComputedAt: to,
	}

	if len(series) == 0 {
		forecast.Method = domain.ForecastMethodNoHistory
		_ = f.cache.Set(ctx, key, forecast)
		return forecast, nil
	}

	values := make([]float64, len(series))
	for i, d := range series {
		values[i] = float64(d.Quantity)
	}

	forecast.Method = domain.ForecastMethodDoubleExponential
	forecast.Demand = smooth(values)
	forecast.Confidence = confidence(values)

	_ = f.cache.Set(ctx, key, forecast)
	return forecast, nil
}

// smooth runs double exponential smoothing over the observed series and
// returns the next-period forecast. The level is seeded with the mean of the
// first up to seven observations; the trend starts at zero.
func smooth(values []float64) int {
	seedN := len(values)
	if seedN > seedObs {
		seedN = seedObs
	}

	level := mean(values[:seedN])
	trend := 0.0

	for _, v := range values[seedN:] {
		prevLevel := level
		level = smoothingAlpha*v + (1-smoothingAlpha)*(level+trend)
		trend = smoothingBeta*(level-prevLevel) + (1-smoothingBeta)*trend
	}

	forecast := math.Round(level + trend)
	if forecast < 0 {
		return 0
	}
	return int(forecast)
}

// confidence maps the series' coefficient of variation into [0,1]: a steady
// series scores near 1, an erratic one near 0. A zero mean scores 0.
func confidence(values []float64) float64 {
	m := mean(values)
	if m == 0 {
		return 0
	}
	cv := popStdDev(values) / m
	c := 1 - cv
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
