package domain

import "time"

// Forecast method identifiers.
const (
	ForecastMethodDoubleExponential = "double_exponential_smoothing"
	ForecastMethodNoHistory         = "no_history"
)

// DemandForecast is the forecasted per-period demand for a product. It is a
// derived artifact: recomputed on demand and never authoritative.
type DemandForecast struct {
	ProductID  string    `json:"product_id"`
	Demand     int       `json:"demand"`     // forecast units for the next period
	Confidence float64   `json:"confidence"` // in [0,1]
	Method     string    `json:"method"`
	WindowDays int       `json:"window_days"`
	ComputedAt time.Time `json:"computed_at"`
}

// ReorderPoint is the (s, Q) continuous-review replenishment recommendation
// for an inventory item.
type ReorderPoint struct {
	InventoryItemID string    `json:"inventory_item_id"`
	ProductID       string    `json:"product_id"`
	ReorderLevel    int       `json:"reorder_level"`    // s: trigger threshold
	ReorderQuantity int       `json:"reorder_quantity"` // Q: amount to order
	ServiceLevel    float64   `json:"service_level"`
	LeadTimeDays    int       `json:"lead_time_days"`
	MeanDemand      float64   `json:"mean_demand"`
	StdDevDemand    float64   `json:"std_dev_demand"`
	ComputedAt      time.Time `json:"computed_at"`
}

// ABC tier constants.
const (
	TierA = "A"
	TierB = "B"
	TierC = "C"
)

// ABCClassification places a product in a revenue-contribution tier for an
// analysis period. Products with no sales in the period are absent entirely.
type ABCClassification struct {
	ProductID     string  `json:"product_id"`
	Tier          string  `json:"tier"`
	CumulativePct float64 `json:"cumulative_pct"` // cumulative revenue % at this product
	Revenue       int64   `json:"revenue"`
	UnitsSold     int     `json:"units_sold"`
}

// DailyDemand is one day's delivered quantity for a product. Series built
// from these rows contain only days that recorded at least one sale.
type DailyDemand struct {
	Day      time.Time `json:"day"`
	Quantity int       `json:"quantity"`
}

// ProductSales is the per-product sales rollup for an analysis period.
type ProductSales struct {
	ProductID string `json:"product_id"`
	UnitsSold int    `json:"units_sold"`
	Revenue   int64  `json:"revenue"`
}
