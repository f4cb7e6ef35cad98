package domain

// Amounts are integer cents throughout. Derived amounts round half-up so the
// same inputs always reproduce the same totals.

// PercentOf returns pct percent of amount in cents, rounded half-up.
// amount and pct must be non-negative.
func PercentOf(amount, pct int64) int64 {
	return (amount*pct + 50) / 100
}

// TaxFor returns the tax on amount at the given basis-point rate, rounded
// half-up. A rate of 1600 bps is 16%.
func TaxFor(amount, rateBps int64) int64 {
	return (amount*rateBps + 5000) / 10000
}
