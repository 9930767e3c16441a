package models

// GuardrailConfig bounds a category's recommended price. CategoryID nil means
// the tenant-wide default row. Read-only to the pricing engine.
type GuardrailConfig struct {
	TenantID       int64    `db:"tenant_id"`
	CategoryID     *int64   `db:"category_id"`
	MinPrice       float64  `db:"min_price"`
	MaxDiscountPct float64  `db:"max_discount_pct"`
	MaxPremiumPct  float64  `db:"max_premium_pct"`
}

// SignalWeights are the tenant's per-signal weights. Non-negative, applied
// exactly as configured: the caller owns the scale they sum to.
type SignalWeights struct {
	TenantID    int64   `db:"tenant_id"`
	Utilization float64 `db:"utilization_weight"`
	Forecast    float64 `db:"forecast_weight"`
	Competitor  float64 `db:"competitor_weight"`
	Weather     float64 `db:"weather_weight"`
	Holiday     float64 `db:"holiday_weight"`
}

// BaseRates are the configured daily/weekly/monthly base prices for a
// branch/category pair.
type BaseRates struct {
	TenantID   int64   `db:"tenant_id"`
	BranchID   int64   `db:"branch_id"`
	CategoryID int64   `db:"category_id"`
	Daily      float64 `db:"daily_rate"`
	Weekly     float64 `db:"weekly_rate"`
	Monthly    float64 `db:"monthly_rate"`
}
