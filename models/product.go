package models

// Product is the canonical product shape owned by this service.
// Every field is defined after normalization; missing source data is
// replaced by documented defaults, never left absent.
type Product struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Image       string `json:"image"`
	Description string `json:"description"`

	// Price is always >= 0. Exactly 0 is the documented sentinel for
	// "price unknown" and is excluded from average-price statistics.
	Price float64 `json:"price"`
}

// ProductStats holds aggregate metrics over a normalized product collection.
type ProductStats struct {
	ProductCount int `json:"product_count"`

	// AveragePrice is nil when no product in the set has a strictly
	// positive price.
	AveragePrice *float64 `json:"average_price"`

	Currency string `json:"currency"`

	// DataSourceLabel records provenance for display ("live" or "Mock").
	DataSourceLabel string `json:"data_source_label"`
}
