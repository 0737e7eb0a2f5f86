// Package stats derives aggregate metrics from a normalized product
// collection.
package stats

import "github.com/use-agent/forage/models"

// Compute returns metrics over products. The average is taken only over
// products with a strictly positive price, so the zero-price "unknown"
// sentinel never drags the average toward zero. AveragePrice is nil when no
// product qualifies.
//
// Currency is a collection-level assertion (the platform returns one
// currency per job); sourceLabel records provenance for display.
func Compute(products []models.Product, currency, sourceLabel string) models.ProductStats {
	s := models.ProductStats{
		ProductCount:    len(products),
		Currency:        currency,
		DataSourceLabel: sourceLabel,
	}

	var sum float64
	var priced int
	for _, p := range products {
		if p.Price > 0 {
			sum += p.Price
			priced++
		}
	}
	if priced > 0 {
		avg := sum / float64(priced)
		s.AveragePrice = &avg
	}
	return s
}
