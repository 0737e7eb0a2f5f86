package models

import (
	"strings"

	"github.com/use-agent/forage/config"
)

// SearchRequest is the payload for POST /api/v1/search.
type SearchRequest struct {
	// Keyword is the free-text product search query. Required.
	Keyword string `json:"keyword" binding:"required"`

	// Marketplace is the e-commerce site to search.
	// Default: config DefaultMarketplace ("www.amazon.com").
	Marketplace string `json:"marketplace,omitempty"`

	// MaxResults limits the number of returned products.
	// Default: config DefaultMaxResults (20). Capped at MaxResultsCap.
	MaxResults int `json:"max_results,omitempty" binding:"omitempty,min=1"`
}

// Defaults applies configured default values to unset fields and clamps
// MaxResults to the configured cap.
func (r *SearchRequest) Defaults(cfg config.SearchConfig) {
	if r.Marketplace == "" {
		r.Marketplace = cfg.DefaultMarketplace
	}
	if r.MaxResults == 0 {
		r.MaxResults = cfg.DefaultMaxResults
	}
	if cfg.MaxResultsCap > 0 && r.MaxResults > cfg.MaxResultsCap {
		r.MaxResults = cfg.MaxResultsCap
	}
}

// Validate checks invariants that binding tags cannot express.
// A keyword that is blank after trimming is rejected before any remote call.
func (r *SearchRequest) Validate() *SearchError {
	if strings.TrimSpace(r.Keyword) == "" {
		return NewSearchError(ErrCodeInvalidInput, "search keyword cannot be empty", nil)
	}
	return nil
}
