package models

// SearchResponse is the response for POST /api/v1/search.
type SearchResponse struct {
	// Success indicates whether the search completed without errors.
	// An empty Products slice with Success true is a valid "no matches"
	// outcome, distinct from a failure.
	Success bool `json:"success"`

	// Products are the normalized results in platform order.
	Products []Product `json:"products"`

	// Stats holds aggregate metrics over Products.
	Stats ProductStats `json:"stats"`

	// JobURL links to the remote platform's run console page, when known.
	JobURL string `json:"job_url,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// RemoteMs is the time spent in remote platform calls
	// (submission + completion wait + result fetch).
	RemoteMs int64 `json:"remote_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status       string `json:"status"` // "healthy"
	Uptime       string `json:"uptime"`
	PlatformMode string `json:"platform_mode"` // "live" or "mock"
	Version      string `json:"version"`
}
