package models

// SearchJobRequest is the payload for POST /api/v1/search/jobs.
type SearchJobRequest struct {
	SearchRequest

	WebhookURL    string `json:"webhook_url,omitempty" binding:"omitempty,url"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// SearchJobResponse is the immediate response for POST /api/v1/search/jobs.
type SearchJobResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// SearchJobStatusResponse is the response for GET /api/v1/search/jobs/:id.
type SearchJobStatusResponse struct {
	ID      string          `json:"id"`
	Status  string          `json:"status"`
	Keyword string          `json:"keyword"`
	Result  *SearchResponse `json:"result,omitempty"`
}

// SearchJob tracks an in-progress asynchronous search.
type SearchJob struct {
	ID            string
	Status        string // "processing", "completed", "failed"
	Keyword       string
	Result        *SearchResponse
	CreatedAt     int64 // unix timestamp
	WebhookURL    string
	WebhookSecret string
}
