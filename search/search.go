// Package search composes the platform job client, the normalizer, and the
// stats calculator into one request/response cycle. It is the only caller
// of the platform and defines the error contract seen by consumers.
package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/ysmood/gson"

	"github.com/use-agent/forage/config"
	"github.com/use-agent/forage/models"
	"github.com/use-agent/forage/normalize"
	"github.com/use-agent/forage/platform"
	"github.com/use-agent/forage/stats"
)

// Result is the outcome of one successful search. An empty Products slice
// is a valid "no matches" outcome, not a failure.
type Result struct {
	Products []models.Product
	Stats    models.ProductStats
	JobURL   string
}

// Service orchestrates one search per call: submit a remote job, wait for
// it, fetch the raw records, normalize, and derive stats. Each remote call
// is attempted exactly once; retrying is the caller's decision. Services
// are safe for concurrent use.
type Service struct {
	runner platform.Runner
	cfg    config.SearchConfig
	label  string // provenance recorded in stats, e.g. "live" or "Mock"
}

// New creates a search Service. label is the data-source provenance
// recorded on every ProductStats.
func New(runner platform.Runner, cfg config.SearchConfig, label string) *Service {
	return &Service{runner: runner, cfg: cfg, label: label}
}

// Search runs the full pipeline for one request.
//
// Flow:
//  1. Validate the keyword (no remote call on bad input).
//  2. StartJob; the runner fails fast when no credential is configured.
//  3. AwaitCompletion, cancellable via ctx and bounded by the runner's
//     configured wait deadline.
//  4. FetchResults bounded by MaxResults.
//  5. Normalize (rejects dropped, platform order preserved) + stats.
//
// Remote errors propagate unchanged; no partial results leak on failure.
func (s *Service) Search(ctx context.Context, req *models.SearchRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req.Defaults(s.cfg)
	keyword := strings.TrimSpace(req.Keyword)

	start := time.Now()
	slog.Info("search started",
		"keyword", keyword,
		"marketplace", req.Marketplace,
		"max_results", req.MaxResults,
	)

	handle, err := s.runner.StartJob(ctx, keyword, req.Marketplace, req.MaxResults)
	if err != nil {
		return nil, err
	}

	if err := s.runner.AwaitCompletion(ctx, handle.JobID); err != nil {
		return nil, err
	}

	raw, err := s.fetch(ctx, handle, req.MaxResults)
	if err != nil {
		return nil, err
	}

	products := normalize.NormalizeAll(raw)
	result := &Result{
		Products: products,
		Stats:    stats.Compute(products, s.cfg.Currency, s.label),
		JobURL:   s.runner.RunURL(handle.JobID),
	}

	slog.Info("search finished",
		"keyword", keyword,
		"job_id", handle.JobID,
		"records", len(raw),
		"products", len(products),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// fetch retrieves the raw dataset records. A job that never produced a
// dataset counts as zero matches, not an error.
func (s *Service) fetch(ctx context.Context, handle platform.JobHandle, maxResults int) ([]gson.JSON, error) {
	if handle.DatasetID == "" {
		return nil, nil
	}
	return s.runner.FetchResults(ctx, handle.DatasetID, maxResults)
}
