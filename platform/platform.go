// Package platform talks to the remote scraping platform that runs
// product-search jobs. The platform's crawling behavior is opaque; this
// package only needs its three capabilities: start a job, wait for it to
// finish, and fetch the result dataset.
package platform

import (
	"context"

	"github.com/ysmood/gson"
)

// JobHandle identifies a submitted remote job and its result dataset.
// It lives only for the duration of one search; callers may surface JobID
// as a display identifier but nothing else.
type JobHandle struct {
	JobID     string
	DatasetID string // may be empty until the platform assigns one
}

// Runner is the minimal surface of the remote scraping platform.
// Implementations perform at most one attempt per call; retrying is the
// caller's decision.
type Runner interface {
	// StartJob submits a scraping job for one keyword/marketplace pair.
	// Fails with PLATFORM_NOT_CONFIGURED before any network I/O when no
	// credential is configured, and with JOB_SUBMISSION_FAILED when the
	// platform rejects the request.
	StartJob(ctx context.Context, keyword, marketplace string, maxResults int) (JobHandle, error)

	// AwaitCompletion blocks until the remote job reaches a terminal state.
	// Fails with JOB_TIMEOUT when the job errors platform-side or the wait
	// deadline expires. Cancellable via ctx.
	AwaitCompletion(ctx context.Context, jobID string) error

	// FetchResults retrieves up to maxResults raw records from the job's
	// dataset. A job with zero matches returns an empty slice, not an error.
	FetchResults(ctx context.Context, datasetID string, maxResults int) ([]gson.JSON, error)

	// RunURL returns the platform console URL for a job, or "" when the
	// implementation has no console.
	RunURL(jobID string) string
}
