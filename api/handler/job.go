package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/forage/models"
	"github.com/use-agent/forage/search"
	"github.com/use-agent/forage/webhook"
)

// jobStore holds all in-flight and completed search jobs.
var jobStore sync.Map

func init() {
	// Background goroutine to expire search jobs older than 1 hour.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			cutoff := time.Now().Add(-1 * time.Hour).Unix()
			jobStore.Range(func(key, value any) bool {
				job := value.(*models.SearchJob)
				if job.CreatedAt < cutoff {
					jobStore.Delete(key)
				}
				return true
			})
		}
	}()
}

// PostSearchJob returns a handler for POST /api/v1/search/jobs.
// It validates the request, creates a job record, and runs the search in
// the background so the caller doesn't hold a connection open for the
// remote job's full lifetime.
func PostSearchJob(svc *search.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SearchJobRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": *err.ToDetail()})
			return
		}

		jobID := "search-" + randomID()
		job := &models.SearchJob{
			ID:            jobID,
			Status:        "processing",
			Keyword:       req.Keyword,
			CreatedAt:     time.Now().Unix(),
			WebhookURL:    req.WebhookURL,
			WebhookSecret: req.WebhookSecret,
		}
		jobStore.Store(jobID, job)

		go runSearchJob(svc, job, req.SearchRequest)

		c.JSON(http.StatusOK, models.SearchJobResponse{
			ID:     jobID,
			Status: "processing",
		})
	}
}

// GetSearchJob returns a handler for GET /api/v1/search/jobs/:id.
func GetSearchJob() gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("id")
		val, ok := jobStore.Load(jobID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "search job not found",
				},
			})
			return
		}

		job := val.(*models.SearchJob)
		c.JSON(http.StatusOK, models.SearchJobStatusResponse{
			ID:      job.ID,
			Status:  job.Status,
			Keyword: job.Keyword,
			Result:  job.Result,
		})
	}
}

// runSearchJob executes one search in the background and records the
// outcome on the job, notifying the webhook endpoint if one was given.
func runSearchJob(svc *search.Service, job *models.SearchJob, req models.SearchRequest) {
	start := time.Now()

	result, err := svc.Search(context.Background(), &req)
	if err != nil {
		searchErr, ok := err.(*models.SearchError)
		if !ok {
			searchErr = models.NewSearchError(models.ErrCodeInternal, err.Error(), err)
		}
		job.Result = &models.SearchResponse{
			Success: false,
			Error:   searchErr.ToDetail(),
			Timing:  models.TimingInfo{TotalMs: time.Since(start).Milliseconds()},
		}
		job.Status = "failed"
	} else {
		job.Result = &models.SearchResponse{
			Success:  true,
			Products: result.Products,
			Stats:    result.Stats,
			JobURL:   result.JobURL,
			Timing:   models.TimingInfo{TotalMs: time.Since(start).Milliseconds()},
		}
		job.Status = "completed"
	}

	slog.Info("search job finished",
		"id", job.ID,
		"status", job.Status,
		"keyword", job.Keyword,
	)

	if job.WebhookURL != "" {
		webhook.DeliverAsync(job.WebhookURL, job.WebhookSecret, &webhook.Event{
			Type:      "search." + job.Status,
			JobID:     job.ID,
			Timestamp: time.Now().Unix(),
			Data:      job.Result,
		})
	}
}

// randomID generates a short random hex string for job IDs.
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
