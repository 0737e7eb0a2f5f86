package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/forage/models"
	"github.com/use-agent/forage/search"
)

// Search returns a handler for POST /api/v1/search.
//
// Orchestration flow:
//  1. Parse & validate request.
//  2. Service.Search → products + stats + job URL   (records remote_ms)
//  3. Fill Timing, return 200.
//
// A zero-product result with no error is returned as a success; callers
// distinguish "no matches" from failure by the error field alone.
func Search(svc *search.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.SearchResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		remoteStart := time.Now()
		result, err := svc.Search(c.Request.Context(), &req)
		remoteMs := time.Since(remoteStart).Milliseconds()

		if err != nil {
			respondError(c, err, models.TimingInfo{
				TotalMs:  time.Since(totalStart).Milliseconds(),
				RemoteMs: remoteMs,
			})
			return
		}

		c.JSON(http.StatusOK, models.SearchResponse{
			Success:  true,
			Products: result.Products,
			Stats:    result.Stats,
			JobURL:   result.JobURL,
			Timing: models.TimingInfo{
				TotalMs:  time.Since(totalStart).Milliseconds(),
				RemoteMs: remoteMs,
			},
		})
	}
}

// respondError maps a SearchError to the correct HTTP status code and writes
// a structured JSON error response. The remote platform's message is passed
// through verbatim.
func respondError(c *gin.Context, err error, timing models.TimingInfo) {
	searchErr, ok := err.(*models.SearchError)
	if !ok {
		searchErr = models.NewSearchError(models.ErrCodeInternal, err.Error(), err)
	}

	c.JSON(mapErrorToStatus(searchErr), models.SearchResponse{
		Success: false,
		Error:   searchErr.ToDetail(),
		Timing:  timing,
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.SearchError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeJobTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeSubmission, models.ErrCodeResultFetch:
		return http.StatusBadGateway // 502
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
