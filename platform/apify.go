package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/use-agent/forage/config"
	"github.com/use-agent/forage/models"
	"github.com/ysmood/gson"
)

// Terminal run states reported by the platform.
const (
	runSucceeded = "SUCCEEDED"
	runFailed    = "FAILED"
	runAborted   = "ABORTED"
	runTimedOut  = "TIMED-OUT"
)

// Client is the live Runner backed by the platform's v2 REST API.
// It holds no mutable state beyond the HTTP client; concurrent searches
// share it freely.
type Client struct {
	cfg  config.PlatformConfig
	http *http.Client
}

// NewClient creates a live platform client from configuration.
func NewClient(cfg config.PlatformConfig) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

// runData mirrors the platform's actor-run resource.
type runData struct {
	Data struct {
		ID               string `json:"id"`
		Status           string `json:"status"`
		DefaultDatasetID string `json:"defaultDatasetId"`
	} `json:"data"`
}

// jobInput is the actor input for one search job.
type jobInput struct {
	Keyword           string   `json:"keyword"`
	Marketplaces      []string `json:"marketplaces"`
	MaxProductResults int      `json:"maxProductResults"`
	ScrapeMode        string   `json:"scrapeMode"`
}

// StartJob submits a scraping job for the keyword/marketplace pair.
// The credential is checked before any network I/O.
func (c *Client) StartJob(ctx context.Context, keyword, marketplace string, maxResults int) (JobHandle, error) {
	if c.cfg.Token == "" {
		return JobHandle{}, models.NewSearchError(models.ErrCodeNotConfigured,
			"platform token is not set: configure FORAGE_PLATFORM_TOKEN", nil)
	}

	input := jobInput{
		Keyword:           keyword,
		Marketplaces:      []string{marketplace},
		MaxProductResults: maxResults,
		ScrapeMode:        "AUTO",
	}
	body, err := json.Marshal(input)
	if err != nil {
		return JobHandle{}, models.NewSearchError(models.ErrCodeSubmission, "encode job input", err)
	}

	// Actor IDs use "~" as the owner/name separator in URL paths.
	actorPath := strings.ReplaceAll(c.cfg.Actor, "/", "~")
	endpoint := fmt.Sprintf("%s/v2/acts/%s/runs?token=%s",
		c.cfg.BaseURL, actorPath, url.QueryEscape(c.cfg.Token))

	var run runData
	if err := c.doJSON(ctx, http.MethodPost, endpoint, body, &run); err != nil {
		return JobHandle{}, models.NewSearchError(models.ErrCodeSubmission, err.Error(), err)
	}
	if run.Data.ID == "" {
		return JobHandle{}, models.NewSearchError(models.ErrCodeSubmission,
			"platform accepted the job but returned no run id", nil)
	}

	slog.Info("job submitted",
		"run_id", run.Data.ID,
		"keyword", keyword,
		"marketplace", marketplace,
	)
	return JobHandle{JobID: run.Data.ID, DatasetID: run.Data.DefaultDatasetID}, nil
}

// AwaitCompletion polls the run until it reaches a terminal state or the
// configured wait deadline (or ctx) expires.
func (c *Client) AwaitCompletion(ctx context.Context, jobID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.WaitTimeout)
	defer cancel()

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		status, err := c.runStatus(ctx, jobID)
		if err != nil {
			return models.NewSearchError(models.ErrCodeJobTimeout, err.Error(), err)
		}

		switch status {
		case runSucceeded:
			return nil
		case runFailed, runAborted, runTimedOut:
			return models.NewSearchError(models.ErrCodeJobTimeout,
				fmt.Sprintf("remote job %s ended with status %s", jobID, status), nil)
		}

		select {
		case <-ctx.Done():
			return models.NewSearchError(models.ErrCodeJobTimeout,
				fmt.Sprintf("gave up waiting for job %s after %s", jobID, c.cfg.WaitTimeout), ctx.Err())
		case <-ticker.C:
		}
	}
}

// FetchResults retrieves up to maxResults raw records from the dataset.
// An empty dataset is a valid, successful outcome.
func (c *Client) FetchResults(ctx context.Context, datasetID string, maxResults int) ([]gson.JSON, error) {
	endpoint := fmt.Sprintf("%s/v2/datasets/%s/items?token=%s&format=json&clean=true&limit=%s",
		c.cfg.BaseURL, datasetID, url.QueryEscape(c.cfg.Token), strconv.Itoa(maxResults))

	body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, models.NewSearchError(models.ErrCodeResultFetch, err.Error(), err)
	}
	return gson.New(body).Arr(), nil
}

// RunURL returns the platform console page for a run.
func (c *Client) RunURL(jobID string) string {
	if jobID == "" {
		return ""
	}
	return fmt.Sprintf("%s/actors/runs/%s", c.cfg.ConsoleURL, jobID)
}

// runStatus fetches the current status of a run.
func (c *Client) runStatus(ctx context.Context, jobID string) (string, error) {
	endpoint := fmt.Sprintf("%s/v2/actor-runs/%s?token=%s",
		c.cfg.BaseURL, jobID, url.QueryEscape(c.cfg.Token))

	var run runData
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &run); err != nil {
		return "", err
	}
	return run.Data.Status, nil
}

// do performs one HTTP request and returns the response body.
// Bodies are capped at 10 MB.
func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("platform: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("platform: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("platform: read body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("platform: HTTP %d: %s", resp.StatusCode, platformErrorMessage(data))
	}
	return data, nil
}

// doJSON performs one HTTP request and decodes the JSON response into out.
func (c *Client) doJSON(ctx context.Context, method, endpoint string, body []byte, out any) error {
	data, err := c.do(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("platform: decode response: %w", err)
	}
	return nil
}

// platformErrorMessage extracts the platform's error message from an API
// error body, falling back to the raw body.
func platformErrorMessage(body []byte) string {
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return apiErr.Error.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
