package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/use-agent/forage/config"
	"github.com/use-agent/forage/models"
)

func testPlatformConfig(baseURL string) config.PlatformConfig {
	return config.PlatformConfig{
		Token:        "test-token",
		BaseURL:      baseURL,
		Actor:        "apify/e-commerce-scraping-tool",
		ConsoleURL:   "https://console.example.com",
		WaitTimeout:  2 * time.Second,
		PollInterval: 10 * time.Millisecond,
		HTTPTimeout:  time.Second,
	}
}

func TestStartJob_MissingTokenFailsBeforeNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	cfg := testPlatformConfig(srv.URL)
	cfg.Token = ""
	c := NewClient(cfg)

	_, err := c.StartJob(context.Background(), "desk", "www.amazon.com", 20)

	var searchErr *models.SearchError
	if !errors.As(err, &searchErr) || searchErr.Code != models.ErrCodeNotConfigured {
		t.Fatalf("err = %v, want %s", err, models.ErrCodeNotConfigured)
	}
	if hits.Load() != 0 {
		t.Errorf("server was hit %d times, want 0", hits.Load())
	}
}

func TestStartJob(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v2/acts/apify~e-commerce-scraping-tool/runs" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.URL.Query().Get("token") != "test-token" {
			t.Error("token not forwarded")
		}

		var input map[string]any
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			t.Fatalf("decode input: %v", err)
		}
		if input["keyword"] != "standing desk" {
			t.Errorf("keyword = %v", input["keyword"])
		}
		if input["scrapeMode"] != "AUTO" {
			t.Errorf("scrapeMode = %v", input["scrapeMode"])
		}

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"data": {"id": "run-abc", "status": "READY", "defaultDatasetId": "ds-abc"}}`)
	}))
	defer srv.Close()

	c := NewClient(testPlatformConfig(srv.URL))
	handle, err := c.StartJob(context.Background(), "standing desk", "www.amazon.com", 20)
	if err != nil {
		t.Fatalf("StartJob: %v", err)
	}
	if handle.JobID != "run-abc" || handle.DatasetID != "ds-abc" {
		t.Errorf("handle = %+v", handle)
	}
}

func TestStartJob_PlatformRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprint(w, `{"error": {"type": "quota-exceeded", "message": "Monthly usage hard limit exceeded"}}`)
	}))
	defer srv.Close()

	c := NewClient(testPlatformConfig(srv.URL))
	_, err := c.StartJob(context.Background(), "desk", "www.amazon.com", 20)

	var searchErr *models.SearchError
	if !errors.As(err, &searchErr) || searchErr.Code != models.ErrCodeSubmission {
		t.Fatalf("err = %v, want %s", err, models.ErrCodeSubmission)
	}
	// The platform's own message must survive verbatim.
	if want := "Monthly usage hard limit exceeded"; !strings.Contains(searchErr.Message, want) {
		t.Errorf("message %q does not preserve %q", searchErr.Message, want)
	}
}

func TestAwaitCompletion_PollsUntilSucceeded(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/actor-runs/run-abc" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		status := "RUNNING"
		if polls.Add(1) >= 3 {
			status = "SUCCEEDED"
		}
		fmt.Fprintf(w, `{"data": {"id": "run-abc", "status": %q}}`, status)
	}))
	defer srv.Close()

	c := NewClient(testPlatformConfig(srv.URL))
	if err := c.AwaitCompletion(context.Background(), "run-abc"); err != nil {
		t.Fatalf("AwaitCompletion: %v", err)
	}
	if polls.Load() < 3 {
		t.Errorf("polled %d times, want at least 3", polls.Load())
	}
}

func TestAwaitCompletion_TerminalFailure(t *testing.T) {
	for _, status := range []string{"FAILED", "ABORTED", "TIMED-OUT"} {
		t.Run(status, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintf(w, `{"data": {"id": "run-abc", "status": %q}}`, status)
			}))
			defer srv.Close()

			c := NewClient(testPlatformConfig(srv.URL))
			err := c.AwaitCompletion(context.Background(), "run-abc")

			var searchErr *models.SearchError
			if !errors.As(err, &searchErr) || searchErr.Code != models.ErrCodeJobTimeout {
				t.Fatalf("err = %v, want %s", err, models.ErrCodeJobTimeout)
			}
		})
	}
}

func TestAwaitCompletion_DeadlineExpires(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": {"id": "run-abc", "status": "RUNNING"}}`)
	}))
	defer srv.Close()

	cfg := testPlatformConfig(srv.URL)
	cfg.WaitTimeout = 50 * time.Millisecond
	c := NewClient(cfg)

	err := c.AwaitCompletion(context.Background(), "run-abc")

	var searchErr *models.SearchError
	if !errors.As(err, &searchErr) || searchErr.Code != models.ErrCodeJobTimeout {
		t.Fatalf("err = %v, want %s", err, models.ErrCodeJobTimeout)
	}
}

func TestFetchResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/datasets/ds-abc/items" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("limit") != "5" {
			t.Errorf("limit = %q, want 5", r.URL.Query().Get("limit"))
		}
		fmt.Fprint(w, `[{"name": "A"}, {"name": "B"}]`)
	}))
	defer srv.Close()

	c := NewClient(testPlatformConfig(srv.URL))
	records, err := c.FetchResults(context.Background(), "ds-abc", 5)
	if err != nil {
		t.Fatalf("FetchResults: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if name, _ := records[0].Get("name").Val().(string); name != "A" {
		t.Errorf("records[0].name = %q", name)
	}
}

func TestFetchResults_EmptyDatasetIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	c := NewClient(testPlatformConfig(srv.URL))
	records, err := c.FetchResults(context.Background(), "ds-abc", 20)
	if err != nil {
		t.Fatalf("an empty dataset must not be an error, got %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}

func TestFetchResults_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(nil)
	srv.Close() // connection refused from here on

	c := NewClient(testPlatformConfig(srv.URL))
	_, err := c.FetchResults(context.Background(), "ds-abc", 20)

	var searchErr *models.SearchError
	if !errors.As(err, &searchErr) || searchErr.Code != models.ErrCodeResultFetch {
		t.Fatalf("err = %v, want %s", err, models.ErrCodeResultFetch)
	}
}

func TestRunURL(t *testing.T) {
	c := NewClient(testPlatformConfig("https://api.example.com"))
	if got := c.RunURL("run-abc"); got != "https://console.example.com/actors/runs/run-abc" {
		t.Errorf("RunURL = %q", got)
	}
	if got := c.RunURL(""); got != "" {
		t.Errorf("RunURL of empty id = %q, want empty", got)
	}
}
