package search

import (
	"context"
	"errors"
	"testing"

	"github.com/use-agent/forage/config"
	"github.com/use-agent/forage/models"
	"github.com/use-agent/forage/platform"
	"github.com/ysmood/gson"
)

var testCfg = config.SearchConfig{
	DefaultMarketplace: "www.amazon.com",
	DefaultMaxResults:  20,
	MaxResultsCap:      100,
	Currency:           "USD",
}

// fakeRunner is a Runner test double that records invocations and returns
// scripted results.
type fakeRunner struct {
	startCalls int
	awaitCalls int
	fetchCalls int

	startErr error
	awaitErr error
	fetchErr error

	handle  platform.JobHandle
	records []gson.JSON

	lastKeyword     string
	lastMarketplace string
	lastMaxResults  int
}

func (f *fakeRunner) StartJob(_ context.Context, keyword, marketplace string, maxResults int) (platform.JobHandle, error) {
	f.startCalls++
	f.lastKeyword = keyword
	f.lastMarketplace = marketplace
	f.lastMaxResults = maxResults
	if f.startErr != nil {
		return platform.JobHandle{}, f.startErr
	}
	return f.handle, nil
}

func (f *fakeRunner) AwaitCompletion(context.Context, string) error {
	f.awaitCalls++
	return f.awaitErr
}

func (f *fakeRunner) FetchResults(context.Context, string, int) ([]gson.JSON, error) {
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.records, nil
}

func (f *fakeRunner) RunURL(jobID string) string {
	return "https://console.example.com/runs/" + jobID
}

func TestSearch_BlankKeywordNeverReachesPlatform(t *testing.T) {
	for _, keyword := range []string{"", "   ", "\t\n"} {
		runner := &fakeRunner{}
		svc := New(runner, testCfg, "live")

		_, err := svc.Search(context.Background(), &models.SearchRequest{Keyword: keyword})

		var searchErr *models.SearchError
		if !errors.As(err, &searchErr) || searchErr.Code != models.ErrCodeInvalidInput {
			t.Fatalf("keyword %q: err = %v, want %s", keyword, err, models.ErrCodeInvalidInput)
		}
		if runner.startCalls+runner.awaitCalls+runner.fetchCalls != 0 {
			t.Errorf("keyword %q: platform was called %d/%d/%d times, want none",
				keyword, runner.startCalls, runner.awaitCalls, runner.fetchCalls)
		}
	}
}

func TestSearch_HappyPath(t *testing.T) {
	runner := &fakeRunner{
		handle: platform.JobHandle{JobID: "run-1", DatasetID: "ds-1"},
		records: []gson.JSON{
			gson.NewFrom(`{"name": "A", "offers": {"price": 10}}`),
			gson.NewFrom(`{}`),
			gson.NewFrom(`{"name": "B", "offers": {"price": "oops"}}`),
			gson.NewFrom(`{"name": "C", "offers": {"price": 20}}`),
		},
	}
	svc := New(runner, testCfg, "live")

	result, err := svc.Search(context.Background(), &models.SearchRequest{Keyword: "  desk  "})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if runner.lastKeyword != "desk" {
		t.Errorf("keyword sent = %q, want trimmed %q", runner.lastKeyword, "desk")
	}
	if runner.lastMarketplace != "www.amazon.com" || runner.lastMaxResults != 20 {
		t.Errorf("defaults not applied: %q %d", runner.lastMarketplace, runner.lastMaxResults)
	}

	// The identity-less record is dropped; order is preserved.
	if len(result.Products) != 3 {
		t.Fatalf("got %d products, want 3", len(result.Products))
	}
	for i, want := range []string{"A", "B", "C"} {
		if result.Products[i].Title != want {
			t.Errorf("products[%d].Title = %q, want %q", i, result.Products[i].Title, want)
		}
	}

	// The unparsable price is the zero sentinel and excluded from the average.
	if result.Stats.ProductCount != 3 {
		t.Errorf("product count = %d, want 3", result.Stats.ProductCount)
	}
	if result.Stats.AveragePrice == nil || *result.Stats.AveragePrice != 15 {
		t.Errorf("average price = %v, want 15", result.Stats.AveragePrice)
	}
	if result.Stats.DataSourceLabel != "live" {
		t.Errorf("label = %q, want live", result.Stats.DataSourceLabel)
	}
	if result.JobURL != "https://console.example.com/runs/run-1" {
		t.Errorf("job url = %q", result.JobURL)
	}
}

func TestSearch_ZeroMatchesIsSuccess(t *testing.T) {
	runner := &fakeRunner{handle: platform.JobHandle{JobID: "run-2", DatasetID: "ds-2"}}
	svc := New(runner, testCfg, "live")

	result, err := svc.Search(context.Background(), &models.SearchRequest{Keyword: "obscure thing"})
	if err != nil {
		t.Fatalf("zero matches must not be an error, got %v", err)
	}
	if len(result.Products) != 0 {
		t.Errorf("got %d products, want 0", len(result.Products))
	}
	if result.Stats.ProductCount != 0 || result.Stats.AveragePrice != nil {
		t.Errorf("stats = %+v, want empty", result.Stats)
	}
}

func TestSearch_AwaitTimeoutLeaksNoPartialResult(t *testing.T) {
	runner := &fakeRunner{
		handle:   platform.JobHandle{JobID: "run-3", DatasetID: "ds-3"},
		awaitErr: models.NewSearchError(models.ErrCodeJobTimeout, "gave up waiting", nil),
		records:  []gson.JSON{gson.NewFrom(`{"name": "leaky"}`)},
	}
	svc := New(runner, testCfg, "live")

	result, err := svc.Search(context.Background(), &models.SearchRequest{Keyword: "desk"})

	var searchErr *models.SearchError
	if !errors.As(err, &searchErr) || searchErr.Code != models.ErrCodeJobTimeout {
		t.Fatalf("err = %v, want %s", err, models.ErrCodeJobTimeout)
	}
	if result != nil {
		t.Error("result must be nil on failure, no partial products")
	}
	if runner.fetchCalls != 0 {
		t.Errorf("fetch was called %d times after a failed wait", runner.fetchCalls)
	}
}

func TestSearch_SubmissionErrorPropagatesUnchanged(t *testing.T) {
	wantErr := models.NewSearchError(models.ErrCodeSubmission, "quota exceeded", nil)
	runner := &fakeRunner{startErr: wantErr}
	svc := New(runner, testCfg, "live")

	_, err := svc.Search(context.Background(), &models.SearchRequest{Keyword: "desk"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want the submission error unchanged", err)
	}
	if runner.awaitCalls != 0 || runner.fetchCalls != 0 {
		t.Error("pipeline continued past a failed submission")
	}
}

func TestSearch_MissingDatasetCountsAsZeroMatches(t *testing.T) {
	runner := &fakeRunner{handle: platform.JobHandle{JobID: "run-4"}}
	svc := New(runner, testCfg, "live")

	result, err := svc.Search(context.Background(), &models.SearchRequest{Keyword: "desk"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if runner.fetchCalls != 0 {
		t.Error("fetch should be skipped when the job has no dataset")
	}
	if len(result.Products) != 0 {
		t.Errorf("got %d products, want 0", len(result.Products))
	}
}

func TestSearch_MaxResultsClampedToCap(t *testing.T) {
	runner := &fakeRunner{handle: platform.JobHandle{JobID: "run-5", DatasetID: "ds-5"}}
	svc := New(runner, testCfg, "live")

	if _, err := svc.Search(context.Background(), &models.SearchRequest{Keyword: "desk", MaxResults: 5000}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if runner.lastMaxResults != testCfg.MaxResultsCap {
		t.Errorf("max results sent = %d, want cap %d", runner.lastMaxResults, testCfg.MaxResultsCap)
	}
}

func TestSearch_MockProvenanceLabel(t *testing.T) {
	svc := New(platform.NewMock(), testCfg, "Mock")

	result, err := svc.Search(context.Background(), &models.SearchRequest{Keyword: "wireless"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if result.Stats.DataSourceLabel != "Mock" {
		t.Errorf("label = %q, want Mock", result.Stats.DataSourceLabel)
	}
	if len(result.Products) == 0 {
		t.Error("mock catalog should match 'wireless'")
	}
	if result.JobURL != "" {
		t.Errorf("mock searches have no run url, got %q", result.JobURL)
	}
}
