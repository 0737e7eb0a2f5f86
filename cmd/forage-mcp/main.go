package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// searchRequest mirrors the Forage API request model.
type searchRequest struct {
	Keyword     string `json:"keyword"`
	Marketplace string `json:"marketplace,omitempty"`
	MaxResults  int    `json:"max_results,omitempty"`
}

// searchResponse mirrors the Forage API response model.
type searchResponse struct {
	Success  bool `json:"success"`
	Products []struct {
		URL         string  `json:"url"`
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
	} `json:"products"`
	Stats struct {
		ProductCount    int      `json:"product_count"`
		AveragePrice    *float64 `json:"average_price"`
		Currency        string   `json:"currency"`
		DataSourceLabel string   `json:"data_source_label"`
	} `json:"stats"`
	JobURL string `json:"job_url"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// jobResponse mirrors the Forage async job creation response.
type jobResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// jobStatusResponse mirrors the Forage job status response.
type jobStatusResponse struct {
	ID      string          `json:"id"`
	Status  string          `json:"status"`
	Keyword string          `json:"keyword"`
	Result  *searchResponse `json:"result"`
}

func main() {
	apiURL := os.Getenv("FORAGE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("FORAGE_API_KEY")

	s := server.NewMCPServer(
		"forage",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	productSearchTool := mcp.NewTool("product_search",
		mcp.WithDescription("Search an e-commerce marketplace for products by keyword. Runs a remote scraping job and returns normalized products with summary statistics. May take up to a few minutes."),
		mcp.WithString("keyword",
			mcp.Required(),
			mcp.Description("Free-text product search query, e.g. 'wireless headphones'"),
		),
		mcp.WithString("marketplace",
			mcp.Description("Marketplace to search (default: www.amazon.com)"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of products to return (default: 20)"),
		),
	)
	s.AddTool(productSearchTool, handleProductSearch(apiURL, apiKey))

	startJobTool := mcp.NewTool("start_search_job",
		mcp.WithDescription("Start a product search as a background job and return its id immediately. Use get_search_job to collect the result."),
		mcp.WithString("keyword",
			mcp.Required(),
			mcp.Description("Free-text product search query"),
		),
		mcp.WithString("marketplace",
			mcp.Description("Marketplace to search (default: www.amazon.com)"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of products to return (default: 20)"),
		),
	)
	s.AddTool(startJobTool, handleStartSearchJob(apiURL, apiKey))

	getJobTool := mcp.NewTool("get_search_job",
		mcp.WithDescription("Fetch the status and result of a search job started with start_search_job."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The search job id"),
		),
	)
	s.AddTool(getJobTool, handleGetSearchJob(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the Forage API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// apiGet sends a GET request to the Forage API and returns the response body.
func apiGet(ctx context.Context, client *http.Client, apiURL, apiKey, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func handleProductSearch(apiURL, apiKey string) server.ToolHandlerFunc {
	// Searches block on a remote scraping job, so the timeout is generous.
	client := &http.Client{Timeout: 600 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		keyword, err := request.RequireString("keyword")
		if err != nil {
			return mcp.NewToolResultError("keyword is required"), nil
		}

		payload := searchRequest{
			Keyword:     keyword,
			Marketplace: request.GetString("marketplace", ""),
			MaxResults:  request.GetInt("max_results", 0),
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/search", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search request failed: %v", err)), nil
		}

		var searchResp searchResponse
		if err := json.Unmarshal(respBody, &searchResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if !searchResp.Success {
			errMsg := "search failed"
			if searchResp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", searchResp.Error.Code, searchResp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		return mcp.NewToolResultText(formatSearchResult(&searchResp)), nil
	}
}

func handleStartSearchJob(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		keyword, err := request.RequireString("keyword")
		if err != nil {
			return mcp.NewToolResultError("keyword is required"), nil
		}

		payload := searchRequest{
			Keyword:     keyword,
			Marketplace: request.GetString("marketplace", ""),
			MaxResults:  request.GetInt("max_results", 0),
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/search/jobs", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("job request failed: %v", err)), nil
		}

		var jobResp jobResponse
		if err := json.Unmarshal(respBody, &jobResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if jobResp.ID == "" {
			return mcp.NewToolResultError("search job creation failed"), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf("Search job %s started (status: %s). Poll it with get_search_job.", jobResp.ID, jobResp.Status)), nil
	}
}

func handleGetSearchJob(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}

		respBody, err := apiGet(ctx, client, apiURL, apiKey, "/api/v1/search/jobs/"+id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("job status request failed: %v", err)), nil
		}

		var statusResp jobStatusResponse
		if err := json.Unmarshal(respBody, &statusResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if statusResp.ID == "" {
			return mcp.NewToolResultError("search job not found"), nil
		}

		if statusResp.Status == "processing" {
			return mcp.NewToolResultText(fmt.Sprintf("Search job %s is still processing (keyword: %q).", statusResp.ID, statusResp.Keyword)), nil
		}

		if statusResp.Result == nil {
			return mcp.NewToolResultText(fmt.Sprintf("Search job %s finished with status %s but has no result.", statusResp.ID, statusResp.Status)), nil
		}
		if !statusResp.Result.Success {
			errMsg := "search failed"
			if statusResp.Result.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", statusResp.Result.Error.Code, statusResp.Result.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		return mcp.NewToolResultText(formatSearchResult(statusResp.Result)), nil
	}
}

// formatSearchResult renders a search response as readable text.
func formatSearchResult(resp *searchResponse) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Found %d products (source: %s)\n", resp.Stats.ProductCount, resp.Stats.DataSourceLabel)
	if resp.Stats.AveragePrice != nil {
		fmt.Fprintf(&b, "Average price: %.2f %s\n", *resp.Stats.AveragePrice, resp.Stats.Currency)
	} else {
		b.WriteString("Average price: n/a\n")
	}
	if resp.JobURL != "" {
		fmt.Fprintf(&b, "Run: %s\n", resp.JobURL)
	}

	for i, p := range resp.Products {
		fmt.Fprintf(&b, "\n%d. %s", i+1, p.Title)
		if p.Price > 0 {
			fmt.Fprintf(&b, " (%.2f %s)", p.Price, resp.Stats.Currency)
		}
		b.WriteString("\n")
		if p.URL != "" {
			fmt.Fprintf(&b, "   %s\n", p.URL)
		}
		if p.Description != "" {
			desc := p.Description
			if len(desc) > 200 {
				desc = desc[:200] + "..."
			}
			fmt.Fprintf(&b, "   %s\n", desc)
		}
	}
	return b.String()
}
