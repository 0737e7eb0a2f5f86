package platform

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/ysmood/gson"
)

// Mock is an in-process Runner backed by a fixed catalog. It never touches
// the network, which makes it useful for demos without a platform credential
// and for tests.
type Mock struct {
	mu      sync.Mutex
	queries map[string]string // datasetID -> keyword
	catalog []gson.JSON
}

// NewMock creates a Mock with the built-in demo catalog.
func NewMock() *Mock {
	return &Mock{
		queries: make(map[string]string),
		catalog: mockCatalog(),
	}
}

// StartJob records the query and hands back synthetic identifiers.
func (m *Mock) StartJob(_ context.Context, keyword, _ string, _ int) (JobHandle, error) {
	id := "mock-" + randomID()

	m.mu.Lock()
	m.queries[id] = keyword
	m.mu.Unlock()

	return JobHandle{JobID: id, DatasetID: id}, nil
}

// AwaitCompletion returns immediately; mock jobs finish synchronously.
func (m *Mock) AwaitCompletion(ctx context.Context, _ string) error {
	return ctx.Err()
}

// FetchResults returns catalog records whose title or description contains
// the recorded keyword, up to maxResults.
func (m *Mock) FetchResults(_ context.Context, datasetID string, maxResults int) ([]gson.JSON, error) {
	m.mu.Lock()
	keyword, ok := m.queries[datasetID]
	delete(m.queries, datasetID)
	m.mu.Unlock()

	if !ok {
		return nil, nil
	}

	needle := strings.ToLower(strings.TrimSpace(keyword))
	var records []gson.JSON
	for _, rec := range m.catalog {
		if len(records) >= maxResults {
			break
		}
		name, _ := rec.Get("name").Val().(string)
		desc, _ := rec.Get("description").Val().(string)
		if strings.Contains(strings.ToLower(name), needle) ||
			strings.Contains(strings.ToLower(desc), needle) {
			records = append(records, rec)
		}
	}
	return records, nil
}

// RunURL returns "" because mock jobs have no console page.
func (m *Mock) RunURL(string) string { return "" }

func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// mockCatalog builds the demo product records in the platform's raw shape.
func mockCatalog() []gson.JSON {
	items := []map[string]any{
		{
			"url":         "https://example.com/products/wireless-headphones",
			"name":        "Premium Wireless Headphones",
			"image":       "https://picsum.photos/seed/product1/400/400",
			"description": "High-quality wireless headphones with active noise cancellation and 30-hour battery life.",
			"offers":      map[string]any{"price": 249.99, "priceCurrency": "USD"},
		},
		{
			"url":         "https://example.com/products/smart-watch",
			"name":        "Smart Fitness Watch",
			"image":       "https://picsum.photos/seed/product2/400/400",
			"description": "Track your fitness goals with heart rate monitoring, GPS, and a waterproof design.",
			"offers":      map[string]any{"price": 199.99, "priceCurrency": "USD"},
		},
		{
			"url":         "https://example.com/products/laptop-stand",
			"name":        "Ergonomic Laptop Stand",
			"image":       "https://picsum.photos/seed/product3/400/400",
			"description": "Aluminum laptop stand with adjustable height and angle.",
			"offers":      map[string]any{"price": 49.99, "priceCurrency": "USD"},
		},
		{
			"url":         "https://example.com/products/mechanical-keyboard",
			"name":        "RGB Mechanical Keyboard",
			"image":       "https://picsum.photos/seed/product4/400/400",
			"description": "Mechanical keyboard with customizable RGB lighting and tactile switches.",
			"offers":      map[string]any{"price": 129.99, "priceCurrency": "USD"},
		},
		{
			"url":         "https://example.com/products/usb-c-hub",
			"name":        "USB-C Multiport Hub",
			"image":       "https://picsum.photos/seed/product5/400/400",
			"description": "7-in-1 USB-C hub with HDMI, USB 3.0, SD card reader, and power delivery.",
			"offers":      map[string]any{"price": 59.99, "priceCurrency": "USD"},
		},
		{
			"url":         "https://example.com/products/wireless-mouse",
			"name":        "Wireless Ergonomic Mouse",
			"image":       "https://picsum.photos/seed/product6/400/400",
			"description": "Comfortable wireless mouse with precision tracking.",
			"offers":      map[string]any{"price": 39.99, "priceCurrency": "USD"},
		},
		{
			"url":         "https://example.com/products/desk-lamp",
			"name":        "LED Desk Lamp with USB Port",
			"image":       "https://picsum.photos/seed/product7/400/400",
			"description": "LED desk lamp with adjustable brightness and a built-in USB charging port.",
			"offers":      map[string]any{"price": 34.99, "priceCurrency": "USD"},
		},
		{
			"url":         "https://example.com/products/portable-speaker",
			"name":        "Portable Bluetooth Speaker",
			"image":       "https://picsum.photos/seed/product8/400/400",
			"description": "Waterproof portable speaker with 360-degree sound and 12-hour battery.",
			"offers":      map[string]any{"price": 79.99, "priceCurrency": "USD"},
		},
	}

	records := make([]gson.JSON, 0, len(items))
	for _, item := range items {
		records = append(records, gson.New(item))
	}
	return records
}
