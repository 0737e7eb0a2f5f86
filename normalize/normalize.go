// Package normalize converts untrusted raw platform records into the
// canonical Product shape. Every Product field gets a defined value;
// records without enough identity to display are rejected instead.
package normalize

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/forage/models"
	"github.com/ysmood/gson"
)

// Defaults substituted for missing source data.
const (
	DefaultTitle       = "Untitled Product"
	DefaultDescription = "No description available"
	PlaceholderImage   = "https://placehold.co/400x400?text=No+Image"
)

// Normalize maps one raw result record to a Product. It never fails;
// malformed input yields either a best-effort Product or ok=false when the
// record carries neither a URL nor a name (nothing to display).
func Normalize(rec gson.JSON) (models.Product, bool) {
	rawURL := stringField(rec, "url")
	name := stringField(rec, "name")

	if strings.TrimSpace(rawURL) == "" && strings.TrimSpace(name) == "" {
		return models.Product{}, false
	}

	p := models.Product{
		URL:         rawURL,
		Title:       name,
		Image:       imageField(rec),
		Description: descriptionField(rec),
		Price:       priceField(rec),
	}
	if strings.TrimSpace(p.Title) == "" {
		p.Title = DefaultTitle
	}
	return p, true
}

// NormalizeAll maps a record slice preserving platform order, dropping
// rejected records.
func NormalizeAll(records []gson.JSON) []models.Product {
	products := make([]models.Product, 0, len(records))
	for _, rec := range records {
		if p, ok := Normalize(rec); ok {
			products = append(products, p)
		}
	}
	return products
}

func stringField(rec gson.JSON, path string) string {
	s, _ := rec.Get(path).Val().(string)
	return s
}

// imageField returns the record's image when it is an absolute http(s) URI,
// otherwise the fixed placeholder.
func imageField(rec gson.JSON) string {
	raw := stringField(rec, "image")
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return PlaceholderImage
	}
	return u.String()
}

// descriptionField returns the record's description stripped of any HTML
// markup, or the default when absent.
func descriptionField(rec gson.JSON) string {
	desc := strings.TrimSpace(stringField(rec, "description"))
	if desc == "" {
		return DefaultDescription
	}
	if strings.Contains(desc, "<") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(desc)); err == nil {
			if text := strings.TrimSpace(doc.Text()); text != "" {
				return text
			}
		}
	}
	return desc
}

// priceField coerces offers.price to a finite non-negative number.
// Absent, null, non-finite, negative, and unparsable values all map to 0,
// the documented "price unknown" sentinel.
func priceField(rec gson.JSON) float64 {
	var price float64

	switch v := rec.Get("offers.price").Val().(type) {
	case float64:
		price = v
	case int:
		price = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		price = parsed
	default:
		return 0
	}

	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return 0
	}
	return price
}
