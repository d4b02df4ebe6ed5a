// Package upstream talks to external product search providers.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	appCtx "github.com/baechuer/real-time-ressys/services/discovery-service/internal/pkg/context"
)

const maxResponseBytes = 4 << 20

// HTTPProvider queries one JSON search endpoint:
// GET <url>?q=<query>&limit=<n> -> {"results":[...]}.
type HTTPProvider struct {
	name    string
	baseURL string
	client  *http.Client
}

func NewHTTPProvider(name, baseURL string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		name:    name,
		baseURL: baseURL,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (p *HTTPProvider) Name() string { return p.name }

type searchResponse struct {
	Results []searchItem `json:"results"`
}

type searchItem struct {
	Title    string          `json:"title"`
	Price    json.RawMessage `json:"price"`
	Brand    string          `json:"brand"`
	Category string          `json:"category"`
	ImageURL string          `json:"image_url"`
	URL      string          `json:"url"`
}

func (p *HTTPProvider) Search(ctx context.Context, query string, limit int) ([]domain.CandidateProduct, error) {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return nil, fmt.Errorf("provider %s: bad url: %w", p.name, err)
	}
	qs := u.Query()
	qs.Set("q", query)
	qs.Set("limit", strconv.Itoa(limit))
	u.RawQuery = qs.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if reqID := appCtx.GetRequestID(ctx); reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("provider %s: %w", p.name, ErrTimeout)
		}
		return nil, fmt.Errorf("provider %s: %w: %v", p.name, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{Provider: p.name, StatusCode: resp.StatusCode}
	}

	var body searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return nil, fmt.Errorf("provider %s: decode: %w", p.name, err)
	}

	out := make([]domain.CandidateProduct, 0, len(body.Results))
	for _, it := range body.Results {
		title := strings.TrimSpace(it.Title)
		if title == "" {
			continue
		}
		price, ok := parsePrice(it.Price)
		if !ok {
			continue
		}
		out = append(out, domain.CandidateProduct{
			Title:      title,
			Price:      price,
			Brand:      strings.TrimSpace(it.Brand),
			Category:   strings.TrimSpace(it.Category),
			ImageURL:   it.ImageURL,
			ProductURL: it.URL,
			Source:     p.name,
		})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// parsePrice accepts a JSON number or a display string such as "$1,299.00"
// or "120 EUR".
func parsePrice(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, n >= 0
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	i := strings.IndexAny(s, "0123456789")
	if i < 0 {
		return 0, false
	}
	j := i
	for j < len(s) && (s[j] >= '0' && s[j] <= '9' || s[j] == '.' || s[j] == ',') {
		j++
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s[i:j], ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
