package worldbank

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/climate-figures/internal/domain"
	"github.com/couchcryptid/climate-figures/internal/observability"
)

// Client implements domain.Source using the World Bank Climate Data API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a climate data client. baseURL is the country endpoint
// root, e.g. http://climatedataapi.worldbank.org/climateweb/rest/v1/country.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: metrics,
		logger:  logger,
	}
}

// Fetch retrieves the historical CRU series for one country.
func (c *Client) Fetch(ctx context.Context, variable domain.Variable, resolution domain.Resolution, country domain.CountryCode) ([]domain.Record, error) {
	u := fmt.Sprintf("%s/cru/%s/%s/%s.json",
		c.baseURL, url.PathEscape(string(variable)), url.PathEscape(string(resolution)), url.PathEscape(string(country)))

	start := time.Now()
	records, err := c.doRequest(ctx, u, country)
	c.metrics.FetchDuration.WithLabelValues(string(variable)).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues(string(variable), "error").Inc()
		return nil, fmt.Errorf("fetch %s %s %s: %w", variable, resolution, country, err)
	}

	c.metrics.FetchRequests.WithLabelValues(string(variable), "success").Inc()
	c.logger.Debug("series fetched",
		"variable", variable,
		"resolution", resolution,
		"country", country,
		"rows", len(records),
	)
	return records, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string, country domain.CountryCode) ([]domain.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("climate API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("climate API error: status %d: %s", resp.StatusCode, body)
	}

	var points []point
	if err := json.NewDecoder(resp.Body).Decode(&points); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("empty series for %s", country)
	}

	records := make([]domain.Record, len(points))
	for i, p := range points {
		records[i] = domain.Record{Year: p.Year, Country: country, Value: p.Data}
	}
	return records, nil
}

// Climate Data API response types.

type point struct {
	Year int     `json:"year"`
	Data float64 `json:"data"`
}
