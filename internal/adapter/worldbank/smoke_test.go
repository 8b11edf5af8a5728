//go:build worldbank

package worldbank

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-figures/internal/domain"
	"github.com/couchcryptid/climate-figures/internal/observability"
)

// These tests hit the real World Bank Climate Data API.
// Run with: go test -tags=worldbank ./internal/adapter/worldbank/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    "http://climatedataapi.worldbank.org/climateweb/rest/v1/country",
		metrics:    observability.NewMetricsForTesting(),
		logger:     testLogger(),
	}
}

func TestSmoke_FetchPrecipitation(t *testing.T) {
	c := smokeClient(t)

	records, err := c.Fetch(context.Background(), domain.Precipitation, domain.Yearly, "USA")
	require.NoError(t, err)

	require.NotEmpty(t, records)
	assert.Equal(t, 1901, records[0].Year)
	for _, r := range records {
		assert.GreaterOrEqual(t, r.Value, 0.0)
	}
}

func TestSmoke_FetchTemperatureMatchesPrecipitationYears(t *testing.T) {
	c := smokeClient(t)

	pr, err := c.Fetch(context.Background(), domain.Precipitation, domain.Yearly, "BLZ")
	require.NoError(t, err)
	tas, err := c.Fetch(context.Background(), domain.Temperature, domain.Yearly, "BLZ")
	require.NoError(t, err)

	_, err = domain.Merge(pr, tas)
	require.NoError(t, err)
}
