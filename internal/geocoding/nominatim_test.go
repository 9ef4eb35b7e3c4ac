package geocoding_test

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/SilinPolicyAdvisor/Lead-gen/internal/geocoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// mockHTTPClient is a mock implementation of HTTPClient for testing.
type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func TestNominatimProvider_Geocode(t *testing.T) {
	ctx := t.Context()
	logger := slog.Default()
	noLimit := rate.NewLimiter(rate.Inf, 0)

	t.Run("successful geocoding", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				// Verify request parameters
				assert.Equal(t, "GET", req.Method)
				assert.Contains(t, req.URL.String(), "nominatim.openstreetmap.org")
				assert.Equal(t, "N2J 4Z2", req.URL.Query().Get("q"))
				assert.Equal(t, "json", req.URL.Query().Get("format"))
				assert.Equal(t, "1", req.URL.Query().Get("limit"))
				assert.Equal(t, "ca,us,gb", req.URL.Query().Get("countrycodes"))
				assert.Contains(t, req.Header.Get("User-Agent"), "Lead-gen-Scraper")

				responseBody := `[{"lat":"43.4642578","lon":"-80.5204096"}]`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
				}, nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, noLimit, logger)
		coords, err := provider.Geocode(ctx, "N2J 4Z2")

		require.NoError(t, err)
		require.NotNil(t, coords)
		assert.InEpsilon(t, 43.4642578, coords.Latitude, 0.0001)
		assert.InEpsilon(t, -80.5204096, coords.Longitude, 0.0001)
	})

	t.Run("empty response", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(`[]`)),
				}, nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, noLimit, logger)
		coords, err := provider.Geocode(ctx, "ZZZ 9X9")

		require.Error(t, err)
		assert.Nil(t, coords)
		assert.ErrorIs(t, err, geocoding.ErrNominatimEmptyResponse)
	})

	t.Run("invalid coordinates", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(`[{"lat":"not-a-number","lon":"-80.5"}]`)),
				}, nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, noLimit, logger)
		coords, err := provider.Geocode(ctx, "bad coords")

		require.Error(t, err)
		assert.Nil(t, coords)
		assert.ErrorIs(t, err, geocoding.ErrNominatimInvalidCoords)
	})

	t.Run("http error status", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusServiceUnavailable,
					Body:       io.NopCloser(bytes.NewBufferString(`overloaded`)),
				}, nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, noLimit, logger)
		coords, err := provider.Geocode(ctx, "N2J 4Z2")

		require.Error(t, err)
		assert.Nil(t, coords)
		assert.Contains(t, err.Error(), "status 503")
	})

	t.Run("transport error", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return nil, assert.AnError
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, noLimit, logger)
		coords, err := provider.Geocode(ctx, "N2J 4Z2")

		require.Error(t, err)
		assert.Nil(t, coords)
		assert.ErrorIs(t, err, assert.AnError)
	})
}
