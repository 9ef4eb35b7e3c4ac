package places_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/SilinPolicyAdvisor/Lead-gen/internal/models"
	"github.com/SilinPolicyAdvisor/Lead-gen/internal/places"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockHTTPClient is a mock implementation of HTTPClient for testing.
type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

const searchResponseBody = `{
	"places": [
		{
			"id": "ChIJabc123",
			"displayName": {"text": "Joe's Pizza"},
			"formattedAddress": "1 Main St, Waterloo, ON",
			"location": {"latitude": 43.4643, "longitude": -80.5204},
			"rating": 4.5,
			"userRatingCount": 120,
			"businessStatus": "OPERATIONAL",
			"types": ["restaurant", "food"],
			"nationalPhoneNumber": "(555) 123-4567",
			"internationalPhoneNumber": "+1 555-123-4567",
			"websiteUri": "https://joespizza.example.com",
			"regularOpeningHours": {"weekdayDescriptions": ["Monday: 9AM-5PM", "Tuesday: 9AM-5PM"]}
		},
		{
			"id": "ChIJdef456",
			"displayName": {"text": "Bare Minimum Diner"}
		}
	]
}`

func TestClient_TextSearch(t *testing.T) {
	logger := slog.Default()
	point := models.SearchPoint{
		Center: models.Coordinates{Latitude: 43.4643, Longitude: -80.5204},
		Radius: 5000,
	}

	t.Run("successful search", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				assert.Equal(t, http.MethodPost, req.Method)
				assert.Contains(t, req.URL.String(), "places.googleapis.com/v1/places:searchText")
				assert.Equal(t, "test-key", req.Header.Get("X-Goog-Api-Key"))
				assert.Contains(t, req.Header.Get("X-Goog-FieldMask"), "places.id")
				assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

				body, err := io.ReadAll(req.Body)
				require.NoError(t, err)
				var payload map[string]any
				require.NoError(t, json.Unmarshal(body, &payload))
				assert.Equal(t, "restaurants in N2J 4Z2", payload["textQuery"])
				assert.Equal(t, "en", payload["languageCode"])
				assert.InDelta(t, 60, payload["maxResultCount"], 0)

				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(searchResponseBody)),
				}, nil
			},
		}

		client := places.NewClientWithHTTP(mockClient, "test-key", logger)
		found, err := client.TextSearch(t.Context(), "restaurants in N2J 4Z2", point, 60)

		require.NoError(t, err)
		require.Len(t, found, 2)

		first := found[0]
		assert.Equal(t, "ChIJabc123", first.ID)
		assert.Equal(t, "Joe's Pizza", first.Name)
		assert.Equal(t, "1 Main St, Waterloo, ON", first.Address)
		assert.Equal(t, "1 Main St, Waterloo, ON", first.Vicinity)
		require.NotNil(t, first.Rating)
		assert.InEpsilon(t, 4.5, *first.Rating, 1e-9)
		require.NotNil(t, first.UserRatingCount)
		assert.Equal(t, 120, *first.UserRatingCount)
		assert.Equal(t, "OPERATIONAL", first.BusinessStatus)
		assert.Equal(t, []string{"restaurant", "food"}, first.Types)
		assert.Equal(t, "(555) 123-4567", first.NationalPhone)
		assert.Equal(t, "https://joespizza.example.com", first.Website)
		assert.Len(t, first.WeekdayHours, 2)
		require.NotNil(t, first.Latitude)
		assert.InEpsilon(t, 43.4643, *first.Latitude, 1e-9)

		second := found[1]
		assert.Equal(t, "ChIJdef456", second.ID)
		assert.Nil(t, second.Rating)
		assert.Nil(t, second.Latitude)
		assert.Empty(t, second.WeekdayHours)
	})

	t.Run("non-2xx status", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusTooManyRequests,
					Body:       io.NopCloser(bytes.NewBufferString(`{"error":"quota"}`)),
				}, nil
			},
		}

		client := places.NewClientWithHTTP(mockClient, "test-key", logger)
		found, err := client.TextSearch(t.Context(), "restaurants", point, 60)

		require.Error(t, err)
		assert.Nil(t, found)
		assert.Contains(t, err.Error(), "status 429")
	})

	t.Run("transport error", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return nil, assert.AnError
			},
		}

		client := places.NewClientWithHTTP(mockClient, "test-key", logger)
		found, err := client.TextSearch(t.Context(), "restaurants", point, 60)

		require.Error(t, err)
		assert.Nil(t, found)
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("empty result set", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(`{}`)),
				}, nil
			},
		}

		client := places.NewClientWithHTTP(mockClient, "test-key", logger)
		found, err := client.TextSearch(t.Context(), "restaurants", point, 60)

		require.NoError(t, err)
		assert.Empty(t, found)
	})
}

func TestClient_Details(t *testing.T) {
	logger := slog.Default()

	t.Run("successful details", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				assert.Equal(t, http.MethodGet, req.Method)
				assert.Contains(t, req.URL.String(), "/v1/places/ChIJabc123")
				assert.Equal(t, "test-key", req.Header.Get("X-Goog-Api-Key"))
				// Detail field mask has no "places." prefix.
				assert.Contains(t, req.Header.Get("X-Goog-FieldMask"), "displayName")
				assert.NotContains(t, req.Header.Get("X-Goog-FieldMask"), "places.")

				body := `{
					"id": "ChIJabc123",
					"displayName": {"text": "Joe's Pizza"},
					"nationalPhoneNumber": "(555) 123-4567"
				}`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(body)),
				}, nil
			},
		}

		client := places.NewClientWithHTTP(mockClient, "test-key", logger)
		detail, err := client.Details(t.Context(), "ChIJabc123")

		require.NoError(t, err)
		assert.Equal(t, "ChIJabc123", detail.ID)
		assert.Equal(t, "Joe's Pizza", detail.Name)
		assert.Equal(t, "(555) 123-4567", detail.NationalPhone)
	})

	t.Run("not found", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusNotFound,
					Body:       io.NopCloser(bytes.NewBufferString(`{"error":"no such place"}`)),
				}, nil
			},
		}

		client := places.NewClientWithHTTP(mockClient, "test-key", logger)
		_, err := client.Details(t.Context(), "ChIJmissing")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 404")
	})
}
