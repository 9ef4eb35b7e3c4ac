package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/SilinPolicyAdvisor/Lead-gen/internal/models"
)

// DefaultBaseURL is the Places API (New) endpoint root.
const DefaultBaseURL = "https://places.googleapis.com/v1"

// Field masks limit the payload to what the normalizer consumes. The detail
// mask uses unprefixed paths per the Get Place endpoint contract.
const (
	searchFieldMask = "places.id,places.displayName,places.formattedAddress,places.location," +
		"places.rating,places.userRatingCount,places.businessStatus,places.priceLevel,places.types," +
		"places.nationalPhoneNumber,places.internationalPhoneNumber,places.websiteUri,places.regularOpeningHours"
	detailFieldMask = "id,displayName,formattedAddress,location,rating,userRatingCount,businessStatus," +
		"priceLevel,types,nationalPhoneNumber,internationalPhoneNumber,websiteUri,regularOpeningHours"
)

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the Places API (New) over HTTP: text search scoped to a
// bias circle, and per-place detail lookups. The official maps library does
// not cover the v1 endpoints, so requests are built by hand.
type Client struct {
	httpc   HTTPClient
	baseURL string
	apiKey  string
	log     *slog.Logger
}

// NewClient creates a places client with a default HTTP client.
func NewClient(apiKey string, log *slog.Logger) *Client {
	const timeout = 30
	return &Client{
		httpc:   &http.Client{Timeout: timeout * time.Second},
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		log:     log,
	}
}

// NewClientWithHTTP allows injecting a custom HTTP client, for tests.
func NewClientWithHTTP(httpc HTTPClient, apiKey string, log *slog.Logger) *Client {
	return &Client{
		httpc:   httpc,
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		log:     log,
	}
}

// searchTextRequest is the places:searchText request body.
type searchTextRequest struct {
	TextQuery      string       `json:"textQuery"`
	LocationBias   locationBias `json:"locationBias"`
	MaxResultCount int          `json:"maxResultCount"`
	LanguageCode   string       `json:"languageCode"`
}

type locationBias struct {
	Circle circle `json:"circle"`
}

type circle struct {
	Center latLng `json:"center"`
	Radius int    `json:"radius"`
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// apiPlace is one place payload as the v1 API returns it.
type apiPlace struct {
	ID          string `json:"id"`
	DisplayName struct {
		Text string `json:"text"`
	} `json:"displayName"`
	FormattedAddress string   `json:"formattedAddress"`
	Location         *latLng  `json:"location"`
	Rating           *float64 `json:"rating"`
	UserRatingCount  *int     `json:"userRatingCount"`
	BusinessStatus   string   `json:"businessStatus"`
	PriceLevel       string   `json:"priceLevel"`
	Types            []string `json:"types"`
	NationalPhone    string   `json:"nationalPhoneNumber"`
	InternationalPh  string   `json:"internationalPhoneNumber"`
	WebsiteURI       string   `json:"websiteUri"`
	OpeningHours     *struct {
		WeekdayDescriptions []string `json:"weekdayDescriptions"`
	} `json:"regularOpeningHours"`
}

type searchTextResponse struct {
	Places []apiPlace `json:"places"`
}

// TextSearch issues one text-search request scoped to a search point and
// returns the decoded places. A non-2xx response is returned as an error with
// the status and body; callers treat that as a per-point failure.
func (c *Client) TextSearch(
	ctx context.Context,
	query string,
	point models.SearchPoint,
	maxResults int,
) ([]models.RawPlace, error) {
	payload := searchTextRequest{
		TextQuery: query,
		LocationBias: locationBias{
			Circle: circle{
				Center: latLng{Latitude: point.Center.Latitude, Longitude: point.Center.Longitude},
				Radius: point.Radius,
			},
		},
		MaxResultCount: maxResults,
		LanguageCode:   "en",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+"/places:searchText", bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", searchFieldMask)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.log.ErrorContext(ctx, "Places search failed", "status", resp.StatusCode, "body", string(respBody))
		return nil, fmt.Errorf("places API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result searchTextResponse
	if err = json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	found := make([]models.RawPlace, 0, len(result.Places))
	for _, p := range result.Places {
		found = append(found, convertPlace(p))
	}
	return found, nil
}

// Details fetches the enriched payload for one place identifier.
func (c *Client) Details(ctx context.Context, placeID string) (models.RawPlace, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.baseURL+"/places/"+placeID, nil,
	)
	if err != nil {
		return models.RawPlace{}, fmt.Errorf("failed to create details request: %w", err)
	}
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", detailFieldMask)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return models.RawPlace{}, fmt.Errorf("failed to execute details request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.RawPlace{}, fmt.Errorf("failed to read details response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.log.ErrorContext(ctx, "Place details failed",
			"place_id", placeID, "status", resp.StatusCode, "body", string(respBody))
		return models.RawPlace{}, fmt.Errorf("places API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var detail apiPlace
	if err = json.Unmarshal(respBody, &detail); err != nil {
		return models.RawPlace{}, fmt.Errorf("failed to decode details response: %w", err)
	}

	return convertPlace(detail), nil
}

// convertPlace maps the provider payload onto the internal RawPlace shape.
// Missing fields stay at their zero value; the normalizer substitutes
// defaults later.
func convertPlace(p apiPlace) models.RawPlace {
	place := models.RawPlace{
		ID:                 p.ID,
		Name:               p.DisplayName.Text,
		Address:            p.FormattedAddress,
		Vicinity:           p.FormattedAddress,
		Rating:             p.Rating,
		UserRatingCount:    p.UserRatingCount,
		BusinessStatus:     strings.ToUpper(p.BusinessStatus),
		PriceLevel:         p.PriceLevel,
		Types:              p.Types,
		NationalPhone:      p.NationalPhone,
		InternationalPhone: p.InternationalPh,
		Website:            p.WebsiteURI,
	}
	if p.Location != nil {
		lat, lng := p.Location.Latitude, p.Location.Longitude
		place.Latitude = &lat
		place.Longitude = &lng
	}
	if p.OpeningHours != nil {
		place.WeekdayHours = p.OpeningHours.WeekdayDescriptions
	}
	return place
}
