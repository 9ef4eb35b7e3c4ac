package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SilinPolicyAdvisor/Lead-gen/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleProvider resolves locations through the Google Maps Geocoding API.
// It is the primary provider: postal codes and area names both resolve well.
type GoogleProvider struct {
	client GoogleAPIClient // client is the Google Maps API client
	log    *slog.Logger    // log is the logger for logging operations
}

// GoogleAPIClient is the subset of the maps client the provider needs,
// extracted so tests can substitute a mock.
type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// ErrEmptyResponse is returned when the Google Maps API responds with an empty result.
var ErrEmptyResponse = errors.New("get empty response from Google Maps API")

// NewGoogleProvider wraps an already configured Google Maps client.
func NewGoogleProvider(client GoogleAPIClient, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, log: log}
}

// Geocode resolves the given postal code or area name into coordinates using
// the Google Maps Geocoding API. An empty result set is reported as
// ErrEmptyResponse so callers can distinguish "not found" from transport errors.
func (gp *GoogleProvider) Geocode(ctx context.Context, location string) (*models.Coordinates, error) {
	gp.log.DebugContext(ctx, "Geocoding using Google Maps", "location", location)

	req := maps.GeocodingRequest{Address: location}
	geocodeResponse, err := gp.client.Geocode(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to geocode location: %w", err)
	}

	if len(geocodeResponse) == 0 {
		return nil, ErrEmptyResponse
	}
	coords := geocodeResponse[0].Geometry.Location

	return &models.Coordinates{Latitude: coords.Lat, Longitude: coords.Lng}, nil
}
