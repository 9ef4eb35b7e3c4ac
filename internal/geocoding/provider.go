package geocoding

import (
	"context"

	"github.com/SilinPolicyAdvisor/Lead-gen/internal/models"
)

// Provider resolves a free-form location string (postal code or area name)
// into geographic coordinates. Implementations return an error when the
// location cannot be resolved; callers treat that as "skip this location".
type Provider interface {
	Geocode(ctx context.Context, location string) (*models.Coordinates, error)
}
