package places

import (
	"context"
	"log/slog"

	"github.com/SilinPolicyAdvisor/Lead-gen/internal/models"
)

// Enricher optionally augments a search hit with the per-place detail record.
// Enrichment failures degrade gracefully: the search payload alone is still a
// usable lead.
type Enricher struct {
	client  SearchClient
	limiter Acquirer
	log     *slog.Logger
}

// NewEnricher wires an enricher over the given client and limiter.
func NewEnricher(client SearchClient, limiter Acquirer, log *slog.Logger) *Enricher {
	return &Enricher{client: client, limiter: limiter, log: log}
}

// Enrich fetches the detail record for the place and merges it over the
// input, detail fields taking precedence. When detailed is false, the place
// has no identifier, or the fetch fails, the input is returned unchanged.
func (e *Enricher) Enrich(ctx context.Context, place models.RawPlace, detailed bool) models.RawPlace {
	if !detailed || place.ID == "" {
		return place
	}

	if err := e.limiter.Acquire(ctx); err != nil {
		return place
	}

	detail, err := e.client.Details(ctx, place.ID)
	if err != nil {
		e.log.WarnContext(ctx, "Detail fetch failed, keeping search payload",
			"place_id", place.ID, "error", err)
		return place
	}

	return mergePlaces(place, detail)
}

// mergePlaces overlays detail over base: any detail field that is present
// wins, anything the detail payload omitted keeps the base value.
func mergePlaces(base, detail models.RawPlace) models.RawPlace {
	merged := base

	if detail.ID != "" {
		merged.ID = detail.ID
	}
	if detail.Name != "" {
		merged.Name = detail.Name
	}
	if detail.Address != "" {
		merged.Address = detail.Address
	}
	if detail.Vicinity != "" {
		merged.Vicinity = detail.Vicinity
	}
	if detail.Latitude != nil {
		merged.Latitude = detail.Latitude
	}
	if detail.Longitude != nil {
		merged.Longitude = detail.Longitude
	}
	if detail.Rating != nil {
		merged.Rating = detail.Rating
	}
	if detail.UserRatingCount != nil {
		merged.UserRatingCount = detail.UserRatingCount
	}
	if detail.BusinessStatus != "" {
		merged.BusinessStatus = detail.BusinessStatus
	}
	if detail.PriceLevel != "" {
		merged.PriceLevel = detail.PriceLevel
	}
	if len(detail.Types) > 0 {
		merged.Types = detail.Types
	}
	if detail.NationalPhone != "" {
		merged.NationalPhone = detail.NationalPhone
	}
	if detail.InternationalPhone != "" {
		merged.InternationalPhone = detail.InternationalPhone
	}
	if detail.Website != "" {
		merged.Website = detail.Website
	}
	if len(detail.WeekdayHours) > 0 {
		merged.WeekdayHours = detail.WeekdayHours
	}

	return merged
}
