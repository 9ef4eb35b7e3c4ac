package places

import (
	"context"
	"log/slog"
	"time"

	"github.com/SilinPolicyAdvisor/Lead-gen/internal/models"
)

// pointPause is the fixed delay inserted between search points beyond the
// first, on top of the limiter jitter, to keep multi-point searches from
// bursting at the provider.
const pointPause = time.Second

// SearchClient is the slice of the places client the engine and enricher
// consume, extracted so tests can substitute fakes.
type SearchClient interface {
	TextSearch(ctx context.Context, query string, point models.SearchPoint, maxResults int) ([]models.RawPlace, error)
	Details(ctx context.Context, placeID string) (models.RawPlace, error)
}

// Acquirer grants permission for one outbound call.
type Acquirer interface {
	Acquire(ctx context.Context) error
}

// SearchEngine runs a rate-limited multi-point text search and merges the
// per-point results into one deduplicated sequence.
type SearchEngine struct {
	client      SearchClient
	limiter     Acquirer
	log         *slog.Logger
	maxPerPoint int // result cap requested from the provider per point
	pause       time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewSearchEngine wires a search engine over the given client and limiter.
func NewSearchEngine(client SearchClient, limiter Acquirer, maxPerPoint int, log *slog.Logger) *SearchEngine {
	return &SearchEngine{
		client:      client,
		limiter:     limiter,
		log:         log,
		maxPerPoint: maxPerPoint,
		pause:       pointPause,
		sleep:       sleepContext,
	}
}

// Search queries every planned point for the location and returns the unique
// places found, in point-processing order then provider order within a point.
//
// A failed point is logged and skipped; the remaining points are still
// attempted. Iteration stops early once resultCap unique places have
// accumulated. The returned error is non-nil only when the search cannot
// proceed at all, which in practice means the context was cancelled.
func (se *SearchEngine) Search(
	ctx context.Context,
	query string,
	center models.Coordinates,
	radius int,
	largeArea bool,
	resultCap int,
) ([]models.RawPlace, error) {
	points := Plan(center, radius, largeArea)
	if largeArea {
		se.log.InfoContext(ctx, "Large area search, expanding coverage",
			"query", query, "points", len(points), "radius", points[0].Radius)
	}

	seen := make(map[string]struct{})
	var all []models.RawPlace

	for idx, point := range points {
		if idx > 0 {
			if err := se.sleep(ctx, se.pause); err != nil {
				return all, err
			}
		}
		if err := se.limiter.Acquire(ctx); err != nil {
			return all, err
		}

		found, err := se.client.TextSearch(ctx, query, point, se.maxPerPoint)
		if err != nil {
			if ctx.Err() != nil {
				return all, ctx.Err()
			}
			se.log.ErrorContext(ctx, "Search point failed, continuing",
				"query", query, "point", idx+1, "points", len(points), "error", err)
			continue
		}

		added := 0
		for _, place := range found {
			// Places without a stable identifier cannot be deduplicated here
			// or downstream; drop them like the provider duplicates.
			if place.ID == "" {
				continue
			}
			if _, dup := seen[place.ID]; dup {
				continue
			}
			seen[place.ID] = struct{}{}
			all = append(all, place)
			added++
		}

		se.log.DebugContext(ctx, "Search point processed",
			"query", query, "point", idx+1, "new", added, "total", len(all))

		if len(all) >= resultCap {
			se.log.InfoContext(ctx, "Result cap reached, stopping early",
				"query", query, "total", len(all), "points_used", idx+1)
			break
		}
	}

	return all, nil
}
