// Package storage persists normalized business records. Two backends
// implement the same interface: an append-only CSV file with an optional
// Excel mirror, and a PostgreSQL table. Both support loading everything back
// so the deduplicator can be rehydrated between runs.
package storage

import (
	"context"
	"strings"

	"github.com/SilinPolicyAdvisor/Lead-gen/internal/models"
)

type Interface interface {
	Append(ctx context.Context, records []models.BusinessRecord) error
	Load(ctx context.Context) ([]models.BusinessRecord, error)
	Stats(ctx context.Context) (models.Stats, error)
}

// ComputeStats summarizes a record set. Both backends delegate to it so the
// summary is identical regardless of where the records live.
func ComputeStats(records []models.BusinessRecord) models.Stats {
	stats := models.Stats{
		TotalRecords: len(records),
		TypeCounts:   make(map[string]int),
	}

	places := make(map[string]struct{})
	names := make(map[string]struct{})
	ratingSum := 0.0

	for _, rec := range records {
		if rec.PlaceID != "" {
			places[rec.PlaceID] = struct{}{}
		}
		if rec.Name != "" {
			names[strings.ToLower(rec.Name)] = struct{}{}
		}
		if rec.Phone != "" {
			stats.HasPhone++
		}
		if rec.Website != "" {
			stats.HasWebsite++
		}
		if rec.Rating != nil {
			stats.HasRating++
			ratingSum += *rec.Rating
		}
		if rec.PrimaryType != "" {
			stats.TypeCounts[rec.PrimaryType]++
		}
	}

	stats.UniquePlaces = len(places)
	stats.UniqueNames = len(names)
	if stats.HasRating > 0 {
		stats.AvgRating = ratingSum / float64(stats.HasRating)
	}
	return stats
}
