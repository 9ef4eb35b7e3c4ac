// Package service orchestrates a scraping run: it expands the start location
// into a location list, geocodes each one, runs the multi-point place search,
// normalizes and deduplicates the hits and flushes accepted leads to storage
// in batches.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/SilinPolicyAdvisor/Lead-gen/internal/dedup"
	"github.com/SilinPolicyAdvisor/Lead-gen/internal/geocoding"
	"github.com/SilinPolicyAdvisor/Lead-gen/internal/metrics"
	"github.com/SilinPolicyAdvisor/Lead-gen/internal/models"
	"github.com/SilinPolicyAdvisor/Lead-gen/internal/normalize"
	"github.com/SilinPolicyAdvisor/Lead-gen/internal/postal"
	"github.com/SilinPolicyAdvisor/Lead-gen/internal/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// progressBuffer bounds the progress channel. Emission is non-blocking; a
// slow or absent consumer loses events, never stalls the run.
const progressBuffer = 64

// Searcher runs a multi-point place search around a geocoded center.
type Searcher interface {
	Search(
		ctx context.Context,
		query string,
		center models.Coordinates,
		radius int,
		largeArea bool,
		resultCap int,
	) ([]models.RawPlace, error)
}

// PlaceEnricher augments a search hit with its detail payload.
type PlaceEnricher interface {
	Enrich(ctx context.Context, place models.RawPlace, detailed bool) models.RawPlace
}

// Options describes one scraping run.
type Options struct {
	QueryTemplate     string   // Template with a {} placeholder replaced per location.
	StartLocation     string   // Starting postal code or area name.
	Count             int      // Number of locations to expand to.
	Detailed          bool     // Fetch per-place detail payloads.
	Parallel          bool     // Process locations with a worker pool.
	Workers           int      // Pool size when Parallel is set.
	FlushEvery        int      // Locations between storage flushes.
	DefaultRadius     int      // Bias radius in meters for single-point searches.
	ResultCap         int      // Accepted-result cap for a normal location.
	LargeAreaCap      int      // Accepted-result cap for a large-area location.
	ForceLargeArea    bool     // Treat every location as a large area.
	LargeAreaKeywords []string // Keyword hints for large-area detection.
}

// ProgressEvent reports run progress after each processed location.
type ProgressEvent struct {
	RunID    string
	Location string
	Done     int
	Total    int
	Accepted int
}

// LeadService runs the scraping pipeline end to end.
type LeadService struct {
	log      *slog.Logger
	geocoder geocoding.Provider
	searcher Searcher
	enricher PlaceEnricher
	dedup    *dedup.Deduplicator
	store    storage.Interface
	metrics  *metrics.Metrics
	opts     Options

	runID  string
	events chan ProgressEvent
	now    func() time.Time

	mu       sync.Mutex
	pending  []models.BusinessRecord
	done     int
	accepted int
}

// NewLeadService wires the scraping pipeline. The deduplicator is expected to
// be rehydrated from storage by the caller before the run starts.
func NewLeadService(
	log *slog.Logger,
	geocoder geocoding.Provider,
	searcher Searcher,
	enricher PlaceEnricher,
	dedup *dedup.Deduplicator,
	store storage.Interface,
	metrics *metrics.Metrics,
	opts Options,
) *LeadService {
	return &LeadService{
		log:      log,
		geocoder: geocoder,
		searcher: searcher,
		enricher: enricher,
		dedup:    dedup,
		store:    store,
		metrics:  metrics,
		opts:     opts,
		runID:    uuid.NewString(),
		events:   make(chan ProgressEvent, progressBuffer),
		now:      time.Now,
	}
}

// Events returns the progress channel. It is closed when Run returns.
func (s *LeadService) Events() <-chan ProgressEvent {
	return s.events
}

// Run executes the full scraping run and returns the summary of everything
// persisted in storage, including records from previous runs.
//
// Cancellation is cooperative: the run stops between locations, flushes what
// it already collected and returns the summary without an error.
func (s *LeadService) Run(ctx context.Context) (models.Stats, error) {
	defer close(s.events)

	locations, err := s.locations()
	if err != nil {
		return models.Stats{}, err
	}

	s.log.InfoContext(ctx, "Scraping run started",
		"run_id", s.runID,
		"query", s.opts.QueryTemplate,
		"start", s.opts.StartLocation,
		"locations", len(locations),
		"parallel", s.opts.Parallel,
	)

	if s.opts.Parallel {
		err = s.runParallel(ctx, locations)
	} else {
		err = s.runSequential(ctx, locations)
	}
	if err != nil {
		return models.Stats{}, err
	}

	// The final flush and summary must survive the cancellation that may have
	// stopped the run.
	ctx = context.WithoutCancel(ctx)
	if err = s.flush(ctx); err != nil {
		return models.Stats{}, err
	}

	stats, err := s.store.Stats(ctx)
	if err != nil {
		return models.Stats{}, fmt.Errorf("failed to summarize dataset: %w", err)
	}

	s.log.InfoContext(ctx, "Scraping run finished",
		"run_id", s.runID, "accepted", s.accepted, "total_records", stats.TotalRecords)
	return stats, nil
}

// locations expands the start location into the location list. A start value
// that is not a recognizable postal code is searched as a single area name,
// but only when no expansion was requested.
func (s *LeadService) locations() ([]string, error) {
	locs, err := postal.Generate(s.opts.StartLocation, s.opts.Count)
	if err == nil {
		return locs, nil
	}
	if s.opts.Count == 1 {
		s.log.Info("Start location is not a postal code, searching it as an area name",
			"location", s.opts.StartLocation)
		return []string{s.opts.StartLocation}, nil
	}
	return nil, fmt.Errorf("cannot expand start location into %d locations: %w", s.opts.Count, err)
}

func (s *LeadService) runSequential(ctx context.Context, locations []string) error {
	for idx, location := range locations {
		select {
		case <-ctx.Done():
			s.log.InfoContext(ctx, "Run cancelled, stopping before next location",
				"run_id", s.runID, "done", idx, "total", len(locations))
			return nil
		default:
		}

		if stop := s.processLocation(ctx, location, len(locations)); stop {
			return nil
		}

		if (idx+1)%s.opts.FlushEvery == 0 {
			if err := s.flush(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// runParallel processes locations in batches of FlushEvery, each batch fanned
// out over a bounded worker pool, with a flush between batches. The rate
// limiter downstream still serializes the actual API budget.
func (s *LeadService) runParallel(ctx context.Context, locations []string) error {
	for start := 0; start < len(locations); start += s.opts.FlushEvery {
		select {
		case <-ctx.Done():
			s.log.InfoContext(ctx, "Run cancelled, stopping before next batch",
				"run_id", s.runID, "done", start, "total", len(locations))
			return nil
		default:
		}

		end := min(start+s.opts.FlushEvery, len(locations))

		grp, grpCtx := errgroup.WithContext(ctx)
		grp.SetLimit(s.opts.Workers)
		for _, location := range locations[start:end] {
			grp.Go(func() error {
				s.metrics.ActiveWorkers.Inc()
				defer s.metrics.ActiveWorkers.Dec()
				s.processLocation(grpCtx, location, len(locations))
				return nil
			})
		}
		// Workers never return errors, cancellation is observed per location.
		_ = grp.Wait()

		if err := s.flush(ctx); err != nil {
			return err
		}
	}
	return nil
}

// processLocation runs the pipeline for one location. It reports stop=true
// only when the context was cancelled mid-search; provider failures skip the
// location and the run moves on.
func (s *LeadService) processLocation(ctx context.Context, location string, total int) (stop bool) {
	query := strings.ReplaceAll(s.opts.QueryTemplate, "{}", location)

	startTime := s.now()
	coords, err := s.geocoder.Geocode(ctx, location)
	s.metrics.RequestSeconds.WithLabelValues("geocoding").Observe(time.Since(startTime).Seconds())
	if err != nil {
		s.log.WarnContext(ctx, "Failed to geocode location, skipping",
			"run_id", s.runID, "location", location, "error", err)
		s.metrics.APIErrors.Inc()
		s.finishLocation(location, total, "skipped")
		return ctx.Err() != nil
	}

	largeArea := s.opts.ForceLargeArea || LooksLikeLargeArea(location, s.opts.LargeAreaKeywords)
	resultCap := s.opts.ResultCap
	if largeArea {
		resultCap = s.opts.LargeAreaCap
	}

	s.metrics.PlacesRequests.WithLabelValues("search").Inc()
	startTime = s.now()
	found, err := s.searcher.Search(ctx, query, *coords, s.opts.DefaultRadius, largeArea, resultCap)
	s.metrics.RequestSeconds.WithLabelValues("places").Observe(time.Since(startTime).Seconds())
	if err != nil {
		// The engine only fails outright on cancellation.
		s.log.InfoContext(ctx, "Search interrupted",
			"run_id", s.runID, "location", location, "partial", len(found), "error", err)
		s.collect(ctx, found, query, location)
		s.finishLocation(location, total, "interrupted")
		return true
	}

	s.collect(ctx, found, query, location)
	s.finishLocation(location, total, "success")
	return false
}

// collect enriches, normalizes and deduplicates the found places, buffering
// accepted records for the next flush.
func (s *LeadService) collect(ctx context.Context, found []models.RawPlace, query, location string) {
	scrapedAt := s.now().Format(models.TimeLayout)
	prov := models.Provenance{Query: query, Location: location, ScrapedAt: scrapedAt}

	for _, place := range found {
		if s.opts.Detailed && place.ID != "" {
			s.metrics.PlacesRequests.WithLabelValues("details").Inc()
		}
		place = s.enricher.Enrich(ctx, place, s.opts.Detailed)

		rec := normalize.Normalize(place, prov)
		if !s.dedup.Accept(rec) {
			s.metrics.LeadsFiltered.Inc()
			continue
		}
		s.metrics.LeadsAccepted.Inc()

		s.mu.Lock()
		s.pending = append(s.pending, rec)
		s.accepted++
		s.mu.Unlock()
	}
}

// finishLocation updates run counters and emits a progress event.
func (s *LeadService) finishLocation(location string, total int, status string) {
	s.metrics.LocationsProcessed.WithLabelValues(status).Inc()

	s.mu.Lock()
	s.done++
	event := ProgressEvent{
		RunID:    s.runID,
		Location: location,
		Done:     s.done,
		Total:    total,
		Accepted: s.accepted,
	}
	s.mu.Unlock()

	select {
	case s.events <- event:
	default:
	}
}

// flush appends the buffered records to storage and clears the buffer.
func (s *LeadService) flush(ctx context.Context) error {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	if err := s.store.Append(ctx, batch); err != nil {
		return fmt.Errorf("failed to flush %d records: %w", len(batch), err)
	}
	s.log.InfoContext(ctx, "Flushed records to storage", "run_id", s.runID, "count", len(batch))
	return nil
}

// LooksLikeLargeArea reports whether the location matches one of the
// configured large-area keyword hints. It is a convenience heuristic; the
// explicit flag in Options takes precedence when set.
func LooksLikeLargeArea(location string, keywords []string) bool {
	lower := strings.ToLower(location)
	for _, keyword := range keywords {
		if keyword != "" && strings.Contains(lower, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}
