package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SilinPolicyAdvisor/Lead-gen/internal/models"
)

// ChainProvider tries providers in order and returns the first successful
// result. A miss or an error from one provider moves on to the next; only
// when every provider fails is an error returned.
type ChainProvider struct {
	providers []Provider
	log       *slog.Logger
}

// ErrAllProvidersFailed is returned when no provider in the chain could
// resolve the location.
var ErrAllProvidersFailed = errors.New("all geocoding providers failed")

// NewChainProvider builds a provider chain. Nil entries are skipped so the
// caller can pass an optional fallback unconditionally.
func NewChainProvider(log *slog.Logger, providers ...Provider) *ChainProvider {
	chain := &ChainProvider{log: log}
	for _, p := range providers {
		if p != nil {
			chain.providers = append(chain.providers, p)
		}
	}
	return chain
}

// Geocode resolves the location through the chain.
func (cp *ChainProvider) Geocode(ctx context.Context, location string) (*models.Coordinates, error) {
	if len(cp.providers) == 0 {
		return nil, ErrAllProvidersFailed
	}

	var lastErr error
	for idx, provider := range cp.providers {
		coords, err := provider.Geocode(ctx, location)
		if err == nil {
			if idx > 0 {
				cp.log.InfoContext(ctx, "Geocoded with fallback provider", "location", location, "provider_index", idx)
			}
			return coords, nil
		}

		// Cancellation is not a provider miss; stop the chain immediately.
		if ctx.Err() != nil {
			return nil, fmt.Errorf("geocoding cancelled: %w", ctx.Err())
		}

		cp.log.DebugContext(ctx, "Geocoding provider missed, trying next", "location", location, "error", err)
		lastErr = err
	}

	return nil, fmt.Errorf("%w: %w", ErrAllProvidersFailed, lastErr)
}
