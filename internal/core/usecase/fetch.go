package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/kirillkom/restaurant-classifier/internal/core/domain"
	"github.com/kirillkom/restaurant-classifier/internal/core/ports"
)

const (
	restaurantPlaceType = "restaurant"

	// DefaultPageTokenDelay is how long a continuation token needs before the
	// provider accepts it.
	DefaultPageTokenDelay = 2 * time.Second
)

type FetchPlacesUseCase struct {
	searcher  ports.PlacesSearcher
	pageDelay time.Duration
	wait      func(ctx context.Context, d time.Duration) error
}

func NewFetchPlacesUseCase(searcher ports.PlacesSearcher, pageDelay time.Duration) *FetchPlacesUseCase {
	if pageDelay < 0 {
		pageDelay = DefaultPageTokenDelay
	}
	return &FetchPlacesUseCase{
		searcher:  searcher,
		pageDelay: pageDelay,
		wait:      sleepContext,
	}
}

// Fetch runs one nearby search plus up to maxPages continuation pages. On
// any provider error the whole fetch fails and no partial list is returned.
func (uc *FetchPlacesUseCase) Fetch(ctx context.Context, center domain.Coordinate, radiusMeters, maxPages int) ([]domain.PlaceCandidate, error) {
	if err := validateFetch(center, radiusMeters, maxPages); err != nil {
		return nil, err
	}
	if uc.searcher == nil {
		return nil, domain.WrapError(domain.ErrConfigurationMissing, "fetch restaurants", errors.New("places provider is not configured"))
	}

	req := domain.NearbySearchRequest{
		Center:       center,
		RadiusMeters: radiusMeters,
		PlaceType:    restaurantPlaceType,
	}
	page, err := uc.searcher.NearbySearch(ctx, req)
	if err != nil {
		return nil, providerError("nearby search", err)
	}

	all := append([]domain.PlaceCandidate(nil), page.Results...)
	pages := 0
	for page.NextPageToken != "" && pages < maxPages {
		pages++
		if err := uc.wait(ctx, uc.pageDelay); err != nil {
			return nil, fmt.Errorf("wait for page token: %w", err)
		}

		page, err = uc.searcher.NearbySearch(ctx, domain.NearbySearchRequest{PageToken: page.NextPageToken})
		if err != nil {
			return nil, providerError(fmt.Sprintf("nearby search page %d", pages+1), err)
		}
		all = append(all, page.Results...)
	}

	candidates := dedupeByPlaceID(all)
	annotateDistance(center, candidates)

	slog.Info("places_fetched",
		"lat", center.Latitude,
		"lng", center.Longitude,
		"radius_m", radiusMeters,
		"extra_pages", pages,
		"raw_results", len(all),
		"candidates", len(candidates),
	)
	return candidates, nil
}

func validateFetch(center domain.Coordinate, radiusMeters, maxPages int) error {
	switch {
	case !center.Valid():
		return domain.WrapError(domain.ErrInvalidInput, "fetch restaurants", fmt.Errorf("coordinate out of range: %v,%v", center.Latitude, center.Longitude))
	case radiusMeters <= 0:
		return domain.WrapError(domain.ErrInvalidInput, "fetch restaurants", fmt.Errorf("radius must be positive, got %d", radiusMeters))
	case maxPages < 0:
		return domain.WrapError(domain.ErrInvalidInput, "fetch restaurants", fmt.Errorf("max pages must not be negative, got %d", maxPages))
	}
	return nil
}

func providerError(operation string, err error) error {
	if domain.IsKind(err, domain.ErrProvider) ||
		domain.IsKind(err, domain.ErrConfigurationMissing) ||
		domain.IsKind(err, domain.ErrTemporary) {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return domain.WrapError(domain.ErrProvider, operation, err)
}

// dedupeByPlaceID keeps the first occurrence of every place id. Results
// without an id are kept as they are.
func dedupeByPlaceID(in []domain.PlaceCandidate) []domain.PlaceCandidate {
	out := make([]domain.PlaceCandidate, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, candidate := range in {
		if candidate.PlaceID != "" {
			if _, ok := seen[candidate.PlaceID]; ok {
				continue
			}
			seen[candidate.PlaceID] = struct{}{}
		}
		out = append(out, candidate)
	}
	return out
}

func annotateDistance(center domain.Coordinate, candidates []domain.PlaceCandidate) {
	origin := orb.Point{center.Longitude, center.Latitude}
	for i := range candidates {
		loc := candidates[i].Location
		if loc == nil {
			continue
		}
		meters := geo.Distance(origin, orb.Point{loc.Longitude, loc.Latitude})
		candidates[i].DistanceMeters = &meters
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
