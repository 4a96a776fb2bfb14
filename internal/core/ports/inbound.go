package ports

import (
	"context"
	"time"

	"github.com/kirillkom/restaurant-classifier/internal/core/domain"
)

// CoordinateResolver is the inbound contract for map-link resolution.
type CoordinateResolver interface {
	Resolve(ctx context.Context, rawURL string) domain.Resolution
}

// PlacesFetcher is the inbound contract for paginated restaurant lookup.
type PlacesFetcher interface {
	Fetch(ctx context.Context, center domain.Coordinate, radiusMeters, maxPages int) ([]domain.PlaceCandidate, error)
}

// CategoryClassifier is the inbound contract for single-restaurant classification.
type CategoryClassifier interface {
	Classify(ctx context.Context, in domain.ClassifyInput, timeout time.Duration) domain.Classification
}

// ProgressFunc is called after each row appended by a classify-all loop.
type ProgressFunc func(done, total int, row domain.ClassificationResult)

// SessionPipeline sequences the components over a caller-held session.
type SessionPipeline interface {
	NewSession() domain.Session
	Resolve(ctx context.Context, s domain.Session, rawURL string) (domain.Session, domain.Resolution, error)
	Fetch(ctx context.Context, s domain.Session) (domain.Session, error)
	ClassifyNext(ctx context.Context, s domain.Session) (domain.Session, *domain.ClassificationResult, error)
	ClassifyAll(ctx context.Context, s domain.Session, progress ProgressFunc) (domain.Session, error)
	ResetClassification(s domain.Session) domain.Session
}
