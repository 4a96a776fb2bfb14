package ports

import (
	"context"

	"github.com/kirillkom/restaurant-classifier/internal/core/domain"
)

// URLExpander follows the redirects of a shortened link.
type URLExpander interface {
	Expand(ctx context.Context, rawURL string) (string, error)
}

// Geocoder turns a free-text address or place query into a coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (domain.Coordinate, error)
}

// PlacesSearcher runs one nearby-search call: a first page when PageToken
// is empty, a continuation page otherwise.
type PlacesSearcher interface {
	NearbySearch(ctx context.Context, req domain.NearbySearchRequest) (domain.NearbySearchPage, error)
}

// ChatModel is the single capability the classifier needs from a language
// model provider.
type ChatModel interface {
	Complete(ctx context.Context, prompt domain.ChatPrompt) (string, error)
}

// SessionStore keeps pipeline sessions between front-end requests.
type SessionStore interface {
	Create(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, id string) (domain.Session, error)
	Update(ctx context.Context, id string, fn func(domain.Session) (domain.Session, error)) (domain.Session, error)
	Delete(ctx context.Context, id string) error
}

// PipelineObserver receives pipeline events for metrics.
type PipelineObserver interface {
	ObserveResolution(res domain.Resolution)
	ObserveFetch(candidates int, err error)
	ObserveClassification(c domain.Classification)
}
