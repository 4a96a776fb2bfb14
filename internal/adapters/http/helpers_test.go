package httpadapter

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/restaurant-classifier/internal/config"
	"github.com/kirillkom/restaurant-classifier/internal/core/domain"
	"github.com/kirillkom/restaurant-classifier/internal/core/usecase"
	"github.com/kirillkom/restaurant-classifier/internal/infrastructure/repository/memory"
)

type fakeSearcher struct {
	results []domain.PlaceCandidate
	err     error
}

func (f *fakeSearcher) NearbySearch(context.Context, domain.NearbySearchRequest) (domain.NearbySearchPage, error) {
	if f.err != nil {
		return domain.NearbySearchPage{}, f.err
	}
	return domain.NearbySearchPage{Results: f.results}, nil
}

type fakeModel struct {
	replies map[string]string
	err     error
}

func (f *fakeModel) Complete(_ context.Context, prompt domain.ChatPrompt) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	for name, reply := range f.replies {
		if slices.Contains(strings.Split(prompt.User, "\n"), "Name: "+name) {
			return reply, nil
		}
	}
	return "Other", nil
}

type testDeps struct {
	searcher *fakeSearcher
	model    *fakeModel
	sessions *memory.SessionRepository
}

func newTestDeps() *testDeps {
	return &testDeps{
		searcher: &fakeSearcher{results: []domain.PlaceCandidate{
			{Name: "Bombay Spice", Address: "Tahlia St", PlaceID: "p1", MapURL: domain.PlaceMapURL("p1"), TypeTags: []string{"restaurant"}},
			{Name: "Fish Market", Address: "Corniche", PlaceID: "p2", MapURL: domain.PlaceMapURL("p2"), TypeTags: []string{"restaurant"}},
		}},
		model:    &fakeModel{replies: map[string]string{"Bombay Spice": "Indian", "Fish Market": "Seafood"}},
		sessions: memory.NewSessionRepository(0),
	}
}

func newTestHandlerWith(t *testing.T, cfg config.Config, deps *testDeps) http.Handler {
	t.Helper()

	classifier := usecase.NewClassifyRestaurantUseCase(nil)
	if deps.model != nil {
		classifier = usecase.NewClassifyRestaurantUseCase(deps.model)
	}
	pipeline := usecase.NewPipeline(
		usecase.NewResolveCoordinatesUseCase(nil, nil),
		usecase.NewFetchPlacesUseCase(deps.searcher, 0),
		classifier,
		nil,
		usecase.PipelineConfig{RadiusMeters: 3000, MaxPages: 0, ClassifyTimeout: time.Second},
	)
	router, err := NewRouter(cfg, pipeline, deps.sessions)
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	return router.Handler()
}

func newTestHandler(t *testing.T, cfg config.Config) http.Handler {
	t.Helper()
	return newTestHandlerWith(t, cfg, newTestDeps())
}
