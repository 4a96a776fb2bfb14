package mcpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/restaurant-classifier/internal/core/domain"
)

type resolverStub struct{}

func (resolverStub) Resolve(_ context.Context, rawURL string) domain.Resolution {
	res := domain.Resolution{InputURL: rawURL, Elapsed: 5 * time.Millisecond}
	if rawURL == "https://maps.example/@25.1,55.2" {
		res.Coordinate = &domain.Coordinate{Latitude: 25.1, Longitude: 55.2}
		res.Source = domain.SourceAtMarker
	}
	return res
}

type fetcherStub struct {
	center   domain.Coordinate
	radius   int
	maxPages int
	err      error
}

func (f *fetcherStub) Fetch(_ context.Context, center domain.Coordinate, radiusMeters, maxPages int) ([]domain.PlaceCandidate, error) {
	f.center, f.radius, f.maxPages = center, radiusMeters, maxPages
	if f.err != nil {
		return nil, f.err
	}
	return []domain.PlaceCandidate{{PlaceID: "p1", Name: "Spice Route", Address: "Street 1", TypeTags: []string{"restaurant"}}}, nil
}

type classifierStub struct {
	got domain.ClassifyInput
}

func (c *classifierStub) Classify(_ context.Context, in domain.ClassifyInput, _ time.Duration) domain.Classification {
	c.got = in
	if in.Name == "Broken" {
		return domain.Classification{Failure: domain.NewFailure(domain.FailureConfigurationMissing, "no model credential")}
	}
	latency := 1500 * time.Millisecond
	return domain.Classification{Category: domain.CategoryIndian, Latency: &latency}
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "unexpected content %T", res.Content[0])
	return text.Text
}

func newTestTools() (*Tools, *fetcherStub, *classifierStub) {
	fetcher := &fetcherStub{}
	classifier := &classifierStub{}
	return NewTools(resolverStub{}, fetcher, classifier, Defaults{
		RadiusMeters:    3000,
		MaxPages:        3,
		ClassifyTimeout: time.Second,
	}), fetcher, classifier
}

func TestResolveCoordinatesTool(t *testing.T) {
	tools, _, _ := newTestTools()

	res, err := tools.ResolveCoordinates(context.Background(), callRequest(ToolResolveCoordinates, map[string]any{
		"url": "https://maps.example/@25.1,55.2",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var view coordinateView
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &view))
	assert.True(t, view.Found)
	assert.Equal(t, 25.1, *view.Latitude)
	assert.Equal(t, domain.SourceAtMarker, view.Source)
}

func TestResolveCoordinatesToolNotFound(t *testing.T) {
	tools, _, _ := newTestTools()

	res, err := tools.ResolveCoordinates(context.Background(), callRequest(ToolResolveCoordinates, map[string]any{
		"url": "no coordinates here",
	}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"found":false,"elapsed_seconds":0.005}`, resultText(t, res))
}

func TestResolveCoordinatesToolRequiresURL(t *testing.T) {
	tools, _, _ := newTestTools()

	res, err := tools.ResolveCoordinates(context.Background(), callRequest(ToolResolveCoordinates, map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestFetchRestaurantsToolDefaults(t *testing.T) {
	tools, fetcher, _ := newTestTools()

	res, err := tools.FetchRestaurants(context.Background(), callRequest(ToolFetchRestaurants, map[string]any{
		"lat": 25.1,
		"lng": 55.2,
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, domain.Coordinate{Latitude: 25.1, Longitude: 55.2}, fetcher.center)
	assert.Equal(t, 3000, fetcher.radius)
	assert.Equal(t, 3, fetcher.maxPages)
	assert.Contains(t, resultText(t, res), `"count":1`)
	assert.Contains(t, resultText(t, res), `"place_id":"p1"`)
}

func TestFetchRestaurantsToolOverrides(t *testing.T) {
	tools, fetcher, _ := newTestTools()

	_, err := tools.FetchRestaurants(context.Background(), callRequest(ToolFetchRestaurants, map[string]any{
		"lat":           25.1,
		"lng":           55.2,
		"radius_meters": 800.0,
		"max_pages":     0.0,
	}))
	require.NoError(t, err)
	assert.Equal(t, 800, fetcher.radius)
	assert.Equal(t, 0, fetcher.maxPages)
}

func TestFetchRestaurantsToolProviderError(t *testing.T) {
	tools, fetcher, _ := newTestTools()
	fetcher.err = domain.WrapError(domain.ErrProvider, "nearby search", errors.New("OVER_QUERY_LIMIT"))

	res, err := tools.FetchRestaurants(context.Background(), callRequest(ToolFetchRestaurants, map[string]any{
		"lat": 1.0,
		"lng": 2.0,
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "OVER_QUERY_LIMIT")
}

func TestClassifyRestaurantTool(t *testing.T) {
	tools, _, classifier := newTestTools()

	res, err := tools.ClassifyRestaurant(context.Background(), callRequest(ToolClassifyRestaurant, map[string]any{
		"name":       "Spice Route",
		"address":    "Street 1",
		"type_hints": "restaurant, food ,",
	}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"category":"Indian","latency_seconds":1.5}`, resultText(t, res))
	assert.Equal(t, []string{"restaurant", "food"}, classifier.got.TypeHints)
}

func TestClassifyRestaurantToolFailure(t *testing.T) {
	tools, _, _ := newTestTools()

	res, err := tools.ClassifyRestaurant(context.Background(), callRequest(ToolClassifyRestaurant, map[string]any{
		"name": "Broken",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "error: configuration_missing: no model credential", resultText(t, res))
}

func TestNewServerListsTools(t *testing.T) {
	tools, _, _ := newTestTools()
	s := NewServer("restaurant-classifier", "test", tools)

	reply := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	body, err := json.Marshal(reply)
	require.NoError(t, err)
	for _, name := range []string{ToolResolveCoordinates, ToolFetchRestaurants, ToolClassifyRestaurant} {
		assert.Contains(t, string(body), `"name":"`+name+`"`)
	}
}
