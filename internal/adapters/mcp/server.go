// Package mcpadapter exposes the three pipeline components as MCP tools.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/restaurant-classifier/internal/core/domain"
	"github.com/kirillkom/restaurant-classifier/internal/core/ports"
)

const (
	ToolResolveCoordinates = "resolve_coordinates"
	ToolFetchRestaurants   = "fetch_restaurants"
	ToolClassifyRestaurant = "classify_restaurant"
)

type Defaults struct {
	RadiusMeters    int
	MaxPages        int
	ClassifyTimeout time.Duration
}

type Tools struct {
	resolver   ports.CoordinateResolver
	fetcher    ports.PlacesFetcher
	classifier ports.CategoryClassifier
	defaults   Defaults
}

func NewTools(
	resolver ports.CoordinateResolver,
	fetcher ports.PlacesFetcher,
	classifier ports.CategoryClassifier,
	defaults Defaults,
) *Tools {
	return &Tools{
		resolver:   resolver,
		fetcher:    fetcher,
		classifier: classifier,
		defaults:   defaults,
	}
}

// NewServer registers every tool on a fresh MCP server.
func NewServer(name, version string, tools *Tools) *server.MCPServer {
	s := server.NewMCPServer(name, version, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool(ToolResolveCoordinates,
		mcp.WithDescription("Extract latitude and longitude from a map link. Short links are expanded first."),
		mcp.WithString("url", mcp.Required(), mcp.Description("map link or free text containing one")),
	), tools.ResolveCoordinates)

	s.AddTool(mcp.NewTool(ToolFetchRestaurants,
		mcp.WithDescription("List restaurants around a coordinate, following continuation pages."),
		mcp.WithNumber("lat", mcp.Required(), mcp.Description("latitude in degrees")),
		mcp.WithNumber("lng", mcp.Required(), mcp.Description("longitude in degrees")),
		mcp.WithNumber("radius_meters", mcp.Description(fmt.Sprintf("search radius, default %d", tools.defaults.RadiusMeters))),
		mcp.WithNumber("max_pages", mcp.Description(fmt.Sprintf("continuation pages after the first, default %d", tools.defaults.MaxPages))),
	), tools.FetchRestaurants)

	s.AddTool(mcp.NewTool(ToolClassifyRestaurant,
		mcp.WithDescription("Put one restaurant into exactly one cuisine category."),
		mcp.WithString("name", mcp.Required(), mcp.Description("restaurant name")),
		mcp.WithString("address", mcp.Description("street address")),
		mcp.WithString("type_hints", mcp.Description("comma separated place type tags")),
	), tools.ClassifyRestaurant)

	return s
}

type coordinateView struct {
	Found          bool                    `json:"found"`
	Latitude       *float64                `json:"lat,omitempty"`
	Longitude      *float64                `json:"lng,omitempty"`
	Source         domain.ResolutionSource `json:"source,omitempty"`
	ResolvedURL    string                  `json:"resolved_url,omitempty"`
	ElapsedSeconds float64                 `json:"elapsed_seconds"`
}

func (t *Tools) ResolveCoordinates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res := t.resolver.Resolve(ctx, rawURL)
	view := coordinateView{
		Found:          res.Found(),
		Source:         res.Source,
		ResolvedURL:    res.ResolvedURL,
		ElapsedSeconds: res.ElapsedSeconds(),
	}
	if res.Coordinate != nil {
		lat, lng := res.Coordinate.Latitude, res.Coordinate.Longitude
		view.Latitude = &lat
		view.Longitude = &lng
	}
	slog.Info("mcp_resolve", "found", view.Found, "elapsed_s", view.ElapsedSeconds)
	return jsonResult(view)
}

type candidateView struct {
	PlaceID        string   `json:"place_id"`
	Name           string   `json:"name"`
	Address        string   `json:"address"`
	Rating         *float64 `json:"rating,omitempty"`
	TypeTags       []string `json:"type_tags"`
	MapURL         string   `json:"map_url"`
	DistanceMeters *float64 `json:"distance_meters,omitempty"`
}

func (t *Tools) FetchRestaurants(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lat, err := req.RequireFloat("lat")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	lng, err := req.RequireFloat("lng")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	radius := req.GetInt("radius_meters", t.defaults.RadiusMeters)
	maxPages := req.GetInt("max_pages", t.defaults.MaxPages)

	candidates, err := t.fetcher.Fetch(ctx, domain.Coordinate{Latitude: lat, Longitude: lng}, radius, maxPages)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	views := make([]candidateView, 0, len(candidates))
	for _, c := range candidates {
		views = append(views, candidateView{
			PlaceID:        c.PlaceID,
			Name:           c.Name,
			Address:        c.Address,
			Rating:         c.Rating,
			TypeTags:       c.TypeTags,
			MapURL:         c.MapURL,
			DistanceMeters: c.DistanceMeters,
		})
	}
	return jsonResult(map[string]any{
		"count":       len(views),
		"restaurants": views,
	})
}

type classificationView struct {
	Category       string   `json:"category"`
	LatencySeconds *float64 `json:"latency_seconds"`
}

// ClassifyRestaurant reports a failed classification as a tool error so the
// caller never mistakes the label for a category.
func (t *Tools) ClassifyRestaurant(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	cls := t.classifier.Classify(ctx, domain.ClassifyInput{
		Name:      name,
		Address:   req.GetString("address", ""),
		TypeHints: splitHints(req.GetString("type_hints", "")),
	}, t.defaults.ClassifyTimeout)

	if cls.Failed() {
		return mcp.NewToolResultError(cls.Label()), nil
	}
	return jsonResult(classificationView{
		Category:       cls.Label(),
		LatencySeconds: cls.LatencySeconds(),
	})
}

func splitHints(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(body)), nil
}
