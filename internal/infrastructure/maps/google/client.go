// Package google adapts the Google Maps web services (Places nearby search
// and Geocoding) to the pipeline ports.
package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/restaurant-classifier/internal/core/domain"
	"github.com/kirillkom/restaurant-classifier/internal/infrastructure/httpclient"
	"github.com/kirillkom/restaurant-classifier/internal/infrastructure/resilience"
)

const (
	providerName   = "google_maps"
	DefaultBaseURL = "https://maps.googleapis.com/maps/api"

	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	exec       *resilience.Executor
}

type Option func(*Client)

// WithBaseURL points the client at another host, mostly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if strings.TrimSpace(baseURL) != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func New(apiKey string, exec *resilience.Executor, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: 20 * time.Second},
		exec:       exec,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type nearbyResult struct {
	Name             string   `json:"name"`
	Vicinity         string   `json:"vicinity"`
	FormattedAddress string   `json:"formatted_address"`
	Rating           *float64 `json:"rating"`
	Types            []string `json:"types"`
	PlaceID          string   `json:"place_id"`
	Geometry         struct {
		Location *apiLocation `json:"location"`
	} `json:"geometry"`
}

type nearbyResponse struct {
	Status        string         `json:"status"`
	ErrorMessage  string         `json:"error_message"`
	Results       []nearbyResult `json:"results"`
	NextPageToken string         `json:"next_page_token"`
}

// NearbySearch fetches one page. A continuation request carries only the
// page token.
func (c *Client) NearbySearch(ctx context.Context, req domain.NearbySearchRequest) (domain.NearbySearchPage, error) {
	const op = "places nearby search"
	if c.apiKey == "" {
		return domain.NearbySearchPage{}, domain.WrapError(domain.ErrConfigurationMissing, op, errors.New("maps api key missing"))
	}

	params := url.Values{}
	if req.PageToken != "" {
		params.Set("pagetoken", req.PageToken)
	} else {
		params.Set("location", formatLocation(req.Center))
		params.Set("radius", strconv.Itoa(req.RadiusMeters))
		if req.PlaceType != "" {
			params.Set("type", req.PlaceType)
		}
	}
	params.Set("key", c.apiKey)

	var resp nearbyResponse
	if err := c.get(ctx, "nearby_search", "/place/nearbysearch/json", params, &resp); err != nil {
		return domain.NearbySearchPage{}, httpclient.WrapProviderError(op, err)
	}
	if err := statusError(op, resp.Status, resp.ErrorMessage); err != nil {
		return domain.NearbySearchPage{}, err
	}

	page := domain.NearbySearchPage{
		Results:       make([]domain.PlaceCandidate, 0, len(resp.Results)),
		NextPageToken: resp.NextPageToken,
	}
	for _, r := range resp.Results {
		page.Results = append(page.Results, toCandidate(r))
	}
	return page, nil
}

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Geometry struct {
			Location apiLocation `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode returns the first match for query. No match is a resolution
// failure, not a provider error.
func (c *Client) Geocode(ctx context.Context, query string) (domain.Coordinate, error) {
	const op = "geocode"
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.Coordinate{}, domain.WrapError(domain.ErrInvalidInput, op, errors.New("query is empty"))
	}
	if c.apiKey == "" {
		return domain.Coordinate{}, domain.WrapError(domain.ErrConfigurationMissing, op, errors.New("maps api key missing"))
	}

	params := url.Values{}
	params.Set("address", query)
	params.Set("key", c.apiKey)

	var resp geocodeResponse
	if err := c.get(ctx, "geocode", "/geocode/json", params, &resp); err != nil {
		return domain.Coordinate{}, httpclient.WrapProviderError(op, err)
	}
	if err := statusError(op, resp.Status, resp.ErrorMessage); err != nil {
		return domain.Coordinate{}, err
	}
	if len(resp.Results) == 0 {
		return domain.Coordinate{}, domain.WrapError(domain.ErrResolutionFailure, op, fmt.Errorf("no match for %q", query))
	}

	loc := resp.Results[0].Geometry.Location
	return domain.Coordinate{Latitude: loc.Lat, Longitude: loc.Lng}, nil
}

func (c *Client) get(ctx context.Context, operation, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path + "?" + params.Encode()
	return c.exec.Execute(ctx, "google."+operation, func(callCtx context.Context) error {
		return httpclient.Do(callCtx, c.httpClient, httpclient.Request{
			Provider:  providerName,
			Operation: operation,
			Method:    http.MethodGet,
			URL:       endpoint,
			Out:       out,
		})
	}, httpclient.RecordFailure)
}

func statusError(op, status, message string) error {
	switch status {
	case statusOK, statusZeroResults:
		return nil
	}
	detail := status
	if message != "" {
		detail = status + ": " + message
	}
	return domain.WrapError(domain.ErrProvider, op, errors.New(detail))
}

func toCandidate(r nearbyResult) domain.PlaceCandidate {
	address := r.Vicinity
	if address == "" {
		address = r.FormattedAddress
	}
	tags := r.Types
	if tags == nil {
		tags = []string{}
	}
	candidate := domain.PlaceCandidate{
		Name:     r.Name,
		Address:  address,
		Rating:   r.Rating,
		TypeTags: tags,
		PlaceID:  r.PlaceID,
		MapURL:   domain.PlaceMapURL(r.PlaceID),
	}
	if loc := r.Geometry.Location; loc != nil {
		candidate.Location = &domain.Coordinate{Latitude: loc.Lat, Longitude: loc.Lng}
	}
	return candidate
}

func formatLocation(c domain.Coordinate) string {
	return strconv.FormatFloat(c.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}
