package domain

import (
	"net/url"
	"strings"
)

const placeURLPrefix = "https://www.google.com/maps/place/?q=place_id:"

// PlaceCandidate is one normalized nearby-search result.
type PlaceCandidate struct {
	Name           string      `json:"name"`
	Address        string      `json:"address"`
	Rating         *float64    `json:"rating,omitempty"`
	TypeTags       []string    `json:"type_tags"`
	PlaceID        string      `json:"place_id"`
	MapURL         string      `json:"map_url"`
	Location       *Coordinate `json:"location,omitempty"`
	DistanceMeters *float64    `json:"distance_meters,omitempty"`
}

// PlaceMapURL derives the canonical map link for a place id.
func PlaceMapURL(placeID string) string {
	return placeURLPrefix + url.QueryEscape(placeID)
}

// Ref identifies the candidate in the classification log.
func (p PlaceCandidate) Ref() string {
	if p.PlaceID != "" {
		return p.PlaceID
	}
	return p.Name + "|" + p.Address
}

func (p PlaceCandidate) TypesText() string {
	return strings.Join(p.TypeTags, ", ")
}

type NearbySearchRequest struct {
	Center       Coordinate
	RadiusMeters int
	PlaceType    string
	PageToken    string
}

type NearbySearchPage struct {
	Results       []PlaceCandidate
	NextPageToken string
}
