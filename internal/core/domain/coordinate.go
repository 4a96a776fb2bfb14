package domain

import "time"

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

type ResolutionSource string

const (
	SourceNone        ResolutionSource = ""
	SourceAtMarker    ResolutionSource = "at_marker"
	SourceDataMarker  ResolutionSource = "data_marker"
	SourceDecimalPair ResolutionSource = "decimal_pair"
	SourceGeocoder    ResolutionSource = "geocoder"
)

// Resolution is the outcome of turning a map link into a coordinate. A nil
// Coordinate means nothing could be extracted.
type Resolution struct {
	Coordinate  *Coordinate      `json:"coordinate,omitempty"`
	Source      ResolutionSource `json:"source,omitempty"`
	InputURL    string           `json:"input_url"`
	ResolvedURL string           `json:"resolved_url,omitempty"`
	Elapsed     time.Duration    `json:"-"`
}

func (r Resolution) Found() bool {
	return r.Coordinate != nil
}

func (r Resolution) ElapsedSeconds() float64 {
	return RoundSeconds(r.Elapsed, 3)
}
