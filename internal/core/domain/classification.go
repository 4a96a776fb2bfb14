package domain

import (
	"math"
	"time"
)

type Category string

const (
	CategoryIndian   Category = "Indian"
	CategoryShawarma Category = "Shawarma/Wrap"
	CategoryLebanese Category = "Lebanese"
	CategoryGulf     Category = "Gulf/Khaleeji"
	CategorySeafood  Category = "Seafood"
	CategoryBurger   Category = "Burger"
	CategoryOther    Category = "Other"
)

// Taxonomy is the closed category set in documentation order.
var Taxonomy = []Category{
	CategoryIndian,
	CategoryShawarma,
	CategoryLebanese,
	CategoryGulf,
	CategorySeafood,
	CategoryBurger,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Taxonomy {
		if c == known {
			return true
		}
	}
	return false
}

const errorLabelPrefix = "error: "

// Classification holds either a category or a failure. Latency is nil
// exactly when no timed model call completed.
type Classification struct {
	Category Category       `json:"category,omitempty"`
	Failure  *Failure       `json:"failure,omitempty"`
	Latency  *time.Duration `json:"-"`
	Reply    string         `json:"reply,omitempty"`
}

func (c Classification) Failed() bool {
	return c.Failure != nil
}

// Label is the rendered category, or an error sentinel that is never a
// taxonomy member.
func (c Classification) Label() string {
	if c.Failure != nil {
		return errorLabelPrefix + c.Failure.Error()
	}
	return string(c.Category)
}

func (c Classification) LatencySeconds() *float64 {
	if c.Latency == nil {
		return nil
	}
	v := RoundSeconds(*c.Latency, 2)
	return &v
}

type ClassifyInput struct {
	Name      string
	Address   string
	TypeHints []string
}

// ClassificationResult is one row of the append-only classification log.
type ClassificationResult struct {
	PlaceRef       string         `json:"place_ref"`
	Name           string         `json:"name"`
	Address        string         `json:"address"`
	MapURL         string         `json:"map_url"`
	Classification Classification `json:"classification"`
}

// ChatPrompt is a single-turn chat request for a model provider.
type ChatPrompt struct {
	System          string
	User            string
	MaxOutputTokens int
	Temperature     float64
}

func RoundSeconds(d time.Duration, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(d.Seconds()*scale) / scale
}
