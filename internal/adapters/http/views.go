package httpadapter

import (
	"time"

	"github.com/kirillkom/restaurant-classifier/internal/core/domain"
)

type resolutionView struct {
	Found          bool                    `json:"found"`
	Latitude       *float64                `json:"lat,omitempty"`
	Longitude      *float64                `json:"lng,omitempty"`
	Source         domain.ResolutionSource `json:"source,omitempty"`
	InputURL       string                  `json:"input_url"`
	ResolvedURL    string                  `json:"resolved_url,omitempty"`
	ElapsedSeconds float64                 `json:"elapsed_seconds"`
}

func newResolutionView(res domain.Resolution) resolutionView {
	view := resolutionView{
		Found:          res.Found(),
		Source:         res.Source,
		InputURL:       res.InputURL,
		ResolvedURL:    res.ResolvedURL,
		ElapsedSeconds: res.ElapsedSeconds(),
	}
	if res.Coordinate != nil {
		lat, lng := res.Coordinate.Latitude, res.Coordinate.Longitude
		view.Latitude = &lat
		view.Longitude = &lng
	}
	return view
}

// rowView is one rendered table row: failed rows carry the error label in
// category and no latency.
type rowView struct {
	PlaceRef       string          `json:"place_ref"`
	Name           string          `json:"name"`
	Address        string          `json:"address"`
	Category       string          `json:"category"`
	MapURL         string          `json:"map_url"`
	LatencySeconds *float64        `json:"latency_seconds"`
	Failure        *domain.Failure `json:"failure,omitempty"`
}

func newRowView(row domain.ClassificationResult) rowView {
	return rowView{
		PlaceRef:       row.PlaceRef,
		Name:           row.Name,
		Address:        row.Address,
		Category:       row.Classification.Label(),
		MapURL:         row.MapURL,
		LatencySeconds: row.Classification.LatencySeconds(),
		Failure:        row.Classification.Failure,
	}
}

func newRowViews(rows []domain.ClassificationResult) []rowView {
	out := make([]rowView, 0, len(rows))
	for _, row := range rows {
		out = append(out, newRowView(row))
	}
	return out
}

type progressView struct {
	Cursor    int  `json:"cursor"`
	Total     int  `json:"total"`
	Remaining int  `json:"remaining"`
	Done      bool `json:"done"`
}

func newProgressView(s domain.Session) progressView {
	return progressView{
		Cursor:    s.Cursor,
		Total:     len(s.Candidates),
		Remaining: s.Remaining(),
		Done:      s.HasCandidates() && s.Done(),
	}
}

type sessionView struct {
	ID         string                  `json:"id"`
	InputURL   string                  `json:"input_url,omitempty"`
	Resolution *resolutionView         `json:"resolution,omitempty"`
	Candidates []domain.PlaceCandidate `json:"candidates"`
	Rows       []rowView               `json:"rows"`
	Progress   progressView            `json:"progress"`
	CreatedAt  time.Time               `json:"created_at"`
	UpdatedAt  time.Time               `json:"updated_at"`
}

func newSessionView(s domain.Session) sessionView {
	view := sessionView{
		ID:         s.ID,
		InputURL:   s.InputURL,
		Candidates: s.Candidates,
		Rows:       newRowViews(s.Log),
		Progress:   newProgressView(s),
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
	if view.Candidates == nil {
		view.Candidates = []domain.PlaceCandidate{}
	}
	if s.Resolution != nil {
		res := newResolutionView(*s.Resolution)
		view.Resolution = &res
	}
	return view
}

type classifyNextView struct {
	Done     bool         `json:"done"`
	Message  string       `json:"message,omitempty"`
	Row      *rowView     `json:"row,omitempty"`
	Progress progressView `json:"progress"`
}

type classifyAllView struct {
	Rows     []rowView    `json:"rows"`
	Progress progressView `json:"progress"`
}
