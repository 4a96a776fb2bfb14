package domain

import "time"

// Session carries everything the orchestrator keeps between pipeline steps.
// Steps take a Session and return the updated copy.
type Session struct {
	ID         string                 `json:"id"`
	InputURL   string                 `json:"input_url,omitempty"`
	Resolution *Resolution            `json:"resolution,omitempty"`
	Coordinate *Coordinate            `json:"coordinate,omitempty"`
	Candidates []PlaceCandidate       `json:"candidates"`
	Log        []ClassificationResult `json:"log"`
	Cursor     int                    `json:"cursor"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

func (s Session) HasCandidates() bool {
	return s.Candidates != nil
}

func (s Session) Done() bool {
	return s.Cursor >= len(s.Candidates)
}

func (s Session) Remaining() int {
	if s.Done() {
		return 0
	}
	return len(s.Candidates) - s.Cursor
}

// Clone copies the slices so the returned session can be changed without
// touching the receiver.
func (s Session) Clone() Session {
	out := s
	if s.Candidates != nil {
		out.Candidates = append([]PlaceCandidate(nil), s.Candidates...)
	}
	if s.Log != nil {
		out.Log = append([]ClassificationResult(nil), s.Log...)
	}
	if s.Coordinate != nil {
		c := *s.Coordinate
		out.Coordinate = &c
	}
	if s.Resolution != nil {
		r := *s.Resolution
		out.Resolution = &r
	}
	return out
}
