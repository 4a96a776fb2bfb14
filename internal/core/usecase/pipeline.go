package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/restaurant-classifier/internal/core/domain"
	"github.com/kirillkom/restaurant-classifier/internal/core/ports"
)

const (
	DefaultRadiusMeters = 3000
	DefaultMaxPages     = 3
)

type PipelineConfig struct {
	RadiusMeters    int
	MaxPages        int
	ClassifyTimeout time.Duration
}

func (c PipelineConfig) normalize() PipelineConfig {
	out := c
	if out.RadiusMeters <= 0 {
		out.RadiusMeters = DefaultRadiusMeters
	}
	if out.MaxPages < 0 {
		out.MaxPages = DefaultMaxPages
	}
	if out.ClassifyTimeout <= 0 {
		out.ClassifyTimeout = DefaultClassifyTimeout
	}
	return out
}

// Pipeline sequences resolver, fetcher and classifier over a session value.
// It keeps no state of its own; advancing the same session from several
// callers needs external serialization.
type Pipeline struct {
	resolver   ports.CoordinateResolver
	fetcher    ports.PlacesFetcher
	classifier ports.CategoryClassifier
	observer   ports.PipelineObserver
	cfg        PipelineConfig

	newID func() string
	now   func() time.Time
}

func NewPipeline(
	resolver ports.CoordinateResolver,
	fetcher ports.PlacesFetcher,
	classifier ports.CategoryClassifier,
	observer ports.PipelineObserver,
	cfg PipelineConfig,
) *Pipeline {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Pipeline{
		resolver:   resolver,
		fetcher:    fetcher,
		classifier: classifier,
		observer:   observer,
		cfg:        cfg.normalize(),
		newID:      uuid.NewString,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (p *Pipeline) Config() PipelineConfig {
	return p.cfg
}

func (p *Pipeline) NewSession() domain.Session {
	now := p.now()
	return domain.Session{
		ID:        p.newID(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Resolve replaces the session coordinate. When nothing is found the
// session comes back untouched together with a resolution failure.
func (p *Pipeline) Resolve(ctx context.Context, s domain.Session, rawURL string) (domain.Session, domain.Resolution, error) {
	res := p.resolver.Resolve(ctx, rawURL)
	p.observer.ObserveResolution(res)

	if !res.Found() {
		slog.Info("coordinates_not_found", "session_id", s.ID, "elapsed_s", res.ElapsedSeconds())
		return s, res, domain.WrapError(
			domain.ErrResolutionFailure,
			"resolve coordinates",
			fmt.Errorf("no coordinates in input (took %.3fs)", res.ElapsedSeconds()),
		)
	}

	out := s.Clone()
	coord := *res.Coordinate
	out.InputURL = rawURL
	out.Resolution = &res
	out.Coordinate = &coord
	out.Candidates = nil
	out.Log = nil
	out.Cursor = 0
	out.UpdatedAt = p.now()

	slog.Info("coordinates_resolved",
		"session_id", s.ID,
		"lat", coord.Latitude,
		"lng", coord.Longitude,
		"source", res.Source,
		"elapsed_s", res.ElapsedSeconds(),
	)
	return out, res, nil
}

// Fetch loads candidates around the session coordinate and restarts
// classification progress. On error the previous candidates are kept.
func (p *Pipeline) Fetch(ctx context.Context, s domain.Session) (domain.Session, error) {
	if s.Coordinate == nil {
		return s, domain.WrapError(domain.ErrResolutionFailure, "fetch restaurants", errors.New("session has no coordinates"))
	}

	candidates, err := p.fetcher.Fetch(ctx, *s.Coordinate, p.cfg.RadiusMeters, p.cfg.MaxPages)
	p.observer.ObserveFetch(len(candidates), err)
	if err != nil {
		return s, err
	}

	out := s.Clone()
	out.Candidates = candidates
	out.Log = []domain.ClassificationResult{}
	out.Cursor = 0
	out.UpdatedAt = p.now()
	return out, nil
}

// ClassifyNext classifies the candidate under the cursor and advances it,
// failed rows included. A nil row means everything is already classified.
// When ctx ends during the call the session is returned unchanged with
// ctx's error.
func (p *Pipeline) ClassifyNext(ctx context.Context, s domain.Session) (domain.Session, *domain.ClassificationResult, error) {
	if !s.HasCandidates() {
		return s, nil, domain.WrapError(domain.ErrInvalidInput, "classify next", errors.New("no restaurants loaded"))
	}
	if len(s.Log) != s.Cursor || s.Cursor > len(s.Candidates) {
		return s, nil, domain.WrapError(
			domain.ErrInvalidInput,
			"classify next",
			fmt.Errorf("progress out of sync: cursor=%d log=%d candidates=%d", s.Cursor, len(s.Log), len(s.Candidates)),
		)
	}
	if s.Done() {
		return s, nil, nil
	}

	candidate := s.Candidates[s.Cursor]
	cls := p.classifier.Classify(ctx, domain.ClassifyInput{
		Name:      candidate.Name,
		Address:   candidate.Address,
		TypeHints: candidate.TypeTags,
	}, p.cfg.ClassifyTimeout)
	if err := ctx.Err(); err != nil {
		// The caller gave up; the candidate stays under the cursor.
		return s, nil, err
	}
	p.observer.ObserveClassification(cls)

	row := domain.ClassificationResult{
		PlaceRef:       candidate.Ref(),
		Name:           candidate.Name,
		Address:        candidate.Address,
		MapURL:         candidate.MapURL,
		Classification: cls,
	}

	out := s.Clone()
	out.Log = append(out.Log, row)
	out.Cursor++
	out.UpdatedAt = p.now()

	slog.Info("restaurant_classified",
		"session_id", s.ID,
		"index", out.Cursor,
		"total", len(out.Candidates),
		"name", candidate.Name,
		"label", cls.Label(),
	)
	return out, &row, nil
}

// ClassifyAll classifies the remaining candidates one at a time. It stops
// early only when ctx is done; the returned session is consistent either way.
func (p *Pipeline) ClassifyAll(ctx context.Context, s domain.Session, progress ports.ProgressFunc) (domain.Session, error) {
	if !s.HasCandidates() {
		return s, domain.WrapError(domain.ErrInvalidInput, "classify all", errors.New("no restaurants loaded"))
	}

	current := s
	for !current.Done() {
		if err := ctx.Err(); err != nil {
			return current, err
		}
		next, row, err := p.ClassifyNext(ctx, current)
		if err != nil {
			return current, err
		}
		current = next
		if row != nil && progress != nil {
			progress(current.Cursor, len(current.Candidates), *row)
		}
	}
	return current, nil
}

// ResetClassification clears the log and rewinds the cursor.
func (p *Pipeline) ResetClassification(s domain.Session) domain.Session {
	out := s.Clone()
	if out.HasCandidates() {
		out.Log = []domain.ClassificationResult{}
	} else {
		out.Log = nil
	}
	out.Cursor = 0
	out.UpdatedAt = p.now()
	return out
}

type nopObserver struct{}

func (nopObserver) ObserveResolution(domain.Resolution)         {}
func (nopObserver) ObserveFetch(int, error)                     {}
func (nopObserver) ObserveClassification(domain.Classification) {}
