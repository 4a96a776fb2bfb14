package usecase

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/kirillkom/restaurant-classifier/internal/core/domain"
	"github.com/kirillkom/restaurant-classifier/internal/core/ports"
)

var (
	atMarkerPattern    = regexp.MustCompile(`@([-+]?\d+\.\d+),([-+]?\d+\.\d+)`)
	dataMarkerPattern  = regexp.MustCompile(`!3d([-+]?\d+\.\d+)!4d([-+]?\d+\.\d+)`)
	decimalPairPattern = regexp.MustCompile(`([-+]?\d{1,3}\.\d+)[, ]+([-+]?\d{1,3}\.\d+)`)
)

// Registrable domains whose links must be expanded before parsing.
var shortLinkDomains = map[string]bool{
	"goo.gl": true,
	"g.co":   true,
}

type ResolveCoordinatesUseCase struct {
	expander ports.URLExpander
	geocoder ports.Geocoder
	now      func() time.Time
}

// NewResolveCoordinatesUseCase builds the resolver. A nil geocoder disables
// the forward-geocoding fallback.
func NewResolveCoordinatesUseCase(expander ports.URLExpander, geocoder ports.Geocoder) *ResolveCoordinatesUseCase {
	return &ResolveCoordinatesUseCase{
		expander: expander,
		geocoder: geocoder,
		now:      time.Now,
	}
}

// Resolve never fails: anything it cannot extract comes back as a
// Resolution without a coordinate.
func (uc *ResolveCoordinatesUseCase) Resolve(ctx context.Context, rawURL string) domain.Resolution {
	start := uc.now()
	res := domain.Resolution{InputURL: rawURL}

	text := strings.TrimSpace(rawURL)
	if text == "" {
		return uc.finish(res, start)
	}

	if shortURL, ok := shortLinkURL(text); ok && uc.expander != nil {
		expanded, err := uc.expander.Expand(ctx, shortURL)
		switch {
		case err != nil:
			slog.Debug("short_link_expand_failed", "url", shortURL, "error", err)
		case strings.TrimSpace(expanded) != "":
			text = strings.TrimSpace(expanded)
		}
	}
	res.ResolvedURL = text

	if coord, source, ok := matchCoordinate(searchTexts(text)); ok {
		res.Coordinate = &coord
		res.Source = source
		return uc.finish(res, start)
	}

	if uc.geocoder != nil {
		if query := geocodeQuery(text); query != "" {
			coord, err := uc.geocoder.Geocode(ctx, query)
			if err != nil {
				slog.Debug("geocode_fallback_failed", "query", query, "error", err)
			} else if coord.Valid() {
				res.Coordinate = &coord
				res.Source = domain.SourceGeocoder
			}
		}
	}

	return uc.finish(res, start)
}

func (uc *ResolveCoordinatesUseCase) finish(res domain.Resolution, start time.Time) domain.Resolution {
	res.Elapsed = uc.now().Sub(start)
	return res
}

func shortLinkURL(text string) (string, bool) {
	candidate := text
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}
	u, err := url.Parse(candidate)
	if err != nil || u.Hostname() == "" {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return "", false
	}
	if !shortLinkDomains[registrable] {
		return "", false
	}
	return candidate, true
}

// searchTexts returns the raw text plus its query-unescaped form when that
// differs. Consent redirects percent-encode the continuation URL.
func searchTexts(text string) []string {
	texts := []string{text}
	if unescaped, err := url.QueryUnescape(text); err == nil && unescaped != text {
		texts = append(texts, unescaped)
	}
	return texts
}

func matchCoordinate(texts []string) (domain.Coordinate, domain.ResolutionSource, bool) {
	markers := []struct {
		pattern *regexp.Regexp
		source  domain.ResolutionSource
	}{
		{atMarkerPattern, domain.SourceAtMarker},
		{dataMarkerPattern, domain.SourceDataMarker},
	}
	for _, marker := range markers {
		for _, text := range texts {
			if coord, ok := parsePair(marker.pattern.FindStringSubmatch(text)); ok {
				return coord, marker.source, true
			}
		}
	}

	// Only the first decimal pair is considered; out-of-range values are
	// rejected rather than searched past.
	for _, text := range texts {
		coord, ok := parsePair(decimalPairPattern.FindStringSubmatch(text))
		if ok && coord.Valid() {
			return coord, domain.SourceDecimalPair, true
		}
	}
	return domain.Coordinate{}, domain.SourceNone, false
}

func parsePair(match []string) (domain.Coordinate, bool) {
	if len(match) != 3 {
		return domain.Coordinate{}, false
	}
	lat, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return domain.Coordinate{}, false
	}
	lng, err := strconv.ParseFloat(match[2], 64)
	if err != nil {
		return domain.Coordinate{}, false
	}
	return domain.Coordinate{Latitude: lat, Longitude: lng}, true
}

func geocodeQuery(text string) string {
	u, err := url.Parse(text)
	if err != nil || u.Host == "" {
		return text
	}

	query := u.Query()
	for _, key := range []string{"q", "query"} {
		if v := strings.TrimSpace(query.Get(key)); v != "" {
			return v
		}
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(segments); i++ {
		if segments[i] != "place" && segments[i] != "search" {
			continue
		}
		name, err := url.PathUnescape(segments[i+1])
		if err != nil {
			continue
		}
		name = strings.TrimSpace(strings.ReplaceAll(name, "+", " "))
		if name != "" && !strings.HasPrefix(name, "@") {
			return name
		}
	}
	return ""
}
