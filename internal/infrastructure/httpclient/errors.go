package httpclient

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/kirillkom/restaurant-classifier/internal/core/domain"
	"github.com/kirillkom/restaurant-classifier/internal/infrastructure/resilience"
)

// RecordFailure decides whether err should count against a breaker:
// outages and throttling do, caller mistakes and cancellations do not.
func RecordFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return isTransientStatus(statusErr.StatusCode)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return !domain.IsKind(err, domain.ErrConfigurationMissing)
}

// WrapProviderError tags err with the domain kind callers branch on.
func WrapProviderError(operation string, err error) error {
	switch {
	case err == nil:
		return nil
	case domain.IsKind(err, domain.ErrProvider),
		domain.IsKind(err, domain.ErrConfigurationMissing),
		domain.IsKind(err, domain.ErrTemporary):
		return err
	case resilience.IsCircuitOpen(err):
		return domain.WrapError(domain.ErrTemporary, operation, err)
	default:
		return domain.WrapError(domain.ErrProvider, operation, err)
	}
}

func isTransientStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
