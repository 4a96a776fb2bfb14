package resilience

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// Policy tunes the breaker kept for each upstream operation. Calls are
// never retried; an open breaker fails fast until OpenTimeout elapses.
type Policy struct {
	Enabled       bool
	MinRequests   uint32
	FailureRatio  float64
	OpenTimeout   time.Duration
	HalfOpenCalls uint32
}

func DefaultPolicy() Policy {
	return Policy{
		Enabled:       true,
		MinRequests:   5,
		FailureRatio:  0.6,
		OpenTimeout:   30 * time.Second,
		HalfOpenCalls: 1,
	}
}

func (p Policy) withDefaults() Policy {
	def := DefaultPolicy()
	if p.MinRequests == 0 {
		p.MinRequests = def.MinRequests
	}
	if p.FailureRatio <= 0 || p.FailureRatio > 1 {
		p.FailureRatio = def.FailureRatio
	}
	if p.OpenTimeout <= 0 {
		p.OpenTimeout = def.OpenTimeout
	}
	if p.HalfOpenCalls == 0 {
		p.HalfOpenCalls = def.HalfOpenCalls
	}
	return p
}

func (p Policy) shouldTrip(counts gobreaker.Counts) bool {
	if counts.Requests < p.MinRequests {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= p.FailureRatio
}
