// Package ratelimit provides request pacing for source fetches: a fixed
// per-source-type courtesy delay consulted between sources, and a sliding
// window limiter for connectors that issue many sub-requests.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/job-scanner/internal/types"
)

// Courtesy delays per source type. These are pauses between sources to
// stay under provider rate limits, distinct from backoff on failure.
var courtesyDelays = map[types.SourceType]time.Duration{
	types.SourceRSS:        0,
	types.SourceRemotive:   1 * time.Second,
	types.SourceGreenhouse: 1 * time.Second,
	types.SourceLever:      2 * time.Second,
	types.SourceSitemap:    3 * time.Second,
	types.SourceBoard:      3 * time.Second,
}

// DefaultCourtesyDelay applies to source types missing from the table.
const DefaultCourtesyDelay = 1 * time.Second

// CourtesyDelay returns the fixed inter-source delay for a source type.
func CourtesyDelay(t types.SourceType) time.Duration {
	if d, ok := courtesyDelays[t]; ok {
		return d
	}
	return DefaultCourtesyDelay
}

// Window is a requests-per-minute limiter with a burst ceiling, used by
// crawl-style connectors between sub-page fetches. One instance is owned
// by whichever connector needs it; there is no shared global state.
type Window struct {
	limiter *rate.Limiter
}

// NewWindow creates a limiter allowing perMinute requests per minute with
// the given burst ceiling.
func NewWindow(perMinute, burst int) *Window {
	if perMinute <= 0 {
		perMinute = 20
	}
	if burst <= 0 {
		burst = 1
	}
	return &Window{
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst),
	}
}

// Wait blocks until a request slot is available or the context is
// cancelled.
func (w *Window) Wait(ctx context.Context) error {
	return w.limiter.Wait(ctx)
}

// Allow reports whether a request may proceed immediately.
func (w *Window) Allow() bool {
	return w.limiter.Allow()
}
