// Package auditrun holds the state that lives exactly as long as one audit.
//
// A Run is created with Start, handed to the components that need shared
// per-audit state (the link status cache), and closed with End. Nothing in
// a Run survives into the next audit, so two audits of the same site in one
// process never see each other's cached link statuses.
package auditrun

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/linkcheck"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/model"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/urlnorm"
)

// ErrInvalidTarget is returned by Start for a target that is not an
// absolute http or https URL.
var ErrInvalidTarget = errors.New("invalid audit target")

// Run is one audit of one site.
type Run struct {
	// ID uniquely identifies the run.
	ID string

	// Target is the normalized root URL.
	Target string

	// StartedAt is when Start was called.
	StartedAt time.Time

	mu      sync.Mutex
	endedAt time.Time
	cache   *linkcheck.StatusCache
	links   map[string]int
}

// Option configures a Run.
type Option func(*Run)

// WithID sets the run ID instead of generating one.
func WithID(id string) Option {
	return func(r *Run) {
		if id != "" {
			r.ID = id
		}
	}
}

// WithClock sets the start time. Tests use it for stable timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Run) {
		if now != nil {
			r.StartedAt = now()
		}
	}
}

// Start begins an audit of target.
func Start(target string, opts ...Option) (*Run, error) {
	normalized, err := urlnorm.Normalize(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTarget, target, err)
	}
	r := &Run{
		ID:        uuid.NewString(),
		Target:    normalized,
		StartedAt: time.Now(),
		cache:     linkcheck.NewStatusCache(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Cache returns the link status cache of the run. It returns a fresh empty
// cache after End, so late callers never see stale statuses.
func (r *Run) Cache() *linkcheck.StatusCache {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cache == nil {
		return linkcheck.NewStatusCache()
	}
	return r.cache
}

// NewReport creates the report that the pipeline fills for this run.
func (r *Run) NewReport() *model.AuditReport {
	report := model.NewAuditReport(r.ID, r.Target)
	report.StartedAt = r.StartedAt
	return report
}

// End closes the run. The link cache is dropped and its final contents are
// kept for LinkStatuses. Calling End again has no effect.
func (r *Run) End() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.endedAt.IsZero() {
		return
	}
	r.endedAt = time.Now()
	if r.cache != nil {
		r.links = r.cache.Snapshot()
		r.cache = nil
	}
}

// Ended reports whether End was called.
func (r *Run) Ended() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.endedAt.IsZero()
}

// EndedAt returns when End was called, or the zero time.
func (r *Run) EndedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.endedAt
}

// LinkStatuses returns the link statuses probed during the run.
func (r *Run) LinkStatuses() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cache != nil {
		return r.cache.Snapshot()
	}
	out := make(map[string]int, len(r.links))
	for k, v := range r.links {
		out[k] = v
	}
	return out
}
