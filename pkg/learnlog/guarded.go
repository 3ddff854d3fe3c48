package learnlog

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/daviddao/reslot/pkg/model"
)

// BreakerSettings configures Guarded. Zero fields take the defaults below.
type BreakerSettings struct {
	// Failures is the number of consecutive failures that opens the breaker.
	Failures uint32
	// Cooldown is how long the breaker stays open before a trial call.
	Cooldown time.Duration
	// OnStateChange, if set, observes transitions.
	OnStateChange func(name string, from, to gobreaker.State)
}

const (
	defaultBreakerFailures = 3
	defaultBreakerCooldown = 30 * time.Second
)

// Guarded puts a circuit breaker in front of a Log. While the breaker is
// open every call fails fast with gobreaker.ErrOpenState instead of waiting
// on a sink that keeps failing.
type Guarded struct {
	inner Log
	cb    *gobreaker.CircuitBreaker
}

// NewGuarded wraps inner with a breaker named name.
func NewGuarded(name string, inner Log, s BreakerSettings) *Guarded {
	if s.Failures == 0 {
		s.Failures = defaultBreakerFailures
	}
	if s.Cooldown <= 0 {
		s.Cooldown = defaultBreakerCooldown
	}
	failures := s.Failures
	return &Guarded{
		inner: inner,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     s.Cooldown,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= failures
			},
			OnStateChange: s.OnStateChange,
		}),
	}
}

// State reports the breaker state.
func (g *Guarded) State() gobreaker.State { return g.cb.State() }

// LoadContext runs the inner LoadContext through the breaker.
func (g *Guarded) LoadContext(ctx context.Context, ownerID string) (string, error) {
	v, err := g.cb.Execute(func() (interface{}, error) {
		return g.inner.LoadContext(ctx, ownerID)
	})
	if err != nil {
		return NoHistory, err
	}
	return v.(string), nil
}

// Record runs the inner Record through the breaker.
func (g *Guarded) Record(ctx context.Context, e model.LogEntry) error {
	_, err := g.cb.Execute(func() (interface{}, error) {
		return nil, g.inner.Record(ctx, e)
	})
	return err
}

// Statistics runs the inner Statistics through the breaker.
func (g *Guarded) Statistics(ctx context.Context, ownerID string) (model.Statistics, error) {
	v, err := g.cb.Execute(func() (interface{}, error) {
		return g.inner.Statistics(ctx, ownerID)
	})
	if err != nil {
		return model.NewStatistics(), err
	}
	return v.(model.Statistics), nil
}

var _ Log = (*Guarded)(nil)
