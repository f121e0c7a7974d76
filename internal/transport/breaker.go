package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"

	"TrendSentinel/internal/metrics"
)

// BreakerConfig configures the per-host circuit breakers.
type BreakerConfig struct {
	MaxRequests  uint32        // requests allowed through while half-open
	Interval     time.Duration // cyclic period of the closed state to clear counts
	Timeout      time.Duration // time spent open before probing again
	MinRequests  uint32        // requests needed in a window before the breaker may trip
	FailureRatio float64
}

// DefaultBreakerConfig trips a host after half of at least five requests fail.
var DefaultBreakerConfig = BreakerConfig{
	MaxRequests:  1,
	Interval:     time.Minute,
	Timeout:      30 * time.Second,
	MinRequests:  5,
	FailureRatio: 0.5,
}

// BreakerRegistry lazily creates one breaker per name (host).
type BreakerRegistry struct {
	mu       sync.RWMutex
	breakers map[string]*gobreaker.CircuitBreaker[[]byte]
	config   BreakerConfig
	metrics  *metrics.Metrics
	logger   logrus.FieldLogger
}

// NewBreakerRegistry creates a registry. m may be nil.
func NewBreakerRegistry(config BreakerConfig, m *metrics.Metrics, logger logrus.FieldLogger) *BreakerRegistry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &BreakerRegistry{
		breakers: make(map[string]*gobreaker.CircuitBreaker[[]byte]),
		config:   config,
		metrics:  m,
		logger:   logger,
	}
}

// Get returns (or creates) the breaker for name.
func (r *BreakerRegistry) Get(name string) *gobreaker.CircuitBreaker[[]byte] {
	r.mu.RLock()
	cb, ok := r.breakers[name]
	r.mu.RUnlock()
	if ok {
		return cb
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cb, ok = r.breakers[name]; ok {
		return cb
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: r.config.MaxRequests,
		Interval:    r.config.Interval,
		Timeout:     r.config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < r.config.MinRequests || counts.Requests == 0 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= r.config.FailureRatio
		},
		// A 4xx is the caller's problem, not the host's.
		IsSuccessful: func(err error) bool {
			var se *StatusError
			return err == nil || (errors.As(err, &se) && se.ClientError())
		},
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state change")
			r.metrics.SetCircuitBreakerState(name, stateToInt(to))
			if to == gobreaker.StateOpen {
				r.metrics.RecordCircuitBreakerTrip(name)
			}
		},
	}

	cb = gobreaker.NewCircuitBreaker[[]byte](settings)
	r.breakers[name] = cb
	return cb
}

// Execute runs fn through the breaker for name.
func (r *BreakerRegistry) Execute(ctx context.Context, name string, fn func() ([]byte, error)) ([]byte, error) {
	body, err := r.Get(name).Execute(func() ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s: %w", name, ErrCircuitOpen)
	}
	return body, err
}

// State returns the state name of every known breaker.
func (r *BreakerRegistry) State() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.breakers))
	for name, cb := range r.breakers {
		out[name] = cb.State().String()
	}
	return out
}

// stateToInt converts a breaker state for the state gauge.
// 0=closed, 1=half-open, 2=open
func stateToInt(state gobreaker.State) int {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
