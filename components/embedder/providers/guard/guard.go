// Package guard protects remote embedding calls with a rate limiter and a circuit breaker
package guard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/bububa/colbert-go/components/embedder"
)

// ErrOpen is returned without calling the provider while the breaker is open
var ErrOpen = gobreaker.ErrOpenState

type Options struct {
	name         string
	rps          float64
	burst        int
	maxRequests  uint32
	interval     time.Duration
	timeout      time.Duration
	minRequests  uint32
	failureRatio float64
	logger       *slog.Logger
}

type Option func(*Options)

func WithName(name string) Option {
	return func(o *Options) {
		o.name = name
	}
}

// WithRateLimit allows rps requests per second with bursts of burst.
// rps <= 0 disables rate limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *Options) {
		o.rps = rps
		o.burst = burst
	}
}

// WithBreaker sets the requests allowed while half open, the interval
// counts are cleared in while closed and how long the breaker stays open.
func WithBreaker(maxRequests uint32, interval time.Duration, timeout time.Duration) Option {
	return func(o *Options) {
		o.maxRequests = maxRequests
		o.interval = interval
		o.timeout = timeout
	}
}

// WithTripRatio opens the breaker once at least minRequests were made and
// the failure ratio reaches ratio.
func WithTripRatio(minRequests uint32, ratio float64) Option {
	return func(o *Options) {
		o.minRequests = minRequests
		o.failureRatio = ratio
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.logger = logger
	}
}

// Guard rate limits calls and stops calling a failing provider for a while
type Guard struct {
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

func New(opts ...Option) *Guard {
	o := Options{
		name:         "embedder",
		maxRequests:  5,
		interval:     10 * time.Second,
		timeout:      60 * time.Second,
		minRequests:  3,
		failureRatio: 0.6,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	g := &Guard{
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        o.name,
			MaxRequests: o.maxRequests,
			Interval:    o.interval,
			Timeout:     o.timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < o.minRequests {
					return false
				}
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return failureRatio >= o.failureRatio
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				o.logger.Warn("circuit breaker state changed", slog.String("name", name), slog.String("from", from.String()), slog.String("to", to.String()))
			},
			IsSuccessful: isSuccessful,
		}),
	}
	if o.rps > 0 {
		burst := o.burst
		if burst <= 0 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(o.rps), burst)
	}
	return g
}

// caller mistakes and cancellations say nothing about the provider health
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	switch embedder.ErrorKind(err) {
	case embedder.KindValidation, embedder.KindConfiguration:
		return true
	}
	return false
}

// State returns the breaker state name
func (g *Guard) State() string {
	return g.breaker.State().String()
}

// Execute waits for the rate limiter and runs fn through the circuit breaker
func Execute[T any](ctx context.Context, g *Guard, fn func() (T, error)) (T, error) {
	var zero T
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return zero, err
		}
	}
	ret, err := g.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return zero, err
	}
	return ret.(T), nil
}
