// Package remote holds the HTTP clients for the two remote systems: the
// SOAP-style supplier and the REST storefront. Both clients share the same
// resilience envelope, a circuit breaker in front of a client-side rate
// limiter, so a struggling remote is backed off instead of hammered.
package remote

import (
	"context"
	"fmt"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// guard wraps remote calls in a breaker and a rate limiter.
type guard struct {
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func newGuard(name string, requestsPerSecond float64, logger *zap.Logger) *guard {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 2
	}
	settings := gobreaker.Settings{
		Name: name,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	return &guard{
		breaker: gobreaker.NewCircuitBreaker(settings),
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// call runs fn behind the rate limiter and breaker.
func (g *guard) call(ctx context.Context, fn func() (any, error)) (any, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}
	return g.breaker.Execute(fn)
}
