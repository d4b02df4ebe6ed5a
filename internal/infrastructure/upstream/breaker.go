package upstream

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/metrics"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/tracing"
)

// Searcher is the provider shape the breaker wraps.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]domain.CandidateProduct, error)
}

type BreakerSettings struct {
	// MaxFailures consecutive failures open the circuit.
	MaxFailures uint32
	// OpenTimeout is how long the circuit stays open before a probe.
	OpenTimeout time.Duration
}

// BreakerProvider short-circuits calls to a provider that keeps failing.
type BreakerProvider struct {
	next Searcher
	cb   *gobreaker.CircuitBreaker[[]domain.CandidateProduct]
}

func NewBreakerProvider(next Searcher, s BreakerSettings) *BreakerProvider {
	if s.MaxFailures == 0 {
		s.MaxFailures = 5
	}
	if s.OpenTimeout == 0 {
		s.OpenTimeout = 30 * time.Second
	}
	name := next.Name()
	metrics.BreakerState(name, int(gobreaker.StateClosed))

	cb := gobreaker.NewCircuitBreaker[[]domain.CandidateProduct](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.MaxFailures
		},
		// the caller giving up is not the provider's fault
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Logger.Warn().
				Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("provider breaker state change")
			metrics.BreakerState(name, int(to))
		},
	})
	return &BreakerProvider{next: next, cb: cb}
}

func (b *BreakerProvider) Name() string { return b.next.Name() }

func (b *BreakerProvider) Search(ctx context.Context, query string, limit int) (items []domain.CandidateProduct, err error) {
	ctx, span := tracing.StartSpan(ctx, "search.provider", attribute.String("provider", b.Name()))
	defer func() { tracing.EndSpan(span, err) }()

	items, err = b.cb.Execute(func() ([]domain.CandidateProduct, error) {
		return b.next.Search(ctx, query, limit)
	})
	switch {
	case err == nil:
		metrics.ProviderCall(b.Name(), "ok")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.ProviderCall(b.Name(), "open")
	default:
		metrics.ProviderCall(b.Name(), "error")
	}
	return items, err
}

// State reports the breaker state, mostly for tests and health output.
func (b *BreakerProvider) State() gobreaker.State {
	return b.cb.State()
}
