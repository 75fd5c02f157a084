// Package breaker wraps failsafe-go circuit breakers with logging and
// Prometheus state tracking.
package breaker

import (
	"errors"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"

	"portfolio/pkg/logging"
)

// ErrOpen is returned by Call while the breaker rejects executions.
var ErrOpen = circuitbreaker.ErrOpen

// State represents the state of the circuit breaker.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Config configures a Breaker.
type Config struct {
	// Name identifies this breaker in logs and metrics
	Name string

	// FailureThreshold is the number of consecutive handled failures that
	// opens the breaker. Default: 5
	FailureThreshold uint

	// SuccessThreshold is the number of successful trial executions needed in
	// half-open state before closing again. Default: 1
	SuccessThreshold uint

	// Delay is how long the breaker stays open before allowing a trial
	// execution. Default: 15 seconds
	Delay time.Duration

	// Handle reports whether err counts as a failure. Nil counts every error.
	Handle func(err error) bool

	Logger logging.Logger

	// OnStateChange is invoked after metrics are recorded.
	OnStateChange func(name string, from, to State)
}

// Breaker guards calls to a dependency that may become unusable.
type Breaker struct {
	cb   circuitbreaker.CircuitBreaker[any]
	name string
}

func New(cfg Config) *Breaker {
	if cfg.Name == "" {
		cfg.Name = "circuit-breaker"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold == 0 {
		cfg.SuccessThreshold = 1
	}
	if cfg.Delay <= 0 {
		cfg.Delay = 15 * time.Second
	}

	builder := circuitbreaker.NewBuilder[any]().
		WithFailureThreshold(cfg.FailureThreshold).
		WithSuccessThreshold(cfg.SuccessThreshold).
		WithDelay(cfg.Delay)

	if cfg.Handle != nil {
		handle := cfg.Handle
		builder = builder.HandleIf(func(_ any, err error) bool {
			return err != nil && handle(err)
		})
	}

	builder = builder.OnStateChanged(func(event circuitbreaker.StateChangedEvent) {
		from := convertState(event.OldState)
		to := convertState(event.NewState)
		recordTransition(cfg.Name, from, to)

		if cfg.Logger != nil {
			cfg.Logger.WithFields(logging.Fields{
				"circuit_breaker": cfg.Name,
				"from_state":      from.String(),
				"to_state":        to.String(),
			}).Warn("circuit breaker state change")
		}
		if cfg.OnStateChange != nil {
			cfg.OnStateChange(cfg.Name, from, to)
		}
	})

	recordState(cfg.Name, StateClosed)
	return &Breaker{cb: builder.Build(), name: cfg.Name}
}

func convertState(state circuitbreaker.State) State {
	switch state {
	case circuitbreaker.HalfOpenState:
		return StateHalfOpen
	case circuitbreaker.OpenState:
		return StateOpen
	default:
		return StateClosed
	}
}

// Call executes fn through the breaker. While open it returns ErrOpen
// without calling fn.
func (b *Breaker) Call(fn func() error) error {
	_, err := failsafe.With(b.cb).Get(func() (any, error) {
		return nil, fn()
	})
	return err
}

// IsRejection reports whether err came from an open breaker rather than
// from the guarded call.
func IsRejection(err error) bool {
	return errors.Is(err, ErrOpen)
}

func (b *Breaker) State() State {
	return convertState(b.cb.State())
}

func (b *Breaker) IsOpen() bool {
	return b.cb.IsOpen()
}

func (b *Breaker) Name() string {
	return b.name
}
