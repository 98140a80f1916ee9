package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker open")

type CircuitState string

const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "half_open"
)

type ProtectedNotifierConfig struct {
	Timeout          time.Duration // hard timeout per send
	FailureThreshold int           // consecutive failures to open circuit
	Cooldown         time.Duration // how long to stay open before half-open
	HalfOpenMaxCalls int           // allow N trial calls in half-open
}

// ProtectedNotifier wraps a Notifier with a per-send timeout and a circuit
// breaker, so a dead provider fails jobs fast instead of tying up workers.
type ProtectedNotifier struct {
	inner Notifier
	cfg   ProtectedNotifierConfig
	log   *slog.Logger
	now   func() time.Time

	mu                  sync.Mutex
	state               CircuitState
	consecutiveFailures int
	openedAt            time.Time
	halfOpenInFlight    int
}

func NewProtectedNotifier(inner Notifier, log *slog.Logger, cfg ProtectedNotifierConfig) *ProtectedNotifier {
	//defaults
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 15 * time.Second
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 1
	}

	return &ProtectedNotifier{
		inner: inner,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
		state: CircuitClosed,
	}
}

func (n *ProtectedNotifier) SendAttendeeConfirmation(ctx context.Context, input AttendeeConfirmationInput) error {
	if !n.allowRequest() {
		return ErrCircuitOpen
	}

	sendCtx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	err := n.inner.SendAttendeeConfirmation(sendCtx, input)

	n.afterRequest(err)

	return err
}

func (n *ProtectedNotifier) State() CircuitState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

func (n *ProtectedNotifier) allowRequest() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.state {
	case CircuitOpen:
		if n.now().Sub(n.openedAt) < n.cfg.Cooldown {
			return false
		}
		n.transition(CircuitHalfOpen)
		n.halfOpenInFlight = 1
		return true
	case CircuitHalfOpen:
		if n.halfOpenInFlight >= n.cfg.HalfOpenMaxCalls {
			return false
		}
		n.halfOpenInFlight++
		return true
	default:
		return true
	}
}

func (n *ProtectedNotifier) afterRequest(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == CircuitHalfOpen && n.halfOpenInFlight > 0 {
		n.halfOpenInFlight--
	}

	if err == nil {
		n.consecutiveFailures = 0
		n.transition(CircuitClosed)
		return
	}

	n.consecutiveFailures++

	// a failed trial call reopens immediately
	if n.state == CircuitHalfOpen || n.consecutiveFailures >= n.cfg.FailureThreshold {
		n.openedAt = n.now()
		n.transition(CircuitOpen)
	}
}

// callers hold mu
func (n *ProtectedNotifier) transition(to CircuitState) {
	if n.state == to {
		return
	}
	if n.log != nil {
		n.log.Warn("notifier.circuit", "from", string(n.state), "to", string(to), "failures", n.consecutiveFailures)
	}
	n.state = to
}
