package circuit

import (
	"sync"
	"time"

	"github.com/rzzdr/options-risk-engine/pkg/utils/errors"
	"github.com/rzzdr/options-risk-engine/pkg/utils/logger"
)

// State of a circuit breaker
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateHalfOpen:
		return "HALF_OPEN"
	case StateOpen:
		return "OPEN"
	default:
		return "UNKNOWN"
	}
}

// ErrOpen is returned when the breaker rejects a call without running it
var ErrOpen = errors.Unavailable("circuit breaker is open")

// Config for a circuit breaker
type Config struct {
	// MaxFailures before the breaker opens
	MaxFailures int
	// Timeout in the open state before a probe is allowed
	Timeout time.Duration
}

// DefaultConfig returns sensible breaker defaults
func DefaultConfig() Config {
	return Config{
		MaxFailures: 5,
		Timeout:     30 * time.Second,
	}
}

// Breaker guards a flaky downstream. After MaxFailures consecutive failures
// it rejects calls for Timeout, then lets one probe through.
type Breaker struct {
	name        string
	config      Config
	state       State
	failures    int
	lastFailure time.Time
	mu          sync.Mutex
	log         *logger.Logger
}

// NewBreaker creates a closed breaker
func NewBreaker(name string, config Config) *Breaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = DefaultConfig().MaxFailures
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	return &Breaker{
		name:   name,
		config: config,
		state:  StateClosed,
		log:    logger.GetLogger("circuit." + name),
	}
}

// Do runs fn unless the breaker is open
func (b *Breaker) Do(fn func() error) error {
	if err := b.before(); err != nil {
		return err
	}
	err := fn()
	b.after(err == nil)
	return err
}

// CurrentState returns the breaker's state
func (b *Breaker) CurrentState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) before() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if time.Since(b.lastFailure) < b.config.Timeout {
			return ErrOpen
		}
		b.transition(StateHalfOpen)
	}
	return nil
}

func (b *Breaker) after(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		b.failures = 0
		if b.state != StateClosed {
			b.transition(StateClosed)
		}
		return
	}

	b.failures++
	b.lastFailure = time.Now()
	if b.state == StateHalfOpen || b.failures >= b.config.MaxFailures {
		if b.state != StateOpen {
			b.transition(StateOpen)
		}
	}
}

func (b *Breaker) transition(to State) {
	b.log.Warnf("Circuit breaker '%s': %s -> %s", b.name, b.state, to)
	b.state = to
}
