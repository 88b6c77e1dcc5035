package circuit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzzdr/options-risk-engine/pkg/utils/circuit"
)

func TestBreakerOpensAfterMaxFailures(t *testing.T) {
	b := circuit.NewBreaker("test", circuit.Config{MaxFailures: 3, Timeout: time.Minute})

	fail := func() error { return assert.AnError }
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, b.Do(fail), assert.AnError)
	}
	assert.Equal(t, circuit.StateOpen, b.CurrentState())

	// rejected without running the function
	called := false
	err := b.Do(func() error { called = true; return nil })
	assert.ErrorIs(t, err, circuit.ErrOpen)
	assert.False(t, called)
}

func TestBreakerRecoversThroughProbe(t *testing.T) {
	b := circuit.NewBreaker("test", circuit.Config{MaxFailures: 1, Timeout: 10 * time.Millisecond})

	require.Error(t, b.Do(func() error { return assert.AnError }))
	require.Equal(t, circuit.StateOpen, b.CurrentState())

	time.Sleep(20 * time.Millisecond)

	// the probe succeeds and closes the breaker
	require.NoError(t, b.Do(func() error { return nil }))
	assert.Equal(t, circuit.StateClosed, b.CurrentState())
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	b := circuit.NewBreaker("test", circuit.Config{MaxFailures: 1, Timeout: 10 * time.Millisecond})

	require.Error(t, b.Do(func() error { return assert.AnError }))
	time.Sleep(20 * time.Millisecond)

	require.Error(t, b.Do(func() error { return assert.AnError }))
	assert.Equal(t, circuit.StateOpen, b.CurrentState())
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := circuit.NewBreaker("test", circuit.Config{MaxFailures: 2, Timeout: time.Minute})

	require.Error(t, b.Do(func() error { return assert.AnError }))
	require.NoError(t, b.Do(func() error { return nil }))
	require.Error(t, b.Do(func() error { return assert.AnError }))

	// one failure after a success stays below the threshold
	assert.Equal(t, circuit.StateClosed, b.CurrentState())
}
