package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextState(t *testing.T) {
	tests := []struct {
		name  string
		from  SessionState
		event SessionEvent
		want  SessionState
	}{
		{"auth established starts validation", StateNoSession, EventAuthEstablished, StateValidating},
		{"valid record activates", StateValidating, EventRecordValid, StateActive},
		{"created record activates", StateValidating, EventCreated, StateActive},
		{"stale record keeps validating", StateValidating, EventRecordStale, StateValidating},
		{"create failure drops to no session", StateValidating, EventCreateFailed, StateNoSession},
		{"termination drops to no session", StateActive, EventTerminated, StateNoSession},
		{"re-auth from active revalidates", StateActive, EventAuthEstablished, StateValidating},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextState(tt.from, tt.event))
		})
	}
}

// The self-healing branch retries exactly once: a stale record leads to the
// creation path, and both creation outcomes leave the validating state.
func TestSelfHealingIsSingleRetry(t *testing.T) {
	s := nextState(StateNoSession, EventAuthEstablished)
	s = nextState(s, EventRecordStale)
	assert.Equal(t, StateValidating, s)

	assert.Equal(t, StateActive, nextState(s, EventCreated))
	assert.Equal(t, StateNoSession, nextState(s, EventCreateFailed))
}
