package pje

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker()

	for i := 0; i < 4; i++ {
		cb.RecordFailure()
		assert.True(t, cb.CanAttempt(), "breaker must stay closed below the threshold")
	}

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
	assert.False(t, cb.CanAttempt())
}

func TestCircuitBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker()

	for i := 0; i < 4; i++ {
		cb.RecordFailure()
	}
	cb.RecordSuccess()
	cb.RecordFailure()

	assert.Equal(t, StateClosed, cb.State())
	assert.True(t, cb.CanAttempt())
}

func TestBreakerSetKeysPerTribunal(t *testing.T) {
	set := newBreakerSet()

	for i := 0; i < 5; i++ {
		set.forTribunal(3).RecordFailure()
	}

	assert.Equal(t, StateOpen, set.forTribunal(3).State())
	assert.Equal(t, StateClosed, set.forTribunal(4).State())
}
