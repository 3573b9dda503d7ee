package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSignalManager_ResetArmsFreshContext(t *testing.T) {
	sm := NewSignalManager()
	defer sm.Stop()

	first := sm.Context()
	assert.NoError(t, first.Err())

	sm.Reset()
	second := sm.Context()
	assert.NotSame(t, first, second)
	assert.ErrorIs(t, first.Err(), context.Canceled, "the previous context is released")
	assert.NoError(t, second.Err())

	sm.Stop()
	assert.ErrorIs(t, second.Err(), context.Canceled)
}

func TestSignalManager_CheckRaceTimesOut(t *testing.T) {
	sm := NewSignalManager()
	defer sm.Stop()

	start := time.Now()
	sm.CheckRace()
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
}

func TestSignalManager_CheckRaceReturnsWhenCancelled(t *testing.T) {
	sm := NewSignalManager()
	sm.Stop()

	start := time.Now()
	sm.CheckRace()
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}
