package chanlock

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestHealthyLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lock := NewWithTimeout(zerolog.Nop(), 5*time.Millisecond, 50*time.Millisecond)
	health := lock.Poll(ctx)

	for i := 0; i < 3; i++ {
		lock.Mark("step")
		<-health
	}

	assert.Equal(t, uint64(0), lock.Stalls())
	assert.Equal(t, "step", lock.LastMark())
}

func TestStalledLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lock := NewWithTimeout(zerolog.Nop(), time.Millisecond, 10*time.Millisecond)
	health := lock.Poll(ctx)
	lock.Mark("blocked")

	assert.Eventually(t, func() bool {
		return lock.Stalls() > 0
	}, time.Second, 5*time.Millisecond)

	// Picking the check up again recovers
	<-health
}
