package chanlock

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sasha-s/go-deadlock"
)

// Chanlock watches an event loop. The loop selects on the channel returned
// by Poll; if it does not pick up a health check within the timeout the
// loop is reported as stalled, together with the last phase it marked.
type Chanlock struct {
	log      zerolog.Logger
	lastMark string
	interval time.Duration
	timeout  time.Duration
	stalls   atomic.Uint64
	mutex    deadlock.RWMutex
}

const (
	TIMEOUT_DURATION      = 5 * time.Second
	HEALTH_CHECK_DURATION = 1 * time.Second
)

func New(logger zerolog.Logger) *Chanlock {
	return NewWithTimeout(logger, HEALTH_CHECK_DURATION, TIMEOUT_DURATION)
}

func NewWithTimeout(logger zerolog.Logger, interval, timeout time.Duration) *Chanlock {
	return &Chanlock{
		log:      logger,
		interval: interval,
		timeout:  timeout,
	}
}

// Mark records the phase the loop is entering.
func (c *Chanlock) Mark(name string) {
	c.mutex.Lock()
	c.lastMark = name
	c.mutex.Unlock()
}

func (c *Chanlock) LastMark() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.lastMark
}

// Stalls counts how many health checks went unanswered past the timeout.
func (c *Chanlock) Stalls() uint64 {
	return c.stalls.Load()
}

func (c *Chanlock) Poll(ctx context.Context) <-chan time.Time {
	out := make(chan time.Time)

	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				timeout := time.NewTimer(c.timeout)
				stalled := false

			wait:
				for {
					select {
					case out <- t:
						break wait
					case <-ctx.Done():
						timeout.Stop()
						return
					case <-timeout.C:
						if stalled {
							continue
						}
						stalled = true
						c.stalls.Add(1)
						event := c.log.Error()
						if mark := c.LastMark(); mark != "" {
							event = event.Str("mark", mark)
						}
						event.Msg("event loop no longer healthy")
					}
				}

				timeout.Stop()
				if stalled {
					c.log.Warn().Msg("event loop recovered")
				}
			}
		}
	}()

	return out
}
