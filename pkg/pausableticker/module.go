package pausableticker

import (
	"sync"
	"time"
)

// Ticker delivers ticks on C at a fixed period until stopped. While paused
// no ticks are delivered. Ticks the consumer is not ready for are dropped
// rather than queued, so a slow consumer never builds up a backlog.
type Ticker struct {
	C <-chan time.Time

	sync.Mutex
	paused bool

	pause    chan bool
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	ticker   *time.Ticker
}

func New(d time.Duration) *Ticker {
	c := make(chan time.Time, 1)
	t := &Ticker{
		C:      c,
		pause:  make(chan bool),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		ticker: time.NewTicker(d),
	}

	go t.run(c)

	return t
}

func (t *Ticker) run(c chan<- time.Time) {
	defer close(t.done)
	defer t.ticker.Stop()

	for {
		select {
		case tick := <-t.ticker.C:
			select {
			case c <- tick:
			default:
			}
		case shouldPause := <-t.pause:
			for shouldPause {
				select {
				case shouldPause = <-t.pause:
				case <-t.quit:
					return
				}
			}
		case <-t.quit:
			return
		}
	}
}

func (t *Ticker) send(pause bool) {
	select {
	case t.pause <- pause:
		t.Lock()
		t.paused = pause
		t.Unlock()
	case <-t.done:
	}
}

func (t *Ticker) Pause() {
	t.send(true)
}

func (t *Ticker) Resume() {
	t.send(false)
}

func (t *Ticker) Paused() bool {
	t.Lock()
	defer t.Unlock()
	return t.paused
}

// Stop is idempotent and returns once no more ticks can be delivered.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() {
		close(t.quit)
	})
	<-t.done
}

func (t *Ticker) Stopped() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}
