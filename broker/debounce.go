package broker

import (
	"sync"
	"time"
)

// DefaultDebounceInterval is the quiet period after which a burst of
// readings is considered settled.
const DefaultDebounceInterval = 800 * time.Millisecond

// debouncer collapses bursts of lines into the single most recent line:
// each arrival resets the deadline, and when a full interval passes with
// no further line, the last-seen line is emitted.
type debouncer struct {
	interval time.Duration
	emit     func(line string)

	mu    sync.Mutex
	last  string
	gen   uint64
	timer *time.Timer
}

func newDebouncer(interval time.Duration, emit func(line string)) *debouncer {
	return &debouncer{interval: interval, emit: emit}
}

func (d *debouncer) Write(line string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = line
	// Stop() returning false does not mean the old flush already ran: it
	// may still be blocked on d.mu. The generation bump detaches it either
	// way, so each burst is emitted at most once.
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, func() { d.flush(gen) })
}

func (d *debouncer) flush(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		// A later write superseded this flush.
		d.mu.Unlock()
		return
	}
	line := d.last
	d.timer = nil
	d.mu.Unlock()

	// Emit outside the lock: the sink fans out to subscribers.
	d.emit(line)
}
