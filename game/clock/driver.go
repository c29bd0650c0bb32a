package clock

import (
	"sync"
	"time"
)

// DefaultMaxDelta caps a single frame's delta-time.
const DefaultMaxDelta = 100 * time.Millisecond

// Driver turns wall-clock readings into capped per-frame delta-times and
// tracks frames per second. While paused every tick yields zero, and
// Resume restarts measurement from the resume instant so the time spent
// paused never reaches the simulation.
type Driver struct {
	mu       sync.Mutex
	maxDelta time.Duration
	now      func() time.Time

	running bool
	paused  bool
	last    time.Time

	frames      int
	windowStart time.Time
	fps         int
}

// NewDriver creates a stopped Driver. A nil now uses time.Now.
func NewDriver(maxDelta time.Duration, now func() time.Time) *Driver {
	if maxDelta <= 0 {
		maxDelta = DefaultMaxDelta
	}
	if now == nil {
		now = time.Now
	}
	return &Driver{maxDelta: maxDelta, now: now}
}

// Start begins measuring from now.
func (d *Driver) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	t := d.now()
	d.running = true
	d.paused = false
	d.last = t
	d.windowStart = t
	d.frames = 0
}

// Stop halts the driver; later ticks yield zero.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = false
}

// Pause freezes delta-time at zero until Resume.
func (d *Driver) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.paused = true
}

// Resume unpauses and resets the last-tick timestamp to now.
func (d *Driver) Resume() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.paused = false
	d.last = d.now()
}

// Running reports whether Start was called without a later Stop.
func (d *Driver) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Paused reports whether the driver is paused.
func (d *Driver) Paused() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.paused
}

// Tick records a frame and returns the capped time since the previous one.
func (d *Driver) Tick() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return 0
	}
	t := d.now()
	d.countFrame(t)
	if d.paused {
		return 0
	}
	dt := t.Sub(d.last)
	d.last = t
	if dt < 0 {
		return 0
	}
	if dt > d.maxDelta {
		return d.maxDelta
	}
	return dt
}

func (d *Driver) countFrame(t time.Time) {
	d.frames++
	if elapsed := t.Sub(d.windowStart); elapsed >= time.Second {
		d.fps = int(float64(d.frames) / elapsed.Seconds())
		d.frames = 0
		d.windowStart = t
	}
}

// FPS returns the frame rate measured over the last full window.
func (d *Driver) FPS() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fps
}
