package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newDriver() (*Driver, *fakeClock) {
	c := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewDriver(100*time.Millisecond, c.now), c
}

func TestTick_MeasuresAndCaps(t *testing.T) {
	d, c := newDriver()
	assert.Zero(t, d.Tick(), "not started")

	d.Start()
	c.advance(16 * time.Millisecond)
	assert.Equal(t, 16*time.Millisecond, d.Tick())

	c.advance(2 * time.Second)
	assert.Equal(t, 100*time.Millisecond, d.Tick())

	c.advance(-time.Second)
	assert.Zero(t, d.Tick())
}

func TestPauseResume_DeltaStartsAtResume(t *testing.T) {
	d, c := newDriver()
	d.Start()
	c.advance(16 * time.Millisecond)
	d.Tick()

	d.Pause()
	for i := 0; i < 10; i++ {
		c.advance(time.Second)
		assert.Zero(t, d.Tick())
	}
	assert.True(t, d.Paused())

	d.Resume()
	c.advance(10 * time.Millisecond)
	assert.Equal(t, 10*time.Millisecond, d.Tick())
}

func TestStop(t *testing.T) {
	d, c := newDriver()
	d.Start()
	assert.True(t, d.Running())
	d.Stop()
	c.advance(50 * time.Millisecond)
	assert.Zero(t, d.Tick())
	assert.False(t, d.Running())
}

func TestFPS(t *testing.T) {
	d, c := newDriver()
	d.Start()
	for i := 0; i < 60; i++ {
		c.advance(time.Second / 60)
		d.Tick()
	}
	// the window closes on the first tick at or past one second
	c.advance(time.Second / 60)
	d.Tick()
	assert.InDelta(t, 60, d.FPS(), 1)
}
