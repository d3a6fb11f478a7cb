package transport

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureDurations(m map[string]float64) DurationFunc {
	return func(src string) (float64, error) {
		if d, ok := m[src]; ok {
			return d, nil
		}
		return 0, fmt.Errorf("unknown source %s", src)
	}
}

// collector gathers clock player callbacks.
type collector struct {
	mu       sync.Mutex
	loaded   []float64
	ticks    []float64
	ended    int
	errors   []error
	loadedCh chan struct{}
	endedCh  chan struct{}
}

func newCollector() *collector {
	return &collector{
		loadedCh: make(chan struct{}, 8),
		endedCh:  make(chan struct{}, 8),
	}
}

func (c *collector) callbacks() Callbacks {
	return Callbacks{
		OnLoaded: func(d float64) {
			c.mu.Lock()
			c.loaded = append(c.loaded, d)
			c.mu.Unlock()
			c.loadedCh <- struct{}{}
		},
		OnTick: func(p float64) {
			c.mu.Lock()
			c.ticks = append(c.ticks, p)
			c.mu.Unlock()
		},
		OnEnded: func() {
			c.mu.Lock()
			c.ended++
			c.mu.Unlock()
			c.endedCh <- struct{}{}
		},
		OnError: func(err error) {
			c.mu.Lock()
			c.errors = append(c.errors, err)
			c.mu.Unlock()
			c.loadedCh <- struct{}{}
		},
	}
}

func waitSignal(t *testing.T, ch chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for player callback")
	}
}

func TestClockPlayer_LoadReportsDuration(t *testing.T) {
	p := NewClockPlayer(fixtureDurations(map[string]float64{"a.mp3": 12.5}), 10*time.Millisecond)
	c := newCollector()

	require.NoError(t, p.Load("a.mp3", c.callbacks()))
	waitSignal(t, c.loadedCh)

	c.mu.Lock()
	defer c.mu.Unlock()
	require.Len(t, c.loaded, 1)
	assert.Equal(t, 12.5, c.loaded[0])
}

func TestClockPlayer_UnknownSourceReportsError(t *testing.T) {
	p := NewClockPlayer(fixtureDurations(nil), 10*time.Millisecond)
	c := newCollector()

	require.NoError(t, p.Load("missing.mp3", c.callbacks()))
	waitSignal(t, c.loadedCh)

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Empty(t, c.loaded)
	require.Len(t, c.errors, 1)
}

func TestClockPlayer_PlaysToEnd(t *testing.T) {
	p := NewClockPlayer(fixtureDurations(map[string]float64{"a.mp3": 0.05}), 10*time.Millisecond)
	c := newCollector()

	require.NoError(t, p.Load("a.mp3", c.callbacks()))
	waitSignal(t, c.loadedCh)
	require.NoError(t, p.Play())
	waitSignal(t, c.endedCh)

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Equal(t, 1, c.ended)
	require.NotEmpty(t, c.ticks)
	assert.Equal(t, 0.05, c.ticks[len(c.ticks)-1])
}

func TestClockPlayer_PauseFreezesPosition(t *testing.T) {
	p := NewClockPlayer(fixtureDurations(map[string]float64{"a.mp3": 600}), 10*time.Millisecond)
	c := newCollector()

	require.NoError(t, p.Load("a.mp3", c.callbacks()))
	waitSignal(t, c.loadedCh)
	require.NoError(t, p.Play())

	require.Eventually(t, func() bool { return p.Position() > 0 }, 5*time.Second, 5*time.Millisecond)
	require.NoError(t, p.Pause())
	frozen := p.Position()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, frozen, p.Position())
}

func TestClockPlayer_SetPositionClampsToDuration(t *testing.T) {
	p := NewClockPlayer(fixtureDurations(map[string]float64{"a.mp3": 100}), 10*time.Millisecond)
	c := newCollector()

	require.NoError(t, p.Load("a.mp3", c.callbacks()))
	waitSignal(t, c.loadedCh)

	require.NoError(t, p.SetPosition(250))
	assert.Equal(t, 100.0, p.Position())
	require.NoError(t, p.SetPosition(-5))
	assert.Equal(t, 0.0, p.Position())
}

func TestClockPlayer_StopResets(t *testing.T) {
	p := NewClockPlayer(fixtureDurations(map[string]float64{"a.mp3": 600}), 10*time.Millisecond)
	c := newCollector()

	require.NoError(t, p.Load("a.mp3", c.callbacks()))
	waitSignal(t, c.loadedCh)
	require.NoError(t, p.Play())
	require.NoError(t, p.Stop())

	assert.Equal(t, 0.0, p.Position())
}
