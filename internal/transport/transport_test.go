package transport

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seslikitap/seslikitap-server/internal/domain"
	apperrors "github.com/seslikitap/seslikitap-server/internal/errors"
)

// fakePlayer records calls and lets the test fire callbacks by hand.
type fakePlayer struct {
	mu        sync.Mutex
	cb        Callbacks
	loads     []string
	positions []float64
	rates     []float64
	plays     int
	pauses    int
	stops     int
	loadErr   error
}

func (f *fakePlayer) Load(src string, cb Callbacks) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return f.loadErr
	}
	f.loads = append(f.loads, src)
	f.cb = cb
	return nil
}

func (f *fakePlayer) Play() error  { f.mu.Lock(); defer f.mu.Unlock(); f.plays++; return nil }
func (f *fakePlayer) Pause() error { f.mu.Lock(); defer f.mu.Unlock(); f.pauses++; return nil }
func (f *fakePlayer) Stop() error  { f.mu.Lock(); defer f.mu.Unlock(); f.stops++; return nil }

func (f *fakePlayer) SetPosition(seconds float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.positions = append(f.positions, seconds)
	return nil
}

func (f *fakePlayer) SetRate(rate float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rates = append(f.rates, rate)
	return nil
}

func (f *fakePlayer) callbacks() Callbacks {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb
}

func (f *fakePlayer) lastPosition() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.positions) == 0 {
		return -1
	}
	return f.positions[len(f.positions)-1]
}

// eventLog collects listener events.
type eventLog struct {
	mu     sync.Mutex
	ticks  []TickEvent
	endeds []EndedEvent
	states []Snapshot
}

func (e *eventLog) listener() Listener {
	return Listener{
		OnTick: func(ev TickEvent) {
			e.mu.Lock()
			e.ticks = append(e.ticks, ev)
			e.mu.Unlock()
		},
		OnEnded: func(ev EndedEvent) {
			e.mu.Lock()
			e.endeds = append(e.endeds, ev)
			e.mu.Unlock()
		},
		OnState: func(s Snapshot) {
			e.mu.Lock()
			e.states = append(e.states, s)
			e.mu.Unlock()
		},
	}
}

func (e *eventLog) tickCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.ticks)
}

func testBook(topics int) domain.Book {
	b := domain.Book{ID: "bk-1", Title: "Nutuk"}
	for i := 0; i < topics; i++ {
		b.Topics = append(b.Topics, domain.Topic{
			ID:    "tp-" + string(rune('a'+i)),
			Title: "Bölüm",
			Audio: "nutuk/part.mp3",
		})
	}
	return b
}

func newTestTransport(t *testing.T) (*Transport, *fakePlayer, *eventLog) {
	t.Helper()
	fp := &fakePlayer{}
	events := &eventLog{}
	tr := New(fp, "https://media.example.com", 1.0, slog.New(slog.DiscardHandler))
	tr.SetListener(events.listener())
	return tr, fp, events
}

func TestLoad_EntersLoading(t *testing.T) {
	tr, fp, _ := newTestTransport(t)

	require.NoError(t, tr.Load(testBook(3), 1, 25, true))

	snap := tr.Snapshot()
	assert.Equal(t, StateLoading, snap.State)
	assert.Equal(t, "bk-1", snap.BookID)
	assert.Equal(t, 1, snap.TopicIndex)
	assert.False(t, snap.Playing)
	require.Len(t, fp.loads, 1)
	assert.Equal(t, "https://media.example.com/nutuk/part.mp3", fp.loads[0])
}

func TestLoad_RejectsBookWithoutTopics(t *testing.T) {
	tr, _, _ := newTestTransport(t)

	err := tr.Load(domain.Book{ID: "bk-empty", Topics: []domain.Topic{}}, 0, 0, true)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, StateIdle, tr.Snapshot().State)
}

func TestLoad_ClampsTopicIndex(t *testing.T) {
	tr, _, _ := newTestTransport(t)

	require.NoError(t, tr.Load(testBook(3), 99, 0, false))
	assert.Equal(t, 2, tr.Snapshot().TopicIndex)
}

func TestLoaded_AppliesDeferredStartAndAutoplay(t *testing.T) {
	tr, fp, _ := newTestTransport(t)
	require.NoError(t, tr.Load(testBook(3), 0, 25, true))

	fp.callbacks().OnLoaded(200)

	snap := tr.Snapshot()
	assert.Equal(t, StatePlaying, snap.State)
	assert.Equal(t, 200.0, snap.Duration)
	assert.Equal(t, 50.0, snap.Position)
	assert.Equal(t, 50.0, fp.lastPosition())
	assert.Equal(t, 1, fp.plays)
}

func TestLoaded_WithoutAutoplayParksPaused(t *testing.T) {
	tr, fp, _ := newTestTransport(t)
	require.NoError(t, tr.Load(testBook(3), 0, 0, false))

	fp.callbacks().OnLoaded(120)

	assert.Equal(t, StatePaused, tr.Snapshot().State)
	assert.Zero(t, fp.plays)
}

func TestSeekDuringLoading_ReplacesDeferredStart(t *testing.T) {
	tr, fp, _ := newTestTransport(t)
	require.NoError(t, tr.Load(testBook(3), 0, 25, true))

	require.NoError(t, tr.Seek(80))
	fp.callbacks().OnLoaded(100)

	assert.Equal(t, 80.0, tr.Snapshot().Position)
	assert.Equal(t, 80.0, fp.lastPosition())
}

func TestTicksSuppressedWhileLoading(t *testing.T) {
	tr, fp, events := newTestTransport(t)
	require.NoError(t, tr.Load(testBook(3), 0, 0, true))

	fp.callbacks().OnTick(3.2)
	assert.Zero(t, events.tickCount())
	assert.Zero(t, tr.Snapshot().Position)

	fp.callbacks().OnLoaded(100)
	fp.callbacks().OnTick(3.2)
	assert.Equal(t, 1, events.tickCount())
	assert.Equal(t, 3.2, tr.Snapshot().Position)
}

func TestStaleLoadCallbacksAreDropped(t *testing.T) {
	tr, fp, _ := newTestTransport(t)
	require.NoError(t, tr.Load(testBook(3), 0, 0, true))
	stale := fp.callbacks()

	// A second load supersedes the first before it finishes.
	require.NoError(t, tr.Load(testBook(3), 2, 0, true))

	stale.OnLoaded(500)
	snap := tr.Snapshot()
	assert.Equal(t, StateLoading, snap.State)
	assert.Equal(t, 2, snap.TopicIndex)
	assert.Zero(t, snap.Duration)

	stale.OnTick(42)
	assert.Zero(t, tr.Snapshot().Position)

	stale.OnEnded()
	assert.Equal(t, StateLoading, tr.Snapshot().State)
}

func TestTogglePlay(t *testing.T) {
	tr, fp, _ := newTestTransport(t)

	assert.ErrorIs(t, tr.TogglePlay(), apperrors.ErrValidation)

	require.NoError(t, tr.Load(testBook(3), 0, 0, true))
	fp.callbacks().OnLoaded(100)
	require.Equal(t, StatePlaying, tr.Snapshot().State)

	require.NoError(t, tr.TogglePlay())
	assert.Equal(t, StatePaused, tr.Snapshot().State)
	assert.Equal(t, 1, fp.pauses)

	require.NoError(t, tr.TogglePlay())
	assert.Equal(t, StatePlaying, tr.Snapshot().State)
	assert.Equal(t, 2, fp.plays)
}

func TestTogglePlayDuringLoading_FlipsIntent(t *testing.T) {
	tr, fp, _ := newTestTransport(t)
	require.NoError(t, tr.Load(testBook(3), 0, 0, true))

	require.NoError(t, tr.TogglePlay())
	fp.callbacks().OnLoaded(100)

	assert.Equal(t, StatePaused, tr.Snapshot().State)
	assert.Zero(t, fp.plays)
}

func TestEnded_AdvancesToNextTopic(t *testing.T) {
	tr, fp, events := newTestTransport(t)
	require.NoError(t, tr.Load(testBook(3), 0, 0, true))
	fp.callbacks().OnLoaded(100)

	fp.callbacks().OnEnded()

	snap := tr.Snapshot()
	assert.Equal(t, 1, snap.TopicIndex)
	assert.Equal(t, StateLoading, snap.State)
	require.Len(t, events.endeds, 1)
	assert.False(t, events.endeds[0].Exhausted)

	// The next topic autoplays once loaded.
	fp.callbacks().OnLoaded(90)
	assert.Equal(t, StatePlaying, tr.Snapshot().State)
}

func TestEnded_LastTopicGoesIdle(t *testing.T) {
	tr, fp, events := newTestTransport(t)
	require.NoError(t, tr.Load(testBook(2), 1, 0, true))
	fp.callbacks().OnLoaded(100)

	fp.callbacks().OnEnded()

	snap := tr.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.BookID)
	require.Len(t, events.endeds, 1)
	assert.True(t, events.endeds[0].Exhausted)
	assert.Equal(t, 1, fp.stops)
}

func TestSelectTopic(t *testing.T) {
	tr, fp, _ := newTestTransport(t)
	require.NoError(t, tr.Load(testBook(3), 0, 0, true))
	fp.callbacks().OnLoaded(100)

	require.NoError(t, tr.SelectTopic(2))
	assert.Equal(t, 2, tr.Snapshot().TopicIndex)

	assert.ErrorIs(t, tr.SelectTopic(9), apperrors.ErrValidation)
}

func TestNextAtLastTopicIsNoop(t *testing.T) {
	tr, fp, _ := newTestTransport(t)
	require.NoError(t, tr.Load(testBook(2), 1, 0, true))
	fp.callbacks().OnLoaded(100)

	require.NoError(t, tr.Next())
	assert.Equal(t, 1, tr.Snapshot().TopicIndex)
	assert.Len(t, fp.loads, 1)
}

func TestPrev(t *testing.T) {
	tr, fp, _ := newTestTransport(t)
	require.NoError(t, tr.Load(testBook(3), 2, 0, true))
	fp.callbacks().OnLoaded(100)

	require.NoError(t, tr.Prev())
	assert.Equal(t, 1, tr.Snapshot().TopicIndex)
	fp.callbacks().OnLoaded(100)
	require.NoError(t, tr.Prev())
	fp.callbacks().OnLoaded(100)
	fp.callbacks().OnTick(42)

	// At the first topic, Prev leaves everything untouched.
	before := tr.Snapshot()
	require.NoError(t, tr.Prev())
	assert.Equal(t, before, tr.Snapshot())
	assert.Equal(t, 42.0, tr.Snapshot().Position)
	assert.Len(t, fp.loads, 3)
}

func TestSeekWhilePlaying(t *testing.T) {
	tr, fp, _ := newTestTransport(t)
	require.NoError(t, tr.Load(testBook(1), 0, 0, true))
	fp.callbacks().OnLoaded(200)

	require.NoError(t, tr.Seek(50))
	assert.Equal(t, 100.0, tr.Snapshot().Position)
	assert.Equal(t, 100.0, fp.lastPosition())
}

func TestSetRate(t *testing.T) {
	tr, fp, _ := newTestTransport(t)

	assert.ErrorIs(t, tr.SetRate(0), apperrors.ErrValidation)

	require.NoError(t, tr.SetRate(1.5))
	assert.Equal(t, 1.5, tr.Snapshot().Rate)
	assert.Contains(t, fp.rates, 1.5)
}

func TestStop(t *testing.T) {
	tr, fp, _ := newTestTransport(t)
	require.NoError(t, tr.Load(testBook(3), 0, 0, true))
	cb := fp.callbacks()
	cb.OnLoaded(100)

	require.NoError(t, tr.Stop())
	snap := tr.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.BookID)
	assert.Equal(t, 1, fp.stops)

	// Callbacks from the stopped session are dead.
	cb.OnTick(50)
	assert.Zero(t, tr.Snapshot().Position)
}

func TestSnapshotLabels(t *testing.T) {
	tr, fp, _ := newTestTransport(t)
	require.NoError(t, tr.Load(testBook(1), 0, 0, false))
	fp.callbacks().OnLoaded(3700)
	fp.callbacks().OnTick(0) // paused transports still accept ticks

	require.NoError(t, tr.Seek(50))
	snap := tr.Snapshot()
	assert.Equal(t, "30:50", snap.PositionLabel)
	assert.Equal(t, "1:01:40", snap.DurationLabel)
}

func TestPlayerErrorParksSession(t *testing.T) {
	tr, fp, _ := newTestTransport(t)
	require.NoError(t, tr.Load(testBook(3), 0, 0, true))
	fp.callbacks().OnLoaded(100)
	fp.callbacks().OnTick(30)

	fp.callbacks().OnError(assert.AnError)

	// The book survives the error so the user can retry explicitly.
	snap := tr.Snapshot()
	assert.Equal(t, StatePaused, snap.State)
	assert.Equal(t, "bk-1", snap.BookID)
	assert.Equal(t, 30.0, snap.Position)

	require.NoError(t, tr.TogglePlay())
	assert.Equal(t, StatePlaying, tr.Snapshot().State)
}

func TestPlayerErrorWhileLoadingStaysLoading(t *testing.T) {
	tr, fp, _ := newTestTransport(t)
	require.NoError(t, tr.Load(testBook(1), 0, 0, true))

	fp.callbacks().OnError(assert.AnError)

	snap := tr.Snapshot()
	assert.Equal(t, StateLoading, snap.State)
	assert.Equal(t, "bk-1", snap.BookID)
}
