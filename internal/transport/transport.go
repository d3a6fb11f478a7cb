// Package transport is the playback state machine. It owns the session
// lifecycle of one playing book: which topic is loaded, whether the clock is
// running, and how player events map onto state changes.
package transport

import (
	"log/slog"
	"sync"

	"github.com/seslikitap/seslikitap-server/internal/domain"
	apperrors "github.com/seslikitap/seslikitap-server/internal/errors"
	"github.com/seslikitap/seslikitap-server/internal/util"
)

// State is the transport lifecycle state.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
)

// TickEvent is one playback position report.
type TickEvent struct {
	BookID        string  `json:"bookId"`
	TopicIndex    int     `json:"topicIndex"`
	Position      float64 `json:"position"`
	Duration      float64 `json:"duration"`
	Percent       float64 `json:"percent"`
	PositionLabel string  `json:"positionLabel"`
	DurationLabel string  `json:"durationLabel"`
}

// EndedEvent fires when a topic plays to its end. Exhausted marks the end of
// the last topic, after which the transport is idle.
type EndedEvent struct {
	BookID     string `json:"bookId"`
	TopicIndex int    `json:"topicIndex"`
	Exhausted  bool   `json:"exhausted"`
}

// Snapshot is the render-ready view of the transport.
type Snapshot struct {
	State         State   `json:"state"`
	BookID        string  `json:"bookId,omitempty"`
	TopicIndex    int     `json:"topicIndex"`
	TopicTitle    string  `json:"topicTitle,omitempty"`
	Playing       bool    `json:"playing"`
	Position      float64 `json:"position"`
	Duration      float64 `json:"duration"`
	Percent       float64 `json:"percent"`
	PositionLabel string  `json:"positionLabel"`
	DurationLabel string  `json:"durationLabel"`
	Rate          float64 `json:"rate"`
}

// Listener receives transport events. Callbacks run on the goroutine that
// triggered the change and must not call back into the transport.
type Listener struct {
	OnTick  func(TickEvent)
	OnEnded func(EndedEvent)
	OnState func(Snapshot)
}

// Transport drives a Player through the Idle/Loading/Playing/Paused
// lifecycle.
//
// Every Load bumps a generation counter and binds the player callbacks to
// that generation. Callbacks from an older generation are dropped on
// arrival, so a slow load finishing after the user moved on can never
// resurrect a stale session. Ticks are also dropped while Loading, because
// the player's clock is not trustworthy until the duration is known.
type Transport struct {
	player   Player
	baseURL  string
	listener Listener
	logger   *slog.Logger

	mu             sync.Mutex
	generation     uint64
	state          State
	book           domain.Book
	hasBook        bool
	topicIndex     int
	duration       float64
	position       float64
	rate           float64
	playIntent     bool
	pendingPercent float64
}

// New creates an idle transport over the given player.
func New(player Player, baseURL string, defaultRate float64, logger *slog.Logger) *Transport {
	if defaultRate <= 0 {
		defaultRate = 1
	}
	return &Transport{
		player:  player,
		baseURL: baseURL,
		rate:    defaultRate,
		state:   StateIdle,
		logger:  logger,
	}
}

// SetListener installs the event listener. Call before Load.
func (t *Transport) SetListener(l Listener) {
	t.mu.Lock()
	t.listener = l
	t.mu.Unlock()
}

// Load starts a new session on the given book and topic. startPercent is
// where inside the topic playback should begin; it is held until the player
// reports a duration, because a seek target in seconds cannot be computed
// before that. autoplay starts the clock as soon as the load completes.
func (t *Transport) Load(book domain.Book, topicIndex int, startPercent float64, autoplay bool) error {
	if book.TopicCount() == 0 {
		return apperrors.Validationf("book %s has no playable topics", book.ID)
	}
	topicIndex = book.ClampTopicIndex(topicIndex)
	topic, _ := book.TopicAt(topicIndex)
	startPercent = clampPercent(startPercent)

	t.mu.Lock()
	t.generation++
	gen := t.generation
	t.state = StateLoading
	t.book = book
	t.hasBook = true
	t.topicIndex = topicIndex
	t.duration = 0
	t.position = 0
	t.pendingPercent = startPercent
	t.playIntent = autoplay
	t.mu.Unlock()

	if err := t.player.Load(topic.ResolveAudio(t.baseURL), t.callbacksFor(gen)); err != nil {
		t.mu.Lock()
		if gen == t.generation {
			t.state = StateIdle
			t.hasBook = false
		}
		t.mu.Unlock()
		return apperrors.Wrapf(err, apperrors.CodeMedia, "load topic %s", topic.ID)
	}

	t.emitState()
	return nil
}

// TogglePlay flips between Playing and Paused. While Loading it flips the
// autoplay intent instead; while Idle it is an error.
func (t *Transport) TogglePlay() error {
	t.mu.Lock()
	var action func() error
	switch t.state {
	case StateIdle:
		t.mu.Unlock()
		return apperrors.Validation("no book loaded")
	case StateLoading:
		t.playIntent = !t.playIntent
	case StatePlaying:
		t.state = StatePaused
		action = t.player.Pause
	case StatePaused:
		t.state = StatePlaying
		action = t.player.Play
	}
	t.mu.Unlock()

	if action != nil {
		if err := action(); err != nil {
			t.logger.Warn("player toggle failed", "error", err.Error())
		}
	}
	t.emitState()
	return nil
}

// Seek jumps to a percent position within the current topic. While Loading
// the target is deferred, replacing any earlier deferred start.
func (t *Transport) Seek(percent float64) error {
	percent = clampPercent(percent)

	t.mu.Lock()
	if t.state == StateIdle {
		t.mu.Unlock()
		return apperrors.Validation("no book loaded")
	}
	if t.state == StateLoading {
		t.pendingPercent = percent
		t.mu.Unlock()
		return nil
	}
	pos := t.duration * percent / 100
	t.position = pos
	t.mu.Unlock()

	if err := t.player.SetPosition(pos); err != nil {
		t.logger.Warn("player seek failed", "error", err.Error())
	}
	t.emitTick()
	return nil
}

// SelectTopic loads another topic of the current book from its start.
func (t *Transport) SelectTopic(index int) error {
	t.mu.Lock()
	if !t.hasBook {
		t.mu.Unlock()
		return apperrors.Validation("no book loaded")
	}
	book := t.book
	autoplay := t.playIntent || t.state == StatePlaying
	t.mu.Unlock()

	if _, ok := book.TopicAt(index); !ok {
		return apperrors.Validationf("book %s has no topic %d", book.ID, index)
	}
	return t.Load(book, index, 0, autoplay)
}

// Next advances to the following topic. At the last topic it is a no-op.
func (t *Transport) Next() error {
	t.mu.Lock()
	if !t.hasBook {
		t.mu.Unlock()
		return apperrors.Validation("no book loaded")
	}
	next := t.topicIndex + 1
	last := next >= t.book.TopicCount()
	t.mu.Unlock()

	if last {
		return nil
	}
	return t.SelectTopic(next)
}

// Prev moves to the previous topic. At the first topic it is a no-op, same
// as Next at the last.
func (t *Transport) Prev() error {
	t.mu.Lock()
	if !t.hasBook {
		t.mu.Unlock()
		return apperrors.Validation("no book loaded")
	}
	idx := t.topicIndex
	t.mu.Unlock()

	if idx == 0 {
		return nil
	}
	return t.SelectTopic(idx - 1)
}

// SetRate changes the playback rate for the session.
func (t *Transport) SetRate(rate float64) error {
	if rate <= 0 {
		return apperrors.Validationf("playback rate must be positive, got %v", rate)
	}

	t.mu.Lock()
	t.rate = rate
	t.mu.Unlock()

	if err := t.player.SetRate(rate); err != nil {
		t.logger.Warn("player rate change failed", "error", err.Error())
	}
	t.emitState()
	return nil
}

// Stop tears the session down and returns to Idle. The generation bump
// invalidates any in-flight callbacks.
func (t *Transport) Stop() error {
	t.mu.Lock()
	if t.state == StateIdle {
		t.mu.Unlock()
		return nil
	}
	t.generation++
	t.state = StateIdle
	t.hasBook = false
	t.book = domain.Book{}
	t.duration = 0
	t.position = 0
	t.playIntent = false
	t.mu.Unlock()

	if err := t.player.Stop(); err != nil {
		t.logger.Warn("player stop failed", "error", err.Error())
	}
	t.emitState()
	return nil
}

// Snapshot returns the current render-ready view.
func (t *Transport) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Transport) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:         t.state,
		TopicIndex:    t.topicIndex,
		Playing:       t.state == StatePlaying,
		Position:      t.position,
		Duration:      t.duration,
		Percent:       percentOf(t.position, t.duration),
		PositionLabel: util.FormatClock(t.position),
		DurationLabel: util.FormatClock(t.duration),
		Rate:          t.rate,
	}
	if t.hasBook {
		snap.BookID = t.book.ID
		if topic, ok := t.book.TopicAt(t.topicIndex); ok {
			snap.TopicTitle = topic.Title
		}
	}
	return snap
}

func (t *Transport) callbacksFor(gen uint64) Callbacks {
	return Callbacks{
		OnLoaded: func(duration float64) { t.handleLoaded(gen, duration) },
		OnTick:   func(position float64) { t.handleTick(gen, position) },
		OnEnded:  func() { t.handleEnded(gen) },
		OnError:  func(err error) { t.handleError(gen, err) },
	}
}

// handleLoaded applies the deferred start position now that the duration is
// known, then starts or parks the clock per the autoplay intent.
func (t *Transport) handleLoaded(gen uint64, duration float64) {
	t.mu.Lock()
	if gen != t.generation || t.state != StateLoading {
		t.mu.Unlock()
		return
	}
	t.duration = duration
	pos := duration * t.pendingPercent / 100
	t.position = pos
	t.pendingPercent = 0
	rate := t.rate
	play := t.playIntent
	if play {
		t.state = StatePlaying
	} else {
		t.state = StatePaused
	}
	t.mu.Unlock()

	if err := t.player.SetPosition(pos); err != nil {
		t.logger.Warn("applying start position failed", "error", err.Error())
	}
	if err := t.player.SetRate(rate); err != nil {
		t.logger.Warn("applying rate failed", "error", err.Error())
	}
	if play {
		if err := t.player.Play(); err != nil {
			t.logger.Warn("autoplay failed", "error", err.Error())
		}
	}
	t.emitState()
}

// handleTick drops stale and loading-phase ticks, otherwise records the
// position and fans the event out.
func (t *Transport) handleTick(gen uint64, position float64) {
	t.mu.Lock()
	if gen != t.generation || t.state == StateLoading || t.state == StateIdle {
		t.mu.Unlock()
		return
	}
	t.position = position
	t.mu.Unlock()
	t.emitTick()
}

// handleEnded advances to the next topic, or parks the transport at Idle
// when the sequence is exhausted.
func (t *Transport) handleEnded(gen uint64) {
	t.mu.Lock()
	if gen != t.generation {
		t.mu.Unlock()
		return
	}
	book := t.book
	ended := EndedEvent{BookID: book.ID, TopicIndex: t.topicIndex}
	next := t.topicIndex + 1
	exhausted := next >= book.TopicCount()
	ended.Exhausted = exhausted
	onEnded := t.listener.OnEnded
	if exhausted {
		t.generation++
		t.state = StateIdle
		t.hasBook = false
		t.book = domain.Book{}
		t.duration = 0
		t.position = 0
		t.playIntent = false
	}
	t.mu.Unlock()

	if onEnded != nil {
		onEnded(ended)
	}
	if exhausted {
		if err := t.player.Stop(); err != nil {
			t.logger.Warn("player stop failed", "error", err.Error())
		}
		t.emitState()
		return
	}
	if err := t.Load(book, next, 0, true); err != nil {
		t.logger.Warn("advancing to next topic failed",
			"book_id", book.ID, "topic_index", next, "error", err.Error())
	}
}

// handleError logs the failure and parks the session. The book stays loaded
// so an explicit user action can retry it; only the play intent is dropped.
// A failure while Loading leaves the state at Loading until the user acts.
func (t *Transport) handleError(gen uint64, err error) {
	t.mu.Lock()
	if gen != t.generation {
		t.mu.Unlock()
		return
	}
	bookID := t.book.ID
	t.playIntent = false
	if t.state == StatePlaying {
		t.state = StatePaused
	}
	t.mu.Unlock()

	if perr := t.player.Pause(); perr != nil {
		t.logger.Warn("player pause after error failed", "error", perr.Error())
	}
	t.logger.Error("player error", "book_id", bookID, "error", err.Error())
	t.emitState()
}

func (t *Transport) emitState() {
	t.mu.Lock()
	fn := t.listener.OnState
	snap := t.snapshotLocked()
	t.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}

func (t *Transport) emitTick() {
	t.mu.Lock()
	fn := t.listener.OnTick
	ev := TickEvent{
		BookID:        t.book.ID,
		TopicIndex:    t.topicIndex,
		Position:      t.position,
		Duration:      t.duration,
		Percent:       percentOf(t.position, t.duration),
		PositionLabel: util.FormatClock(t.position),
		DurationLabel: util.FormatClock(t.duration),
	}
	t.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

func percentOf(position, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	return position / duration * 100
}

func clampPercent(p float64) float64 {
	if p < 0 || p != p {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
