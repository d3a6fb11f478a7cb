package transport

// Callbacks carry player events back into the transport. Every Load gets a
// fresh set bound to that load's generation, so a slow player finishing an
// old load cannot touch the session that replaced it.
type Callbacks struct {
	// OnLoaded reports the media duration in seconds once it is known.
	OnLoaded func(duration float64)
	// OnTick reports the playback position in seconds while playing.
	OnTick func(position float64)
	// OnEnded fires when the media plays to its end.
	OnEnded func()
	// OnError reports a load or playback failure.
	OnError func(err error)
}

// Player abstracts the audio backend under the transport. Load is
// asynchronous: it returns once the load is underway and the duration
// arrives later through OnLoaded. Implementations must not invoke callbacks
// synchronously from inside Load, Play, Pause, SetPosition, SetRate or Stop.
type Player interface {
	Load(src string, cb Callbacks) error
	Play() error
	Pause() error
	SetPosition(seconds float64) error
	SetRate(rate float64) error
	Stop() error
}
