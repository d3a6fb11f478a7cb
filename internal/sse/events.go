// Package sse streams playback and catalog events to connected UI clients
// over Server-Sent Events.
package sse

import (
	"time"

	"github.com/seslikitap/seslikitap-server/internal/transport"
)

// EventType classifies an SSE event.
type EventType string

const (
	// EventPlaybackTick is the unthrottled position report while playing.
	EventPlaybackTick EventType = "playback.tick"
	// EventPlaybackState fires on every transport state change.
	EventPlaybackState EventType = "playback.state"
	// EventPlaybackEnded fires when a topic plays to its end.
	EventPlaybackEnded EventType = "playback.ended"
	// EventCatalogUpdated fires when a new catalog snapshot is merged.
	EventCatalogUpdated EventType = "catalog.updated"
	// EventHeartbeat keeps idle connections alive.
	EventHeartbeat EventType = "heartbeat"
)

// Event is one SSE event. UserID filters delivery to one user's clients;
// empty broadcasts to everyone.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	UserID string `json:"-"`
}

// CatalogUpdatedData is the payload for catalog.updated.
type CatalogUpdatedData struct {
	Version int64 `json:"version"`
	Books   int   `json:"books"`
}

// HeartbeatData is the payload for heartbeat events.
type HeartbeatData struct {
	ServerTime time.Time `json:"serverTime"`
}

// NewTickEvent wraps a transport tick.
func NewTickEvent(userID string, tick transport.TickEvent) Event {
	return Event{Type: EventPlaybackTick, Timestamp: time.Now(), Data: tick, UserID: userID}
}

// NewStateEvent wraps a transport snapshot.
func NewStateEvent(userID string, snap transport.Snapshot) Event {
	return Event{Type: EventPlaybackState, Timestamp: time.Now(), Data: snap, UserID: userID}
}

// NewEndedEvent wraps a topic-ended report.
func NewEndedEvent(userID string, ended transport.EndedEvent) Event {
	return Event{Type: EventPlaybackEnded, Timestamp: time.Now(), Data: ended, UserID: userID}
}

// NewCatalogUpdatedEvent announces a fresh catalog snapshot.
func NewCatalogUpdatedEvent(version int64, books int) Event {
	return Event{
		Type:      EventCatalogUpdated,
		Timestamp: time.Now(),
		Data:      CatalogUpdatedData{Version: version, Books: books},
	}
}

// NewHeartbeatEvent creates a keepalive event.
func NewHeartbeatEvent() Event {
	return Event{
		Type:      EventHeartbeat,
		Timestamp: time.Now(),
		Data:      HeartbeatData{ServerTime: time.Now()},
	}
}
