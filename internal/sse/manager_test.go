package sse

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seslikitap/seslikitap-server/internal/transport"
)

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestManager_BroadcastReachesAllClients(t *testing.T) {
	m := NewManager(discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Start(ctx)

	a, err := m.Connect("")
	require.NoError(t, err)
	b, err := m.Connect("usr-1")
	require.NoError(t, err)

	m.Emit(NewCatalogUpdatedEvent(3, 12))

	for _, client := range []*Client{a, b} {
		select {
		case ev := <-client.EventChan:
			assert.Equal(t, EventCatalogUpdated, ev.Type)
		case <-time.After(5 * time.Second):
			t.Fatal("client did not receive broadcast event")
		}
	}
}

func TestManager_UserFilteredDelivery(t *testing.T) {
	m := NewManager(discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Start(ctx)

	mine, err := m.Connect("usr-1")
	require.NoError(t, err)
	other, err := m.Connect("usr-2")
	require.NoError(t, err)

	m.Emit(NewTickEvent("usr-1", transport.TickEvent{BookID: "bk-1", Position: 12}))

	select {
	case ev := <-mine.EventChan:
		assert.Equal(t, EventPlaybackTick, ev.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("target client did not receive event")
	}

	select {
	case ev := <-other.EventChan:
		t.Fatalf("unexpected event %s for other user", ev.Type)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestManager_DisconnectClosesClient(t *testing.T) {
	m := NewManager(discard())

	c, err := m.Connect("")
	require.NoError(t, err)
	require.Equal(t, 1, m.ClientCount())

	m.Disconnect(c.ID)
	assert.Zero(t, m.ClientCount())

	select {
	case <-c.Done:
	default:
		t.Fatal("Done channel not closed on disconnect")
	}

	// Disconnecting twice is harmless.
	m.Disconnect(c.ID)
}

func TestManager_EmitAfterShutdownIsDropped(t *testing.T) {
	m := NewManager(discard())
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)

	cancel()
	require.NoError(t, m.Shutdown(context.Background()))

	// Must not panic on the closed channel.
	m.Emit(NewHeartbeatEvent())
}
