package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/seslikitap/seslikitap-server/internal/catalog"
	"github.com/seslikitap/seslikitap-server/internal/config"
	"github.com/seslikitap/seslikitap-server/internal/engine"
	"github.com/seslikitap/seslikitap-server/internal/logger"
	"github.com/seslikitap/seslikitap-server/internal/media"
	"github.com/seslikitap/seslikitap-server/internal/progress"
	"github.com/seslikitap/seslikitap-server/internal/seed"
	"github.com/seslikitap/seslikitap-server/internal/transport"
)

// ProvideProber provides the audio duration prober for local media files.
func ProvideProber(i do.Injector) (*media.Prober, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return media.NewProber(cfg.Playback.MediaPath, log.Logger), nil
}

// ProvidePlayer provides the clock player driving the transport.
func ProvidePlayer(i do.Injector) (*transport.ClockPlayer, error) {
	prober := do.MustInvoke[*media.Prober](i)
	return transport.NewClockPlayer(prober.DurationFunc(), 0), nil
}

// ProvideTransport provides the playback transport.
func ProvideTransport(i do.Injector) (*transport.Transport, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	player := do.MustInvoke[*transport.ClockPlayer](i)

	return transport.New(player, cfg.Playback.BaseAudioURL, cfg.Playback.DefaultRate, log.Logger), nil
}

// ProvideProgressStore provides the session progress store.
func ProvideProgressStore(i do.Injector) (*progress.Store, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	remoteHandle := do.MustInvoke[*RemoteStoreHandle](i)

	return progress.NewStore(remoteHandle.Store, cfg.Playback.ThrottleInterval, cfg.Playback.DefaultRate, log.Logger), nil
}

// EngineHandle wraps the engine with its seed watcher lifecycle.
type EngineHandle struct {
	*engine.Engine
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *EngineHandle) Shutdown() error {
	if h.cancel != nil {
		h.cancel()
	}
	h.Engine.Close()
	return nil
}

// ProvideEngine assembles and starts the playback engine: seed baseline,
// cached catalog, remote feed, and optionally a watcher re-applying the seed
// file on change.
func ProvideEngine(i do.Injector) (*EngineHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	reconciler := do.MustInvoke[*catalog.Reconciler](i)
	progressStore := do.MustInvoke[*progress.Store](i)
	tr := do.MustInvoke[*transport.Transport](i)
	remoteHandle := do.MustInvoke[*RemoteStoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	eng := engine.New(reconciler, progressStore, tr, remoteHandle.Store, sseHandle.Manager, log.Logger)

	if cfg.Catalog.SeedPath != "" {
		books, err := seed.Load(cfg.Catalog.SeedPath, log.Logger)
		if err != nil {
			log.Warn("seed catalog unavailable, starting without baseline",
				"path", cfg.Catalog.SeedPath, "error", err.Error())
		} else {
			eng.SetBaseline(books)
			log.Info("Seed catalog loaded", "path", cfg.Catalog.SeedPath, "books", len(books))
		}
	}

	if err := eng.Start(context.Background()); err != nil {
		return nil, err
	}

	handle := &EngineHandle{Engine: eng}

	if cfg.Catalog.WatchSeed && cfg.Catalog.SeedPath != "" {
		ctx, cancel := context.WithCancel(context.Background())
		handle.cancel = cancel
		watcher := seed.NewWatcher(cfg.Catalog.SeedPath, log.Logger)
		go func() {
			if err := watcher.Run(ctx, eng.SetBaseline); err != nil && ctx.Err() == nil {
				log.Warn("seed watcher stopped", "error", err.Error())
			}
		}()
		log.Info("Watching seed catalog", "path", cfg.Catalog.SeedPath)
	}

	return handle, nil
}
