package providers

import (
	"context"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/seslikitap/seslikitap-server/internal/cache"
	"github.com/seslikitap/seslikitap-server/internal/catalog"
	"github.com/seslikitap/seslikitap-server/internal/config"
	"github.com/seslikitap/seslikitap-server/internal/logger"
	remotesqlite "github.com/seslikitap/seslikitap-server/internal/remote/sqlite"
	"github.com/seslikitap/seslikitap-server/internal/sse"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle
// management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{Manager: manager, cancel: cancel}, nil
}

// CacheHandle wraps the catalog cache with shutdown capability.
type CacheHandle struct {
	*cache.Cache
}

// Shutdown implements do.Shutdownable.
func (h *CacheHandle) Shutdown() error {
	return h.Close()
}

// ProvideCache provides the local durable catalog cache.
func ProvideCache(i do.Injector) (*CacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	path := filepath.Join(cfg.Storage.CachePath, "catalog")
	c, err := cache.New(path, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Catalog cache opened", "path", path)
	return &CacheHandle{Cache: c}, nil
}

// RemoteStoreHandle wraps the embedded remote store with shutdown capability.
type RemoteStoreHandle struct {
	*remotesqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *RemoteStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideRemoteStore provides the embedded remote document store.
func ProvideRemoteStore(i do.Injector) (*RemoteStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	path := filepath.Join(cfg.Storage.DataPath, "remote.db")
	store, err := remotesqlite.Open(path, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Remote store opened", "path", path)
	return &RemoteStoreHandle{Store: store}, nil
}

// ProvideReconciler provides the catalog reconciler over the local cache.
func ProvideReconciler(i do.Injector) (*catalog.Reconciler, error) {
	log := do.MustInvoke[*logger.Logger](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)

	return catalog.NewReconciler(cacheHandle.Cache, log.Logger), nil
}
