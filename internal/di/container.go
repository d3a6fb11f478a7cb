// Package di provides dependency injection configuration for the SesliKitap
// server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/seslikitap/seslikitap-server/internal/catalog"
	"github.com/seslikitap/seslikitap-server/internal/config"
	"github.com/seslikitap/seslikitap-server/internal/di/providers"
	"github.com/seslikitap/seslikitap-server/internal/logger"
	"github.com/seslikitap/seslikitap-server/internal/media"
	"github.com/seslikitap/seslikitap-server/internal/progress"
	"github.com/seslikitap/seslikitap-server/internal/transport"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideCache)
	do.Provide(injector, providers.ProvideRemoteStore)
	do.Provide(injector, providers.ProvideReconciler)

	// Playback layer
	do.Provide(injector, providers.ProvideProber)
	do.Provide(injector, providers.ProvidePlayer)
	do.Provide(injector, providers.ProvideTransport)
	do.Provide(injector, providers.ProvideProgressStore)
	do.Provide(injector, providers.ProvideEngine)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap triggers lazy initialization of every provided component, in
// dependency order.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.CacheHandle](injector)
	_ = do.MustInvoke[*providers.RemoteStoreHandle](injector)
	_ = do.MustInvoke[*catalog.Reconciler](injector)
	_ = do.MustInvoke[*media.Prober](injector)
	_ = do.MustInvoke[*transport.ClockPlayer](injector)
	_ = do.MustInvoke[*transport.Transport](injector)
	_ = do.MustInvoke[*progress.Store](injector)
	_ = do.MustInvoke[*providers.EngineHandle](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
