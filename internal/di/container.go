// Package di provides dependency injection configuration for the ReadAlong server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/readalongapp/readalong-server/internal/config"
	"github.com/readalongapp/readalong-server/internal/di/providers"
	"github.com/readalongapp/readalong-server/internal/logger"
	"github.com/readalongapp/readalong-server/internal/service"
	"github.com/readalongapp/readalong-server/internal/session"
	"github.com/readalongapp/readalong-server/internal/upstream"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)

	// Storage and streaming
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)

	// Session layer
	do.Provide(injector, providers.ProvideUpstreamClient)
	do.Provide(injector, providers.ProvideSession)
	do.Provide(injector, providers.ProvideReaderService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*upstream.Client](injector)
	_ = do.MustInvoke[*session.Session](injector)
	_ = do.MustInvoke[*service.ReaderService](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
