package providers

import (
	"github.com/samber/do/v2"

	"github.com/readalongapp/readalong-server/internal/config"
	"github.com/readalongapp/readalong-server/internal/logger"
	"github.com/readalongapp/readalong-server/internal/service"
	"github.com/readalongapp/readalong-server/internal/session"
	"github.com/readalongapp/readalong-server/internal/upstream"
)

// ProvideReaderService provides the session orchestration service.
func ProvideReaderService(i do.Injector) (*service.ReaderService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sess := do.MustInvoke[*session.Session](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	pipeline := do.MustInvoke[*upstream.Client](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	return service.NewReaderService(sess, storeHandle.Store, pipeline, cfg, sseHandle.Manager, log.Logger), nil
}
