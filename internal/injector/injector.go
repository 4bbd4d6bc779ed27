//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/unseen/internal/core/observability/log"
	"github.com/zeusync/unseen/internal/session"
)

func InitializeSessionFactory(level log.Level) session.Factory {
	wire.Build(ProviderSet)
	return nil
}
