package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/unseen/internal/core/events/bus"
	"github.com/zeusync/unseen/internal/core/observability/log"
	"github.com/zeusync/unseen/internal/session"
)

var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideBus,
	session.NewFactory,
	wire.Bind(new(log.Log), new(*log.Logger)),
)

// ProvideLogger builds and installs the process logger.
func ProvideLogger(level log.Level) *log.Logger {
	return log.New(level)
}

// ProvideBus returns a bus that logs every delivery through logger.
func ProvideBus(logger log.Log) bus.EventBus {
	b := bus.New()
	b.AddObserver(bus.NewLogObserver(logger))
	return b
}
