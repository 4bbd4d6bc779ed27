package bus

import (
	"time"

	"github.com/zeusync/unseen/internal/core/observability/log"
)

// LogObserver writes one debug entry per delivery and a warning when handlers fail.
type LogObserver struct {
	logger log.Log
}

func NewLogObserver(logger log.Log) *LogObserver {
	return &LogObserver{logger: logger}
}

func (o *LogObserver) OnPublish(string, Event) {}

func (o *LogObserver) OnDelivered(eventType string, handlers int, err error, duration time.Duration) {
	if err != nil {
		o.logger.Warn("event handlers failed",
			log.String("event_type", eventType),
			log.Int("handlers", handlers),
			log.Error(err),
		)
		return
	}
	o.logger.Debug("event delivered",
		log.String("event_type", eventType),
		log.Int("handlers", handlers),
		log.Duration("duration", duration),
	)
}
