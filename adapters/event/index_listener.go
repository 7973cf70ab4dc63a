package event

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/blog-search/pkg/logger"
)

// Reloader re-reads the persisted index snapshot.
type Reloader interface {
	Reload(ctx context.Context) error
}

// ListenIndexEvents reloads r whenever another process announces a persisted
// index change on search.events. Events stamped with instanceID are ignored.
func ListenIndexEvents(ctx context.Context, reader MessageReader, instanceID string, r Reloader, log logger.Logger) error {
	return Consume(ctx, reader, log, func(ctx context.Context, msg kafka.Message) error {
		payload, err := DecodeIndexEvent(msg)
		if err != nil {
			return err
		}
		if payload.Source == instanceID {
			return nil
		}
		if err := r.Reload(ctx); err != nil {
			return err
		}
		log.Info("Index reloaded after remote change",
			zap.String("event_type", string(payload.EventType)),
			zap.String("source", payload.Source),
		)
		return nil
	})
}
