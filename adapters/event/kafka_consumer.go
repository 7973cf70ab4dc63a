package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/blog-search/internal/config"
	"github.com/khoahotran/blog-search/pkg/logger"
)

// ErrSkipMessage tells Consume to commit a message without handling it.
var ErrSkipMessage = errors.New("skip message")

func readerConfig(cfg config.Config, topic, groupID string) kafka.ReaderConfig {
	return kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	}
}

func NewReader(cfg config.Config, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(readerConfig(cfg, topic, groupID))
}

// tailRetention is how long the broker keeps offsets of a tail reader's group
// after its process goes away.
const tailRetention = time.Hour

func tailReaderConfig(cfg config.Config, topic, groupID string) kafka.ReaderConfig {
	rc := readerConfig(cfg, topic, groupID)
	rc.StartOffset = kafka.LastOffset
	rc.RetentionTime = tailRetention
	return rc
}

// NewTailReader joins a per-process group that starts at the end of topic, so
// a restarted process only sees events published after it came up.
func NewTailReader(cfg config.Config, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(tailReaderConfig(cfg, topic, groupID))
}

// MessageReader is the part of *kafka.Reader that Consume needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Backoff between attempts at a message whose handler failed.
var (
	retryInitialBackoff = 500 * time.Millisecond
	retryMaxBackoff     = 30 * time.Second
)

// Consume feeds messages to handle until ctx is done. A message is committed
// after handle succeeds or returns ErrSkipMessage. Any other error retries the
// same message with exponential backoff, so a later offset is never committed
// past a message that was not handled.
func Consume(ctx context.Context, reader MessageReader, log logger.Logger, handle func(ctx context.Context, msg kafka.Message) error) error {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error("Failed to read message from Kafka", err)
			continue
		}

		log.Debug("Received message", zap.String("topic", msg.Topic), zap.String("key", string(msg.Key)))

		if err := handleWithRetry(ctx, msg, log, handle); err != nil {
			return err
		}
		commitMessage(ctx, reader, msg, log)
	}
}

// handleWithRetry returns nil once msg may be committed, or ctx.Err() if ctx
// ends first.
func handleWithRetry(ctx context.Context, msg kafka.Message, log logger.Logger, handle func(ctx context.Context, msg kafka.Message) error) error {
	backoff := retryInitialBackoff
	for attempt := 1; ; attempt++ {
		err := handle(ctx, msg)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrSkipMessage):
			log.Warn("Skipping message", zap.String("topic", msg.Topic), zap.Int64("offset", msg.Offset), zap.Error(err))
			return nil
		}

		log.Error("Failed to process message, retrying", err,
			zap.String("topic", msg.Topic),
			zap.Int64("offset", msg.Offset),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff = min(backoff*2, retryMaxBackoff)
	}
}

func commitMessage(ctx context.Context, reader MessageReader, msg kafka.Message, log logger.Logger) {
	if err := reader.CommitMessages(ctx, msg); err != nil {
		log.Error("Failed to commit message", err, zap.Int64("offset", msg.Offset))
	}
}

// DecodePostEvent unmarshals a post.events message. Malformed payloads come
// back wrapped in ErrSkipMessage.
func DecodePostEvent(msg kafka.Message) (PostEventPayload, error) {
	var payload PostEventPayload
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		return payload, fmt.Errorf("%w: decode post event: %v", ErrSkipMessage, err)
	}
	if payload.PostID <= 0 {
		return payload, fmt.Errorf("%w: post event without post_id", ErrSkipMessage)
	}
	return payload, nil
}

func DecodeIndexEvent(msg kafka.Message) (IndexEventPayload, error) {
	var payload IndexEventPayload
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		return payload, fmt.Errorf("%w: decode index event: %v", ErrSkipMessage, err)
	}
	return payload, nil
}
