package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const DefaultReconcilerGroup = "storefront-cart-reconciler"

const (
	defaultRetryMin = 500 * time.Millisecond
	defaultRetryMax = 30 * time.Second
)

var errReadMessage = errors.New("read message")

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// OrderPlacedHandler processes one decoded event. A returned error is logged
// and the message is not redelivered.
type OrderPlacedHandler func(ctx context.Context, event OrderPlacedEvent) error

// Consumer reads order.placed events in a consumer group.
type Consumer struct {
	reader messageReader
	handle OrderPlacedHandler
	logger *zap.Logger

	// wait after a failed read, doubled per consecutive failure
	retryMin time.Duration
	retryMax time.Duration
}

func NewConsumer(topic, groupID string, handle OrderPlacedHandler, logger *zap.Logger, brokers ...string) *Consumer {
	if topic == "" {
		topic = DefaultTopic
	}
	if groupID == "" {
		groupID = DefaultReconcilerGroup
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{
		reader:   reader,
		handle:   handle,
		logger:   logger,
		retryMin: defaultRetryMin,
		retryMax: defaultRetryMax,
	}
}

// Run blocks until ctx is done. Failed reads back off before retrying;
// a message that fails to process is logged and skipped.
func (c *Consumer) Run(ctx context.Context) {
	retryMin, retryMax := c.retryMin, c.retryMax
	if retryMin <= 0 {
		retryMin = defaultRetryMin
	}
	if retryMax < retryMin {
		retryMax = max(defaultRetryMax, retryMin)
	}

	backoff := retryMin
	for {
		if ctx.Err() != nil {
			return
		}
		err := c.processMessage(ctx)
		if err == nil || ctx.Err() != nil {
			backoff = retryMin
			continue
		}
		if !errors.Is(err, errReadMessage) {
			c.logger.Warn("order.placed not processed", zap.Error(err))
			backoff = retryMin
			continue
		}

		c.logger.Warn("order.placed read failed", zap.Duration("retry_in", backoff), zap.Error(err))
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		backoff = min(backoff*2, retryMax)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func (c *Consumer) processMessage(ctx context.Context) error {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("%w: %w", errReadMessage, err)
	}
	if t := header(m, "event_type"); t != "" && t != EventTypeOrderPlaced {
		return nil
	}

	var event OrderPlacedEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		return fmt.Errorf("parse message at offset %d: %w", m.Offset, err)
	}
	if event.UserID == "" {
		return fmt.Errorf("order %s: missing user_id", event.OrderNumber)
	}
	return c.handle(ctx, event)
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
