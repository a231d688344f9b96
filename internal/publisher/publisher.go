package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fjod/thread-storefront/domain"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultTopic         = "order-placed"
	EventTypeOrderPlaced = "OrderPlaced"
)

type OrderPlacedEvent struct {
	OrderID        string                `json:"order_id"`
	OrderNumber    string                `json:"order_number"`
	UserID         string                `json:"user_id"`
	CustomerEmail  string                `json:"customer_email"`
	Items          []domain.LineItem     `json:"items"`
	Subtotal       decimal.Decimal       `json:"subtotal"`
	ShippingCost   decimal.Decimal       `json:"shipping_cost"`
	Tax            decimal.Decimal       `json:"tax"`
	Total          decimal.Decimal       `json:"total"`
	ShippingMethod domain.ShippingMethod `json:"shipping_method"`
	PlacedAt       time.Time             `json:"placed_at"`
}

func NewOrderPlacedEvent(order domain.Order) OrderPlacedEvent {
	return OrderPlacedEvent{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		UserID:         order.UserID,
		CustomerEmail:  order.CustomerEmail,
		Items:          order.Items,
		Subtotal:       order.Subtotal,
		ShippingCost:   order.ShippingCost,
		Tax:            order.Tax,
		Total:          order.Total,
		ShippingMethod: order.ShippingMethod,
		PlacedAt:       order.CreatedAt,
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
	logger *zap.Logger
}

func NewKafkaPublisher(topic string, logger *zap.Logger, brokers ...string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}
	return &KafkaPublisher{writer: w, logger: logger}
}

// PublishOrderPlaced writes one event keyed by user id, so a user's orders
// land on one partition in order.
func (p *KafkaPublisher) PublishOrderPlaced(ctx context.Context, order domain.Order) error {
	payload, err := json.Marshal(NewOrderPlacedEvent(order))
	if err != nil {
		return fmt.Errorf("marshal order.placed: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(order.UserID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventTypeOrderPlaced)},
			{Key: "order_number", Value: []byte(order.OrderNumber)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write order.placed: %w", err)
	}
	p.logger.Debug("order.placed published", zap.String("order_number", order.OrderNumber))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Noop drops events. Used when KAFKA_BROKERS is empty.
type Noop struct{}

func (Noop) PublishOrderPlaced(context.Context, domain.Order) error {
	return nil
}

func (Noop) Close() error {
	return nil
}
