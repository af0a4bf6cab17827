package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xdnjs7/snack-order-service/internal/order"
)

const (
	OrderCreatedQueue  = "order.created"
	OrderDecidedQueue  = "order.decided"
	OrderCanceledQueue = "order.canceled"
)

func MustDialRabbit(url string) *amqp.Connection {
	if url == "" {
		url = os.Getenv("RABBITMQ_URL")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		log.Fatalf("connect to RabbitMQ: %v", err)
	}
	return conn
}

type Publisher struct {
	ch *amqp.Channel
}

func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	// Declare queues so publish never fails due to missing infra
	for _, q := range []string{OrderCreatedQueue, OrderDecidedQueue, OrderCanceledQueue} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("declare %s: %w", q, err)
		}
	}

	return &Publisher{ch: ch}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishOrderCreated(ctx context.Context, o *order.Order) error {
	ev := OrderCreated{
		EventType:   "OrderCreated",
		OrderID:     o.ID,
		RequesterID: o.RequesterID,
		CompanyID:   o.CompanyID,
		TotalPrice:  o.TotalPrice,
		DeliveryFee: o.DeliveryFee,
		Instant:     o.Instant,
		Timestamp:   time.Now().UTC(),
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal OrderCreated: %w", err)
	}
	return p.publishJSON(ctx, OrderCreatedQueue, body)
}

func (p *Publisher) PublishOrderDecided(ctx context.Context, o *order.Order) error {
	ev := OrderDecided{
		EventType:    "OrderDecided",
		OrderID:      o.ID,
		CompanyID:    o.CompanyID,
		ApproverID:   o.ApproverID,
		Status:       o.Status.String(),
		AdminMessage: o.AdminMessage,
		Timestamp:    time.Now().UTC(),
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal OrderDecided: %w", err)
	}
	return p.publishJSON(ctx, OrderDecidedQueue, body)
}

func (p *Publisher) PublishOrderCanceled(ctx context.Context, o *order.Order, canceledBy string) error {
	ev := OrderCanceled{
		EventType:  "OrderCanceled",
		OrderID:    o.ID,
		CanceledBy: canceledBy,
		Timestamp:  time.Now().UTC(),
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal OrderCanceled: %w", err)
	}
	return p.publishJSON(ctx, OrderCanceledQueue, body)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		"",         // default exchange
		routingKey, // queue name as routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
