package service

import (
    "context"
    "encoding/json"
    "time"

    "github.com/labstack/echo/v4"
    amqp "github.com/rabbitmq/amqp091-go"

    q "github.com/iliyamo/taskflow/internal/queue"
)

// EventPublisher delivers auth lifecycle events.  Failures never abort the
// request that produced the event.
type EventPublisher interface {
    Publish(ctx context.Context, ev q.AuthEvent) error
}

// NopPublisher drops every event.  It is used when EVENTS_ENABLED is off.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, q.AuthEvent) error { return nil }

// AMQPPublisher publishes events to the auth.events queue.  A connection is
// dialed per publish, which keeps the publisher free of reconnect state at
// the volume of auth events.
type AMQPPublisher struct {
    URL    string
    Logger echo.Logger
}

func NewAMQPPublisher(url string, logger echo.Logger) *AMQPPublisher {
    return &AMQPPublisher{URL: url, Logger: logger}
}

// Publish sends ev as a persistent JSON message.  Every error is logged and
// returned so the caller can choose to ignore it.
func (p *AMQPPublisher) Publish(ctx context.Context, ev q.AuthEvent) error {
    conn, err := amqp.Dial(p.URL)
    if err != nil {
        p.Logger.Warnf("rabbitmq: dial failed: %v", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.Logger.Warnf("rabbitmq: channel open failed: %v", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(q.AuthEventsQueue, true, false, false, false, nil); err != nil {
        p.Logger.Warnf("rabbitmq: queue declare failed: %v", err)
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Type:         ev.Type,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", q.AuthEventsQueue, false, false, pub); err != nil {
        p.Logger.Warnf("rabbitmq: publish failed: %v", err)
        return err
    }
    return nil
}

// newEvent stamps an event with the current time.
func newEvent(typ, userID, email, role, actorID string, now time.Time) q.AuthEvent {
    return q.AuthEvent{
        Type:       typ,
        UserID:     userID,
        Email:      email,
        Role:       role,
        ActorID:    actorID,
        OccurredAt: now.UTC().Format(time.RFC3339),
    }
}
