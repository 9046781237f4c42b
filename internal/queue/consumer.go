// Package queue contains the background consumer that listens to the
// auth.events queue and appends an audit trail to logs/auth.log.
package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// AuditLogPath is where the consumer appends one line per event.
var AuditLogPath = filepath.Join("logs", "auth.log")

// StartAuditConsumer connects to RabbitMQ, declares the auth.events queue
// (durable) and appends every message to AuditLogPath.  It reconnects with
// exponential backoff until ctx is cancelled.
func StartAuditConsumer(ctx context.Context, url string) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Printf("audit-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            if !sleepCtx(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Printf("audit-consumer: consume loop ended: %v; reconnecting", err)
        if !sleepCtx(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Printf("audit-consumer: set QoS failed: %v", err)
    }

    if _, err := ch.QueueDeclare(AuthEventsQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.ConsumeWithContext(ctx, AuthEventsQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        if err := HandleMessage(d.Body); err != nil {
            log.Printf("audit-consumer: handle message failed: %v", err)
            _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

// HandleMessage decodes one AuthEvent and appends it to the audit log.
func HandleMessage(body []byte) error {
    var ev AuthEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" || ev.UserID == "" {
        return errors.New("event without type or user_id")
    }
    if err := os.MkdirAll(filepath.Dir(AuditLogPath), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(AuditLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatLine renders ev as a single human-friendly log line.
func FormatLine(ev AuthEvent) string {
    line := fmt.Sprintf("[%s] %s | user_id=%s", ev.OccurredAt, ev.Type, ev.UserID)
    if ev.Email != "" {
        line += fmt.Sprintf(" | email=%q", ev.Email)
    }
    if ev.Role != "" {
        line += " | role=" + ev.Role
    }
    if ev.ActorID != "" {
        line += " | actor_id=" + ev.ActorID
    }
    return line + "\n"
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
