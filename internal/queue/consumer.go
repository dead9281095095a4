package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "os"
    "path/filepath"
    "strings"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// AuditConsumer drains the audit queue into <dir>/audit.log, one line per
// message.
type AuditConsumer struct {
    URL   string
    Queue string
    Dir   string

    mu sync.Mutex // serializes appends to the log file
}

// Run connects to RabbitMQ, declares the queue (durable) and consumes
// until ctx is cancelled.  Broken connections are redialled with
// exponential backoff.  Messages that cannot be handled are rejected
// without requeue so the consumer does not spin on them.
func (a *AuditConsumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(a.URL)
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

        err = a.consumeLoop(ctx, conn)
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

func (a *AuditConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Printf("audit-consumer: set QoS failed: %v", err)
    }

    if _, err := ch.QueueDeclare(a.Queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(a.Queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := a.Handle(d.Type, d.MessageId, d.Body); err != nil {
                log.Printf("audit-consumer: handle message %s failed: %v", d.MessageId, err)
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// Handle formats one message and appends it to the audit log.
func (a *AuditConsumer) Handle(msgType, msgID string, body []byte) error {
    line, err := FormatLine(msgType, msgID, body)
    if err != nil {
        return err
    }

    a.mu.Lock()
    defer a.mu.Unlock()
    if err := os.MkdirAll(a.Dir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", a.Dir, err)
    }
    f, err := os.OpenFile(filepath.Join(a.Dir, "audit.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatLine renders a message as a single newline-terminated log line.
func FormatLine(msgType, msgID string, body []byte) (string, error) {
    switch msgType {
    case TypeTicketsPurchased:
        var ev TicketsPurchasedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return "", fmt.Errorf("unmarshal %s: %w", msgType, err)
        }
        seats := make([]string, 0, len(ev.Tickets))
        for _, t := range ev.Tickets {
            seats = append(seats, t.Seat+"="+t.QRCode)
        }
        return fmt.Sprintf("[%s] Tickets purchased | id=%s | customer=%s | event=%q | date=%s | venue=%q | payment=%s | total=%s | seats=[%s]\n",
            ev.PurchasedAt, msgID, ev.CustomerEmail, ev.EventName, ev.EventDate, ev.VenueName, ev.PaymentMethod,
            ev.Total, strings.Join(seats, ",")), nil

    case TypeTicketCheckedIn:
        var ev TicketCheckedInEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return "", fmt.Errorf("unmarshal %s: %w", msgType, err)
        }
        return fmt.Sprintf("[%s] Ticket checked in | id=%s | qr=%s | gate=%q | event=%q | date=%s | seat=%s\n",
            ev.CheckedInAt, msgID, ev.QRCode, ev.Gate, ev.EventName, ev.EventDate, ev.Seat), nil

    case TypeEventStatusChanged:
        var ev EventStatusChangedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return "", fmt.Errorf("unmarshal %s: %w", msgType, err)
        }
        return fmt.Sprintf("[%s] Event status changed | id=%s | event=%q | date=%s | venue=%q | %s -> %s\n",
            ev.ChangedAt, msgID, ev.EventName, ev.EventDate, ev.VenueName, ev.OldStatus, ev.NewStatus), nil
    }
    return "", fmt.Errorf("unknown message type %q", msgType)
}
