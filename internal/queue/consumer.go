package queue

import (
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

// AuditLog appends one line per reservation event to a file.
type AuditLog struct {
	Path string
	mu   sync.Mutex
}

// NewAuditLog returns an AuditLog writing to path.
func NewAuditLog(path string) *AuditLog {
	if path == "" {
		path = filepath.Join("logs", "reservations.log")
	}
	return &AuditLog{Path: path}
}

// FormatLine renders ev as a single human-friendly log line.
func FormatLine(ev ReservationEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s | reservation_id=%d | venue=%q | date=%s | time=%s | email=%s | status=%s | rank=%d",
		ev.OccurredAt, ev.Type, ev.ReservationID, ev.Venue, ev.Date, ev.Time, ev.Email, ev.Status, ev.PriorityRank)
	if ev.OriginalVenue != "" {
		fmt.Fprintf(&b, " | original_venue=%q", ev.OriginalVenue)
	}
	if ev.Reason != "" {
		fmt.Fprintf(&b, " | reason=%q", ev.Reason)
	}
	if ev.Actor != "" {
		fmt.Fprintf(&b, " | actor=%s", ev.Actor)
	}
	b.WriteByte('\n')
	return b.String()
}

// Append writes ev to the log file, creating its directory if needed.
func (a *AuditLog) Append(ev ReservationEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(a.Path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(a.Path), err)
	}
	f, err := os.OpenFile(a.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func (a *AuditLog) handleMessage(body []byte) error {
	var ev ReservationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" {
		return errors.New("event without type")
	}
	return a.Append(ev)
}

// StartAuditConsumer connects to the broker at url, declares the audit
// queue and appends every delivered event to audit.  It reconnects with
// exponential backoff and never returns; run it in its own goroutine.
func StartAuditConsumer(url string, audit *AuditLog) {
	if url == "" {
		url = DefaultURL
	}
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("audit-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := audit.consumeLoop(conn); err != nil {
			log.Printf("audit-consumer: consume loop ended: %v; reconnecting", err)
			_ = conn.Close()
			time.Sleep(2 * time.Second)
		}
	}
}

func (a *AuditLog) consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("audit-consumer: set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(AuditQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(AuditQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := a.handleMessage(d.Body); err != nil {
			log.Printf("audit-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // do not requeue poison messages
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}
