// Package toast queues short user-facing notifications in redis and hands
// them back on the next page render.
package toast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"parkreserve/internal/logger"
	"parkreserve/internal/metrics"
)

type Severity string

const (
	SeverityDefault     Severity = "default"
	SeverityDestructive Severity = "destructive"
)

type Notification struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Severity    Severity `json:"severity"`
}

func Success(title, description string) Notification {
	return Notification{Title: title, Description: description, Severity: SeverityDefault}
}

func Failure(title, description string) Notification {
	return Notification{Title: title, Description: description, Severity: SeverityDestructive}
}

func (n Notification) Destructive() bool {
	return n.Severity == SeverityDestructive
}

const defaultTTL = 10 * time.Minute

type Queue struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewQueue(client *redis.Client) *Queue {
	return &Queue{redis: client, ttl: defaultTTL}
}

func key(recipient string) string {
	return "toast:" + recipient
}

func (q *Queue) Push(ctx context.Context, recipient string, n Notification) error {
	if n.Severity == "" {
		n.Severity = SeverityDefault
	}

	data, err := json.Marshal(n)
	if err != nil {
		return err
	}

	k := key(recipient)
	if err := q.redis.RPush(ctx, k, string(data)).Err(); err != nil {
		return fmt.Errorf("queue toast: %w", err)
	}
	if err := q.redis.Expire(ctx, k, q.ttl).Err(); err != nil {
		return fmt.Errorf("expire toasts: %w", err)
	}

	metrics.RecordToast(string(n.Severity))
	return nil
}

// Drain returns queued notifications oldest first and removes only those it
// returned, so a toast pushed concurrently survives until the next render.
func (q *Queue) Drain(ctx context.Context, recipient string) ([]Notification, error) {
	k := key(recipient)
	raw, err := q.redis.LRange(ctx, k, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read toasts: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	if err := q.redis.LTrim(ctx, k, int64(len(raw)), -1).Err(); err != nil {
		return nil, fmt.Errorf("trim toasts: %w", err)
	}

	out := make([]Notification, 0, len(raw))
	for _, item := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			logger.Warn("dropping malformed toast", "recipient", recipient, "error", err)
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

type Pusher interface {
	Push(ctx context.Context, recipient string, n Notification) error
}

// For binds the queue to one recipient.
func (q *Queue) For(recipient string) *Notifier {
	return NewNotifier(q, recipient)
}

// Notifier delivers to a single recipient. Delivery is fire-and-forget:
// failures are logged, never returned.
type Notifier struct {
	pusher    Pusher
	recipient string
}

func NewNotifier(p Pusher, recipient string) *Notifier {
	return &Notifier{pusher: p, recipient: recipient}
}

func (n *Notifier) Notify(ctx context.Context, note Notification) {
	if err := n.pusher.Push(ctx, n.recipient, note); err != nil {
		logger.Warn("toast not delivered", "recipient", n.recipient, "title", note.Title, "error", err)
	}
}
