package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"communityhub/internal/metrics"
	"communityhub/internal/queue"
)

// JobKind marks notification delivery jobs on the shared queue.
const JobKind = "notification"

// Job is the queued payload for one notification delivery.
type Job struct {
	UserID  string `json:"user_id"`
	Type    Type   `json:"type"`
	Message string `json:"message"`
}

// Notifier publishes notification jobs for the worker to persist. Workflows
// treat Send as best-effort: a publish failure never rolls back the steps that
// already committed.
type Notifier struct {
	q queue.Queue
}

// NewNotifier creates a notifier over the given queue.
func NewNotifier(q queue.Queue) *Notifier {
	return &Notifier{q: q}
}

// Send enqueues one notification for the user.
func (n *Notifier) Send(ctx context.Context, userID string, typ Type, message string) error {
	if userID == "" {
		return fmt.Errorf("user id required")
	}
	body, err := json.Marshal(Job{UserID: userID, Type: typ, Message: message})
	if err != nil {
		return err
	}
	if err := n.q.Publish(ctx, queue.Message{Kind: JobKind, Body: body}); err != nil {
		return err
	}
	metrics.NotificationsQueued.Inc()
	return nil
}
