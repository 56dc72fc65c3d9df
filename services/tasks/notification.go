package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeNotificationDeliver = "notification:deliver"
	QueueNotifications      = "notifications"

	deliverTimeout = 2 * time.Minute
	maxRetryDelay  = 10 * time.Minute
)

// DeliverPayload is the job body; it only references the persisted notification.
type DeliverPayload struct {
	NotificationID string `json:"notificationId"`
}

// TaskIDFor returns the asynq task id used for a notification.
func TaskIDFor(notificationID string) string {
	return "notification:" + notificationID
}

func NewDeliverTask(notificationID string, maxRetry int) (*asynq.Task, []asynq.Option, error) {
	if notificationID == "" {
		return nil, nil, errors.New("notification id is required")
	}
	b, err := json.Marshal(DeliverPayload{NotificationID: notificationID})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeNotificationDeliver, b)
	opts := []asynq.Option{
		asynq.Queue(QueueNotifications),
		asynq.MaxRetry(maxRetry),
		asynq.TaskID(TaskIDFor(notificationID)),
		asynq.Timeout(deliverTimeout),
	}
	return task, opts, nil
}

func ParseDeliverPayload(task *asynq.Task) (DeliverPayload, error) {
	var p DeliverPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("invalid deliver payload: %w", err)
	}
	if p.NotificationID == "" {
		return p, errors.New("invalid deliver payload: missing notificationId")
	}
	return p, nil
}

// RetryDelay backs off exponentially from 10s and caps at 10 minutes.
func RetryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	if n < 0 {
		n = 0
	}
	d := time.Duration(math.Pow(2, float64(n))) * 10 * time.Second
	if d <= 0 || d > maxRetryDelay {
		return maxRetryDelay
	}
	return d
}

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqQueue enqueues delivery jobs on Redis through asynq.
type AsynqQueue struct {
	client   Enqueuer
	maxRetry int
}

func NewAsynqQueue(client Enqueuer, maxRetry int) *AsynqQueue {
	if maxRetry < 0 {
		maxRetry = 0
	}
	return &AsynqQueue{client: client, maxRetry: maxRetry}
}

// Enqueue schedules delivery of the notification. A job already queued for the same id is not duplicated.
func (q *AsynqQueue) Enqueue(ctx context.Context, notificationID string) error {
	task, opts, err := NewDeliverTask(notificationID, q.maxRetry)
	if err != nil {
		return err
	}
	if _, err := q.client.EnqueueContext(ctx, task, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("failed to enqueue %s: %w", TypeNotificationDeliver, err)
	}
	return nil
}
