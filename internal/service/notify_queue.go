package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pokrovsky/timetable-api/pkg/jobs"
)

const (
	jobNotifyNew     = "notify_new"
	jobNotifyChanged = "notify_changed"
)

type changePayload struct {
	Date string
	Tab  string
}

// QueuedNotifier decouples the watcher from broadcast latency by pushing
// notification events onto a background queue. Failed broadcasts get the
// queue's retry policy instead of stalling the watch cycle.
type QueuedNotifier struct {
	queue *jobs.Queue
}

// NewNotifyQueue builds the dispatch queue over a NotifyService.
func NewNotifyQueue(target *NotifyService, cfg jobs.QueueConfig) (*jobs.Queue, *QueuedNotifier) {
	queue := jobs.NewQueue("notify", func(ctx context.Context, job jobs.Job) error {
		switch job.Type {
		case jobNotifyNew:
			date, _ := job.Payload.(string)
			if date == "" {
				return fmt.Errorf("notify job %s has no date payload", job.ID)
			}
			return target.NotifyNew(ctx, date)
		case jobNotifyChanged:
			change, ok := job.Payload.(changePayload)
			if !ok || change.Date == "" {
				return fmt.Errorf("notify job %s has no change payload", job.ID)
			}
			return target.NotifyChanged(ctx, change.Date, change.Tab)
		default:
			return fmt.Errorf("unknown notify job type %q", job.Type)
		}
	}, cfg)
	return queue, &QueuedNotifier{queue: queue}
}

// NotifyNew enqueues a new-date broadcast.
func (n *QueuedNotifier) NotifyNew(_ context.Context, date string) error {
	return n.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobNotifyNew,
		Payload: date,
	})
}

// NotifyChanged enqueues a per-sheet change broadcast.
func (n *QueuedNotifier) NotifyChanged(_ context.Context, date, tab string) error {
	return n.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobNotifyChanged,
		Payload: changePayload{Date: date, Tab: tab},
	})
}
