package queue

import (
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"
	"github.com/ulot2/postflow/internal/publisher"
)

// Enqueuer hands a claimed post off to the worker pool. The scheduler depends
// on this rather than the asynq client directly.
type Enqueuer interface {
	EnqueuePublish(req *publisher.Request) error
}

type asynqEnqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(client *asynq.Client) Enqueuer {
	return &asynqEnqueuer{client: client}
}

func (e *asynqEnqueuer) EnqueuePublish(req *publisher.Request) error {
	taskPayload, err := json.Marshal(req)
	if err != nil {
		return err
	}

	// Failed attempts are rescheduled by the user, never by asynq.
	task := asynq.NewTask(TaskTypePublishPost, taskPayload, asynq.MaxRetry(0))

	if _, err := e.client.Enqueue(task); err != nil {
		return err
	}

	log.Printf("Publish task enqueued: post %d (%s)", req.PostID, req.Platform)
	return nil
}
