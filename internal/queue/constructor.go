package queue

import (
	"github.com/ulot2/postflow/internal/publisher"
)

type Queue struct {
	registry *publisher.Registry
	rec      publisher.StatusReconciler
}

func NewQueue(registry *publisher.Registry, rec publisher.StatusReconciler) *Queue {
	return &Queue{
		registry: registry,
		rec:      rec,
	}
}

const TaskTypePublishPost = "publish:post"
