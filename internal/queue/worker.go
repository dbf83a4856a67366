package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/ulot2/postflow/internal/models"
	"github.com/ulot2/postflow/internal/publisher"
)

// HandlePublishPostTask runs one publish attempt end to end. The outcome is
// written through the reconciler before the error (if any) is returned, and
// every returned error carries asynq.SkipRetry: a publish attempt runs at most
// once, and failed posts wait for the user to reschedule explicitly.
func (q *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var req publisher.Request
	if err := json.Unmarshal(task.Payload(), &req); err != nil {
		return fmt.Errorf("invalid publish payload: %v: %w", err, asynq.SkipRetry)
	}

	pub, ok := q.registry.Lookup(req.Platform)
	if !ok {
		if err := q.rec.SetStatus(ctx, req.PostID, models.PostStatusFailed); err != nil {
			slog.Info(err.Error())
		}
		return fmt.Errorf("no publisher registered for platform %s: %w", req.Platform, asynq.SkipRetry)
	}

	if err := pub.Publish(ctx, &req); err != nil {
		log.Printf("Error publishing post %d to %s: %v", req.PostID, req.Platform, err)
		if recErr := q.rec.SetStatus(ctx, req.PostID, models.PostStatusFailed); recErr != nil {
			slog.Info(recErr.Error())
		}
		return fmt.Errorf("publishing post %d failed: %v: %w", req.PostID, err, asynq.SkipRetry)
	}

	// The post is live on the platform; a retry here would publish it twice.
	if err := q.rec.SetStatus(ctx, req.PostID, models.PostStatusPublished); err != nil {
		log.Printf("Post %d published but stuck in publishing, status write failed: %v", req.PostID, err)
		return fmt.Errorf("recording published status for post %d: %v: %w", req.PostID, err, asynq.SkipRetry)
	}

	return nil
}
