package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"github.com/ulot2/postflow/internal/models"
	"github.com/ulot2/postflow/internal/publisher"
)

type fakeReconciler struct {
	statuses map[int64]string
	err      error
}

func newFakeReconciler() *fakeReconciler {
	return &fakeReconciler{statuses: make(map[int64]string)}
}

func (f *fakeReconciler) SetStatus(ctx context.Context, postID int64, status string) error {
	if f.err != nil {
		return f.err
	}
	f.statuses[postID] = status
	return nil
}

type stubPublisher struct {
	err   error
	calls int
}

func (s *stubPublisher) Publish(ctx context.Context, req *publisher.Request) error {
	s.calls++
	return s.err
}

func publishTask(t *testing.T, req *publisher.Request) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(req)
	require.NoError(t, err)
	return asynq.NewTask(TaskTypePublishPost, payload)
}

func TestHandlePublishPostTaskSuccess(t *testing.T) {
	pub := &stubPublisher{}
	registry := publisher.NewRegistry()
	registry.Register(models.PlatformLinkedIn, pub)

	rec := newFakeReconciler()
	q := NewQueue(registry, rec)

	task := publishTask(t, &publisher.Request{
		PostID:   1,
		Content:  "hello",
		Platform: models.PlatformLinkedIn,
	})

	require.NoError(t, q.HandlePublishPostTask(context.Background(), task))
	require.Equal(t, 1, pub.calls)
	require.Equal(t, models.PostStatusPublished, rec.statuses[1])
}

func TestHandlePublishPostTaskPublishFailure(t *testing.T) {
	pub := &stubPublisher{err: errors.New("token expired")}
	registry := publisher.NewRegistry()
	registry.Register(models.PlatformLinkedIn, pub)

	rec := newFakeReconciler()
	q := NewQueue(registry, rec)

	task := publishTask(t, &publisher.Request{
		PostID:   1,
		Platform: models.PlatformLinkedIn,
	})

	err := q.HandlePublishPostTask(context.Background(), task)
	require.Error(t, err)
	// The status is written and the error still propagates, marked so
	// asynq does not retry the attempt.
	require.Equal(t, models.PostStatusFailed, rec.statuses[1])
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Contains(t, err.Error(), "token expired")
}

func TestHandlePublishPostTaskStatusWriteFailure(t *testing.T) {
	pub := &stubPublisher{}
	registry := publisher.NewRegistry()
	registry.Register(models.PlatformLinkedIn, pub)

	rec := newFakeReconciler()
	rec.err = errors.New("database unavailable")
	q := NewQueue(registry, rec)

	task := publishTask(t, &publisher.Request{
		PostID:   1,
		Platform: models.PlatformLinkedIn,
	})

	err := q.HandlePublishPostTask(context.Background(), task)
	require.Error(t, err)
	// The post went out; a retry would publish it a second time, so the
	// error must not be retryable even though the status write failed.
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Equal(t, 1, pub.calls)
}

func TestHandlePublishPostTaskUnknownPlatform(t *testing.T) {
	rec := newFakeReconciler()
	q := NewQueue(publisher.NewRegistry(), rec)

	task := publishTask(t, &publisher.Request{
		PostID:   1,
		Platform: models.PlatformPinterest,
	})

	err := q.HandlePublishPostTask(context.Background(), task)
	require.Error(t, err)
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Equal(t, models.PostStatusFailed, rec.statuses[1])
}

func TestHandlePublishPostTaskBadPayload(t *testing.T) {
	rec := newFakeReconciler()
	q := NewQueue(publisher.NewRegistry(), rec)

	task := asynq.NewTask(TaskTypePublishPost, []byte("not-json"))

	err := q.HandlePublishPostTask(context.Background(), task)
	require.Error(t, err)
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Empty(t, rec.statuses)
}
