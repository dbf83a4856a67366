package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ulot2/postflow/internal/models"
	"github.com/ulot2/postflow/internal/repository"
)

var (
	ErrPostNotFound  = errors.New("post not found")
	ErrInvalidStatus = errors.New("status must be published or failed")
)

// StatusReconciler is the single write path from a publish outcome back to the
// post record.
type StatusReconciler interface {
	SetStatus(ctx context.Context, postID int64, status string) error
}

type statusReconciler struct {
	pr repository.PostRepository
}

func NewStatusReconciler(pr repository.PostRepository) StatusReconciler {
	return &statusReconciler{pr: pr}
}

// SetStatus writes a terminal status for a post. It verifies the post exists
// but does not require the previous status to be "publishing"; transition
// ordering is enforced by the scheduler's claim, not here.
func (r *statusReconciler) SetStatus(ctx context.Context, postID int64, status string) error {
	if status != models.PostStatusPublished && status != models.PostStatusFailed {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	post, err := r.pr.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		slog.Info("reconciler called for unknown post", "post_id", postID)
		return fmt.Errorf("%w: %d", ErrPostNotFound, postID)
	}

	return r.pr.UpdatePostStatus(ctx, status, postID)
}
