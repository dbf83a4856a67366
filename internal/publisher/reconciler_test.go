package publisher

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/ulot2/postflow/internal/models"
)

type fakePostRepo struct {
	posts map[int64]*models.Post

	statusWrites map[int64]string
}

func newReconcilerRepo(posts ...*models.Post) *fakePostRepo {
	m := make(map[int64]*models.Post)
	for _, p := range posts {
		m[p.ID] = p
	}
	return &fakePostRepo{posts: m, statusWrites: make(map[int64]string)}
}

func (f *fakePostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	return 0, errors.New("not implemented")
}

func (f *fakePostRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	return f.posts[id], nil
}

func (f *fakePostRepo) ListByStatus(ctx context.Context, status string) ([]*models.Post, error) {
	return nil, nil
}

func (f *fakePostRepo) ListByWorkspaceID(ctx context.Context, workspaceID int64) ([]*models.Post, error) {
	return nil, nil
}

func (f *fakePostRepo) ListByWorkspaceInRange(ctx context.Context, workspaceID int64, from, to time.Time) ([]*models.Post, error) {
	return nil, nil
}

func (f *fakePostRepo) Update(ctx context.Context, post *models.Post) error { return nil }

func (f *fakePostRepo) UpdatePostStatus(ctx context.Context, status string, postID int64) error {
	f.statusWrites[postID] = status
	if p, ok := f.posts[postID]; ok {
		p.Status = status
	}
	return nil
}

func (f *fakePostRepo) UpdateSchedule(ctx context.Context, postID int64, scheduledAt time.Time) error {
	return nil
}

func (f *fakePostRepo) ClaimScheduled(ctx context.Context, postID int64) (bool, error) {
	return false, nil
}

func (f *fakePostRepo) CheckByWorkspaceID(ctx context.Context, postID, workspaceID int64) (bool, error) {
	return true, nil
}

func (f *fakePostRepo) Remove(ctx context.Context, id int64) error { return nil }

func TestSetStatusWritesOutcome(t *testing.T) {
	tests := []struct {
		name   string
		status string
	}{
		{"published", models.PostStatusPublished},
		{"failed", models.PostStatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newReconcilerRepo(&models.Post{ID: 1, Status: models.PostStatusPublishing})
			rec := NewStatusReconciler(repo)

			require.NoError(t, rec.SetStatus(context.Background(), 1, tt.status))
			require.Equal(t, tt.status, repo.statusWrites[1])
		})
	}
}

func TestSetStatusUnknownPost(t *testing.T) {
	repo := newReconcilerRepo()
	rec := NewStatusReconciler(repo)

	err := rec.SetStatus(context.Background(), 42, models.PostStatusPublished)
	require.ErrorIs(t, err, ErrPostNotFound)
	require.Empty(t, repo.statusWrites)
}

func TestSetStatusRejectsNonTerminalStatus(t *testing.T) {
	repo := newReconcilerRepo(&models.Post{ID: 1, Status: models.PostStatusPublishing})
	rec := NewStatusReconciler(repo)

	for _, status := range []string{models.PostStatusDraft, models.PostStatusScheduled, models.PostStatusPublishing, "bogus"} {
		err := rec.SetStatus(context.Background(), 1, status)
		require.ErrorIs(t, err, ErrInvalidStatus)
	}
	require.Empty(t, repo.statusWrites)
}

func TestSetStatusDoesNotRequirePublishing(t *testing.T) {
	// The reconciler trusts its caller about ordering; a post that was
	// rescheduled mid-flight still takes the write.
	repo := newReconcilerRepo(&models.Post{ID: 1, Status: models.PostStatusScheduled})
	rec := NewStatusReconciler(repo)

	require.NoError(t, rec.SetStatus(context.Background(), 1, models.PostStatusPublished))
	require.Equal(t, models.PostStatusPublished, repo.statusWrites[1])
}

func TestRegistryLookup(t *testing.T) {
	registry := NewRegistry()
	pub := &LinkedInPublisher{}
	registry.Register(models.PlatformLinkedIn, pub)

	got, ok := registry.Lookup(models.PlatformLinkedIn)
	require.True(t, ok)
	require.Same(t, pub, got)

	require.True(t, registry.Supports(models.PlatformLinkedIn))
	require.False(t, registry.Supports(models.PlatformPinterest))

	_, ok = registry.Lookup(models.PlatformPinterest)
	require.False(t, ok)
}
