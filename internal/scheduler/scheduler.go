package scheduler

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/ulot2/postflow/internal/models"
	"github.com/ulot2/postflow/internal/publisher"
	"github.com/ulot2/postflow/internal/queue"
	"github.com/ulot2/postflow/internal/repository"
)

// MediaResolver turns a stored object key into a time-limited download URL.
type MediaResolver interface {
	ResolveURL(ctx context.Context, key string) (string, error)
}

// Scheduler scans for due posts on a fixed cadence and hands them to the
// publish queue. A post is claimed (scheduled -> publishing) before dispatch,
// so an overlapping tick claims zero rows and cannot double-publish.
type Scheduler struct {
	pr       repository.PostRepository
	pm       repository.PostMediaRepository
	ma       repository.MediaAssetRepository
	resolver MediaResolver
	registry *publisher.Registry
	enqueuer queue.Enqueuer
	now      func() time.Time
}

func NewScheduler(
	pr repository.PostRepository,
	pm repository.PostMediaRepository,
	ma repository.MediaAssetRepository,
	resolver MediaResolver,
	registry *publisher.Registry,
	enqueuer queue.Enqueuer) *Scheduler {
	return &Scheduler{
		pr:       pr,
		pm:       pm,
		ma:       ma,
		resolver: resolver,
		registry: registry,
		enqueuer: enqueuer,
		now:      time.Now,
	}
}

// Run is the cron entrypoint.
func (s *Scheduler) Run() {
	if err := s.Tick(context.Background()); err != nil {
		log.Printf("Scheduler tick failed: %v", err)
	}
}

func (s *Scheduler) Tick(ctx context.Context) error {
	posts, err := s.pr.ListByStatus(ctx, models.PostStatusScheduled)
	if err != nil {
		return err
	}

	now := s.now()
	for _, post := range posts {
		if post.ScheduledAt == nil || post.ScheduledAt.After(now) {
			continue
		}
		s.dispatch(ctx, post)
	}

	return nil
}

func (s *Scheduler) dispatch(ctx context.Context, post *models.Post) {
	claimed, err := s.pr.ClaimScheduled(ctx, post.ID)
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if !claimed {
		// Another scanner won the claim.
		return
	}

	if !s.registry.Supports(post.Platform) {
		if err := s.pr.UpdatePostStatus(ctx, models.PostStatusFailed, post.ID); err != nil {
			slog.Info(err.Error())
		}
		log.Printf("Post %d targets unsupported platform %s, marked failed", post.ID, post.Platform)
		return
	}

	mediaURLs, err := s.resolveMediaURLs(ctx, post.ID)
	if err != nil {
		slog.Info(err.Error())
		if err := s.pr.UpdatePostStatus(ctx, models.PostStatusFailed, post.ID); err != nil {
			slog.Info(err.Error())
		}
		return
	}

	req := &publisher.Request{
		PostID:      post.ID,
		WorkspaceID: post.WorkspaceID,
		Content:     post.Content,
		Platform:    post.Platform,
		MediaURLs:   mediaURLs,
	}

	if err := s.enqueuer.EnqueuePublish(req); err != nil {
		log.Printf("Error enqueueing publish for post %d: %v", post.ID, err)
		if err := s.pr.UpdatePostStatus(ctx, models.PostStatusFailed, post.ID); err != nil {
			slog.Info(err.Error())
		}
	}
}

// resolveMediaURLs maps the post's media references to transient URLs.
// References that no longer resolve are skipped, matching read-path behavior.
func (s *Scheduler) resolveMediaURLs(ctx context.Context, postID int64) ([]string, error) {
	postMedias, err := s.pm.ListByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}

	var urls []string
	for _, pm := range postMedias {
		asset, err := s.ma.GetByID(ctx, pm.AssetID)
		if err != nil {
			return nil, err
		}
		if asset == nil {
			slog.Info("media asset missing", "post_id", postID, "asset_id", pm.AssetID)
			continue
		}

		url, err := s.resolver.ResolveURL(ctx, asset.FileName)
		if err != nil {
			slog.Info(err.Error())
			continue
		}
		if url != "" {
			urls = append(urls, url)
		}
	}

	return urls, nil
}
