package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/ulot2/postflow/internal/models"
	"github.com/ulot2/postflow/internal/repository"
	"github.com/ulot2/postflow/internal/transfer"
)

const scheduledTimeLayout = "2006-01-02T15:04"

type PostService interface {
	CreatePost(ctx context.Context, userID int64, pc *transfer.PostCreation, files []*multipart.FileHeader) (int64, error)
	List(ctx context.Context, userID, workspaceID int64) ([]*transfer.PostResponse, error)
	ListInRange(ctx context.Context, userID, workspaceID int64, from, to time.Time) ([]*transfer.PostResponse, error)
	PostInfo(ctx context.Context, userID, workspaceID, postID int64) (*transfer.PostResponse, error)
	Update(ctx context.Context, userID int64, pu *transfer.PostUpdate) error
	Reschedule(ctx context.Context, userID, workspaceID, postID int64, scheduledAt time.Time) error
	Remove(ctx context.Context, userID, workspaceID, postID int64) error
}

type postService struct {
	db *sql.DB
	pr repository.PostRepository
	ws repository.WorkspaceRepository
	ma repository.MediaAssetRepository
	pm repository.PostMediaRepository
	r2 R2Service
}

func NewPostService(
	db *sql.DB,
	pr repository.PostRepository,
	ws repository.WorkspaceRepository,
	ma repository.MediaAssetRepository,
	pm repository.PostMediaRepository,
	r2 R2Service) PostService {
	return &postService{
		db: db,
		pr: pr,
		ws: ws,
		ma: ma,
		pm: pm,
		r2: r2,
	}
}

func (s *postService) CreatePost(ctx context.Context, userID int64, pc *transfer.PostCreation, files []*multipart.FileHeader) (int64, error) {
	if pc == nil {
		err := errors.New("post creation data is nil")
		slog.Error(err.Error())
		return 0, err
	}
	if pc.Content == "" {
		err := errors.New("content cannot be empty")
		slog.Info(err.Error())
		return 0, err
	}
	if !models.IsValidPlatform(pc.Platform) {
		err := fmt.Errorf("invalid platform: %s", pc.Platform)
		slog.Info(err.Error())
		return 0, err
	}
	if pc.Status != models.PostStatusDraft && pc.Status != models.PostStatusScheduled {
		err := fmt.Errorf("new posts must be draft or scheduled, got %s", pc.Status)
		slog.Info(err.Error())
		return 0, err
	}

	// A scheduled post must carry its schedule time.
	var scheduledAt *time.Time
	if pc.ScheduledAt != "" {
		t, err := time.Parse(scheduledTimeLayout, pc.ScheduledAt)
		if err != nil {
			err = fmt.Errorf("invalid scheduled time format: %w", err)
			slog.Error(err.Error())
			return 0, err
		}
		scheduledAt = &t
	} else if pc.Status == models.PostStatusScheduled {
		err := errors.New("scheduled posts require a schedule time")
		slog.Info(err.Error())
		return 0, err
	}

	if err := s.checkWorkspace(ctx, pc.WorkspaceID, userID); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	post := models.Post{
		WorkspaceID: pc.WorkspaceID,
		AuthorID:    userID,
		Content:     pc.Content,
		Platform:    pc.Platform,
		Status:      pc.Status,
		ScheduledAt: scheduledAt,
	}

	postID, err := s.pr.Create(ctx, tx, &post)
	if err != nil {
		return 0, fmt.Errorf("error creating post: %w", err)
	}

	if err = s.processFiles(ctx, tx, pc.WorkspaceID, postID, files); err != nil {
		return 0, fmt.Errorf("error processing files: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return postID, nil
}

func (s *postService) processFiles(ctx context.Context, tx *sql.Tx, workspaceID, postID int64, files []*multipart.FileHeader) error {
	allowedTypes := map[string]struct{}{
		"jpeg": {}, "jpg": {}, "png": {},
	}

	for i, file := range files {
		fileContent, err := file.Open()
		if err != nil {
			return fmt.Errorf("error opening file: %w", err)
		}
		defer fileContent.Close()

		fileBytes, err := io.ReadAll(fileContent)
		if err != nil {
			return fmt.Errorf("error reading file content: %w", err)
		}

		fileType, err := filetype.Match(fileBytes)
		if err != nil || fileType == types.Unknown {
			return fmt.Errorf("unsupported file type: %w", err)
		}
		if _, ok := allowedTypes[fileType.Extension]; !ok {
			return fmt.Errorf("file type %s is not allowed", fileType.Extension)
		}

		assetID, err := s.saveFile(ctx, tx, workspaceID, fileType.MIME.Value, fileBytes)
		if err != nil {
			return fmt.Errorf("error uploading file: %w", err)
		}

		postMedia := models.PostMedia{
			PostID:       postID,
			AssetID:      assetID,
			DisplayOrder: i,
		}
		if err := s.pm.Create(ctx, tx, &postMedia); err != nil {
			return fmt.Errorf("error saving media file: %w", err)
		}
	}
	return nil
}

func (s *postService) saveFile(ctx context.Context, tx *sql.Tx, workspaceID int64, fileType string, file []byte) (int64, error) {
	key, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	if err = s.r2.UploadToR2(ctx, key, file, fileType); err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	ma := models.MediaAsset{
		WorkspaceID: workspaceID,
		FileName:    key,
		FileType:    fileType,
		FileSize:    int64(len(file)),
	}

	assetID, err := s.ma.Create(ctx, tx, &ma)
	if err != nil {
		return 0, err
	}

	return assetID, nil
}

func (s *postService) List(ctx context.Context, userID, workspaceID int64) ([]*transfer.PostResponse, error) {
	if err := s.checkWorkspace(ctx, workspaceID, userID); err != nil {
		return nil, err
	}

	posts, err := s.pr.ListByWorkspaceID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("Error getting posts")
	}

	return s.withMediaURLs(ctx, posts), nil
}

func (s *postService) ListInRange(ctx context.Context, userID, workspaceID int64, from, to time.Time) ([]*transfer.PostResponse, error) {
	if err := s.checkWorkspace(ctx, workspaceID, userID); err != nil {
		return nil, err
	}

	posts, err := s.pr.ListByWorkspaceInRange(ctx, workspaceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("Error getting posts")
	}

	return s.withMediaURLs(ctx, posts), nil
}

func (s *postService) PostInfo(ctx context.Context, userID, workspaceID, postID int64) (*transfer.PostResponse, error) {
	if err := s.checkPost(ctx, userID, workspaceID, postID); err != nil {
		return nil, err
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("Error getting post info")
	}
	if post == nil {
		// Removed between the ownership check and this read.
		err = errors.New("Post doesn't exist")
		slog.Info(err.Error())
		return nil, err
	}

	responses := s.withMediaURLs(ctx, []*models.Post{post})
	return responses[0], nil
}

func (s *postService) Update(ctx context.Context, userID int64, pu *transfer.PostUpdate) error {
	if pu == nil {
		return errors.New("post update data is nil")
	}
	if !models.IsValidStatus(pu.Status) {
		err := fmt.Errorf("invalid status: %s", pu.Status)
		slog.Info(err.Error())
		return err
	}

	if err := s.checkPost(ctx, userID, pu.WorkspaceID, pu.PostID); err != nil {
		return err
	}

	var scheduledAt *time.Time
	if pu.ScheduledAt != "" {
		t, err := time.Parse(scheduledTimeLayout, pu.ScheduledAt)
		if err != nil {
			err = fmt.Errorf("invalid scheduled time format: %w", err)
			slog.Error(err.Error())
			return err
		}
		scheduledAt = &t
	} else if pu.Status == models.PostStatusScheduled {
		err := errors.New("scheduled posts require a schedule time")
		slog.Info(err.Error())
		return err
	}

	post := models.Post{
		ID:          pu.PostID,
		Content:     pu.Content,
		Status:      pu.Status,
		ScheduledAt: scheduledAt,
	}

	if err := s.pr.Update(ctx, &post); err != nil {
		return fmt.Errorf("Error updating post")
	}

	return nil
}

// Reschedule puts a post back on the calendar: new schedule time, status reset
// to scheduled. A failed or published post re-enters the due-scan exactly like
// a fresh one.
func (s *postService) Reschedule(ctx context.Context, userID, workspaceID, postID int64, scheduledAt time.Time) error {
	if err := s.checkPost(ctx, userID, workspaceID, postID); err != nil {
		return err
	}

	if err := s.pr.UpdateSchedule(ctx, postID, scheduledAt); err != nil {
		return fmt.Errorf("Error rescheduling post")
	}

	return nil
}

func (s *postService) Remove(ctx context.Context, userID, workspaceID, postID int64) error {
	if err := s.checkPost(ctx, userID, workspaceID, postID); err != nil {
		return err
	}

	if err := s.pr.Remove(ctx, postID); err != nil {
		return fmt.Errorf("Error removing post")
	}

	return nil
}

func (s *postService) checkWorkspace(ctx context.Context, workspaceID, userID int64) error {
	if userID == 0 {
		err := errors.New("User is not valid")
		slog.Info(err.Error())
		return err
	}

	isValid, err := s.ws.CheckByUserID(ctx, workspaceID, userID)
	if err != nil {
		return err
	}
	if !isValid {
		err = errors.New("Workspace doesn't exist")
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (s *postService) checkPost(ctx context.Context, userID, workspaceID, postID int64) error {
	if postID == 0 {
		err := errors.New("post id is not valid")
		slog.Info(err.Error())
		return err
	}

	if err := s.checkWorkspace(ctx, workspaceID, userID); err != nil {
		return err
	}

	isValid, err := s.pr.CheckByWorkspaceID(ctx, postID, workspaceID)
	if err != nil {
		return err
	}
	if !isValid {
		err = errors.New("Post doesn't exist")
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (s *postService) withMediaURLs(ctx context.Context, posts []*models.Post) []*transfer.PostResponse {
	responses := make([]*transfer.PostResponse, 0, len(posts))
	for _, post := range posts {
		resp := &transfer.PostResponse{Post: post}

		postMedias, err := s.pm.ListByPostID(ctx, post.ID)
		if err != nil {
			slog.Info(err.Error())
			responses = append(responses, resp)
			continue
		}

		for _, pm := range postMedias {
			asset, err := s.ma.GetByID(ctx, pm.AssetID)
			if err != nil || asset == nil {
				continue
			}
			url, err := s.r2.ResolveURL(ctx, asset.FileName)
			if err != nil || url == "" {
				continue
			}
			resp.MediaURLs = append(resp.MediaURLs, url)
		}

		responses = append(responses, resp)
	}
	return responses
}
