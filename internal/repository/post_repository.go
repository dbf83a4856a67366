package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/ulot2/postflow/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	ListByStatus(ctx context.Context, status string) ([]*models.Post, error)
	ListByWorkspaceID(ctx context.Context, workspaceID int64) ([]*models.Post, error)
	ListByWorkspaceInRange(ctx context.Context, workspaceID int64, from, to time.Time) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	UpdatePostStatus(ctx context.Context, status string, postID int64) error
	UpdateSchedule(ctx context.Context, postID int64, scheduledAt time.Time) error
	ClaimScheduled(ctx context.Context, postID int64) (bool, error)
	CheckByWorkspaceID(ctx context.Context, postID, workspaceID int64) (bool, error)
	Remove(ctx context.Context, id int64) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, workspace_id, author_id, content, platform, status, scheduled_at, created_at, updated_at`

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (workspace_id, author_id, content, platform, status, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, post.WorkspaceID, post.AuthorID, post.Content, post.Platform, post.Status, post.ScheduledAt).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, post.WorkspaceID, post.AuthorID, post.Content, post.Platform, post.Status, post.ScheduledAt).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func scanPost(row interface{ Scan(dest ...any) error }) (*models.Post, error) {
	var post models.Post
	var scheduledAt sql.NullTime
	err := row.Scan(&post.ID, &post.WorkspaceID, &post.AuthorID, &post.Content, &post.Platform, &post.Status, &scheduledAt, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if scheduledAt.Valid {
		post.ScheduledAt = &scheduledAt.Time
	}
	return &post, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	post, err := scanPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

func (r *postRepository) listPosts(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return posts, nil
}

func (r *postRepository) ListByStatus(ctx context.Context, status string) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE status = $1`
	return r.listPosts(ctx, query, status)
}

func (r *postRepository) ListByWorkspaceID(ctx context.Context, workspaceID int64) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE workspace_id = $1`
	return r.listPosts(ctx, query, workspaceID)
}

func (r *postRepository) ListByWorkspaceInRange(ctx context.Context, workspaceID int64, from, to time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE workspace_id = $1 AND scheduled_at BETWEEN $2 AND $3`
	return r.listPosts(ctx, query, workspaceID, from, to)
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts
		SET content = $1,
			status = $2,
			scheduled_at = $3,
			updated_at = $4
		WHERE id = $5
	`
	_, err := r.db.ExecContext(ctx, query, post.Content, post.Status, post.ScheduledAt, time.Now(), post.ID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) UpdatePostStatus(ctx context.Context, status string, postID int64) error {
	query := `
		UPDATE posts
		SET status = $1,
			updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) UpdateSchedule(ctx context.Context, postID int64, scheduledAt time.Time) error {
	query := `
		UPDATE posts
		SET scheduled_at = $1,
			status = $2,
			updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, scheduledAt, models.PostStatusScheduled, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// ClaimScheduled moves a post from scheduled to publishing. The status check in
// the WHERE clause makes the claim conditional, so two scanners racing on the
// same post see exactly one winner.
func (r *postRepository) ClaimScheduled(ctx context.Context, postID int64) (bool, error) {
	query := `
		UPDATE posts
		SET status = $1,
			updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusPublishing, time.Now(), postID, models.PostStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	return affected == 1, nil
}

func (r *postRepository) CheckByWorkspaceID(ctx context.Context, postID, workspaceID int64) (bool, error) {
	query := "SELECT 1 FROM posts WHERE id = $1 AND workspace_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, postID, workspaceID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *postRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM posts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
