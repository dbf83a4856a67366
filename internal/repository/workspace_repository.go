package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/ulot2/postflow/internal/models"
)

type WorkspaceRepository interface {
	Create(ctx context.Context, ws *models.Workspace) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Workspace, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.Workspace, error)
	CheckByUserID(ctx context.Context, workspaceID, userID int64) (bool, error)
	Remove(ctx context.Context, id int64) error
}

type workspaceRepository struct {
	db *sql.DB
}

func NewWorkspaceRepository(db *sql.DB) WorkspaceRepository {
	return &workspaceRepository{db: db}
}

func (r *workspaceRepository) Create(ctx context.Context, ws *models.Workspace) (int64, error) {
	query := `
		INSERT INTO workspaces (user_id, name, description, workspace_type)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, ws.UserID, ws.Name, ws.Description, ws.Type).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *workspaceRepository) GetByID(ctx context.Context, id int64) (*models.Workspace, error) {
	query := `SELECT id, user_id, name, description, workspace_type, created_at, updated_at FROM workspaces WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var ws models.Workspace
	err := row.Scan(&ws.ID, &ws.UserID, &ws.Name, &ws.Description, &ws.Type, &ws.CreatedAt, &ws.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &ws, nil
}

func (r *workspaceRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Workspace, error) {
	query := `SELECT id, user_id, name, description, workspace_type, created_at, updated_at FROM workspaces WHERE user_id = $1`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var workspaces []*models.Workspace
	for rows.Next() {
		var ws models.Workspace
		err := rows.Scan(&ws.ID, &ws.UserID, &ws.Name, &ws.Description, &ws.Type, &ws.CreatedAt, &ws.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		workspaces = append(workspaces, &ws)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return workspaces, nil
}

func (r *workspaceRepository) CheckByUserID(ctx context.Context, workspaceID, userID int64) (bool, error) {
	query := "SELECT 1 FROM workspaces WHERE id = $1 AND user_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, workspaceID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *workspaceRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM workspaces WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
