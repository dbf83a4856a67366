package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/ulot2/postflow/internal/models"
)

type MediaAssetRepository interface {
	Create(ctx context.Context, tx *sql.Tx, ma *models.MediaAsset) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.MediaAsset, error)
	Remove(ctx context.Context, id int64) error
}

type mediaAssetRepository struct {
	db *sql.DB
}

func NewMediaAssetRepository(db *sql.DB) MediaAssetRepository {
	return &mediaAssetRepository{db: db}
}

func (r *mediaAssetRepository) Create(ctx context.Context, tx *sql.Tx, ma *models.MediaAsset) (int64, error) {
	query := `
		INSERT INTO media_assets (workspace_id, file_name, file_type, file_size)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, ma.WorkspaceID, ma.FileName, ma.FileType, ma.FileSize).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, ma.WorkspaceID, ma.FileName, ma.FileType, ma.FileSize).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *mediaAssetRepository) GetByID(ctx context.Context, id int64) (*models.MediaAsset, error) {
	query := `SELECT id, workspace_id, file_name, file_type, file_size, created_at FROM media_assets WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var ma models.MediaAsset
	err := row.Scan(&ma.ID, &ma.WorkspaceID, &ma.FileName, &ma.FileType, &ma.FileSize, &ma.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &ma, nil
}

func (r *mediaAssetRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM media_assets WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
