package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/ulot2/postflow/internal/models"
)

type SocialAccountRepository interface {
	Create(ctx context.Context, tx *sql.Tx, sa *models.SocialAccount) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.SocialAccount, error)
	GetByPlatformAccount(ctx context.Context, platform, accountID string) (*models.SocialAccount, error)
	GetByWorkspaceAndPlatform(ctx context.Context, workspaceID int64, platform string) (*models.SocialAccount, error)
	ListByWorkspaceID(ctx context.Context, workspaceID int64) ([]*models.SocialAccount, error)
	ListActiveExpiredBefore(ctx context.Context, cutoff time.Time) ([]*models.SocialAccount, error)
	UpdateConnection(ctx context.Context, id int64, sa *models.SocialAccount) error
	UpdateAccountStatus(ctx context.Context, status string, id int64) error
	CheckByWorkspaceID(ctx context.Context, accountID, workspaceID int64) (bool, error)
	Remove(ctx context.Context, id int64) error
}

type socialAccountRepository struct {
	db *sql.DB
}

func NewSocialAccountRepository(db *sql.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

const socialAccountColumns = `id, workspace_id, platform, account_id, account_name, profile_picture_url, access_token, refresh_token, token_expires_at, account_status, created_at, updated_at`

func (r *socialAccountRepository) Create(ctx context.Context, tx *sql.Tx, sa *models.SocialAccount) (int64, error) {
	var err error
	var id int64

	var insertQuery = `
		INSERT INTO social_accounts(
			workspace_id,
			platform,
			account_id,
			account_name,
			profile_picture_url,
			access_token,
			refresh_token,
			token_expires_at,
			account_status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	if tx != nil {
		err = tx.QueryRowContext(ctx, insertQuery,
			sa.WorkspaceID,
			sa.Platform,
			sa.AccountID,
			sa.AccountName,
			sa.ProfilePicture,
			sa.AccessToken,
			sa.RefreshToken,
			sa.TokenExpiresAt,
			sa.AccountStatus,
		).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, insertQuery,
			sa.WorkspaceID,
			sa.Platform,
			sa.AccountID,
			sa.AccountName,
			sa.ProfilePicture,
			sa.AccessToken,
			sa.RefreshToken,
			sa.TokenExpiresAt,
			sa.AccountStatus,
		).Scan(&id)
	}

	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func scanSocialAccount(row interface{ Scan(dest ...any) error }) (*models.SocialAccount, error) {
	var sa models.SocialAccount
	var expiresAt sql.NullTime
	err := row.Scan(&sa.ID, &sa.WorkspaceID, &sa.Platform, &sa.AccountID, &sa.AccountName,
		&sa.ProfilePicture, &sa.AccessToken, &sa.RefreshToken, &expiresAt,
		&sa.AccountStatus, &sa.CreatedAt, &sa.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		sa.TokenExpiresAt = &expiresAt.Time
	}
	return &sa, nil
}

func (r *socialAccountRepository) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	sa, err := scanSocialAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return sa, nil
}

func (r *socialAccountRepository) GetByPlatformAccount(ctx context.Context, platform, accountID string) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE platform = $1 AND account_id = $2`
	row := r.db.QueryRowContext(ctx, query, platform, accountID)

	sa, err := scanSocialAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return sa, nil
}

func (r *socialAccountRepository) GetByWorkspaceAndPlatform(ctx context.Context, workspaceID int64, platform string) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE workspace_id = $1 AND platform = $2`
	row := r.db.QueryRowContext(ctx, query, workspaceID, platform)

	sa, err := scanSocialAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return sa, nil
}

func (r *socialAccountRepository) ListByWorkspaceID(ctx context.Context, workspaceID int64) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE workspace_id = $1`
	rows, err := r.db.QueryContext(ctx, query, workspaceID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		sa, err := scanSocialAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, sa)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return accounts, nil
}

func (r *socialAccountRepository) ListActiveExpiredBefore(ctx context.Context, cutoff time.Time) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + `
		FROM social_accounts
		WHERE account_status = $1 AND token_expires_at IS NOT NULL AND token_expires_at < $2`
	rows, err := r.db.QueryContext(ctx, query, models.AccountStatusActive, cutoff)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		sa, err := scanSocialAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, sa)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return accounts, nil
}

func (r *socialAccountRepository) UpdateConnection(ctx context.Context, id int64, sa *models.SocialAccount) error {
	query := `
		UPDATE social_accounts
		SET account_name = $1,
			profile_picture_url = $2,
			access_token = $3,
			refresh_token = $4,
			token_expires_at = $5,
			account_status = $6,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $7
	`
	_, err := r.db.ExecContext(ctx, query,
		sa.AccountName,
		sa.ProfilePicture,
		sa.AccessToken,
		sa.RefreshToken,
		sa.TokenExpiresAt,
		models.AccountStatusActive,
		id,
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *socialAccountRepository) UpdateAccountStatus(ctx context.Context, status string, id int64) error {
	query := `
		UPDATE social_accounts
		SET account_status = $1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
	`
	_, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *socialAccountRepository) CheckByWorkspaceID(ctx context.Context, accountID, workspaceID int64) (bool, error) {
	query := "SELECT 1 FROM social_accounts WHERE id = $1 AND workspace_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, accountID, workspaceID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *socialAccountRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM social_accounts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
