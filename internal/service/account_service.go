package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/linkedin"

	config "github.com/ulot2/postflow/configs"
	"github.com/ulot2/postflow/internal/models"
	"github.com/ulot2/postflow/internal/repository"
	"github.com/ulot2/postflow/internal/transfer"
	"github.com/ulot2/postflow/pkg/utils"
)

// ErrAccountConnectedElsewhere is returned when an external account is already
// bound to a different workspace. One platform identity belongs to at most one
// workspace at a time.
var ErrAccountConnectedElsewhere = errors.New("account is already connected to another workspace")

const linkedinUserInfoURL = "https://api.linkedin.com/v2/userinfo"

type AccountService interface {
	AuthURL(ctx context.Context, platform, state string) string
	LinkedInCallback(ctx context.Context, code string, userID, workspaceID int64) error
	Connect(ctx context.Context, workspaceID int64, conn *transfer.AccountConnection) (int64, error)
	List(ctx context.Context, userID, workspaceID int64) ([]*models.SocialAccount, error)
	Disconnect(ctx context.Context, userID, workspaceID, accountID int64) error
}

type accountService struct {
	cfg config.Config
	sa  repository.SocialAccountRepository
	ws  repository.WorkspaceRepository
}

func NewAccountService(cfg config.Config, sa repository.SocialAccountRepository, ws repository.WorkspaceRepository) AccountService {
	return &accountService{
		cfg: cfg,
		sa:  sa,
		ws:  ws,
	}
}

func (s *accountService) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.LinkedInClientID,
		ClientSecret: s.cfg.LinkedInClientSecret,
		RedirectURL:  s.cfg.LinkedInRedirectURI,
		Scopes:       []string{"openid", "profile", "w_member_social"},
		Endpoint:     linkedin.Endpoint,
	}
}

func (s *accountService) AuthURL(ctx context.Context, platform, state string) string {
	switch platform {
	case models.PlatformLinkedIn:
		return s.oauthConfig().AuthCodeURL(state)
	default:
		return ""
	}
}

func (s *accountService) LinkedInCallback(ctx context.Context, code string, userID, workspaceID int64) error {
	if code == "" {
		err := errors.New("code is empty")
		slog.Info(err.Error())
		return err
	}

	if err := s.checkWorkspace(ctx, workspaceID, userID); err != nil {
		return err
	}

	token, err := s.oauthConfig().Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("failed to exchange code: %w", err)
	}

	userInfo, err := s.getLinkedInUserInfo(ctx, token.AccessToken)
	if err != nil {
		return err
	}

	conn := &transfer.AccountConnection{
		Platform:       models.PlatformLinkedIn,
		AccountID:      userInfo.Sub,
		AccountName:    userInfo.Name,
		ProfilePicture: userInfo.Picture,
		AccessToken:    token.AccessToken,
		RefreshToken:   token.RefreshToken,
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		conn.TokenExpiresAt = &expiry
	}

	_, err = s.Connect(ctx, workspaceID, conn)
	return err
}

func (s *accountService) getLinkedInUserInfo(ctx context.Context, accessToken string) (*transfer.LinkedInUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", linkedinUserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code from LinkedIn: %d", resp.StatusCode)
	}

	var userInfo transfer.LinkedInUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &userInfo, nil
}

// Connect binds an external platform account to a workspace. Reconnecting the
// same external account to the same workspace updates the stored record in
// place; connecting it to a different workspace is rejected.
func (s *accountService) Connect(ctx context.Context, workspaceID int64, conn *transfer.AccountConnection) (int64, error) {
	if conn == nil || conn.AccountID == "" {
		err := errors.New("account connection data is incomplete")
		slog.Info(err.Error())
		return 0, err
	}
	if conn.AccessToken == "" {
		err := errors.New("access token is empty")
		slog.Info(err.Error())
		return 0, err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(conn.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return 0, err
	}

	encryptedRefreshToken := ""
	if conn.RefreshToken != "" {
		encryptedRefreshToken, err = utils.Encrypt([]byte(conn.RefreshToken), []byte(s.cfg.SecretKey))
		if err != nil {
			return 0, err
		}
	}

	account := &models.SocialAccount{
		WorkspaceID:    workspaceID,
		Platform:       conn.Platform,
		AccountID:      conn.AccountID,
		AccountName:    conn.AccountName,
		ProfilePicture: conn.ProfilePicture,
		AccessToken:    encryptedAccessToken,
		RefreshToken:   encryptedRefreshToken,
		TokenExpiresAt: conn.TokenExpiresAt,
		AccountStatus:  models.AccountStatusActive,
	}

	existing, err := s.sa.GetByPlatformAccount(ctx, conn.Platform, conn.AccountID)
	if err != nil {
		return 0, err
	}

	if existing != nil {
		if existing.WorkspaceID != workspaceID {
			slog.Info("rejected cross-workspace account connection", "platform", conn.Platform, "account_id", conn.AccountID)
			return 0, ErrAccountConnectedElsewhere
		}
		if err := s.sa.UpdateConnection(ctx, existing.ID, account); err != nil {
			return 0, err
		}
		return existing.ID, nil
	}

	return s.sa.Create(ctx, nil, account)
}

func (s *accountService) List(ctx context.Context, userID, workspaceID int64) ([]*models.SocialAccount, error) {
	if err := s.checkWorkspace(ctx, workspaceID, userID); err != nil {
		return nil, err
	}

	accounts, err := s.sa.ListByWorkspaceID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("Error getting social accounts")
	}

	return accounts, nil
}

func (s *accountService) Disconnect(ctx context.Context, userID, workspaceID, accountID int64) error {
	if accountID == 0 {
		err := errors.New("AccountID is not valid")
		slog.Info(err.Error())
		return err
	}

	if err := s.checkWorkspace(ctx, workspaceID, userID); err != nil {
		return err
	}

	isValid, err := s.sa.CheckByWorkspaceID(ctx, accountID, workspaceID)
	if err != nil {
		return err
	}
	if !isValid {
		err = errors.New("Social account doesn't exist")
		slog.Info(err.Error())
		return err
	}

	if err := s.sa.Remove(ctx, accountID); err != nil {
		return fmt.Errorf("Error removing account info")
	}

	return nil
}

func (s *accountService) checkWorkspace(ctx context.Context, workspaceID, userID int64) error {
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
