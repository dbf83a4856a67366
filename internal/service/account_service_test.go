package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	config "github.com/ulot2/postflow/configs"
	"github.com/ulot2/postflow/internal/models"
	"github.com/ulot2/postflow/internal/transfer"
	"github.com/ulot2/postflow/pkg/utils"
)

const testSecretKey = "0123456789abcdef0123456789abcdef"

type mockSocialAccountRepo struct {
	byPlatformAccount map[string]*models.SocialAccount

	created         []*models.SocialAccount
	nextID          int64
	updatedID       int64
	updatedAccount  *models.SocialAccount
	removedIDs      []int64
	belongsToWS     bool
	listAccounts    []*models.SocialAccount
	expiredAccounts []*models.SocialAccount
}

func accountKey(platform, accountID string) string { return platform + "/" + accountID }

func (m *mockSocialAccountRepo) Create(ctx context.Context, tx *sql.Tx, sa *models.SocialAccount) (int64, error) {
	m.nextID++
	m.created = append(m.created, sa)
	return m.nextID, nil
}

func (m *mockSocialAccountRepo) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	return nil, nil
}

func (m *mockSocialAccountRepo) GetByPlatformAccount(ctx context.Context, platform, accountID string) (*models.SocialAccount, error) {
	return m.byPlatformAccount[accountKey(platform, accountID)], nil
}

func (m *mockSocialAccountRepo) GetByWorkspaceAndPlatform(ctx context.Context, workspaceID int64, platform string) (*models.SocialAccount, error) {
	return nil, nil
}

func (m *mockSocialAccountRepo) ListByWorkspaceID(ctx context.Context, workspaceID int64) ([]*models.SocialAccount, error) {
	return m.listAccounts, nil
}

func (m *mockSocialAccountRepo) ListActiveExpiredBefore(ctx context.Context, cutoff time.Time) ([]*models.SocialAccount, error) {
	return m.expiredAccounts, nil
}

func (m *mockSocialAccountRepo) UpdateConnection(ctx context.Context, id int64, sa *models.SocialAccount) error {
	m.updatedID = id
	m.updatedAccount = sa
	return nil
}

func (m *mockSocialAccountRepo) UpdateAccountStatus(ctx context.Context, status string, id int64) error {
	return nil
}

func (m *mockSocialAccountRepo) CheckByWorkspaceID(ctx context.Context, accountID, workspaceID int64) (bool, error) {
	return m.belongsToWS, nil
}

func (m *mockSocialAccountRepo) Remove(ctx context.Context, id int64) error {
	m.removedIDs = append(m.removedIDs, id)
	return nil
}

type mockWorkspaceRepo struct {
	owned map[int64]int64 // workspace ID -> owner user ID
}

func (m *mockWorkspaceRepo) Create(ctx context.Context, ws *models.Workspace) (int64, error) {
	return 0, errors.New("not implemented")
}

func (m *mockWorkspaceRepo) GetByID(ctx context.Context, id int64) (*models.Workspace, error) {
	return nil, nil
}

func (m *mockWorkspaceRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.Workspace, error) {
	return nil, nil
}

func (m *mockWorkspaceRepo) CheckByUserID(ctx context.Context, workspaceID, userID int64) (bool, error) {
	owner, ok := m.owned[workspaceID]
	return ok && owner == userID, nil
}

func (m *mockWorkspaceRepo) Remove(ctx context.Context, id int64) error { return nil }

func newTestAccountService(sa *mockSocialAccountRepo) AccountService {
	cfg := config.Config{SecretKey: testSecretKey}
	return NewAccountService(cfg, sa, &mockWorkspaceRepo{owned: map[int64]int64{1: 10}})
}

func linkedInConnection() *transfer.AccountConnection {
	return &transfer.AccountConnection{
		Platform:       models.PlatformLinkedIn,
		AccountID:      "abc123",
		AccountName:    "Test Person",
		ProfilePicture: "https://example.com/p.jpg",
		AccessToken:    "raw-access-token",
		RefreshToken:   "raw-refresh-token",
	}
}

func TestConnectNewAccount(t *testing.T) {
	repo := &mockSocialAccountRepo{byPlatformAccount: map[string]*models.SocialAccount{}}
	s := newTestAccountService(repo)

	id, err := s.Connect(context.Background(), 1, linkedInConnection())
	require.NoError(t, err)
	require.NotZero(t, id)
	require.Len(t, repo.created, 1)

	created := repo.created[0]
	require.Equal(t, int64(1), created.WorkspaceID)
	require.Equal(t, models.AccountStatusActive, created.AccountStatus)

	// Tokens are stored encrypted, never verbatim.
	require.NotEqual(t, "raw-access-token", created.AccessToken)
	plaintext, err := utils.Decrypt(created.AccessToken, []byte(testSecretKey))
	require.NoError(t, err)
	require.Equal(t, "raw-access-token", plaintext)
}

func TestConnectReconnectSameWorkspace(t *testing.T) {
	existing := &models.SocialAccount{
		ID:          42,
		WorkspaceID: 1,
		Platform:    models.PlatformLinkedIn,
		AccountID:   "abc123",
	}
	repo := &mockSocialAccountRepo{byPlatformAccount: map[string]*models.SocialAccount{
		accountKey(models.PlatformLinkedIn, "abc123"): existing,
	}}
	s := newTestAccountService(repo)

	id, err := s.Connect(context.Background(), 1, linkedInConnection())
	require.NoError(t, err)
	require.Equal(t, int64(42), id)

	// Reconnection updates in place, it does not insert a duplicate row.
	require.Empty(t, repo.created)
	require.Equal(t, int64(42), repo.updatedID)
	require.NotNil(t, repo.updatedAccount)
	require.Equal(t, "Test Person", repo.updatedAccount.AccountName)
}

func TestConnectRejectedForOtherWorkspace(t *testing.T) {
	existing := &models.SocialAccount{
		ID:          42,
		WorkspaceID: 2,
		Platform:    models.PlatformLinkedIn,
		AccountID:   "abc123",
	}
	repo := &mockSocialAccountRepo{byPlatformAccount: map[string]*models.SocialAccount{
		accountKey(models.PlatformLinkedIn, "abc123"): existing,
	}}
	s := newTestAccountService(repo)

	_, err := s.Connect(context.Background(), 1, linkedInConnection())
	require.ErrorIs(t, err, ErrAccountConnectedElsewhere)
	require.Empty(t, repo.created)
	require.Zero(t, repo.updatedID)
}

func TestConnectRequiresAccessToken(t *testing.T) {
	repo := &mockSocialAccountRepo{byPlatformAccount: map[string]*models.SocialAccount{}}
	s := newTestAccountService(repo)

	conn := linkedInConnection()
	conn.AccessToken = ""

	_, err := s.Connect(context.Background(), 1, conn)
	require.Error(t, err)
	require.Empty(t, repo.created)
}

func TestAuthURLUnsupportedPlatform(t *testing.T) {
	s := newTestAccountService(&mockSocialAccountRepo{})

	require.Empty(t, s.AuthURL(context.Background(), models.PlatformPinterest, "state"))
	require.NotEmpty(t, s.AuthURL(context.Background(), models.PlatformLinkedIn, "state"))
}

func TestDisconnectChecksOwnership(t *testing.T) {
	repo := &mockSocialAccountRepo{belongsToWS: true}
	s := newTestAccountService(repo)

	require.NoError(t, s.Disconnect(context.Background(), 10, 1, 5))
	require.Equal(t, []int64{5}, repo.removedIDs)

	// A workspace the user does not own is rejected before any delete.
	err := s.Disconnect(context.Background(), 99, 1, 5)
	require.Error(t, err)
	require.Len(t, repo.removedIDs, 1)
}
