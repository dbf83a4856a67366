package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	config "github.com/ulot2/postflow/configs"
	"github.com/ulot2/postflow/internal/models"
	"github.com/ulot2/postflow/internal/repository"
	"github.com/ulot2/postflow/pkg/utils"
)

// LinkedInPublisher posts content through the LinkedIn v2 UGC API. Image posts
// are a three-step protocol: register an upload intent, push the raw bytes to
// the returned single-use URL, then submit the share referencing the asset URN.
// Any non-success response aborts the whole attempt; there are no partial posts.
type LinkedInPublisher struct {
	cfg        config.Config
	sa         repository.SocialAccountRepository
	client     *http.Client
	apiBaseURL string
}

func NewLinkedInPublisher(cfg config.Config, sa repository.SocialAccountRepository) *LinkedInPublisher {
	return &LinkedInPublisher{
		cfg: cfg,
		sa:  sa,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiBaseURL: "https://api.linkedin.com",
	}
}

func (p *LinkedInPublisher) Publish(ctx context.Context, req *Request) error {
	account, err := p.sa.GetByWorkspaceAndPlatform(ctx, req.WorkspaceID, models.PlatformLinkedIn)
	if err != nil {
		return err
	}
	if account == nil || account.AccessToken == "" {
		return errors.New("no connected LinkedIn account found for this workspace")
	}

	accessToken, err := utils.Decrypt(account.AccessToken, []byte(p.cfg.SecretKey))
	if err != nil {
		return fmt.Errorf("unable to decrypt access token: %w", err)
	}

	personURN := fmt.Sprintf("urn:li:person:%s", account.AccountID)

	var assetURNs []string
	for _, mediaURL := range req.MediaURLs {
		assetURN, err := p.uploadImage(ctx, personURN, accessToken, mediaURL)
		if err != nil {
			return fmt.Errorf("failed to upload image to LinkedIn: %w", err)
		}
		assetURNs = append(assetURNs, assetURN)
	}

	return p.submitPost(ctx, personURN, accessToken, req.Content, assetURNs)
}

func (p *LinkedInPublisher) uploadImage(ctx context.Context, personURN, accessToken, mediaURL string) (string, error) {
	imageReq, err := http.NewRequestWithContext(ctx, "GET", mediaURL, nil)
	if err != nil {
		return "", err
	}

	imageRes, err := p.client.Do(imageReq)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	defer imageRes.Body.Close()

	if imageRes.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download image: status %d", imageRes.StatusCode)
	}

	imageBytes, err := io.ReadAll(imageRes.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	registerBody := map[string]interface{}{
		"registerUploadRequest": map[string]interface{}{
			"recipes": []string{"urn:li:digitalmediaRecipe:feedshare-image"},
			"owner":   personURN,
			"serviceRelationships": []map[string]string{
				{
					"relationshipType": "OWNER",
					"identifier":       "urn:li:userGeneratedContent",
				},
			},
		},
	}

	body, err := json.Marshal(registerBody)
	if err != nil {
		return "", err
	}

	registerReq, err := http.NewRequestWithContext(ctx, "POST", p.apiBaseURL+"/v2/assets?action=registerUpload", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	registerReq.Header.Set("Authorization", "Bearer "+accessToken)
	registerReq.Header.Set("Content-Type", "application/json")

	registerRes, err := p.client.Do(registerReq)
	if err != nil {
		return "", fmt.Errorf("failed to register upload: %w", err)
	}
	defer registerRes.Body.Close()

	if registerRes.StatusCode < 200 || registerRes.StatusCode >= 300 {
		respBody, _ := io.ReadAll(registerRes.Body)
		return "", fmt.Errorf("failed to register upload: %s", string(respBody))
	}

	var registerData struct {
		Value struct {
			UploadMechanism map[string]struct {
				UploadURL string `json:"uploadUrl"`
			} `json:"uploadMechanism"`
			Asset string `json:"asset"`
		} `json:"value"`
	}
	if err := json.NewDecoder(registerRes.Body).Decode(&registerData); err != nil {
		return "", fmt.Errorf("failed to decode register response: %w", err)
	}

	uploadURL := registerData.Value.UploadMechanism["com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest"].UploadURL
	if uploadURL == "" || registerData.Value.Asset == "" {
		return "", errors.New("register response missing upload URL or asset")
	}

	uploadReq, err := http.NewRequestWithContext(ctx, "POST", uploadURL, bytes.NewReader(imageBytes))
	if err != nil {
		return "", err
	}
	uploadReq.Header.Set("Authorization", "Bearer "+accessToken)

	uploadRes, err := p.client.Do(uploadReq)
	if err != nil {
		return "", fmt.Errorf("failed to upload image bytes: %w", err)
	}
	defer uploadRes.Body.Close()

	if uploadRes.StatusCode < 200 || uploadRes.StatusCode >= 300 {
		respBody, _ := io.ReadAll(uploadRes.Body)
		return "", fmt.Errorf("failed to upload image bytes: %s", string(respBody))
	}

	return registerData.Value.Asset, nil
}

func (p *LinkedInPublisher) submitPost(ctx context.Context, personURN, accessToken, content string, assetURNs []string) error {
	shareContent := map[string]interface{}{
		"shareCommentary": map[string]string{
			"text": content,
		},
		"shareMediaCategory": "NONE",
	}

	if len(assetURNs) > 0 {
		shareContent["shareMediaCategory"] = "IMAGE"
		media := make([]map[string]interface{}, 0, len(assetURNs))
		for _, assetURN := range assetURNs {
			media = append(media, map[string]interface{}{
				"status":      "READY",
				"description": map[string]string{"text": "Post image"},
				"media":       assetURN,
			})
		}
		shareContent["media"] = media
	}

	payload := map[string]interface{}{
		"author":         personURN,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]interface{}{
			"com.linkedin.ugc.ShareContent": shareContent,
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.apiBaseURL+"/v2/ugcPosts", bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		slog.Info("LinkedIn API error", "status", resp.StatusCode, "body", string(respBody))
		return fmt.Errorf("LinkedIn API returned %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
