package transfer

import "github.com/ulot2/postflow/internal/models"

type PostCreation struct {
	WorkspaceID int64
	Content     string
	Platform    string
	Status      string
	ScheduledAt string
}

type PostUpdate struct {
	PostID      int64
	WorkspaceID int64
	Content     string
	Status      string
	ScheduledAt string
}

// PostResponse is a post with its media references resolved to transient URLs.
// Resolved URLs are never written back to storage.
type PostResponse struct {
	*models.Post
	MediaURLs []string `json:"media_urls"`
}
