package models

import "time"

type Post struct {
	ID          int64      `db:"id" json:"id"`
	WorkspaceID int64      `db:"workspace_id" json:"workspace_id"`
	AuthorID    int64      `db:"author_id" json:"author_id"`
	Content     string     `db:"content" json:"content"`
	Platform    string     `db:"platform" json:"platform"`
	Status      string     `db:"status" json:"status"` // draft, scheduled, publishing, published, failed
	ScheduledAt *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

type MediaAsset struct {
	ID          int64     `db:"id" json:"id"`
	WorkspaceID int64     `db:"workspace_id" json:"workspace_id"`
	FileName    string    `db:"file_name" json:"file_name"`
	FileType    string    `db:"file_type" json:"file_type"`
	FileSize    int64     `db:"file_size" json:"file_size"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type PostMedia struct {
	PostID       int64     `db:"post_id" json:"post_id"`
	AssetID      int64     `db:"asset_id" json:"asset_id"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

const (
	PostStatusDraft      = "draft"
	PostStatusScheduled  = "scheduled"
	PostStatusPublishing = "publishing"
	PostStatusPublished  = "published"
	PostStatusFailed     = "failed"
)

const (
	PlatformTwitter   = "twitter"
	PlatformLinkedIn  = "linkedin"
	PlatformInstagram = "instagram"
	PlatformPinterest = "pinterest"
)

func IsValidPlatform(platform string) bool {
	switch platform {
	case PlatformTwitter, PlatformLinkedIn, PlatformInstagram, PlatformPinterest:
		return true
	}
	return false
}

func IsValidStatus(status string) bool {
	switch status {
	case PostStatusDraft, PostStatusScheduled, PostStatusPublishing, PostStatusPublished, PostStatusFailed:
		return true
	}
	return false
}
