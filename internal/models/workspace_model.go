package models

import "time"

type Workspace struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Type        string    `db:"workspace_type" json:"type"` // personal, company
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

const (
	WorkspaceTypePersonal = "personal"
	WorkspaceTypeCompany  = "company"
)
