package domain

import "time"

// Tag classifies projects. Names are globally unique.
type Tag struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Category    string `json:"category" db:"category"`
	Description string `json:"description" db:"description"`
}

// Rating is one user's score for a project. At most one rating exists per
// (project, user) pair.
type Rating struct {
	ID        int64     `json:"id" db:"id"`
	ProjectID int64     `json:"project_id" db:"project_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Score     int       `json:"score" db:"score"`
	IsUsed    bool      `json:"is_used" db:"is_used"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Comment is a project comment, optionally a reply to another comment.
type Comment struct {
	ID        int64     `json:"id" db:"id"`
	ProjectID int64     `json:"project_id" db:"project_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Content   string    `json:"content" db:"content"`
	ParentID  *int64    `json:"parent_id,omitempty" db:"parent_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	Author *User `json:"user,omitempty" db:"-"`
}

// Favorite bookmarks a project for a user. Unique per (project, user).
type Favorite struct {
	ID        int64     `json:"id" db:"id"`
	ProjectID int64     `json:"project_id" db:"project_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Project *Project `json:"project,omitempty" db:"-"`
}

// Notification is an in-app message for a user.
type Notification struct {
	ID               int64     `json:"id" db:"id"`
	UserID           int64     `json:"user_id" db:"user_id"`
	Content          string    `json:"content" db:"content"`
	IsRead           bool      `json:"is_read" db:"is_read"`
	RelatedProjectID *int64    `json:"related_project_id,omitempty" db:"related_project_id"`
	RelatedCommentID *int64    `json:"related_comment_id,omitempty" db:"related_comment_id"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// Image is an uploaded screenshot, stored on disk under a generated file
// name and optionally attached to a project.
type Image struct {
	ID           int64     `json:"id" db:"id"`
	FileName     string    `json:"file_name" db:"file_name"`
	UserID       int64     `json:"user_id" db:"user_id"`
	ProjectID    *int64    `json:"project_id,omitempty" db:"project_id"`
	OriginalName string    `json:"original_name" db:"original_name"`
	MimeType     string    `json:"mime_type" db:"mime_type"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
