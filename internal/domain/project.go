package domain

import "time"

// Project mirrors an external repository submitted to the showcase.
// The repository metadata fields (stars, forks, ...) are a cache refreshed
// by the reconciliation job; AverageRating and RatingCount are maintained
// incrementally by the rating service.
type Project struct {
	ID                  int64      `json:"id" db:"id"`
	Name                string     `json:"name" db:"name"`
	Brief               string     `json:"brief" db:"brief"`
	Description         string     `json:"description" db:"description"`
	RepoURL             string     `json:"repo_url" db:"repo_url"`
	WebsiteURL          string     `json:"website_url" db:"website_url"`
	DownloadURL         *string    `json:"download_url,omitempty" db:"download_url"`
	Stars               int        `json:"stars" db:"stars"`
	Forks               int        `json:"forks" db:"forks"`
	Watchers            int        `json:"watchers" db:"watchers"`
	Contributors        int        `json:"contributors" db:"contributors"`
	Issues              int        `json:"issues" db:"issues"`
	License             *string    `json:"license,omitempty" db:"license"`
	ProgrammingLanguage *string    `json:"programming_language,omitempty" db:"programming_language"`
	CodeExample         *string    `json:"code_example,omitempty" db:"code_example"`
	LastCommitAt        *time.Time `json:"last_commit_at,omitempty" db:"last_commit_at"`
	AverageRating       float64    `json:"average_rating" db:"average_rating"`
	RatingCount         int        `json:"rating_count" db:"rating_count"`
	RepoCreatedAt       *time.Time `json:"repo_created_at,omitempty" db:"repo_created_at"`
	LastSyncAt          *time.Time `json:"last_sync_at,omitempty" db:"last_sync_at"`
	Platform            Platform   `json:"platform" db:"platform"`
	RepoID              string     `json:"repo_id" db:"repo_id"`
	OwnerPlatformID     *int64     `json:"owner_platform_id,omitempty" db:"owner_platform_id"`
	SubmitterID         int64      `json:"submitter_id" db:"submitter_id"`
	IsApproved          bool       `json:"is_approved" db:"is_approved"`
	ApprovalDate        *time.Time `json:"approval_date,omitempty" db:"approval_date"`
	ViewCount           int        `json:"view_count" db:"view_count"`
	IsFeatured          bool       `json:"is_featured" db:"is_featured"`
	Avatar              *string    `json:"avatar,omitempty" db:"avatar"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`

	Tags []Tag `json:"tags,omitempty" db:"-"`
}

// RepoDetail is the validated shape of a repository metadata fetch from
// either hosting platform. Field mapping differs per platform and is the
// platform clients' responsibility; downstream code only sees this type.
type RepoDetail struct {
	Name                string     `json:"name"`
	RepoURL             string     `json:"repo_url"`
	Avatar              string     `json:"avatar"`
	WebsiteURL          string     `json:"website_url"`
	Stars               int        `json:"stars"`
	Forks               int        `json:"forks"`
	Watchers            int        `json:"watchers"`
	Contributors        int        `json:"contributors"`
	Issues              int        `json:"issues"`
	License             *string    `json:"license,omitempty"`
	ProgrammingLanguage *string    `json:"programming_language,omitempty"`
	LastCommitAt        *time.Time `json:"last_commit_at,omitempty"`
	RepoCreatedAt       *time.Time `json:"repo_created_at,omitempty"`
	OwnerPlatformID     int64      `json:"owner_platform_id"`
}

// SyncLog records the outcome of one reconciliation attempt for a project.
// Rows are immutable once written.
type SyncLog struct {
	ID            int64     `json:"id" db:"id"`
	ProjectID     int64     `json:"project_id" db:"project_id"`
	Status        string    `json:"status" db:"status"`
	ProjectDetail []byte    `json:"project_detail,omitempty" db:"project_detail"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

const (
	SyncStatusSuccess = "success"
	SyncStatusFailed  = "failed"
)
