package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/opensharing/showcase/internal/domain"
)

const projectColumns = `id, name, brief, description, repo_url, website_url, download_url,
	stars, forks, watchers, contributors, issues, license, programming_language,
	code_example, last_commit_at, average_rating, rating_count, repo_created_at,
	last_sync_at, platform, repo_id, owner_platform_id, submitter_id, is_approved,
	approval_date, view_count, is_featured, avatar, created_at, updated_at`

// ProjectRepository handles project data access.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create inserts a submitted project with its fetched repository metadata.
func (r *ProjectRepository) Create(ctx context.Context, p domain.Project) (*domain.Project, error) {
	var created domain.Project
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO projects (name, brief, description, repo_url, website_url, download_url,
		                       stars, forks, watchers, contributors, issues, license,
		                       programming_language, code_example, last_commit_at,
		                       repo_created_at, last_sync_at, platform, repo_id,
		                       owner_platform_id, submitter_id, avatar, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		         NOW(), $17, $18, $19, $20, $21, NOW())
		 RETURNING `+projectColumns,
		p.Name, p.Brief, p.Description, p.RepoURL, p.WebsiteURL, p.DownloadURL,
		p.Stars, p.Forks, p.Watchers, p.Contributors, p.Issues, p.License,
		p.ProgrammingLanguage, p.CodeExample, p.LastCommitAt, p.RepoCreatedAt,
		p.Platform, p.RepoID, p.OwnerPlatformID, p.SubmitterID, p.Avatar,
	).StructScan(&created)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.Conflict("project")
		}
		return nil, fmt.Errorf("create project: %w", err)
	}
	return &created, nil
}

func (r *ProjectRepository) FindByID(ctx context.Context, id int64) (*domain.Project, error) {
	var project domain.Project
	err := r.db.GetContext(ctx, &project,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(fmt.Sprintf("project %d", id))
		}
		return nil, fmt.Errorf("find project %d: %w", id, err)
	}
	return &project, nil
}

var projectOrderColumns = map[string]bool{
	"id": true, "name": true, "stars": true, "forks": true, "watchers": true,
	"contributors": true, "issues": true, "average_rating": true, "rating_count": true,
	"created_at": true, "updated_at": true, "repo_created_at": true,
	"last_commit_at": true, "last_sync_at": true, "is_approved": true,
	"is_featured": true, "view_count": true, "platform": true,
	"programming_language": true, "license": true,
}

// List returns a page of projects plus the total count. When ids is
// non-empty only those projects are considered (used to materialize
// search results).
func (r *ProjectRepository) List(ctx context.Context, p ListParams, ids []int64) ([]domain.Project, int, error) {
	order, err := p.orderClause(projectOrderColumns, "id")
	if err != nil {
		return nil, 0, err
	}

	where := ""
	args := []any{}
	if len(ids) > 0 {
		where = " WHERE id = ANY($1)"
		args = append(args, ids)
	}

	query := fmt.Sprintf(`SELECT %s FROM projects%s ORDER BY %s OFFSET $%d LIMIT $%d`,
		projectColumns, where, order, len(args)+1, len(args)+2)
	args = append(args, p.Offset(), p.PageSize)

	projects := []domain.Project{}
	if err := r.db.SelectContext(ctx, &projects, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}

	var total int
	countArgs := []any{}
	countQuery := `SELECT COUNT(*) FROM projects`
	if len(ids) > 0 {
		countQuery += ` WHERE id = ANY($1)`
		countArgs = append(countArgs, ids)
	}
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}
	return projects, total, nil
}

// ListBySubmitter returns all projects submitted by a user.
func (r *ProjectRepository) ListBySubmitter(ctx context.Context, userID int64) ([]domain.Project, error) {
	projects := []domain.Project{}
	err := r.db.SelectContext(ctx, &projects,
		`SELECT `+projectColumns+` FROM projects WHERE submitter_id = $1 ORDER BY updated_at`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list projects by submitter %d: %w", userID, err)
	}
	return projects, nil
}

// ListUnapproved returns projects still waiting for review.
func (r *ProjectRepository) ListUnapproved(ctx context.Context) ([]domain.Project, error) {
	projects := []domain.Project{}
	err := r.db.SelectContext(ctx, &projects,
		`SELECT `+projectColumns+` FROM projects
		 WHERE is_approved = FALSE AND approval_date IS NULL
		 ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list unapproved projects: %w", err)
	}
	return projects, nil
}

// ListStale returns projects whose metadata has not been synced since the
// given cutoff. Projects never synced at all are excluded; they received
// their initial metadata at submission time.
func (r *ProjectRepository) ListStale(ctx context.Context, before time.Time) ([]domain.Project, error) {
	projects := []domain.Project{}
	err := r.db.SelectContext(ctx, &projects,
		`SELECT `+projectColumns+` FROM projects WHERE last_sync_at < $1 ORDER BY last_sync_at`,
		before)
	if err != nil {
		return nil, fmt.Errorf("list stale projects: %w", err)
	}
	return projects, nil
}

// ProjectPatch is a partial project update; nil fields are left untouched.
type ProjectPatch struct {
	Brief       *string
	Description *string
	DownloadURL *string
	CodeExample *string
	IsApproved  *bool
	IsFeatured  *bool
}

// Update applies a partial update and returns the updated project.
// Setting IsApproved (either way) stamps the approval date.
func (r *ProjectRepository) Update(ctx context.Context, id int64, patch ProjectPatch) (*domain.Project, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{id}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.Brief != nil {
		add("brief", *patch.Brief)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.DownloadURL != nil {
		add("download_url", *patch.DownloadURL)
	}
	if patch.CodeExample != nil {
		add("code_example", *patch.CodeExample)
	}
	if patch.IsApproved != nil {
		add("is_approved", *patch.IsApproved)
		sets = append(sets, "approval_date = NOW()")
	}
	if patch.IsFeatured != nil {
		add("is_featured", *patch.IsFeatured)
	}

	var project domain.Project
	err := r.db.QueryRowxContext(ctx,
		`UPDATE projects SET `+strings.Join(sets, ", ")+` WHERE id = $1 RETURNING `+projectColumns,
		args...,
	).StructScan(&project)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(fmt.Sprintf("project %d", id))
		}
		return nil, fmt.Errorf("update project %d: %w", id, err)
	}
	return &project, nil
}

// Delete removes a project and its dependent rows (cascaded by schema).
func (r *ProjectRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFound(fmt.Sprintf("project %d", id))
	}
	return nil
}

// IncrementViewCount bumps the view counter atomically in the store.
func (r *ProjectRepository) IncrementViewCount(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE projects SET view_count = view_count + 1 WHERE id = $1`, id); err != nil {
		return fmt.Errorf("increment view count for project %d: %w", id, err)
	}
	return nil
}

// ApplyRepoDetail overwrites the cached repository metadata and advances
// the sync watermark.
func (r *ProjectRepository) ApplyRepoDetail(ctx context.Context, id int64, d *domain.RepoDetail) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE projects
		 SET name = $2, repo_url = $3, avatar = $4, website_url = $5, stars = $6,
		     forks = $7, watchers = $8, contributors = $9, issues = $10, license = $11,
		     programming_language = $12, last_commit_at = $13, repo_created_at = $14,
		     owner_platform_id = $15, last_sync_at = NOW(), updated_at = NOW()
		 WHERE id = $1`,
		id, d.Name, d.RepoURL, d.Avatar, d.WebsiteURL, d.Stars, d.Forks, d.Watchers,
		d.Contributors, d.Issues, d.License, d.ProgrammingLanguage, d.LastCommitAt,
		d.RepoCreatedAt, d.OwnerPlatformID)
	if err != nil {
		return fmt.Errorf("apply repo detail to project %d: %w", id, err)
	}
	return nil
}

// ReplaceTags swaps the project's tag set.
func (r *ProjectRepository) ReplaceTags(ctx context.Context, projectID int64, tagIDs []int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tags: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM project_tags WHERE project_id = $1`, projectID); err != nil {
		return fmt.Errorf("clear project tags: %w", err)
	}
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO project_tags (project_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			projectID, tagID); err != nil {
			return fmt.Errorf("add project tag: %w", err)
		}
	}
	return tx.Commit()
}

type projectTag struct {
	ProjectID int64 `db:"project_id"`
	domain.Tag
}

// TagsByProjects returns the tags for each of the given projects.
func (r *ProjectRepository) TagsByProjects(ctx context.Context, projectIDs []int64) (map[int64][]domain.Tag, error) {
	if len(projectIDs) == 0 {
		return map[int64][]domain.Tag{}, nil
	}
	rows := []projectTag{}
	err := r.db.SelectContext(ctx, &rows,
		`SELECT pt.project_id, t.id, t.name, t.category, t.description
		 FROM project_tags pt JOIN tags t ON t.id = pt.tag_id
		 WHERE pt.project_id = ANY($1)
		 ORDER BY t.id`, projectIDs)
	if err != nil {
		return nil, fmt.Errorf("load project tags: %w", err)
	}
	result := make(map[int64][]domain.Tag, len(projectIDs))
	for _, row := range rows {
		result[row.ProjectID] = append(result[row.ProjectID], row.Tag)
	}
	return result, nil
}
