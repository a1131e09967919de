package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/opensharing/showcase/internal/domain"
	"github.com/opensharing/showcase/internal/platform"
	"github.com/opensharing/showcase/internal/repository"
	"github.com/opensharing/showcase/internal/search"
	"github.com/opensharing/showcase/internal/token"
)

// ProjectStore is the project data access interface consumed by
// ProjectService and the reconciler.
type ProjectStore interface {
	Create(ctx context.Context, p domain.Project) (*domain.Project, error)
	FindByID(ctx context.Context, id int64) (*domain.Project, error)
	List(ctx context.Context, p repository.ListParams, ids []int64) ([]domain.Project, int, error)
	ListBySubmitter(ctx context.Context, userID int64) ([]domain.Project, error)
	ListUnapproved(ctx context.Context) ([]domain.Project, error)
	Update(ctx context.Context, id int64, patch repository.ProjectPatch) (*domain.Project, error)
	Delete(ctx context.Context, id int64) error
	IncrementViewCount(ctx context.Context, id int64) error
	ReplaceTags(ctx context.Context, projectID int64, tagIDs []int64) error
	TagsByProjects(ctx context.Context, projectIDs []int64) (map[int64][]domain.Tag, error)
}

// ProjectImageStore binds uploaded screenshots to projects.
type ProjectImageStore interface {
	AttachToProject(ctx context.Context, projectID int64, imageIDs []int64) error
	ByProject(ctx context.Context, projectID int64) ([]domain.Image, error)
}

// SyncLogStore records and reads reconciliation history.
type SyncLogStore interface {
	Append(ctx context.Context, projectID int64, status string, detail []byte) error
	ByProject(ctx context.Context, projectID int64) ([]domain.SyncLog, error)
}

// Searcher queries the search index.
type Searcher interface {
	Search(ctx context.Context, params search.Params) ([]int64, error)
	Suggest(ctx context.Context, keyword string) ([]string, error)
}

// IndexQueue accepts asynchronous index writes.
type IndexQueue interface {
	EnqueueIndex(projectID int64, doc search.ProjectDoc)
	EnqueueDelete(projectID int64)
}

// UserFinder resolves users by id.
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
}

// ProjectService handles project submission, review, and discovery.
type ProjectService struct {
	projects ProjectStore
	images   ProjectImageStore
	syncLogs SyncLogStore
	users    UserFinder
	clients  map[domain.Platform]platform.Client
	searcher Searcher
	indexer  IndexQueue
	notifier *NotificationService
}

// NewProjectService creates a new ProjectService.
func NewProjectService(
	projects ProjectStore,
	images ProjectImageStore,
	syncLogs SyncLogStore,
	users UserFinder,
	clients []platform.Client,
	searcher Searcher,
	indexer IndexQueue,
	notifier *NotificationService,
) *ProjectService {
	byPlatform := make(map[domain.Platform]platform.Client, len(clients))
	for _, c := range clients {
		byPlatform[c.Platform()] = c
	}
	return &ProjectService{
		projects: projects,
		images:   images,
		syncLogs: syncLogs,
		users:    users,
		clients:  byPlatform,
		searcher: searcher,
		indexer:  indexer,
		notifier: notifier,
	}
}

// SubmitProjectInput is the payload for a project submission. RepoID is
// the "owner/name" slug on the hosting platform.
type SubmitProjectInput struct {
	Platform    domain.Platform
	RepoID      string
	Brief       string
	Description string
	WebsiteURL  string
	DownloadURL *string
	CodeExample *string
	Tags        []int64
	ImageIDs    []int64
}

// Submit creates a project from a repository slug. The repository metadata
// is fetched from the hosting platform at submission time; the project
// starts unapproved and the administrators are notified.
func (s *ProjectService) Submit(ctx context.Context, userID int64, input SubmitProjectInput) (*domain.Project, error) {
	client, ok := s.clients[input.Platform]
	if !ok {
		return nil, domain.NotFound("platform " + string(input.Platform))
	}
	detail, err := client.RepoDetail(ctx, input.RepoID)
	if err != nil {
		return nil, err
	}

	websiteURL := input.WebsiteURL
	if websiteURL == "" {
		websiteURL = detail.WebsiteURL
	}
	project := domain.Project{
		Name:                detail.Name,
		Brief:               input.Brief,
		Description:         input.Description,
		RepoURL:             detail.RepoURL,
		WebsiteURL:          websiteURL,
		DownloadURL:         input.DownloadURL,
		Stars:               detail.Stars,
		Forks:               detail.Forks,
		Watchers:            detail.Watchers,
		Contributors:        detail.Contributors,
		Issues:              detail.Issues,
		License:             detail.License,
		ProgrammingLanguage: detail.ProgrammingLanguage,
		CodeExample:         input.CodeExample,
		LastCommitAt:        detail.LastCommitAt,
		RepoCreatedAt:       detail.RepoCreatedAt,
		Platform:            input.Platform,
		RepoID:              input.RepoID,
		OwnerPlatformID:     &detail.OwnerPlatformID,
		SubmitterID:         userID,
		Avatar:              optional(detail.Avatar),
	}

	created, err := s.projects.Create(ctx, project)
	if err != nil {
		return nil, err
	}
	if err := s.projects.ReplaceTags(ctx, created.ID, input.Tags); err != nil {
		return nil, err
	}
	if err := s.images.AttachToProject(ctx, created.ID, input.ImageIDs); err != nil {
		return nil, err
	}
	if err := s.attachTags(ctx, created); err != nil {
		return nil, err
	}

	// First sync log entry records the metadata the project was created from.
	if body, err := json.Marshal(detail); err == nil {
		if err := s.syncLogs.Append(ctx, created.ID, domain.SyncStatusSuccess, body); err != nil {
			slog.Error("append initial sync log failed", "project_id", created.ID, "error", err)
		}
	}

	s.notifier.NotifyAdmins(ctx,
		fmt.Sprintf("New project %q submitted for review", created.Name), &created.ID, nil)
	s.notifier.Notify(ctx, userID,
		fmt.Sprintf("Your project %q was submitted and is pending review", created.Name), &created.ID, nil)
	return created, nil
}

// RepoPreview fetches live repository metadata without creating anything,
// so a submitter can preview what a slug resolves to.
func (s *ProjectService) RepoPreview(ctx context.Context, p domain.Platform, repoID string) (*domain.RepoDetail, error) {
	client, ok := s.clients[p]
	if !ok {
		return nil, domain.NotFound("platform " + string(p))
	}
	return client.RepoDetail(ctx, repoID)
}

// Get returns a project with its tags and bumps the view counter.
func (s *ProjectService) Get(ctx context.Context, id int64) (*domain.Project, error) {
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachTags(ctx, project); err != nil {
		return nil, err
	}
	if err := s.projects.IncrementViewCount(ctx, id); err != nil {
		return nil, err
	}
	project.ViewCount++
	return project, nil
}

// List returns a page of projects with tags attached, plus the total.
func (s *ProjectService) List(ctx context.Context, p repository.ListParams) ([]domain.Project, int, error) {
	projects, total, err := s.projects.List(ctx, p, nil)
	if err != nil {
		return nil, 0, err
	}
	if err := s.attachTagsAll(ctx, projects); err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// Search resolves the matching ids from the index, then materializes the
// requested page from the relational store.
func (s *ProjectService) Search(ctx context.Context, params search.Params, p repository.ListParams) ([]domain.Project, int, error) {
	ids, err := s.searcher.Search(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return []domain.Project{}, 0, nil
	}
	projects, total, err := s.projects.List(ctx, p, ids)
	if err != nil {
		return nil, 0, err
	}
	if err := s.attachTagsAll(ctx, projects); err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// Suggest returns project-name completions for a prefix.
func (s *ProjectService) Suggest(ctx context.Context, keyword string) ([]string, error) {
	return s.searcher.Suggest(ctx, keyword)
}

// ListBySubmitter returns the projects a user submitted.
func (s *ProjectService) ListBySubmitter(ctx context.Context, userID int64) ([]domain.Project, error) {
	projects, err := s.projects.ListBySubmitter(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.attachTagsAll(ctx, projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// ListUnapproved returns the review queue.
func (s *ProjectService) ListUnapproved(ctx context.Context) ([]domain.Project, error) {
	projects, err := s.projects.ListUnapproved(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.attachTagsAll(ctx, projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// SyncHistory returns a project's reconciliation log.
func (s *ProjectService) SyncHistory(ctx context.Context, projectID int64) ([]domain.SyncLog, error) {
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.syncLogs.ByProject(ctx, projectID)
}

// Images returns the screenshots attached to a project.
func (s *ProjectService) Images(ctx context.Context, projectID int64) ([]domain.Image, error) {
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.images.ByProject(ctx, projectID)
}

// UpdateProjectInput is the editable part of a project plus the
// admin-only review fields.
type UpdateProjectInput struct {
	Brief       *string
	Description *string
	DownloadURL *string
	CodeExample *string
	Tags        []int64
	IsApproved  *bool
	IsFeatured  *bool
}

// Update applies an edit. The repository owner (matched by linked platform
// identity) may edit any time; the submitter only until approval; only
// administrators may touch the review fields. Approval notifies the
// submitter and makes the project searchable.
func (s *ProjectService) Update(ctx context.Context, session *token.Session, id int64, input UpdateProjectInput) (*domain.Project, error) {
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeEdit(ctx, session, project); err != nil {
		return nil, err
	}
	if (input.IsApproved != nil || input.IsFeatured != nil) && !session.IsAdmin() {
		return nil, domain.PermissionDenied("only administrators can review projects")
	}

	wasApproved := project.IsApproved
	patch := repository.ProjectPatch{
		Brief:       input.Brief,
		Description: input.Description,
		DownloadURL: input.DownloadURL,
		CodeExample: input.CodeExample,
		IsApproved:  input.IsApproved,
		IsFeatured:  input.IsFeatured,
	}
	updated, err := s.projects.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if input.Tags != nil {
		if err := s.projects.ReplaceTags(ctx, id, input.Tags); err != nil {
			return nil, err
		}
	}
	if err := s.attachTags(ctx, updated); err != nil {
		return nil, err
	}

	if !wasApproved && updated.IsApproved {
		s.notifier.Notify(ctx, updated.SubmitterID,
			fmt.Sprintf("Your project %q has been approved", updated.Name), &updated.ID, nil)
	}
	s.syncIndex(updated)
	return updated, nil
}

// Delete removes a project. Admins may delete anything; otherwise the
// owner-or-submitter rule applies. The submitter is notified when an
// administrator removes their project.
func (s *ProjectService) Delete(ctx context.Context, session *token.Session, id int64) error {
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeEdit(ctx, session, project); err != nil {
		return err
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		return err
	}
	if session.IsAdmin() && project.SubmitterID != session.UserID {
		s.notifier.Notify(ctx, project.SubmitterID,
			fmt.Sprintf("Your project %q has been removed", project.Name), nil, nil)
	}
	s.indexer.EnqueueDelete(id)
	return nil
}

// authorizeEdit enforces the edit rule: admin always; repository owner
// (the user whose linked platform identity matches) always; submitter
// only while the project is still unapproved.
func (s *ProjectService) authorizeEdit(ctx context.Context, session *token.Session, project *domain.Project) error {
	if session.IsAdmin() {
		return nil
	}
	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		return err
	}
	if project.OwnerPlatformID != nil {
		if pid := user.PlatformID(project.Platform); pid != nil && *pid == *project.OwnerPlatformID {
			return nil
		}
	}
	if project.SubmitterID == session.UserID && !project.IsApproved {
		return nil
	}
	return domain.PermissionDenied("not allowed to modify this project")
}

// syncIndex keeps the search index in step with a project's review state:
// approved projects are (re)indexed, everything else is removed.
func (s *ProjectService) syncIndex(project *domain.Project) {
	if project.IsApproved {
		s.indexer.EnqueueIndex(project.ID, search.DocFromProject(project))
	} else {
		s.indexer.EnqueueDelete(project.ID)
	}
}

func (s *ProjectService) attachTags(ctx context.Context, project *domain.Project) error {
	tags, err := s.projects.TagsByProjects(ctx, []int64{project.ID})
	if err != nil {
		return err
	}
	project.Tags = tags[project.ID]
	return nil
}

func (s *ProjectService) attachTagsAll(ctx context.Context, projects []domain.Project) error {
	if len(projects) == 0 {
		return nil
	}
	ids := make([]int64, len(projects))
	for i := range projects {
		ids[i] = projects[i].ID
	}
	tags, err := s.projects.TagsByProjects(ctx, ids)
	if err != nil {
		return err
	}
	for i := range projects {
		projects[i].Tags = tags[projects[i].ID]
	}
	return nil
}
