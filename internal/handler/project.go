package handler

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/opensharing/showcase/internal/domain"
	"github.com/opensharing/showcase/internal/search"
	"github.com/opensharing/showcase/internal/service"
)

// ProjectHandler exposes project submission, discovery, and review.
type ProjectHandler struct {
	projects *service.ProjectService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

type submitProjectRequest struct {
	Platform    string  `json:"platform" validate:"required,oneof=GitHub Gitee"`
	RepoID      string  `json:"repo_id" validate:"required"`
	Brief       string  `json:"brief" validate:"required,max=200"`
	Description string  `json:"description" validate:"required"`
	WebsiteURL  string  `json:"website_url" validate:"omitempty,url"`
	DownloadURL *string `json:"download_url" validate:"omitempty"`
	CodeExample *string `json:"code_example"`
	Tags        []int64 `json:"tags"`
	ImageIDs    []int64 `json:"image_ids"`
}

// Submit handles POST /projects.
func (h *ProjectHandler) Submit(c echo.Context) error {
	var req submitProjectRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	project, err := h.projects.Submit(c.Request().Context(), sessionFrom(c).UserID, service.SubmitProjectInput{
		Platform:    domain.Platform(req.Platform),
		RepoID:      req.RepoID,
		Brief:       req.Brief,
		Description: req.Description,
		WebsiteURL:  req.WebsiteURL,
		DownloadURL: req.DownloadURL,
		CodeExample: req.CodeExample,
		Tags:        req.Tags,
		ImageIDs:    req.ImageIDs,
	})
	if err != nil {
		return err
	}
	return respond(c, project)
}

// List handles GET /projects.
func (h *ProjectHandler) List(c echo.Context) error {
	p := listParams(c)
	projects, total, err := h.projects.List(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return respondPage(c, projects, total, p)
}

// Search handles GET /projects/search.
func (h *ProjectHandler) Search(c echo.Context) error {
	params := search.Params{
		Keyword:             c.QueryParam("keyword"),
		ProgrammingLanguage: c.QueryParam("programming_language"),
		License:             c.QueryParam("license"),
		Tags:                idList(c.QueryParam("tags")),
	}
	switch strings.ToLower(c.QueryParam("platform")) {
	case "github":
		params.Platform = domain.PlatformGitHub
	case "gitee":
		params.Platform = domain.PlatformGitee
	}
	if raw := c.QueryParam("is_featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			return domain.ValidationError(map[string]string{"is_featured": "must be a boolean"})
		}
		params.IsFeatured = &featured
	}

	p := listParams(c)
	projects, total, err := h.projects.Search(c.Request().Context(), params, p)
	if err != nil {
		return err
	}
	return respondPage(c, projects, total, p)
}

// Suggest handles GET /projects/suggest.
func (h *ProjectHandler) Suggest(c echo.Context) error {
	keyword := c.QueryParam("keyword")
	if keyword == "" {
		return respond(c, []string{})
	}
	names, err := h.projects.Suggest(c.Request().Context(), keyword)
	if err != nil {
		return err
	}
	return respond(c, names)
}

// RepoPreview handles GET /projects/repo_detail.
func (h *ProjectHandler) RepoPreview(c echo.Context) error {
	repoID := c.QueryParam("repo_id")
	if repoID == "" {
		return domain.ValidationError(map[string]string{"repo_id": "required"})
	}
	var p domain.Platform
	switch strings.ToLower(c.QueryParam("platform")) {
	case "github":
		p = domain.PlatformGitHub
	case "gitee":
		p = domain.PlatformGitee
	default:
		return domain.ValidationError(map[string]string{"platform": "must be GitHub or Gitee"})
	}
	detail, err := h.projects.RepoPreview(c.Request().Context(), p, repoID)
	if err != nil {
		return err
	}
	return respond(c, detail)
}

// Get handles GET /projects/:id.
func (h *ProjectHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	project, err := h.projects.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, project)
}

// Mine handles GET /projects/mine.
func (h *ProjectHandler) Mine(c echo.Context) error {
	projects, err := h.projects.ListBySubmitter(c.Request().Context(), sessionFrom(c).UserID)
	if err != nil {
		return err
	}
	return respond(c, projects)
}

// Unapproved handles GET /admin/projects/unapproved.
func (h *ProjectHandler) Unapproved(c echo.Context) error {
	projects, err := h.projects.ListUnapproved(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, projects)
}

// SyncHistory handles GET /admin/projects/:id/sync-logs.
func (h *ProjectHandler) SyncHistory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	logs, err := h.projects.SyncHistory(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, logs)
}

// Images handles GET /projects/:id/images.
func (h *ProjectHandler) Images(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	images, err := h.projects.Images(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, images)
}

type updateProjectRequest struct {
	Brief       *string `json:"brief" validate:"omitempty,max=200"`
	Description *string `json:"description"`
	DownloadURL *string `json:"download_url"`
	CodeExample *string `json:"code_example"`
	Tags        []int64 `json:"tags"`
	IsApproved  *bool   `json:"is_approved"`
	IsFeatured  *bool   `json:"is_featured"`
}

// Update handles PUT /projects/:id.
func (h *ProjectHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateProjectRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	project, err := h.projects.Update(c.Request().Context(), sessionFrom(c), id, service.UpdateProjectInput{
		Brief:       req.Brief,
		Description: req.Description,
		DownloadURL: req.DownloadURL,
		CodeExample: req.CodeExample,
		Tags:        req.Tags,
		IsApproved:  req.IsApproved,
		IsFeatured:  req.IsFeatured,
	})
	if err != nil {
		return err
	}
	return respond(c, project)
}

// Delete handles DELETE /projects/:id.
func (h *ProjectHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.projects.Delete(c.Request().Context(), sessionFrom(c), id); err != nil {
		return err
	}
	return respondMessage(c, "project deleted")
}
