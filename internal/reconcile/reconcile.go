// Package reconcile periodically refreshes the cached repository metadata
// of every project from its hosting platform. One slow or broken upstream
// repo never blocks the rest of the sweep; failures are logged per project
// and recorded in the sync history.
package reconcile

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/opensharing/showcase/internal/domain"
	"github.com/opensharing/showcase/internal/platform"
	"github.com/opensharing/showcase/internal/search"
)

// ProjectStore is the project surface the reconciler needs.
type ProjectStore interface {
	ListStale(ctx context.Context, before time.Time) ([]domain.Project, error)
	ApplyRepoDetail(ctx context.Context, id int64, d *domain.RepoDetail) error
	TagsByProjects(ctx context.Context, projectIDs []int64) (map[int64][]domain.Tag, error)
}

// SyncLogStore records sync attempts.
type SyncLogStore interface {
	Append(ctx context.Context, projectID int64, status string, detail []byte) error
}

// IndexQueue accepts asynchronous index writes.
type IndexQueue interface {
	EnqueueIndex(projectID int64, doc search.ProjectDoc)
}

// Reconciler sweeps stale projects on a fixed interval. A project is stale
// when its metadata is older than the configured frequency.
type Reconciler struct {
	projects  ProjectStore
	syncLogs  SyncLogStore
	indexer   IndexQueue
	clients   map[domain.Platform]platform.Client
	interval  time.Duration
	frequency time.Duration
	logger    *slog.Logger
}

// New creates a Reconciler. interval is how often the sweep runs;
// frequency is how old metadata may get before a project is swept.
func New(
	projects ProjectStore,
	syncLogs SyncLogStore,
	indexer IndexQueue,
	clients []platform.Client,
	interval, frequency time.Duration,
) *Reconciler {
	byPlatform := make(map[domain.Platform]platform.Client, len(clients))
	for _, c := range clients {
		byPlatform[c.Platform()] = c
	}
	return &Reconciler{
		projects:  projects,
		syncLogs:  syncLogs,
		indexer:   indexer,
		clients:   byPlatform,
		interval:  interval,
		frequency: frequency,
		logger:    slog.With("component", "reconciler"),
	}
}

// Run sweeps immediately, then on every tick until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	r.logger.Info("reconciler started", "interval", r.interval, "frequency", r.frequency)
	r.Sweep(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep refreshes every stale project once. Per-project failures are
// recorded and skipped; the sweep itself only aborts on cancellation.
func (r *Reconciler) Sweep(ctx context.Context) {
	stale, err := r.projects.ListStale(ctx, time.Now().Add(-r.frequency))
	if err != nil {
		r.logger.Error("list stale projects failed", "error", err)
		return
	}
	if len(stale) == 0 {
		return
	}
	r.logger.Info("sweeping stale projects", "count", len(stale))

	for i := range stale {
		if ctx.Err() != nil {
			return
		}
		r.syncProject(ctx, &stale[i])
	}
}

func (r *Reconciler) syncProject(ctx context.Context, project *domain.Project) {
	client, ok := r.clients[project.Platform]
	if !ok {
		r.logger.Error("no client for platform",
			"project_id", project.ID, "platform", project.Platform)
		r.recordFailure(ctx, project.ID)
		return
	}

	detail, err := client.RepoDetail(ctx, project.RepoID)
	if err != nil {
		r.logger.Error("repo metadata fetch failed",
			"project_id", project.ID, "repo_id", project.RepoID, "error", err)
		r.recordFailure(ctx, project.ID)
		return
	}

	if err := r.projects.ApplyRepoDetail(ctx, project.ID, detail); err != nil {
		r.logger.Error("apply repo metadata failed", "project_id", project.ID, "error", err)
		r.recordFailure(ctx, project.ID)
		return
	}

	body, err := json.Marshal(detail)
	if err != nil {
		r.logger.Error("marshal repo metadata failed", "project_id", project.ID, "error", err)
		body = nil
	}
	if err := r.syncLogs.Append(ctx, project.ID, domain.SyncStatusSuccess, body); err != nil {
		r.logger.Error("append sync log failed", "project_id", project.ID, "error", err)
	}

	if project.IsApproved {
		r.reindex(ctx, project, detail)
	}
}

// reindex pushes the refreshed searchable fields for an approved project.
func (r *Reconciler) reindex(ctx context.Context, project *domain.Project, detail *domain.RepoDetail) {
	tags, err := r.projects.TagsByProjects(ctx, []int64{project.ID})
	if err != nil {
		r.logger.Error("load project tags failed", "project_id", project.ID, "error", err)
		return
	}
	updated := *project
	updated.Name = detail.Name
	updated.License = detail.License
	updated.ProgrammingLanguage = detail.ProgrammingLanguage
	updated.Tags = tags[project.ID]
	r.indexer.EnqueueIndex(project.ID, search.DocFromProject(&updated))
}

func (r *Reconciler) recordFailure(ctx context.Context, projectID int64) {
	if err := r.syncLogs.Append(ctx, projectID, domain.SyncStatusFailed, nil); err != nil {
		r.logger.Error("append sync log failed", "project_id", projectID, "error", err)
	}
}
