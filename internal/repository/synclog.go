package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/opensharing/showcase/internal/domain"
)

// SyncLogRepository appends reconciliation outcomes. Rows are never
// updated or deleted.
type SyncLogRepository struct {
	db *sqlx.DB
}

// NewSyncLogRepository creates a new SyncLogRepository.
func NewSyncLogRepository(db *sqlx.DB) *SyncLogRepository {
	return &SyncLogRepository{db: db}
}

// Append records one sync attempt. detail is the fetched metadata as JSON
// for success, or nil for failures.
func (r *SyncLogRepository) Append(ctx context.Context, projectID int64, status string, detail []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sync_logs (project_id, status, project_detail) VALUES ($1, $2, $3)`,
		projectID, status, detail)
	if err != nil {
		return fmt.Errorf("append sync log for project %d: %w", projectID, err)
	}
	return nil
}

// ByProject returns a project's sync history, newest first.
func (r *SyncLogRepository) ByProject(ctx context.Context, projectID int64) ([]domain.SyncLog, error) {
	logs := []domain.SyncLog{}
	err := r.db.SelectContext(ctx, &logs,
		`SELECT id, project_id, status, project_detail, created_at
		 FROM sync_logs WHERE project_id = $1 ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list sync logs for project %d: %w", projectID, err)
	}
	return logs, nil
}
