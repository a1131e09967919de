package search

import (
	"context"
	"log/slog"
	"time"
)

// Store is the index surface the Indexer writes to.
type Store interface {
	IndexProject(ctx context.Context, projectID int64, doc ProjectDoc) error
	DeleteProject(ctx context.Context, projectID int64) error
}

type jobKind int

const (
	jobIndex jobKind = iota
	jobDelete
)

type job struct {
	kind      jobKind
	projectID int64
	doc       ProjectDoc
}

// Indexer applies index writes asynchronously so they never sit on a
// request's success path. Failures are logged with the project id; the
// index is a rebuildable cache, so lost writes degrade search results
// without corrupting anything.
type Indexer struct {
	store  Store
	jobs   chan job
	logger *slog.Logger
}

// NewIndexer creates an Indexer with a bounded queue.
func NewIndexer(store Store, queueSize int) *Indexer {
	return &Indexer{
		store:  store,
		jobs:   make(chan job, queueSize),
		logger: slog.With("component", "search-indexer"),
	}
}

// EnqueueIndex queues an index write. When the queue is full the job is
// dropped and logged rather than blocking the caller.
func (ix *Indexer) EnqueueIndex(projectID int64, doc ProjectDoc) {
	ix.enqueue(job{kind: jobIndex, projectID: projectID, doc: doc})
}

// EnqueueDelete queues an index removal.
func (ix *Indexer) EnqueueDelete(projectID int64) {
	ix.enqueue(job{kind: jobDelete, projectID: projectID})
}

func (ix *Indexer) enqueue(j job) {
	select {
	case ix.jobs <- j:
	default:
		ix.logger.Error("index queue full, dropping write", "project_id", j.projectID)
	}
}

// Run drains the queue until ctx is cancelled.
func (ix *Indexer) Run(ctx context.Context) {
	ix.logger.Info("indexer started")
	for {
		select {
		case <-ctx.Done():
			ix.logger.Info("indexer stopped")
			return
		case j := <-ix.jobs:
			ix.apply(ctx, j)
		}
	}
}

func (ix *Indexer) apply(ctx context.Context, j job) {
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	var err error
	switch j.kind {
	case jobIndex:
		err = ix.store.IndexProject(opCtx, j.projectID, j.doc)
	case jobDelete:
		err = ix.store.DeleteProject(opCtx, j.projectID)
	}
	if err != nil {
		ix.logger.Error("index write failed", "project_id", j.projectID, "error", err)
	}
}
