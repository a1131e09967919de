package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensharing/showcase/internal/domain"
	"github.com/opensharing/showcase/internal/platform"
	"github.com/opensharing/showcase/internal/search"
)

type fakeStore struct {
	stale   []domain.Project
	applied []int64
	tags    map[int64][]domain.Tag
}

func (f *fakeStore) ListStale(context.Context, time.Time) ([]domain.Project, error) {
	return f.stale, nil
}

func (f *fakeStore) ApplyRepoDetail(_ context.Context, id int64, _ *domain.RepoDetail) error {
	f.applied = append(f.applied, id)
	return nil
}

func (f *fakeStore) TagsByProjects(_ context.Context, ids []int64) (map[int64][]domain.Tag, error) {
	out := map[int64][]domain.Tag{}
	for _, id := range ids {
		out[id] = f.tags[id]
	}
	return out, nil
}

type logEntry struct {
	projectID int64
	status    string
	detail    []byte
}

type fakeLogs struct {
	entries []logEntry
}

func (f *fakeLogs) Append(_ context.Context, projectID int64, status string, detail []byte) error {
	f.entries = append(f.entries, logEntry{projectID, status, detail})
	return nil
}

type fakeIndexer struct {
	indexed []int64
	docs    []search.ProjectDoc
}

func (f *fakeIndexer) EnqueueIndex(projectID int64, doc search.ProjectDoc) {
	f.indexed = append(f.indexed, projectID)
	f.docs = append(f.docs, doc)
}

// flakyClient fails repo fetches for the repos named in fail.
type flakyClient struct {
	fail map[string]bool
}

func (f *flakyClient) Platform() domain.Platform { return domain.PlatformGitee }
func (f *flakyClient) AuthorizeURL() string      { return "" }

func (f *flakyClient) Exchange(context.Context, string) (platform.Token, error) {
	return platform.Token{}, nil
}

func (f *flakyClient) CurrentUser(context.Context, string) (*platform.Identity, error) {
	return nil, nil
}

func (f *flakyClient) VerifiedPrimaryEmail(context.Context, string, *platform.Identity) (string, error) {
	return "", nil
}

func (f *flakyClient) RepoDetail(_ context.Context, repoID string) (*domain.RepoDetail, error) {
	if f.fail[repoID] {
		return nil, domain.APIError("Gitee repository", nil)
	}
	return &domain.RepoDetail{Name: "fresh-" + repoID, Stars: 1}, nil
}

func staleProject(id int64, repoID string, approved bool) domain.Project {
	return domain.Project{
		ID: id, Name: "stale", Platform: domain.PlatformGitee,
		RepoID: repoID, IsApproved: approved,
	}
}

// One broken upstream repo must not stop the rest of the sweep.
func TestSweepIsolatesFailures(t *testing.T) {
	store := &fakeStore{
		stale: []domain.Project{
			staleProject(1, "a/one", false),
			staleProject(2, "a/two", false),
			staleProject(3, "a/three", false),
		},
	}
	logs := &fakeLogs{}
	client := &flakyClient{fail: map[string]bool{"a/two": true}}

	r := New(store, logs, &fakeIndexer{}, []platform.Client{client}, time.Minute, time.Hour)
	r.Sweep(context.Background())

	assert.Equal(t, []int64{1, 3}, store.applied)

	require.Len(t, logs.entries, 3)
	assert.Equal(t, domain.SyncStatusSuccess, logs.entries[0].status)
	assert.NotEmpty(t, logs.entries[0].detail, "successes carry the fetched metadata")
	assert.Equal(t, domain.SyncStatusFailed, logs.entries[1].status)
	assert.Empty(t, logs.entries[1].detail)
	assert.Equal(t, domain.SyncStatusSuccess, logs.entries[2].status)
}

// Approved projects get their searchable fields re-pushed after a refresh;
// unapproved ones do not touch the index.
func TestSweepReindexesApprovedOnly(t *testing.T) {
	store := &fakeStore{
		stale: []domain.Project{
			staleProject(1, "a/one", true),
			staleProject(2, "a/two", false),
		},
		tags: map[int64][]domain.Tag{1: {{ID: 7}}},
	}
	indexer := &fakeIndexer{}

	r := New(store, &fakeLogs{}, indexer, []platform.Client{&flakyClient{}}, time.Minute, time.Hour)
	r.Sweep(context.Background())

	require.Equal(t, []int64{1}, indexer.indexed)
	assert.Equal(t, "fresh-a/one", indexer.docs[0].Name)
	assert.Equal(t, []int64{7}, indexer.docs[0].Tags)
}

func TestSweepStopsOnCancel(t *testing.T) {
	store := &fakeStore{
		stale: []domain.Project{
			staleProject(1, "a/one", false),
			staleProject(2, "a/two", false),
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(store, &fakeLogs{}, &fakeIndexer{}, []platform.Client{&flakyClient{}}, time.Minute, time.Hour)
	r.Sweep(ctx)

	assert.Empty(t, store.applied)
}
