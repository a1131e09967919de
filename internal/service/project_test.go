package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensharing/showcase/internal/domain"
	"github.com/opensharing/showcase/internal/platform"
	"github.com/opensharing/showcase/internal/repository"
	"github.com/opensharing/showcase/internal/search"
	"github.com/opensharing/showcase/internal/token"
)

// fakeProjects is an in-memory ProjectStore.
type fakeProjects struct {
	nextID   int64
	projects map[int64]*domain.Project
	tags     map[int64][]int64
	views    map[int64]int
	deleted  []int64
}

func newFakeProjects(seed ...*domain.Project) *fakeProjects {
	f := &fakeProjects{
		projects: map[int64]*domain.Project{},
		tags:     map[int64][]int64{},
		views:    map[int64]int{},
	}
	for _, p := range seed {
		if p.ID > f.nextID {
			f.nextID = p.ID
		}
		f.projects[p.ID] = p
	}
	return f
}

func (f *fakeProjects) Create(_ context.Context, p domain.Project) (*domain.Project, error) {
	for _, existing := range f.projects {
		if existing.Platform == p.Platform && existing.RepoID == p.RepoID {
			return nil, domain.Conflict("project")
		}
	}
	f.nextID++
	p.ID = f.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	f.projects[p.ID] = &p
	copied := p
	return &copied, nil
}

func (f *fakeProjects) FindByID(_ context.Context, id int64) (*domain.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, domain.NotFound("project")
	}
	copied := *p
	return &copied, nil
}

func (f *fakeProjects) List(_ context.Context, _ repository.ListParams, ids []int64) ([]domain.Project, int, error) {
	var out []domain.Project
	for _, p := range f.projects {
		if len(ids) > 0 && !containsID(ids, p.ID) {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (f *fakeProjects) ListBySubmitter(_ context.Context, userID int64) ([]domain.Project, error) {
	var out []domain.Project
	for _, p := range f.projects {
		if p.SubmitterID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProjects) ListUnapproved(context.Context) ([]domain.Project, error) {
	var out []domain.Project
	for _, p := range f.projects {
		if !p.IsApproved && p.ApprovalDate == nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProjects) Update(_ context.Context, id int64, patch repository.ProjectPatch) (*domain.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, domain.NotFound("project")
	}
	if patch.Brief != nil {
		p.Brief = *patch.Brief
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.DownloadURL != nil {
		p.DownloadURL = patch.DownloadURL
	}
	if patch.CodeExample != nil {
		p.CodeExample = patch.CodeExample
	}
	if patch.IsApproved != nil {
		p.IsApproved = *patch.IsApproved
		now := time.Now()
		p.ApprovalDate = &now
	}
	if patch.IsFeatured != nil {
		p.IsFeatured = *patch.IsFeatured
	}
	p.UpdatedAt = time.Now()
	copied := *p
	return &copied, nil
}

func (f *fakeProjects) Delete(_ context.Context, id int64) error {
	if _, ok := f.projects[id]; !ok {
		return domain.NotFound("project")
	}
	delete(f.projects, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeProjects) IncrementViewCount(_ context.Context, id int64) error {
	f.views[id]++
	return nil
}

func (f *fakeProjects) ReplaceTags(_ context.Context, projectID int64, tagIDs []int64) error {
	f.tags[projectID] = tagIDs
	return nil
}

func (f *fakeProjects) TagsByProjects(_ context.Context, projectIDs []int64) (map[int64][]domain.Tag, error) {
	out := map[int64][]domain.Tag{}
	for _, id := range projectIDs {
		for _, tagID := range f.tags[id] {
			out[id] = append(out[id], domain.Tag{ID: tagID})
		}
	}
	return out, nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

type fakeImages struct {
	attached map[int64][]int64
}

func (f *fakeImages) AttachToProject(_ context.Context, projectID int64, imageIDs []int64) error {
	if f.attached == nil {
		f.attached = map[int64][]int64{}
	}
	f.attached[projectID] = append(f.attached[projectID], imageIDs...)
	return nil
}

func (f *fakeImages) ByProject(context.Context, int64) ([]domain.Image, error) {
	return nil, nil
}

type fakeSyncLogs struct {
	entries []domain.SyncLog
}

func (f *fakeSyncLogs) Append(_ context.Context, projectID int64, status string, detail []byte) error {
	f.entries = append(f.entries, domain.SyncLog{
		ProjectID:     projectID,
		Status:        status,
		ProjectDetail: detail,
	})
	return nil
}

func (f *fakeSyncLogs) ByProject(_ context.Context, projectID int64) ([]domain.SyncLog, error) {
	var out []domain.SyncLog
	for _, e := range f.entries {
		if e.ProjectID == projectID {
			out = append(out, e)
		}
	}
	return out, nil
}

type indexOp struct {
	delete    bool
	projectID int64
	doc       search.ProjectDoc
}

type fakeIndexer struct {
	ops []indexOp
}

func (f *fakeIndexer) EnqueueIndex(projectID int64, doc search.ProjectDoc) {
	f.ops = append(f.ops, indexOp{projectID: projectID, doc: doc})
}

func (f *fakeIndexer) EnqueueDelete(projectID int64) {
	f.ops = append(f.ops, indexOp{delete: true, projectID: projectID})
}

type fakeSearcher struct {
	ids []int64
}

func (f *fakeSearcher) Search(context.Context, search.Params) ([]int64, error) {
	return f.ids, nil
}

func (f *fakeSearcher) Suggest(context.Context, string) ([]string, error) {
	return nil, nil
}

type notice struct {
	userID  int64
	content string
	admins  bool
}

type fakeNotificationStore struct {
	notices    []notice
	failCreate error
}

func (f *fakeNotificationStore) Create(_ context.Context, userID int64, content string, _, _ *int64) error {
	if f.failCreate != nil {
		return f.failCreate
	}
	f.notices = append(f.notices, notice{userID: userID, content: content})
	return nil
}

func (f *fakeNotificationStore) CreateForAdmins(_ context.Context, content string, _, _ *int64) error {
	f.notices = append(f.notices, notice{content: content, admins: true})
	return nil
}

func (f *fakeNotificationStore) Broadcast(context.Context, string) error { return nil }

func (f *fakeNotificationStore) ByUser(context.Context, int64) ([]domain.Notification, error) {
	return nil, nil
}

func (f *fakeNotificationStore) MarkRead(context.Context, int64, int64) error    { return nil }
func (f *fakeNotificationStore) MarkAllRead(context.Context, int64) error        { return nil }
func (f *fakeNotificationStore) Delete(context.Context, int64, int64) error      { return nil }

type projectFixture struct {
	svc      *ProjectService
	projects *fakeProjects
	syncLogs *fakeSyncLogs
	indexer  *fakeIndexer
	notices  *fakeNotificationStore
	users    *fakeUsers
}

func newProjectFixture(t *testing.T, users *fakeUsers, seed ...*domain.Project) *projectFixture {
	t.Helper()
	projects := newFakeProjects(seed...)
	syncLogs := &fakeSyncLogs{}
	indexer := &fakeIndexer{}
	notices := &fakeNotificationStore{}
	client := giteeClient()
	client.repoDetail = &domain.RepoDetail{
		Name:            "widget",
		RepoURL:         "https://gitee.com/acme/widget",
		Stars:           12,
		OwnerPlatformID: 777,
	}
	svc := NewProjectService(projects, &fakeImages{}, syncLogs, users,
		[]platform.Client{client}, &fakeSearcher{}, indexer,
		NewNotificationService(notices))
	return &projectFixture{svc: svc, projects: projects, syncLogs: syncLogs, indexer: indexer, notices: notices, users: users}
}

func session(id int64, role domain.Role) *token.Session {
	return &token.Session{UserID: id, Username: "u", Role: role}
}

func TestSubmitFetchesMetadataAndNotifiesAdmins(t *testing.T) {
	users := newFakeUsers(&domain.User{ID: 1, Username: "alice", Role: domain.RoleUser, InUse: true})
	fx := newProjectFixture(t, users)

	project, err := fx.svc.Submit(context.Background(), 1, SubmitProjectInput{
		Platform:    domain.PlatformGitee,
		RepoID:      "acme/widget",
		Brief:       "a widget",
		Description: "does widget things",
		Tags:        []int64{3, 4},
	})
	require.NoError(t, err)

	assert.Equal(t, "widget", project.Name)
	assert.Equal(t, 12, project.Stars)
	assert.False(t, project.IsApproved, "submissions start unapproved")
	assert.Len(t, project.Tags, 2)

	require.Len(t, fx.notices.notices, 2)
	assert.True(t, fx.notices.notices[0].admins)
	assert.Equal(t, int64(1), fx.notices.notices[1].userID)

	require.Len(t, fx.syncLogs.entries, 1)
	assert.Equal(t, domain.SyncStatusSuccess, fx.syncLogs.entries[0].Status)
	assert.NotEmpty(t, fx.syncLogs.entries[0].ProjectDetail)

	assert.Empty(t, fx.indexer.ops, "unapproved projects are not indexed")
}

func TestUpdatePermissions(t *testing.T) {
	ownerPlatformID := int64(777)
	users := newFakeUsers(
		&domain.User{ID: 1, Username: "submitter", Role: domain.RoleUser, InUse: true},
		&domain.User{ID: 2, Username: "owner", Role: domain.RoleUser, InUse: true, GiteeID: &ownerPlatformID},
		&domain.User{ID: 3, Username: "bystander", Role: domain.RoleUser, InUse: true},
	)
	brief := "updated"

	tests := []struct {
		name     string
		session  *token.Session
		approved bool
		input    UpdateProjectInput
		wantCode int
	}{
		{
			name:    "submitter edits while unapproved",
			session: session(1, domain.RoleUser),
			input:   UpdateProjectInput{Brief: &brief},
		},
		{
			name:     "submitter locked out after approval",
			session:  session(1, domain.RoleUser),
			approved: true,
			input:    UpdateProjectInput{Brief: &brief},
			wantCode: domain.CodePermissionDenied,
		},
		{
			name:     "owner edits after approval",
			session:  session(2, domain.RoleUser),
			approved: true,
			input:    UpdateProjectInput{Brief: &brief},
		},
		{
			name:     "bystander denied",
			session:  session(3, domain.RoleUser),
			input:    UpdateProjectInput{Brief: &brief},
			wantCode: domain.CodePermissionDenied,
		},
		{
			name:     "non-admin cannot approve",
			session:  session(1, domain.RoleUser),
			input:    UpdateProjectInput{IsApproved: boolPtr(true)},
			wantCode: domain.CodePermissionDenied,
		},
		{
			name:     "admin edits anything",
			session:  session(99, domain.RoleAdmin),
			approved: true,
			input:    UpdateProjectInput{Brief: &brief, IsFeatured: boolPtr(true)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newProjectFixture(t, users, &domain.Project{
				ID: 10, Name: "widget", Platform: domain.PlatformGitee,
				RepoID: "acme/widget", SubmitterID: 1,
				OwnerPlatformID: &ownerPlatformID, IsApproved: tt.approved,
			})
			_, err := fx.svc.Update(context.Background(), tt.session, 10, tt.input)
			if tt.wantCode == 0 {
				require.NoError(t, err)
			} else {
				requireCode(t, err, tt.wantCode)
			}
		})
	}
}

func TestApprovalNotifiesAndIndexes(t *testing.T) {
	users := newFakeUsers(&domain.User{ID: 1, Username: "alice", Role: domain.RoleUser, InUse: true})
	fx := newProjectFixture(t, users, &domain.Project{
		ID: 10, Name: "widget", Platform: domain.PlatformGitee,
		RepoID: "acme/widget", SubmitterID: 1,
	})

	updated, err := fx.svc.Update(context.Background(), session(99, domain.RoleAdmin), 10,
		UpdateProjectInput{IsApproved: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, updated.IsApproved)

	require.Len(t, fx.notices.notices, 1)
	assert.Equal(t, int64(1), fx.notices.notices[0].userID)

	require.Len(t, fx.indexer.ops, 1)
	assert.False(t, fx.indexer.ops[0].delete)
	assert.Equal(t, int64(10), fx.indexer.ops[0].projectID)
	assert.Equal(t, "widget", fx.indexer.ops[0].doc.Name)
}

func TestUnapproveRemovesFromIndex(t *testing.T) {
	users := newFakeUsers()
	now := time.Now()
	fx := newProjectFixture(t, users, &domain.Project{
		ID: 10, Name: "widget", Platform: domain.PlatformGitee,
		RepoID: "acme/widget", SubmitterID: 1, IsApproved: true, ApprovalDate: &now,
	})

	_, err := fx.svc.Update(context.Background(), session(99, domain.RoleAdmin), 10,
		UpdateProjectInput{IsApproved: boolPtr(false)})
	require.NoError(t, err)

	require.Len(t, fx.indexer.ops, 1)
	assert.True(t, fx.indexer.ops[0].delete)
}

func TestDeleteByAdminNotifiesSubmitter(t *testing.T) {
	users := newFakeUsers(&domain.User{ID: 1, Username: "alice", Role: domain.RoleUser, InUse: true})
	fx := newProjectFixture(t, users, &domain.Project{
		ID: 10, Name: "widget", Platform: domain.PlatformGitee,
		RepoID: "acme/widget", SubmitterID: 1,
	})

	err := fx.svc.Delete(context.Background(), session(99, domain.RoleAdmin), 10)
	require.NoError(t, err)

	assert.Equal(t, []int64{10}, fx.projects.deleted)
	require.Len(t, fx.notices.notices, 1)
	assert.Equal(t, int64(1), fx.notices.notices[0].userID)
	require.Len(t, fx.indexer.ops, 1)
	assert.True(t, fx.indexer.ops[0].delete)
}

func TestGetBumpsViewCount(t *testing.T) {
	fx := newProjectFixture(t, newFakeUsers(), &domain.Project{
		ID: 10, Name: "widget", Platform: domain.PlatformGitee,
		RepoID: "acme/widget", SubmitterID: 1,
	})

	project, err := fx.svc.Get(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, project.ViewCount)
	assert.Equal(t, 1, fx.projects.views[10])
}

func boolPtr(b bool) *bool { return &b }
