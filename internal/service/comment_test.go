package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensharing/showcase/internal/domain"
)

type fakeComments struct {
	nextID   int64
	comments map[int64]*domain.Comment
}

func newFakeComments() *fakeComments {
	return &fakeComments{comments: map[int64]*domain.Comment{}}
}

func (f *fakeComments) Create(_ context.Context, projectID, userID int64, content string, parentID *int64) (*domain.Comment, error) {
	f.nextID++
	c := &domain.Comment{ID: f.nextID, ProjectID: projectID, UserID: userID, Content: content, ParentID: parentID}
	f.comments[c.ID] = c
	copied := *c
	return &copied, nil
}

func (f *fakeComments) FindByID(_ context.Context, id int64) (*domain.Comment, error) {
	c, ok := f.comments[id]
	if !ok {
		return nil, domain.NotFound("comment")
	}
	copied := *c
	return &copied, nil
}

func (f *fakeComments) Replies(_ context.Context, commentID int64) ([]domain.Comment, error) {
	var out []domain.Comment
	for _, c := range f.comments {
		if c.ParentID != nil && *c.ParentID == commentID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeComments) ByProject(_ context.Context, projectID int64) ([]domain.Comment, error) {
	var out []domain.Comment
	for _, c := range f.comments {
		if c.ProjectID == projectID && c.ParentID == nil {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeComments) Delete(_ context.Context, id int64) error {
	if _, ok := f.comments[id]; !ok {
		return domain.NotFound("comment")
	}
	delete(f.comments, id)
	return nil
}

func newCommentFixture(submitterID int64) (*CommentService, *fakeComments, *fakeNotificationStore) {
	comments := newFakeComments()
	notices := &fakeNotificationStore{}
	projects := newFakeProjects(&domain.Project{
		ID: 10, Name: "widget", SubmitterID: submitterID,
		Platform: domain.PlatformGitee, RepoID: "acme/widget",
	})
	svc := NewCommentService(comments, projects, NewNotificationService(notices))
	return svc, comments, notices
}

func TestCommentNotifiesSubmitter(t *testing.T) {
	svc, _, notices := newCommentFixture(1)

	_, err := svc.Create(context.Background(), 2, 10, "nice project", nil)
	require.NoError(t, err)

	require.Len(t, notices.notices, 1)
	assert.Equal(t, int64(1), notices.notices[0].userID)
}

func TestOwnCommentIsSilent(t *testing.T) {
	svc, _, notices := newCommentFixture(1)

	_, err := svc.Create(context.Background(), 1, 10, "my own project", nil)
	require.NoError(t, err)
	assert.Empty(t, notices.notices)
}

func TestReplyNotifiesParentAuthor(t *testing.T) {
	svc, _, notices := newCommentFixture(1)
	ctx := context.Background()

	parent, err := svc.Create(ctx, 2, 10, "question", nil)
	require.NoError(t, err)
	notices.notices = nil

	_, err = svc.Create(ctx, 3, 10, "answer", &parent.ID)
	require.NoError(t, err)

	require.Len(t, notices.notices, 1)
	assert.Equal(t, int64(2), notices.notices[0].userID)
}

func TestReplyMustStayOnProject(t *testing.T) {
	svc, comments, _ := newCommentFixture(1)

	// parent on a different project
	parent, err := comments.Create(context.Background(), 99, 2, "elsewhere", nil)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), 3, 10, "reply", &parent.ID)
	requireCode(t, err, domain.CodeValidation)
}

func TestCommentDeletePermissions(t *testing.T) {
	svc, _, _ := newCommentFixture(1)
	ctx := context.Background()

	comment, err := svc.Create(ctx, 2, 10, "to be deleted", nil)
	require.NoError(t, err)

	err = svc.Delete(ctx, session(3, domain.RoleUser), comment.ID)
	requireCode(t, err, domain.CodePermissionDenied)

	require.NoError(t, svc.Delete(ctx, session(2, domain.RoleUser), comment.ID))

	// admins can delete anyone's comment
	other, err := svc.Create(ctx, 2, 10, "another", nil)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, session(99, domain.RoleAdmin), other.ID))
}
