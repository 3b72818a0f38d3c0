package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zioncity/zion-sync/internal/zion"
)

type mockAPI struct {
	listPostsFn         func(ctx context.Context, orgID, audience string) ([]zion.Post, error)
	createPostFn        func(ctx context.Context, orgID string, post zion.NewPost) (*zion.Post, error)
	togglePostLikeFn    func(ctx context.Context, postID string) (*zion.LikeState, error)
	listCommentsFn      func(ctx context.Context, postID string) ([]zion.Comment, error)
	createCommentFn     func(ctx context.Context, postID string, c zion.NewComment) (*zion.Comment, error)
	toggleCommentLikeFn func(ctx context.Context, commentID string) (*zion.LikeState, error)

	calls []string
}

func (m *mockAPI) ListPosts(ctx context.Context, orgID, audience string) ([]zion.Post, error) {
	m.calls = append(m.calls, "list:"+orgID+":"+audience)
	if m.listPostsFn != nil {
		return m.listPostsFn(ctx, orgID, audience)
	}
	return nil, nil
}

func (m *mockAPI) CreatePost(ctx context.Context, orgID string, post zion.NewPost) (*zion.Post, error) {
	m.calls = append(m.calls, "create:"+orgID)
	if m.createPostFn != nil {
		return m.createPostFn(ctx, orgID, post)
	}
	return &zion.Post{ID: "new"}, nil
}

func (m *mockAPI) TogglePostLike(ctx context.Context, postID string) (*zion.LikeState, error) {
	m.calls = append(m.calls, "like:"+postID)
	if m.togglePostLikeFn != nil {
		return m.togglePostLikeFn(ctx, postID)
	}
	return &zion.LikeState{}, nil
}

func (m *mockAPI) ListComments(ctx context.Context, postID string) ([]zion.Comment, error) {
	m.calls = append(m.calls, "comments:"+postID)
	if m.listCommentsFn != nil {
		return m.listCommentsFn(ctx, postID)
	}
	return []zion.Comment{}, nil
}

func (m *mockAPI) CreateComment(ctx context.Context, postID string, c zion.NewComment) (*zion.Comment, error) {
	m.calls = append(m.calls, "comment:"+postID)
	if m.createCommentFn != nil {
		return m.createCommentFn(ctx, postID, c)
	}
	return &zion.Comment{ID: "c-new"}, nil
}

func (m *mockAPI) ToggleCommentLike(ctx context.Context, commentID string) (*zion.LikeState, error) {
	m.calls = append(m.calls, "comment-like:"+commentID)
	if m.toggleCommentLikeFn != nil {
		return m.toggleCommentLikeFn(ctx, commentID)
	}
	return &zion.LikeState{}, nil
}

type recordingArchive struct {
	got [][]zion.Post
	err error
}

func (r *recordingArchive) Record(posts []zion.Post) error {
	r.got = append(r.got, posts)
	return r.err
}

var base = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

func post(id string, minute int) zion.Post {
	return zion.Post{ID: id, CreatedAt: base.Add(time.Duration(minute) * time.Minute)}
}

func ids(posts []zion.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func teacherAndParent() []zion.Membership {
	return []zion.Membership{
		{OrganizationID: "B", Role: zion.RoleParent},
		{OrganizationID: "A", Role: zion.RoleTeacher},
	}
}

func TestFetchAll_MergesDedupesAndSorts(t *testing.T) {
	api := &mockAPI{
		listPostsFn: func(ctx context.Context, orgID, audience string) ([]zion.Post, error) {
			switch orgID {
			case "A":
				return []zion.Post{post("1", 10), post("2", 5)}, nil
			case "B":
				return []zion.Post{post("2", 5), post("3", 20)}, nil
			}
			return nil, nil
		},
	}

	s := New(api, teacherAndParent())
	got := s.FetchAll(context.Background(), All, All)

	assert.Equal(t, []string{"3", "1", "2"}, ids(got))
	assert.Equal(t, []string{"3", "1", "2"}, ids(s.Posts()))
	// teacher group first, then parents
	assert.Equal(t, []string{"list:A:all", "list:B:all"}, api.calls)
}

func TestFetchAll_SameOrganizationInBothRoles(t *testing.T) {
	api := &mockAPI{
		listPostsFn: func(ctx context.Context, orgID, audience string) ([]zion.Post, error) {
			return []zion.Post{post("1", 1), post("2", 2)}, nil
		},
	}
	s := New(api, []zion.Membership{
		{OrganizationID: "A", Role: zion.RoleTeacher},
		{OrganizationID: "A", Role: zion.RoleParent},
	})

	got := s.FetchAll(context.Background(), All, All)
	assert.Equal(t, []string{"2", "1"}, ids(got))
	assert.Len(t, api.calls, 2)
}

func TestFetchAll_PartialFailure(t *testing.T) {
	api := &mockAPI{
		listPostsFn: func(ctx context.Context, orgID, audience string) ([]zion.Post, error) {
			if orgID == "A" {
				return nil, &zion.APIError{Status: 500, Detail: "boom"}
			}
			return []zion.Post{post("3", 20)}, nil
		},
	}

	s := New(api, teacherAndParent())
	got := s.FetchAll(context.Background(), All, All)
	assert.Equal(t, []string{"3"}, ids(got))
}

func TestFetchAll_Filters(t *testing.T) {
	api := &mockAPI{}
	s := New(api, teacherAndParent())

	s.FetchAll(context.Background(), "B", string(zion.AudienceParentsOnly))
	assert.Equal(t, []string{"list:B:PARENTS_ONLY"}, api.calls)
}

func TestFetchAll_RecordsIntoArchive(t *testing.T) {
	api := &mockAPI{
		listPostsFn: func(ctx context.Context, orgID, audience string) ([]zion.Post, error) {
			return []zion.Post{post(orgID+"-1", 1)}, nil
		},
	}
	archive := &recordingArchive{err: errors.New("disk full")}
	s := New(api, teacherAndParent(), WithArchive(archive))

	got := s.FetchAll(context.Background(), All, All)
	assert.Len(t, got, 2)
	require.Len(t, archive.got, 1)
	assert.Len(t, archive.got[0], 2)
}

func TestMerge_SortedDescending(t *testing.T) {
	in := []zion.Post{post("a", 3), post("b", 9), post("c", 1), post("b", 9), post("d", 5)}
	got := Merge(in)
	require.Len(t, got, 4)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].CreatedAt.After(got[i-1].CreatedAt))
	}
	assert.Empty(t, Merge(nil))
}

func TestCreatePost_ValidatesLocally(t *testing.T) {
	api := &mockAPI{}
	s := New(api, teacherAndParent())

	assert.ErrorIs(t, s.CreatePost(context.Background(), NoSelection, "hello", zion.AudiencePublic, nil), ErrNoOrganization)
	assert.ErrorIs(t, s.CreatePost(context.Background(), "", "hello", zion.AudiencePublic, nil), ErrNoOrganization)
	assert.ErrorIs(t, s.CreatePost(context.Background(), "A", "   ", zion.AudiencePublic, nil), ErrEmptyContent)
	assert.Empty(t, api.calls)
}

func TestCreatePost_RefetchesWithLastFilters(t *testing.T) {
	var sent zion.NewPost
	api := &mockAPI{
		createPostFn: func(ctx context.Context, orgID string, p zion.NewPost) (*zion.Post, error) {
			sent = p
			return &zion.Post{ID: "9"}, nil
		},
	}
	s := New(api, teacherAndParent())
	s.FetchAll(context.Background(), "A", string(zion.AudienceTeachersOnly))
	api.calls = nil

	err := s.CreatePost(context.Background(), "A", " hi ", zion.AudienceTeachersOnly, []string{"m1", "m2"})
	require.NoError(t, err)
	assert.Equal(t, "hi", sent.Content)
	assert.Equal(t, []string{"m1", "m2"}, sent.MediaFileIDs)
	assert.Equal(t, []string{"create:A", "list:A:TEACHERS_ONLY"}, api.calls)
}

func TestCreatePost_ServerErrorSurfacesDetail(t *testing.T) {
	api := &mockAPI{
		createPostFn: func(ctx context.Context, orgID string, p zion.NewPost) (*zion.Post, error) {
			return nil, &zion.APIError{Status: 403, Detail: "Only teachers can post"}
		},
	}
	s := New(api, teacherAndParent())

	err := s.CreatePost(context.Background(), "B", "hi", zion.AudiencePublic, nil)
	assert.Equal(t, "Only teachers can post", zion.Message(err))
	assert.Equal(t, []string{"create:B"}, api.calls)
}

func TestToggleLike_UsesServerCount(t *testing.T) {
	api := &mockAPI{
		listPostsFn: func(ctx context.Context, orgID, audience string) ([]zion.Post, error) {
			p := post("1", 1)
			p.LikesCount = 3
			return []zion.Post{p}, nil
		},
		togglePostLikeFn: func(ctx context.Context, postID string) (*zion.LikeState, error) {
			// someone else liked it meanwhile
			return &zion.LikeState{Liked: true, LikesCount: 5}, nil
		},
	}
	s := New(api, []zion.Membership{{OrganizationID: "A", Role: zion.RoleTeacher}})
	s.FetchAll(context.Background(), All, All)

	require.NoError(t, s.ToggleLike(context.Background(), "1"))
	p, ok := s.Post("1")
	require.True(t, ok)
	assert.True(t, p.UserHasLiked)
	assert.Equal(t, 5, p.LikesCount)
}

func TestToggleLike_FailureLeavesPost(t *testing.T) {
	api := &mockAPI{
		listPostsFn: func(ctx context.Context, orgID, audience string) ([]zion.Post, error) {
			p := post("1", 1)
			p.LikesCount = 3
			return []zion.Post{p}, nil
		},
		togglePostLikeFn: func(ctx context.Context, postID string) (*zion.LikeState, error) {
			return nil, zion.ErrNetwork
		},
	}
	s := New(api, []zion.Membership{{OrganizationID: "A", Role: zion.RoleTeacher}})
	s.FetchAll(context.Background(), All, All)

	assert.Error(t, s.ToggleLike(context.Background(), "1"))
	p, _ := s.Post("1")
	assert.False(t, p.UserHasLiked)
	assert.Equal(t, 3, p.LikesCount)
}
