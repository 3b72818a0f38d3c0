// Package feed merges the journal posts of every organization the viewer
// belongs to into one timeline and keeps per-post comment threads.
package feed

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/zioncity/zion-sync/internal/zion"
)

const (
	// All disables the organization or audience filter
	All = "all"
	// NoSelection is the organization picker's value before the user chooses one
	NoSelection = "none"
)

var (
	ErrNoOrganization = errors.New("select an organization to post in")
	ErrEmptyContent   = errors.New("post content is required")
	ErrEmptyComment   = errors.New("comment cannot be empty")
)

// API is the subset of the backend the feed talks to
type API interface {
	ListPosts(ctx context.Context, orgID, audience string) ([]zion.Post, error)
	CreatePost(ctx context.Context, orgID string, post zion.NewPost) (*zion.Post, error)
	TogglePostLike(ctx context.Context, postID string) (*zion.LikeState, error)
	ListComments(ctx context.Context, postID string) ([]zion.Comment, error)
	CreateComment(ctx context.Context, postID string, comment zion.NewComment) (*zion.Comment, error)
	ToggleCommentLike(ctx context.Context, commentID string) (*zion.LikeState, error)
}

// Archive receives every merged feed
type Archive interface {
	Record(posts []zion.Post) error
}

// Option configures a Sync
type Option func(*Sync)

// WithArchive records each merged feed into a
func WithArchive(a Archive) Option {
	return func(s *Sync) {
		s.archive = a
	}
}

// Sync is the journal feed of one viewer
type Sync struct {
	api         API
	memberships []zion.Membership
	archive     Archive

	mu       sync.Mutex
	posts    []zion.Post
	comments map[string][]zion.Comment
	expanded map[string]bool
	school   string
	audience string
}

// New creates a feed over the viewer's memberships
func New(api API, memberships []zion.Membership, opts ...Option) *Sync {
	s := &Sync{
		api:         api,
		memberships: memberships,
		comments:    make(map[string][]zion.Comment),
		expanded:    make(map[string]bool),
		school:      All,
		audience:    All,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Posts returns the current merged timeline
func (s *Sync) Posts() []zion.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]zion.Post, len(s.posts))
	copy(out, s.posts)
	return out
}

// Post returns one post of the timeline
func (s *Sync) Post(postID string) (zion.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(postID); i >= 0 {
		return s.posts[i], true
	}
	return zion.Post{}, false
}

// FetchAll loads the posts of every matching (organization, role) pair.
// Teacher memberships are fetched first, then parent memberships, one
// organization at a time. A failing organization contributes no posts.
func (s *Sync) FetchAll(ctx context.Context, school, audience string) []zion.Post {
	if school == "" {
		school = All
	}
	if audience == "" {
		audience = All
	}

	var all []zion.Post
	for _, role := range []zion.Role{zion.RoleTeacher, zion.RoleParent} {
		for _, m := range s.memberships {
			if m.Role != role {
				continue
			}
			if school != All && m.OrganizationID != school {
				continue
			}

			posts, err := s.api.ListPosts(ctx, m.OrganizationID, audience)
			if err != nil {
				log.Printf("Warning: failed to get posts for organization %s (%s): %v", m.OrganizationID, role, err)
				continue
			}
			all = append(all, posts...)
		}
	}

	merged := Merge(all)

	s.mu.Lock()
	s.posts = merged
	s.school = school
	s.audience = audience
	s.mu.Unlock()

	if s.archive != nil && len(merged) > 0 {
		if err := s.archive.Record(merged); err != nil {
			log.Printf("Warning: failed to archive %d posts: %v", len(merged), err)
		}
	}

	out := make([]zion.Post, len(merged))
	copy(out, merged)
	return out
}

// Merge drops repeated post ids and sorts newest first
func Merge(posts []zion.Post) []zion.Post {
	seen := make(map[string]struct{}, len(posts))
	merged := make([]zion.Post, 0, len(posts))
	for _, p := range posts {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		merged = append(merged, p)
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	return merged
}

// CreatePost publishes a post and reloads the feed with the last filters
// so server-assigned fields show up
func (s *Sync) CreatePost(ctx context.Context, orgID, content string, audience zion.Audience, mediaIDs []string) error {
	if orgID == "" || orgID == NoSelection {
		return ErrNoOrganization
	}
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}
	if audience == "" {
		audience = zion.AudiencePublic
	}

	_, err := s.api.CreatePost(ctx, orgID, zion.NewPost{
		Content:      strings.TrimSpace(content),
		AudienceType: audience,
		MediaFileIDs: mediaIDs,
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	school, aud := s.school, s.audience
	s.mu.Unlock()

	s.FetchAll(ctx, school, aud)
	return nil
}

// ToggleLike flips the viewer's like. The cached post takes the flag and
// count the server returns rather than a local guess.
func (s *Sync) ToggleLike(ctx context.Context, postID string) error {
	state, err := s.api.TogglePostLike(ctx, postID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(postID); i >= 0 {
		s.posts[i].UserHasLiked = state.Liked
		s.posts[i].LikesCount = state.LikesCount
	}
	return nil
}

func (s *Sync) indexLocked(postID string) int {
	for i := range s.posts {
		if s.posts[i].ID == postID {
			return i
		}
	}
	return -1
}
