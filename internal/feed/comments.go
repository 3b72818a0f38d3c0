package feed

import (
	"context"
	"log"
	"strings"

	"github.com/zioncity/zion-sync/internal/zion"
)

// Comments returns the cached thread of a post and whether it was loaded
func (s *Sync) Comments(postID string) ([]zion.Comment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[postID]
	return c, ok
}

// Expanded reports whether the comment section of a post is open
func (s *Sync) Expanded(postID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expanded[postID]
}

// LoadComments fetches a thread the first time it is needed.
// Later calls return the cached thread without a request.
func (s *Sync) LoadComments(ctx context.Context, postID string) ([]zion.Comment, error) {
	s.mu.Lock()
	cached, ok := s.comments[postID]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}
	return s.reloadComments(ctx, postID)
}

// ToggleComments opens or closes a post's comment section, loading the
// thread on first open
func (s *Sync) ToggleComments(ctx context.Context, postID string) (bool, error) {
	s.mu.Lock()
	open := !s.expanded[postID]
	s.expanded[postID] = open
	s.mu.Unlock()

	if !open {
		return false, nil
	}
	_, err := s.LoadComments(ctx, postID)
	return true, err
}

// SubmitComment adds a top-level comment
func (s *Sync) SubmitComment(ctx context.Context, postID, content string) error {
	return s.submit(ctx, postID, zion.NewComment{Content: content})
}

// SubmitReply answers a comment. Replies nest one level: answering a reply
// attaches to that reply's top-level comment.
func (s *Sync) SubmitReply(ctx context.Context, postID, parentID, content string) error {
	s.mu.Lock()
	parentID = topLevelID(s.comments[postID], parentID)
	s.mu.Unlock()
	return s.submit(ctx, postID, zion.NewComment{Content: content, ParentCommentID: parentID})
}

func (s *Sync) submit(ctx context.Context, postID string, c zion.NewComment) error {
	c.Content = strings.TrimSpace(c.Content)
	if c.Content == "" {
		return ErrEmptyComment
	}

	if _, err := s.api.CreateComment(ctx, postID, c); err != nil {
		return err
	}

	s.mu.Lock()
	if i := s.indexLocked(postID); i >= 0 {
		s.posts[i].CommentsCount++
	}
	s.mu.Unlock()

	// The thread shape after an insert is the server's call, so reload it whole
	if _, err := s.reloadComments(ctx, postID); err != nil {
		log.Printf("Warning: comment posted but reloading thread of %s failed: %v", postID, err)
		s.mu.Lock()
		delete(s.comments, postID)
		s.mu.Unlock()
	}
	return nil
}

// ToggleCommentLike flips the viewer's like on a comment and reloads the
// thread to pick up the new counts
func (s *Sync) ToggleCommentLike(ctx context.Context, commentID, postID string) error {
	if _, err := s.api.ToggleCommentLike(ctx, commentID); err != nil {
		return err
	}
	_, err := s.reloadComments(ctx, postID)
	return err
}

func (s *Sync) reloadComments(ctx context.Context, postID string) ([]zion.Comment, error) {
	comments, err := s.api.ListComments(ctx, postID)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []zion.Comment{}
	}

	s.mu.Lock()
	s.comments[postID] = comments
	s.mu.Unlock()
	return comments, nil
}

func topLevelID(thread []zion.Comment, id string) string {
	for _, c := range thread {
		if c.ID == id {
			return id
		}
		for _, r := range c.Replies {
			if r.ID == id {
				return c.ID
			}
		}
	}
	return id
}
