package zion

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ListPosts fetches the journal posts of one organization.
// An empty audience (or "all") requests every tier.
func (c *Client) ListPosts(ctx context.Context, orgID, audience string) ([]Post, error) {
	path := fmt.Sprintf("/api/journal/organizations/%s/posts", url.PathEscape(orgID))
	if audience != "" && audience != "all" {
		path += "?" + url.Values{"audience_filter": {audience}}.Encode()
	}

	var posts []Post
	if err := c.doAuth(ctx, http.MethodGet, path, nil, &posts); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// CreatePost publishes a post in an organization's journal
func (c *Client) CreatePost(ctx context.Context, orgID string, post NewPost) (*Post, error) {
	if post.MediaFileIDs == nil {
		post.MediaFileIDs = []string{}
	}
	path := fmt.Sprintf("/api/journal/organizations/%s/posts", url.PathEscape(orgID))

	var created Post
	if err := c.doAuth(ctx, http.MethodPost, path, post, &created); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return &created, nil
}

// TogglePostLike likes or unlikes a post and returns the resulting state
func (c *Client) TogglePostLike(ctx context.Context, postID string) (*LikeState, error) {
	path := fmt.Sprintf("/api/journal/posts/%s/like", url.PathEscape(postID))

	var state LikeState
	if err := c.doAuth(ctx, http.MethodPost, path, nil, &state); err != nil {
		return nil, fmt.Errorf("toggle post like: %w", err)
	}
	return &state, nil
}

// ListComments fetches the comment thread of a post
func (c *Client) ListComments(ctx context.Context, postID string) ([]Comment, error) {
	path := fmt.Sprintf("/api/journal/posts/%s/comments", url.PathEscape(postID))

	var comments []Comment
	if err := c.doAuth(ctx, http.MethodGet, path, nil, &comments); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// CreateComment adds a comment (or a reply when ParentCommentID is set)
func (c *Client) CreateComment(ctx context.Context, postID string, comment NewComment) (*Comment, error) {
	path := fmt.Sprintf("/api/journal/posts/%s/comments", url.PathEscape(postID))

	var created Comment
	if err := c.doAuth(ctx, http.MethodPost, path, comment, &created); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return &created, nil
}

// ToggleCommentLike likes or unlikes a comment
func (c *Client) ToggleCommentLike(ctx context.Context, commentID string) (*LikeState, error) {
	path := fmt.Sprintf("/api/journal/comments/%s/like", url.PathEscape(commentID))

	var state LikeState
	if err := c.doAuth(ctx, http.MethodPost, path, nil, &state); err != nil {
		return nil, fmt.Errorf("toggle comment like: %w", err)
	}
	return &state, nil
}
