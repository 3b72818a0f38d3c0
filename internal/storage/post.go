package storage

import "time"

// Post is a journal post snapshot kept in the local archive
type Post struct {
	ID             string    `db:"id"`
	OrganizationID string    `db:"organization_id"`
	AuthorName     string    `db:"author_name"`
	Content        string    `db:"content"`
	ContentHash    string    `db:"content_hash"`
	AudienceType   string    `db:"audience_type"`
	LikesCount     int       `db:"likes_count"`
	CommentsCount  int       `db:"comments_count"`
	MediaCount     int       `db:"media_count"`
	CreatedAt      time.Time `db:"created_at"`
	SyncedAt       time.Time `db:"synced_at"` // When we last saw it in a feed
}
