// Package archive keeps a local copy of every journal post seen in a feed
// and the full-text index over it.
package archive

import (
	"crypto/md5"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/zioncity/zion-sync/internal/search"
	"github.com/zioncity/zion-sync/internal/storage"
	"github.com/zioncity/zion-sync/internal/zion"
)

// Stats holds the outcome of one Record call
type Stats struct {
	TotalPosts     int
	NewPosts       int
	UpdatedPosts   int
	UnchangedPosts int
	Errors         int
	Duration       time.Duration
}

// Archive stores post snapshots and indexes their content
type Archive struct {
	db    *storage.DB
	index *search.Index
	now   func() time.Time
}

// New creates an archive over an opened database and index
func New(db *storage.DB, index *search.Index) *Archive {
	return &Archive{db: db, index: index, now: time.Now}
}

// Record stores a merged feed. Individual failures are logged and counted;
// an error is returned only if no post could be stored.
func (a *Archive) Record(posts []zion.Post) error {
	stats := a.RecordStats(posts)
	if stats.Errors > 0 && stats.Errors == stats.TotalPosts {
		return fmt.Errorf("archive: all %d posts failed", stats.TotalPosts)
	}
	return nil
}

// RecordStats stores a merged feed and reports what changed
func (a *Archive) RecordStats(posts []zion.Post) *Stats {
	start := a.now()
	stats := &Stats{TotalPosts: len(posts)}

	for i := range posts {
		if err := a.recordPost(&posts[i], stats); err != nil {
			log.Printf("Error archiving post %s: %v\n", posts[i].ID, err)
			stats.Errors++
		}
	}

	stats.Duration = a.now().Sub(start)
	return stats
}

func (a *Archive) recordPost(p *zion.Post, stats *Stats) error {
	contentHash := fmt.Sprintf("%x", md5.Sum([]byte(p.Content+"\x00"+string(p.AudienceType))))

	existingHash, err := a.db.GetContentHash(p.ID)
	if err != nil {
		return fmt.Errorf("get content hash: %w", err)
	}

	record := &storage.Post{
		ID:             p.ID,
		OrganizationID: p.OrganizationID,
		AuthorName:     authorName(p.Author),
		Content:        p.Content,
		ContentHash:    contentHash,
		AudienceType:   string(p.AudienceType),
		LikesCount:     p.LikesCount,
		CommentsCount:  p.CommentsCount,
		MediaCount:     len(p.MediaFiles),
		CreatedAt:      p.CreatedAt,
		SyncedAt:       a.now(),
	}

	// counts move on every fetch, so the row is always refreshed
	if err := a.db.UpsertPost(record); err != nil {
		return fmt.Errorf("upsert post: %w", err)
	}

	if existingHash == contentHash {
		stats.UnchangedPosts++
		return nil
	}

	if err := a.index.IndexPost(search.FromStorage(record)); err != nil {
		return fmt.Errorf("index post: %w", err)
	}

	if existingHash == "" {
		stats.NewPosts++
	} else {
		stats.UpdatedPosts++
	}
	return nil
}

// Rebuild reindexes every archived post
func (a *Archive) Rebuild() (int, error) {
	if err := a.index.IndexFromStorage(a.db); err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}
	count, err := a.db.CountPosts()
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return count, nil
}

func authorName(a zion.Author) string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}
