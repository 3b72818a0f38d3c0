package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps SQLite database operations
type DB struct {
	db *sql.DB
}

// Open opens or creates a SQLite database
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL lets a running feed sync and a search read the archive at the same time
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	storage := &DB{db: db}

	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return storage, nil
}

// Close closes the database
func (d *DB) Close() error {
	return d.db.Close()
}

// initSchema creates tables if they don't exist
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		author_name TEXT,
		content TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		audience_type TEXT NOT NULL,
		likes_count INTEGER NOT NULL DEFAULT 0,
		comments_count INTEGER NOT NULL DEFAULT 0,
		media_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		synced_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_posts_org ON posts(organization_id);
	CREATE INDEX IF NOT EXISTS idx_posts_created ON posts(created_at);
	CREATE INDEX IF NOT EXISTS idx_posts_hash ON posts(content_hash);
	`

	_, err := d.db.Exec(schema)
	return err
}

// Get returns the value stored under key, or "" if there is none
func (d *DB) Get(key string) (string, error) {
	var value string
	err := d.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// Set stores value under key
func (d *DB) Set(key, value string) error {
	_, err := d.db.Exec(`
	INSERT INTO kv (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// Delete removes key. Deleting a missing key is not an error.
func (d *DB) Delete(key string) error {
	_, err := d.db.Exec("DELETE FROM kv WHERE key = ?", key)
	return err
}

// UpsertPost inserts or updates a post snapshot
func (d *DB) UpsertPost(p *Post) error {
	query := `
	INSERT INTO posts (
		id, organization_id, author_name, content, content_hash, audience_type,
		likes_count, comments_count, media_count, created_at, synced_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		organization_id = excluded.organization_id,
		author_name = excluded.author_name,
		content = excluded.content,
		content_hash = excluded.content_hash,
		audience_type = excluded.audience_type,
		likes_count = excluded.likes_count,
		comments_count = excluded.comments_count,
		media_count = excluded.media_count,
		created_at = excluded.created_at,
		synced_at = excluded.synced_at
	`

	_, err := d.db.Exec(query,
		p.ID, p.OrganizationID, p.AuthorName, p.Content, p.ContentHash, p.AudienceType,
		p.LikesCount, p.CommentsCount, p.MediaCount, p.CreatedAt, p.SyncedAt,
	)
	return err
}

const postColumns = `id, organization_id, author_name, content, content_hash, audience_type,
	       likes_count, comments_count, media_count, created_at, synced_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (*Post, error) {
	p := &Post{}
	err := row.Scan(
		&p.ID, &p.OrganizationID, &p.AuthorName, &p.Content, &p.ContentHash, &p.AudienceType,
		&p.LikesCount, &p.CommentsCount, &p.MediaCount, &p.CreatedAt, &p.SyncedAt,
	)
	return p, err
}

// GetPost retrieves a post by ID, or nil if it was never archived
func (d *DB) GetPost(id string) (*Post, error) {
	p, err := scanPost(d.db.QueryRow("SELECT "+postColumns+" FROM posts WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListPosts retrieves all archived posts, newest first
func (d *DB) ListPosts() ([]*Post, error) {
	rows, err := d.db.Query("SELECT " + postColumns + " FROM posts ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}

	return posts, rows.Err()
}

// CountPosts returns the number of archived posts
func (d *DB) CountPosts() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM posts").Scan(&count)
	return count, err
}

// GetContentHash retrieves just the content hash for a post
func (d *DB) GetContentHash(id string) (string, error) {
	var hash string
	err := d.db.QueryRow("SELECT content_hash FROM posts WHERE id = ?", id).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return hash, err
}
