// Package upload coordinates media uploads for a post draft.
//
// Files are selected in batches. Every file of a batch is uploaded at the
// same time and the batch succeeds or fails as a whole: a failed batch keeps
// no media ids and its files leave the selection.
package upload

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/zioncity/zion-sync/internal/zion"
)

// Uploader sends one file to the media endpoint
type Uploader interface {
	UploadMedia(ctx context.Context, filename string, r io.Reader, sourceModule, privacyLevel string) (string, error)
}

// File is a selected file. Open is called once per upload attempt.
type File struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FromPath selects a file on disk
func FromPath(path string) File {
	return File{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

type entry struct {
	file    File
	mediaID string
	batch   *Batch
	pos     int
}

// Batch is one call to SelectFiles
type Batch struct {
	files   []File
	privacy string
	done    chan struct{}
	ids     []string
	err     error
}

// Wait blocks until every upload of the batch has finished and returns the
// first failure
func (b *Batch) Wait() error {
	<-b.done
	return b.err
}

// MediaIDs returns the batch's ids in selection order, or nil if it failed
func (b *Batch) MediaIDs() []string {
	<-b.done
	if b.err != nil {
		return nil
	}
	return b.ids
}

// Coordinator tracks the files attached to one draft
type Coordinator struct {
	api    Uploader
	source string

	mu       sync.Mutex
	audience zion.Audience
	entries  []*entry
	inflight sync.WaitGroup
}

// New creates a coordinator that tags uploads with sourceModule
func New(api Uploader, sourceModule string) *Coordinator {
	return &Coordinator{
		api:      api,
		source:   sourceModule,
		audience: zion.AudiencePublic,
	}
}

// SetAudience changes the privacy tag of batches selected from now on.
// Batches already started keep the tag they were started with.
func (c *Coordinator) SetAudience(a zion.Audience) {
	c.mu.Lock()
	c.audience = a
	c.mu.Unlock()
}

// SelectFiles appends files to the selection and starts uploading them.
// It returns without waiting; use Batch.Wait for the outcome.
func (c *Coordinator) SelectFiles(ctx context.Context, files []File) *Batch {
	c.mu.Lock()
	b := &Batch{
		files:   append([]File(nil), files...),
		privacy: string(c.audience),
		done:    make(chan struct{}),
	}
	for i, f := range b.files {
		c.entries = append(c.entries, &entry{file: f, batch: b, pos: i})
	}
	c.inflight.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.inflight.Done()
		c.run(ctx, b)
	}()
	return b
}

func (c *Coordinator) run(ctx context.Context, b *Batch) {
	defer close(b.done)

	ids := make([]string, len(b.files))
	var g errgroup.Group
	for i, f := range b.files {
		i, f := i, f
		g.Go(func() error {
			id, err := c.uploadOne(ctx, f, b.privacy)
			if err != nil {
				return err
			}
			ids[i] = id
			return nil
		})
	}
	err := g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		log.Printf("Warning: upload batch of %d files failed: %v", len(b.files), err)
		b.err = err
		kept := c.entries[:0]
		for _, e := range c.entries {
			if e.batch != b {
				kept = append(kept, e)
			}
		}
		c.entries = kept
		return
	}

	b.ids = ids
	for _, e := range c.entries {
		if e.batch == b {
			e.mediaID = ids[e.pos]
		}
	}
}

func (c *Coordinator) uploadOne(ctx context.Context, f File, privacy string) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	id, err := c.api.UploadMedia(ctx, f.Name, rc, c.source, privacy)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", f.Name, err)
	}
	return id, nil
}

// Wait blocks until every started batch has finished
func (c *Coordinator) Wait() {
	c.inflight.Wait()
}

// RemoveFile drops the file at index i together with its media id
func (c *Coordinator) RemoveFile(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.entries) {
		return false
	}
	c.entries = append(c.entries[:i], c.entries[i+1:]...)
	return true
}

// Files returns the names of the selected files
func (c *Coordinator) Files() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.file.Name
	}
	return names
}

// MediaIDs returns the ids of the uploaded files in selection order
func (c *Coordinator) MediaIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		if e.mediaID != "" {
			ids = append(ids, e.mediaID)
		}
	}
	return ids
}

// Pending returns the names of selected files still uploading
func (c *Coordinator) Pending() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var names []string
	for _, e := range c.entries {
		if e.mediaID == "" {
			names = append(names, e.file.Name)
		}
	}
	return names
}

// Reset clears the selection once the draft is posted
func (c *Coordinator) Reset() {
	c.mu.Lock()
	c.entries = nil
	c.mu.Unlock()
}
