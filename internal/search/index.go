package search

import (
	"errors"
	"fmt"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	_ "github.com/blevesearch/bleve/v2/search/highlight/highlighter/ansi"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/zioncity/zion-sync/internal/storage"
)

// Index wraps a Bleve search index over archived journal posts
type Index struct {
	index bleve.Index
}

// IndexedPost represents a post in the search index
type IndexedPost struct {
	ID             string
	OrganizationID string
	Author         string
	Content        string
	AudienceType   string
	CreatedAt      time.Time
}

// SearchResult represents a search result
type SearchResult struct {
	ID             string
	OrganizationID string
	Author         string
	AudienceType   string
	CreatedAt      time.Time
	Score          float64
	Fragments      map[string][]string // Highlighted snippets
}

// Options narrows a search
type Options struct {
	Limit          int
	OrganizationID string
	AudienceType   string
}

// Open opens or creates a Bleve index
func Open(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	return &Index{index: idx}, nil
}

// OpenMemory creates an index that lives only in memory
func OpenMemory() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create memory index: %w", err)
	}
	return &Index{index: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	contentFieldMapping := bleve.NewTextFieldMapping()
	contentFieldMapping.Store = true

	// ids and enum values must match exactly
	keywordFieldMapping := bleve.NewKeywordFieldMapping()

	dateFieldMapping := bleve.NewDateTimeFieldMapping()

	postMapping := bleve.NewDocumentMapping()
	postMapping.AddFieldMappingsAt("Content", contentFieldMapping)
	postMapping.AddFieldMappingsAt("Author", bleve.NewTextFieldMapping())
	postMapping.AddFieldMappingsAt("OrganizationID", keywordFieldMapping)
	postMapping.AddFieldMappingsAt("AudienceType", keywordFieldMapping)
	postMapping.AddFieldMappingsAt("CreatedAt", dateFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = postMapping

	return indexMapping
}

// Close closes the index
func (i *Index) Close() error {
	return i.index.Close()
}

// IndexPost adds or updates a post in the index
func (i *Index) IndexPost(p *IndexedPost) error {
	return i.index.Index(p.ID, p)
}

// Delete removes a post from the index
func (i *Index) Delete(id string) error {
	return i.index.Delete(id)
}

// Search runs a query string (quotes, +/- and fuzzy ~ supported) against
// post content and author, optionally restricted to one organization or
// audience
func (i *Index) Search(queryStr string, opts Options) ([]*SearchResult, error) {
	if opts.Limit <= 0 {
		opts.Limit = 20
	}

	var q query.Query = bleve.NewQueryStringQuery(queryStr)
	var filters []query.Query
	if opts.OrganizationID != "" {
		tq := bleve.NewTermQuery(opts.OrganizationID)
		tq.SetField("OrganizationID")
		filters = append(filters, tq)
	}
	if opts.AudienceType != "" {
		tq := bleve.NewTermQuery(opts.AudienceType)
		tq.SetField("AudienceType")
		filters = append(filters, tq)
	}
	if len(filters) > 0 {
		q = bleve.NewConjunctionQuery(append([]query.Query{q}, filters...)...)
	}

	req := bleve.NewSearchRequestOptions(q, opts.Limit, 0, false)
	req.Highlight = bleve.NewHighlightWithStyle("ansi")
	req.Fields = []string{"OrganizationID", "Author", "AudienceType", "CreatedAt"}

	results, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	searchResults := make([]*SearchResult, 0, len(results.Hits))
	for _, hit := range results.Hits {
		result := &SearchResult{
			ID:        hit.ID,
			Score:     hit.Score,
			Fragments: hit.Fragments,
		}

		if org, ok := hit.Fields["OrganizationID"].(string); ok {
			result.OrganizationID = org
		}
		if author, ok := hit.Fields["Author"].(string); ok {
			result.Author = author
		}
		if audience, ok := hit.Fields["AudienceType"].(string); ok {
			result.AudienceType = audience
		}
		if created, ok := hit.Fields["CreatedAt"].(string); ok {
			result.CreatedAt, _ = time.Parse(time.RFC3339, created)
		}

		searchResults = append(searchResults, result)
	}

	return searchResults, nil
}

// IndexFromStorage indexes all archived posts in one batch
func (i *Index) IndexFromStorage(db *storage.DB) error {
	posts, err := db.ListPosts()
	if err != nil {
		return fmt.Errorf("list posts: %w", err)
	}

	batch := i.index.NewBatch()
	for _, p := range posts {
		if err := batch.Index(p.ID, FromStorage(p)); err != nil {
			return fmt.Errorf("batch index %s: %w", p.ID, err)
		}
	}

	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	return nil
}

// FromStorage converts an archived post into its indexed form
func FromStorage(p *storage.Post) *IndexedPost {
	return &IndexedPost{
		ID:             p.ID,
		OrganizationID: p.OrganizationID,
		Author:         p.AuthorName,
		Content:        p.Content,
		AudienceType:   p.AudienceType,
		CreatedAt:      p.CreatedAt,
	}
}

// Count returns the number of posts in the index
func (i *Index) Count() (uint64, error) {
	return i.index.DocCount()
}
