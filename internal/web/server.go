package web

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zioncity/zion-sync/internal/search"
	"github.com/zioncity/zion-sync/internal/storage"
)

// Server exposes the local post archive over HTTP
type Server struct {
	db  *storage.DB
	idx *search.Index
}

type SearchResponse struct {
	Results []*search.SearchResult `json:"results"`
	Query   string                 `json:"query"`
	Count   int                    `json:"count"`
	Error   string                 `json:"error,omitempty"`
}

// PostResponse is an archived post as served to the browser
type PostResponse struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	AuthorName     string    `json:"author_name"`
	Content        string    `json:"content"`
	AudienceType   string    `json:"audience_type"`
	LikesCount     int       `json:"likes_count"`
	CommentsCount  int       `json:"comments_count"`
	MediaCount     int       `json:"media_count"`
	CreatedAt      time.Time `json:"created_at"`
	SyncedAt       time.Time `json:"synced_at"`
}

func NewServer(db *storage.DB, idx *search.Index) *Server {
	return &Server{db: db, idx: idx}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Get("/api/search", s.handleSearch)
	r.Get("/api/posts", s.handleListPosts)
	r.Get("/api/posts/{id}", s.handleGetPost)

	return r
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, SearchResponse{Error: "missing q parameter"})
		return
	}

	limit := 20
	if limitStr := q.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	results, err := s.idx.Search(query, search.Options{
		Limit:          limit,
		OrganizationID: q.Get("org"),
		AudienceType:   q.Get("audience"),
	})
	if err != nil {
		log.Printf("Error searching %q: %v", query, err)
		writeJSON(w, http.StatusInternalServerError, SearchResponse{Query: query, Error: "search failed"})
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Results: results,
		Query:   query,
		Count:   len(results),
	})
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.db.ListPosts()
	if err != nil {
		log.Printf("Error listing posts: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	org := r.URL.Query().Get("org")
	out := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		if org != "" && p.OrganizationID != org {
			continue
		}
		out = append(out, toResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := s.db.GetPost(id)
	if err != nil {
		log.Printf("Error retrieving post %s: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if p == nil {
		http.Error(w, "Post not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(p))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbCount, _ := s.db.CountPosts()
	indexCount, _ := s.idx.Count()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"posts_in_db":    dbCount,
		"posts_in_index": indexCount,
	})
}

func toResponse(p *storage.Post) PostResponse {
	return PostResponse{
		ID:             p.ID,
		OrganizationID: p.OrganizationID,
		AuthorName:     p.AuthorName,
		Content:        p.Content,
		AudienceType:   p.AudienceType,
		LikesCount:     p.LikesCount,
		CommentsCount:  p.CommentsCount,
		MediaCount:     p.MediaCount,
		CreatedAt:      p.CreatedAt,
		SyncedAt:       p.SyncedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}
