package models

import (
	"sync"
	"time"
)

// Content status values derived during sync.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Content type values derived during sync.
const (
	ContentTypePost = "post"
	ContentTypePage = "page"
)

// ConvertedPost is one Notion page converted to a storable blog entry.
// Content holds sanitized HTML and is safe to embed as-is.
type ConvertedPost struct {
	NotionID       string   `json:"notionId"`
	Title          string   `json:"title"`
	Slug           string   `json:"slug"`
	Excerpt        string   `json:"excerpt"`
	Content        string   `json:"content"`
	CoverImage     string   `json:"coverImage"`
	CoverImageSize string   `json:"coverImageSize,omitempty"` // "big" or "small"
	CoverImageAlt  string   `json:"coverImageAlt,omitempty"`
	Tags           []string `json:"tags"`
	Status         string   `json:"status"`
	PublishedAt    string   `json:"publishedAt"`
	ContentType    string   `json:"contentType"`
}

// SyncResult is the payload assembled by one sync invocation.
type SyncResult struct {
	Success   bool            `json:"success"`
	Type      string          `json:"type"` // "page" or "database"
	Posts     []ConvertedPost `json:"posts"`
	Pages     []ConvertedPost `json:"pages"`
	Source    string          `json:"source,omitempty"` // "stale-cache" when served from last-good data
	FetchedAt time.Time       `json:"fetchedAt"`
}

// Store is the persistence collaborator that merges sync results into the
// blog's storage, matching entries by NotionID. Implementations live
// outside this module; MemoryStore is provided for the server and tests.
type Store interface {
	UpsertPosts(posts []ConvertedPost) error
	UpsertPages(pages []ConvertedPost) error
}

// MemoryStore keeps converted content in process memory, keyed by NotionID.
type MemoryStore struct {
	mu    sync.Mutex
	posts map[string]ConvertedPost
	pages map[string]ConvertedPost
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		posts: make(map[string]ConvertedPost),
		pages: make(map[string]ConvertedPost),
	}
}

// UpsertPosts merges posts by NotionID
func (s *MemoryStore) UpsertPosts(posts []ConvertedPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range posts {
		s.posts[p.NotionID] = p
	}
	return nil
}

// UpsertPages merges pages by NotionID
func (s *MemoryStore) UpsertPages(pages []ConvertedPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range pages {
		s.pages[p.NotionID] = p
	}
	return nil
}

// Posts returns all stored posts in unspecified order
func (s *MemoryStore) Posts() []ConvertedPost {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ConvertedPost, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, p)
	}
	return out
}

// Pages returns all stored pages in unspecified order
func (s *MemoryStore) Pages() []ConvertedPost {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ConvertedPost, 0, len(s.pages))
	for _, p := range s.pages {
		out = append(out, p)
	}
	return out
}
