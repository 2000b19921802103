// Package sync orchestrates one Notion sync invocation: resolve the
// page id, fetch the record map, classify single-page vs database mode,
// fan out per-row fetches, render and sanitize each page's blocks, and
// assemble the posts/pages payload behind a time-boxed cache.
package sync

import (
	"context"
	"fmt"
	"os"
	"strconv"
	gosync "sync"
	"time"

	"github.com/mkondo/notionsync/internal/collection"
	"github.com/mkondo/notionsync/internal/logger"
	"github.com/mkondo/notionsync/internal/models"
	"github.com/mkondo/notionsync/internal/notion"
	"github.com/mkondo/notionsync/internal/oembed"
	"github.com/mkondo/notionsync/internal/recordmap"
	"github.com/mkondo/notionsync/internal/render"
	"github.com/mkondo/notionsync/internal/sanitize"
)

const (
	defaultCacheTTL    = 5 * time.Minute
	defaultConcurrency = 4
)

// Service runs sync invocations against a Fetcher
type Service struct {
	fetcher     notion.Fetcher
	embeds      *oembed.Cache
	cache       *resultCache
	concurrency int

	// missMu serializes the cache-miss path so concurrent syncs of the
	// same page inside one window make at most one upstream fetch
	missMu gosync.Mutex
}

// Config tunes a Service; zero values fall back to env or defaults
type Config struct {
	CacheTTL    time.Duration
	Concurrency int
}

// New creates a sync service
func New(fetcher notion.Fetcher, cfg Config) *Service {
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = defaultCacheTTL
		if v := os.Getenv("SYNC_CACHE_TTL"); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				ttl = d
			}
		}
	}
	conc := cfg.Concurrency
	if conc <= 0 {
		conc = defaultConcurrency
		if v := os.Getenv("SYNC_CONCURRENCY"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				conc = n
			}
		}
	}
	return &Service{
		fetcher:     fetcher,
		embeds:      oembed.NewCache(),
		cache:       newResultCache(ttl),
		concurrency: conc,
	}
}

// Sync converts a Notion page or database URL into posts and pages.
// Results inside the cache window are served from cache; on fetch
// failure the last-good result is served marked "stale-cache" if one
// exists.
func (s *Service) Sync(ctx context.Context, rawURL string) (*models.SyncResult, error) {
	pageID, err := recordmap.PageID(rawURL)
	if err != nil {
		return nil, err
	}

	if cached := s.cache.fresh(pageID); cached != nil {
		logger.Debug("Serving sync result from cache", map[string]interface{}{
			"page_id": pageID,
			"age":     time.Since(cached.FetchedAt).String(),
		})
		return cached, nil
	}

	s.missMu.Lock()
	defer s.missMu.Unlock()

	// a concurrent sync may have filled the cache while we waited
	if cached := s.cache.fresh(pageID); cached != nil {
		return cached, nil
	}

	rm, err := s.fetcher.FetchPage(ctx, pageID)
	if err != nil {
		if st := s.cache.stale(pageID); st != nil {
			logger.Warn("Fetch failed, serving stale cache", map[string]interface{}{
				"page_id": pageID,
				"error":   err.Error(),
			})
			return st, nil
		}
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}

	var result *models.SyncResult
	if rm.HasCollection() {
		result = s.syncDatabase(ctx, rm)
	} else {
		result, err = s.syncSinglePage(ctx, rm, pageID)
		if err != nil {
			return nil, err
		}
	}
	result.FetchedAt = time.Now()

	s.cache.put(pageID, result)
	logger.Info("Sync completed", map[string]interface{}{
		"page_id": pageID,
		"type":    result.Type,
		"posts":   len(result.Posts),
		"pages":   len(result.Pages),
	})
	return result, nil
}

// renderPage renders a page block's content, with provider metadata
// prefetched first so rendering itself performs no I/O, and passes the
// assembled HTML through the sanitizer exactly once.
func (s *Service) renderPage(ctx context.Context, rm *recordmap.RecordMap, pageID string) (string, error) {
	page := rm.BlockByID(pageID)
	if page == nil {
		return "", fmt.Errorf("page block %s missing from record map", pageID)
	}

	s.embeds.Prefetch(ctx, rm)
	html := render.Blocks(rm, page.Content, render.Options{
		EmbedHTML: s.embeds.EmbedHTML(),
		Previews:  s.embeds.Previews(),
	})
	return sanitize.Clean(html), nil
}

func (s *Service) syncSinglePage(ctx context.Context, rm *recordmap.RecordMap, pageID string) (*models.SyncResult, error) {
	content, err := s.renderPage(ctx, rm, pageID)
	if err != nil {
		return nil, err
	}

	page := rm.BlockByID(pageID)
	title := page.Title()
	post := models.ConvertedPost{
		NotionID:    pageID,
		Title:       recordmap.EscapeHTML(title),
		Slug:        Slugify(title),
		Content:     content,
		Tags:        []string{},
		Status:      models.StatusPublished,
		ContentType: models.ContentTypePost,
	}
	return &models.SyncResult{
		Success: true,
		Type:    "page",
		Posts:   []models.ConvertedPost{post},
		Pages:   []models.ConvertedPost{},
	}, nil
}

// syncDatabase extracts the database's rows and fetches and renders
// each row's own page concurrently. A row whose fetch or render fails
// is logged and dropped; partial success is the designed behavior.
func (s *Service) syncDatabase(ctx context.Context, rm *recordmap.RecordMap) *models.SyncResult {
	rows := collection.Rows(rm)

	type converted struct {
		post models.ConvertedPost
		ok   bool
	}
	results := make([]converted, len(rows))

	var wg gosync.WaitGroup
	sem := make(chan struct{}, s.concurrency)
	for i, row := range rows {
		wg.Add(1)
		go func(i int, row collection.Row) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			post, err := s.syncRow(ctx, row)
			if err != nil {
				logger.Error("Row sync failed, dropping row", err, map[string]interface{}{
					"block_id": row.ID,
				})
				return
			}
			results[i] = converted{post: post, ok: true}
		}(i, row)
	}
	wg.Wait()

	result := &models.SyncResult{
		Success: true,
		Type:    "database",
		Posts:   []models.ConvertedPost{},
		Pages:   []models.ConvertedPost{},
	}
	for _, c := range results {
		if !c.ok {
			continue
		}
		if c.post.ContentType == models.ContentTypePage {
			result.Pages = append(result.Pages, c.post)
		} else {
			result.Posts = append(result.Posts, c.post)
		}
	}
	return result
}

func (s *Service) syncRow(ctx context.Context, row collection.Row) (models.ConvertedPost, error) {
	rowMap, err := s.fetcher.FetchPage(ctx, row.ID)
	if err != nil {
		return models.ConvertedPost{}, fmt.Errorf("failed to fetch row page: %w", err)
	}
	content, err := s.renderPage(ctx, rowMap, row.ID)
	if err != nil {
		return models.ConvertedPost{}, err
	}
	return convertRow(row, content), nil
}
