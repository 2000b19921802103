// Package oembed prefetches provider metadata so the block renderer can
// stay free of I/O: all network lookups happen before rendering begins,
// and the renderer reads the results from an in-memory cache.
package oembed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/otiai10/opengraph/v2"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"

	"github.com/mkondo/notionsync/internal/logger"
	"github.com/mkondo/notionsync/internal/recordmap"
)

// Preview is OpenGraph metadata for a bookmarked URL
type Preview struct {
	Title       string
	Description string
	Image       string
}

// Cache holds prefetched embed snippets and link previews keyed by
// source URL. It lives for the process lifetime and is never evicted;
// the workload's URL population is small enough for that to hold.
type Cache struct {
	mu         sync.Mutex
	embedHTML  map[string]string
	previews   map[string]Preview
	httpClient *http.Client
	endpoint   func(sourceURL string) string

	// group collapses concurrent lookups of the same URL into one request
	group singleflight.Group
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{
		embedHTML: make(map[string]string),
		previews:  make(map[string]Preview),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		endpoint: oembedEndpoint,
	}
}

// EmbedHTML returns a snapshot of the oEmbed snippet lookup
func (c *Cache) EmbedHTML() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.embedHTML))
	for k, v := range c.embedHTML {
		out[k] = v
	}
	return out
}

// Previews returns a snapshot of the link preview lookup
func (c *Cache) Previews() map[string]Preview {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]Preview, len(c.previews))
	for k, v := range c.previews {
		out[k] = v
	}
	return out
}

// Prefetch scans a record map for audio, video and embed blocks whose
// source is a Spotify or SoundCloud URL, and for bookmark blocks that
// carry no title of their own, then fans out one request per unique
// uncached URL and waits for all of them. Lookup failures are logged
// and skipped; the renderer degrades those blocks to link cards.
func (c *Cache) Prefetch(ctx context.Context, rm *recordmap.RecordMap) {
	var oembedURLs, bookmarkURLs []string
	seen := make(map[string]bool)

	for _, rec := range rm.Blocks {
		b := rec.Value
		switch b.Type {
		case "audio", "video", "embed":
			src := b.Properties["source"].FirstURL()
			if src == "" {
				src = b.FormatView().DisplaySource
			}
			if src == "" || seen[src] || !oembedProvider(src) {
				continue
			}
			seen[src] = true
			oembedURLs = append(oembedURLs, src)
		case "bookmark":
			if b.Properties["title"].Plain() != "" {
				continue
			}
			link := b.Properties["link"].FirstURL()
			if link == "" || seen[link] {
				continue
			}
			seen[link] = true
			bookmarkURLs = append(bookmarkURLs, link)
		}
	}

	var wg sync.WaitGroup
	for _, u := range oembedURLs {
		if c.hasEmbed(u) {
			continue
		}
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			c.fetchEmbed(ctx, u)
		}(u)
	}
	for _, u := range bookmarkURLs {
		if c.hasPreview(u) {
			continue
		}
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			c.fetchPreview(ctx, u)
		}(u)
	}
	wg.Wait()
}

func (c *Cache) hasEmbed(u string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.embedHTML[u]
	return ok
}

func (c *Cache) hasPreview(u string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.previews[u]
	return ok
}

func oembedProvider(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	return host == "open.spotify.com" || host == "spotify.com" ||
		host == "soundcloud.com" || strings.HasSuffix(host, ".soundcloud.com")
}

func oembedEndpoint(rawURL string) string {
	if strings.Contains(rawURL, "spotify") {
		return "https://open.spotify.com/oembed?url=" + url.QueryEscape(rawURL)
	}
	return "https://soundcloud.com/oembed?format=json&url=" + url.QueryEscape(rawURL)
}

func (c *Cache) fetchEmbed(ctx context.Context, sourceURL string) {
	v, err, _ := c.group.Do("embed:"+sourceURL, func() (interface{}, error) {
		return c.oembedHTML(ctx, c.endpoint(sourceURL))
	})
	if err != nil {
		logger.Warn("oEmbed lookup failed", map[string]interface{}{
			"url":   sourceURL,
			"error": err.Error(),
		})
		return
	}
	c.mu.Lock()
	c.embedHTML[sourceURL] = v.(string)
	c.mu.Unlock()
}

func (c *Cache) oembedHTML(ctx context.Context, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oembed endpoint returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	html := gjson.GetBytes(body, "html").String()
	if html == "" {
		return "", fmt.Errorf("oembed response has no html field")
	}
	return html, nil
}

func (c *Cache) fetchPreview(ctx context.Context, link string) {
	v, err, _ := c.group.Do("preview:"+link, func() (interface{}, error) {
		og := opengraph.New(link)
		og.Intent.Context = ctx
		og.Intent.HTTPClient = c.httpClient
		if err := og.Fetch(); err != nil {
			return nil, err
		}

		p := Preview{
			Title:       og.Title,
			Description: og.Description,
		}
		if len(og.Image) > 0 {
			p.Image = og.Image[0].URL
		}
		return p, nil
	})
	if err != nil {
		logger.Warn("Link preview lookup failed", map[string]interface{}{
			"url":   link,
			"error": err.Error(),
		})
		return
	}
	c.mu.Lock()
	c.previews[link] = v.(Preview)
	c.mu.Unlock()
}
