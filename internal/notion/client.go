package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mkondo/notionsync/internal/logger"
	"github.com/mkondo/notionsync/internal/recordmap"
)

const (
	defaultBaseURL = "https://www.notion.so/api/v3"
	chunkLimit     = 100
	// maxChunks bounds pagination so a broken remote cannot keep the
	// fetch loop alive forever
	maxChunks = 50
)

// Client fetches record maps for publicly shared pages through the
// notion.so v3 endpoints. No authentication is used; private pages
// simply come back empty.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the API base URL (used by tests)
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a new Notion client
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type loadPageChunkRequest struct {
	PageID          string      `json:"pageId"`
	Limit           int         `json:"limit"`
	Cursor          chunkCursor `json:"cursor"`
	ChunkNumber     int         `json:"chunkNumber"`
	VerticalColumns bool        `json:"verticalColumns"`
}

type chunkCursor struct {
	Stack []interface{} `json:"stack"`
}

type loadPageChunkResponse struct {
	RecordMap json.RawMessage `json:"recordMap"`
	Cursor    chunkCursor     `json:"cursor"`
}

// FetchPage retrieves the record map for a page id, following chunk
// cursors until the whole block graph is assembled.
func (c *Client) FetchPage(ctx context.Context, pageID string) (*recordmap.RecordMap, error) {
	logger.Debug("Fetching record map", map[string]interface{}{
		"page_id": pageID,
	})

	merged := &recordmap.RecordMap{
		Blocks:          make(map[string]recordmap.BlockRecord),
		Collections:     make(map[string]recordmap.CollectionRecord),
		CollectionViews: make(map[string]json.RawMessage),
	}

	cursor := chunkCursor{Stack: []interface{}{}}
	for chunk := 0; chunk < maxChunks; chunk++ {
		resp, err := c.loadPageChunk(ctx, loadPageChunkRequest{
			PageID:      pageID,
			Limit:       chunkLimit,
			Cursor:      cursor,
			ChunkNumber: chunk,
		})
		if err != nil {
			return nil, err
		}

		if len(resp.RecordMap) > 0 {
			rm, err := recordmap.Parse(resp.RecordMap)
			if err != nil {
				return nil, err
			}
			mergeRecordMap(merged, rm)
		}

		if len(resp.Cursor.Stack) == 0 {
			break
		}
		cursor = resp.Cursor
	}

	if len(merged.Blocks) == 0 {
		return nil, fmt.Errorf("notion: empty record map for page %s (unshared or missing)", pageID)
	}

	logger.Debug("Fetched record map", map[string]interface{}{
		"page_id":     pageID,
		"blocks":      len(merged.Blocks),
		"collections": len(merged.Collections),
	})
	return merged, nil
}

func (c *Client) loadPageChunk(ctx context.Context, reqBody loadPageChunkRequest) (*loadPageChunkResponse, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/loadPageChunk", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("loadPageChunk request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("loadPageChunk returned status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var out loadPageChunkResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode loadPageChunk response: %w", err)
	}
	return &out, nil
}

// mergeRecordMap folds one chunk's records into the accumulated map.
// Earlier chunks win on conflicting ids; chunks are not expected to
// disagree in practice.
func mergeRecordMap(dst, src *recordmap.RecordMap) {
	for id, rec := range src.Blocks {
		if _, ok := dst.Blocks[id]; !ok {
			dst.Blocks[id] = rec
		}
	}
	for id, rec := range src.Collections {
		if _, ok := dst.Collections[id]; !ok {
			dst.Collections[id] = rec
		}
	}
	for id, raw := range src.CollectionViews {
		if _, ok := dst.CollectionViews[id]; !ok {
			dst.CollectionViews[id] = raw
		}
	}
}
