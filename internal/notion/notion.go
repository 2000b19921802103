package notion

import (
	"context"

	"github.com/mkondo/notionsync/internal/recordmap"
)

//go:generate mockgen -source=notion.go -destination=mock_notion/mock_notion.go -package=mock_notion
type Fetcher interface {
	// FetchPage returns the full record map for a page id. The remote is
	// treated as opaque and unreliable: it may fail, be slow, or return
	// partial data.
	FetchPage(ctx context.Context, pageID string) (*recordmap.RecordMap, error)
}
