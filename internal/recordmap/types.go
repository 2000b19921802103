package recordmap

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// RecordMap is the externally-fetched document graph for a Notion page or
// database. Block entries form a forest: each block's Content lists its
// child ids, and a page block's Content defines render order.
type RecordMap struct {
	Blocks          map[string]BlockRecord      `json:"block"`
	Collections     map[string]CollectionRecord `json:"collection"`
	CollectionViews map[string]json.RawMessage  `json:"collection_view"`
}

// BlockRecord wraps a block value as delivered on the wire
type BlockRecord struct {
	Value Block `json:"value"`
}

// CollectionRecord wraps a collection value as delivered on the wire
type CollectionRecord struct {
	Value Collection `json:"value"`
}

// Block is one node in the record map, tagged with a type and holding
// properties, format and child content ids. Fields may be absent for
// malformed or partial blocks; all accessors treat misses as empty.
type Block struct {
	ID           string                 `json:"id"`
	Type         string                 `json:"type"`
	Properties   map[string]RichText    `json:"properties"`
	Format       map[string]interface{} `json:"format"`
	Content      []string               `json:"content"`
	ParentID     string                 `json:"parent_id"`
	ParentTable  string                 `json:"parent_table"`
	CollectionID string                 `json:"collection_id"`
}

// Collection is a Notion database's schema definition
type Collection struct {
	ID     string                `json:"id"`
	Name   RichText              `json:"name"`
	Schema map[string]SchemaProp `json:"schema"`
}

// SchemaProp describes one database property
type SchemaProp struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// BlockFormat is the typed view of a block's loosely-shaped format map.
// Decode only ever fills the fields present; everything else stays zero.
type BlockFormat struct {
	BlockWidth             float64  `mapstructure:"block_width"`
	BlockHeight            float64  `mapstructure:"block_height"`
	DisplaySource          string   `mapstructure:"display_source"`
	URI                    string   `mapstructure:"uri"`
	Source                 string   `mapstructure:"source"`
	Link                   string   `mapstructure:"link"`
	BlockColor             string   `mapstructure:"block_color"`
	PageIcon               string   `mapstructure:"page_icon"`
	PageCover              string   `mapstructure:"page_cover"`
	BookmarkCover          string   `mapstructure:"bookmark_cover"`
	BookmarkIcon           string   `mapstructure:"bookmark_icon"`
	ColumnRatio            float64  `mapstructure:"column_ratio"`
	TableBlockColumnHeader bool     `mapstructure:"table_block_column_header"`
	TableBlockRowHeader    bool     `mapstructure:"table_block_row_header"`
	TableBlockColumnOrder  []string `mapstructure:"table_block_column_order"`
	TransclusionReference  string   `mapstructure:"transclusion_reference_pointer_id"`
	AliasPointerID         string   `mapstructure:"alias_pointer_id"`
	Language               string   `mapstructure:"language"`
}

// FormatView decodes the block's format map into its typed view.
// Absent or malformed entries simply stay at their zero value.
func (b *Block) FormatView() BlockFormat {
	var f BlockFormat
	if b.Format == nil {
		return f
	}
	cfg := &mapstructure.DecoderConfig{
		Result:           &f,
		WeaklyTypedInput: true,
	}
	dec, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return f
	}
	// Decode errors mean a field had an unexpected shape; partial results
	// are still useful, so the error is ignored
	_ = dec.Decode(b.Format)
	return f
}

// Parse decodes a record map from raw JSON
func Parse(data []byte) (*RecordMap, error) {
	var rm RecordMap
	if err := json.Unmarshal(data, &rm); err != nil {
		return nil, fmt.Errorf("failed to parse record map: %w", err)
	}
	return &rm, nil
}

// BlockByID returns the block value for an id, or nil if absent
func (rm *RecordMap) BlockByID(id string) *Block {
	if rm == nil || rm.Blocks == nil {
		return nil
	}
	rec, ok := rm.Blocks[id]
	if !ok {
		return nil
	}
	b := rec.Value
	if b.ID == "" {
		b.ID = id
	}
	return &b
}

// FirstCollection returns the (assumed singular) collection, or nil
func (rm *RecordMap) FirstCollection() *Collection {
	if rm == nil {
		return nil
	}
	for id, rec := range rm.Collections {
		c := rec.Value
		if c.ID == "" {
			c.ID = id
		}
		return &c
	}
	return nil
}

// HasCollection reports whether the record map describes a database
func (rm *RecordMap) HasCollection() bool {
	return rm != nil && len(rm.Collections) > 0
}

// Text returns the extracted plain text of a named property
func (b *Block) Text(key string) string {
	if b == nil || b.Properties == nil {
		return ""
	}
	return b.Properties[key].Plain()
}

// Title returns the block's title property text
func (b *Block) Title() string {
	return b.Text("title")
}
