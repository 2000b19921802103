// Package collection reconstructs typed database rows from a record
// map's collection schema and page blocks.
package collection

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/mkondo/notionsync/internal/recordmap"
)

// Row is one database entry, projected from a page block's properties
// through the collection schema. Property values are keyed by the
// schema's lower-cased property names, except title, which always lives
// under the fixed key "title".
type Row struct {
	ID         string
	Properties map[string]interface{}
}

// Text returns a row property coerced to string, or ""
func (r Row) Text(name string) string {
	if r.Properties == nil {
		return ""
	}
	return cast.ToString(r.Properties[name])
}

// Bool returns a row property coerced to bool
func (r Row) Bool(name string) bool {
	if r.Properties == nil {
		return false
	}
	return cast.ToBool(r.Properties[name])
}

// List returns a row property as a string list, or nil
func (r Row) List(name string) []string {
	if r.Properties == nil {
		return nil
	}
	if l, ok := r.Properties[name].([]string); ok {
		return l
	}
	return nil
}

// Rows projects every page block parented by the record map's (assumed
// singular) collection into a Row. Rows without a resolved title are
// dropped. Output order follows block-map iteration order; callers
// needing stable ordering sort downstream.
func Rows(rm *recordmap.RecordMap) []Row {
	coll := rm.FirstCollection()
	if coll == nil || len(coll.Schema) == 0 {
		return nil
	}

	var rows []Row
	for id, rec := range rm.Blocks {
		b := rec.Value
		if b.Type != "page" || b.ParentTable != "collection" || b.ParentID != coll.ID {
			continue
		}

		row := Row{
			ID:         id,
			Properties: make(map[string]interface{}),
		}
		for propID, prop := range coll.Schema {
			value, ok := extract(b.Properties[propID], prop.Type)
			if !ok {
				continue
			}
			name := strings.ToLower(prop.Name)
			if prop.Type == "title" {
				// title is structurally special and keeps a fixed key
				name = "title"
			}
			row.Properties[name] = value
		}

		if cast.ToString(row.Properties["title"]) == "" {
			// untitled rows carry nothing worth publishing
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// extract converts a raw property value per its declared schema type.
// The second return is false when the property contributes no value.
func extract(rt recordmap.RichText, propType string) (interface{}, bool) {
	switch propType {
	case "title", "text", "rich_text":
		return rt.Plain(), true
	case "select":
		// stored as the selected option's literal text
		return rt.Plain(), true
	case "multi_select":
		joined := rt.Plain()
		if joined == "" {
			return []string{}, true
		}
		parts := strings.Split(joined, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out, true
	case "date":
		if start := rt.DateStart(); start != "" {
			return start, true
		}
		return nil, true
	case "checkbox":
		return rt.Plain() == "Yes", true
	case "url":
		if u := rt.FirstURL(); u != "" {
			return u, true
		}
		return rt.Plain(), true
	case "file":
		if u := rt.FileURL(); u != "" {
			return u, true
		}
		return nil, false
	}
	return nil, false
}
