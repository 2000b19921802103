package recordmap

import "strings"

// RichText is Notion's segment-array text form: an ordered list of
// segments whose first element is the literal text. Later elements encode
// formatting and links and are ignored by extraction.
type RichText [][]interface{}

// Plain concatenates each segment's literal text. Segments without a
// leading string contribute nothing; a nil value yields "".
func (rt RichText) Plain() string {
	if len(rt) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, seg := range rt {
		if len(seg) == 0 {
			continue
		}
		if s, ok := seg[0].(string); ok {
			sb.WriteString(s)
		}
	}
	return sb.String()
}

// EscapeHTML escapes the five HTML-significant characters. Used for
// property text that is inserted into HTML outside the main construction
// path (page titles and the like), where this is the only defense.
func EscapeHTML(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '&':
			sb.WriteString("&amp;")
		case '<':
			sb.WriteString("&lt;")
		case '>':
			sb.WriteString("&gt;")
		case '"':
			sb.WriteString("&quot;")
		case '\'':
			sb.WriteString("&#39;")
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// PlainEscaped extracts text and HTML-escapes it in one step
func (rt RichText) PlainEscaped() string {
	return EscapeHTML(rt.Plain())
}

// FirstURL digs the first URL-shaped value out of a rich text value.
// Link segments carry the URL in a nested ["a", url] decoration; plain
// http segments are returned as-is.
func (rt RichText) FirstURL() string {
	for _, seg := range rt {
		if len(seg) == 0 {
			continue
		}
		if s, ok := seg[0].(string); ok && strings.HasPrefix(s, "http") {
			return s
		}
		if len(seg) < 2 {
			continue
		}
		if u := decorationURL(seg[1]); u != "" {
			return u
		}
	}
	return ""
}

// DateStart digs the start_date field out of a date property value.
// Date values are stored as ["‣", [["d", {..., "start_date": "..."}]]].
func (rt RichText) DateStart() string {
	for _, seg := range rt {
		if len(seg) < 2 {
			continue
		}
		decs, ok := seg[1].([]interface{})
		if !ok {
			continue
		}
		for _, d := range decs {
			pair, ok := d.([]interface{})
			if !ok || len(pair) < 2 {
				continue
			}
			m, ok := pair[1].(map[string]interface{})
			if !ok {
				continue
			}
			if start, ok := m["start_date"].(string); ok {
				return start
			}
		}
	}
	return ""
}

// FileURL digs the first file's resolved URL out of a file property
// value. Files are stored as [[name, [["a", url]]], ...].
func (rt RichText) FileURL() string {
	for _, seg := range rt {
		if len(seg) < 2 {
			continue
		}
		if u := decorationURL(seg[1]); u != "" {
			return u
		}
	}
	return ""
}

// decorationURL pulls a URL out of a segment's decoration list, which has
// the shape [["a", url], ...] for links and file attachments.
func decorationURL(v interface{}) string {
	decs, ok := v.([]interface{})
	if !ok {
		return ""
	}
	for _, d := range decs {
		pair, ok := d.([]interface{})
		if !ok || len(pair) < 2 {
			continue
		}
		tag, ok := pair[0].(string)
		if !ok || tag != "a" {
			continue
		}
		if u, ok := pair[1].(string); ok {
			return u
		}
	}
	return ""
}
