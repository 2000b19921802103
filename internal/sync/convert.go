package sync

import (
	"regexp"
	"strings"

	"github.com/mkondo/notionsync/internal/collection"
	"github.com/mkondo/notionsync/internal/models"
	"github.com/mkondo/notionsync/internal/recordmap"
)

// Property name fallback chains. Database schemas are user-authored and
// property names vary, so each derived field is resolved through a
// prioritized list of alternate names rather than one canonical name.
var (
	slugProps        = []string{"slug", "url", "permalink"}
	excerptProps     = []string{"excerpt", "description", "summary", "subtitle"}
	coverProps       = []string{"cover", "cover image", "coverimage", "image", "featured image", "banner"}
	coverSizeProps   = []string{"cover size", "coversize", "image size"}
	coverAltProps    = []string{"cover alt", "coveralt", "image alt", "alt"}
	tagsProps        = []string{"tags", "categories", "keywords", "labels"}
	publishedAtProps = []string{"date", "published at", "publishedat", "publish date", "created"}
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases a title, collapses non-alphanumeric runs into
// single hyphens and trims leading and trailing hyphens.
func Slugify(s string) string {
	s = nonAlnum.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}

func firstText(row collection.Row, names []string) string {
	for _, name := range names {
		if v := row.Text(name); v != "" {
			return v
		}
	}
	return ""
}

// deriveStatus is published iff a status property case-insensitively
// equals "published" or a boolean published property is true.
func deriveStatus(row collection.Row) string {
	if strings.EqualFold(row.Text("status"), "published") || row.Bool("published") {
		return models.StatusPublished
	}
	return models.StatusDraft
}

// deriveContentType is "page" iff a type/contenttype property
// case-insensitively equals "page"; everything else is a post.
func deriveContentType(row collection.Row) string {
	for _, name := range []string{"type", "contenttype", "content type"} {
		if strings.EqualFold(row.Text(name), "page") {
			return models.ContentTypePage
		}
	}
	return models.ContentTypePost
}

func deriveSlug(row collection.Row, title string) string {
	if slug := firstText(row, slugProps); slug != "" {
		return slug
	}
	return Slugify(title)
}

func deriveTags(row collection.Row) []string {
	for _, name := range tagsProps {
		if l := row.List(name); len(l) > 0 {
			return l
		}
		// a select property stores a single tag as plain text
		if v := row.Text(name); v != "" {
			return []string{v}
		}
	}
	return []string{}
}

func deriveCoverSize(row collection.Row) string {
	size := strings.ToLower(firstText(row, coverSizeProps))
	if size == "big" || size == "small" {
		return size
	}
	return ""
}

// convertRow assembles a ConvertedPost from an extracted database row
// and its rendered, sanitized content.
func convertRow(row collection.Row, content string) models.ConvertedPost {
	title := row.Text("title")
	return models.ConvertedPost{
		NotionID:       row.ID,
		Title:          recordmap.EscapeHTML(title),
		Slug:           deriveSlug(row, title),
		Excerpt:        firstText(row, excerptProps),
		Content:        content,
		CoverImage:     firstText(row, coverProps),
		CoverImageSize: deriveCoverSize(row),
		CoverImageAlt:  firstText(row, coverAltProps),
		Tags:           deriveTags(row),
		Status:         deriveStatus(row),
		PublishedAt:    firstText(row, publishedAtProps),
		ContentType:    deriveContentType(row),
	}
}
