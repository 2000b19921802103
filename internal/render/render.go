// Package render converts Notion block records into HTML fragments.
//
// The renderer is a pure function of the record map: it performs no I/O
// during traversal. Network-dependent data (oEmbed snippets, bookmark
// previews) is prefetched by the sync orchestrator and handed in through
// Options. No case may panic or return an error; malformed blocks
// degrade to empty or best-effort output.
package render

import (
	"fmt"
	"strings"

	"github.com/mkondo/notionsync/internal/oembed"
	"github.com/mkondo/notionsync/internal/recordmap"
)

// maxDepth caps recursion. The record map is expected to be a forest,
// but a cyclic or adversarial graph must not take the renderer down.
const maxDepth = 64

// Options carries the prefetched lookups the renderer consults
// synchronously while walking blocks.
type Options struct {
	// EmbedHTML maps a Spotify/SoundCloud source URL to its prefetched
	// oEmbed HTML snippet.
	EmbedHTML map[string]string
	// Previews maps a bookmark URL to prefetched OpenGraph metadata,
	// used when the block itself carries no title.
	Previews map[string]oembed.Preview
}

// Render converts one block (and, where the block's semantics require
// it, its children) into an HTML fragment. The output is not sanitized;
// callers pass the fully assembled page through sanitize.Clean.
func Render(rm *recordmap.RecordMap, id string, opts Options) string {
	r := &renderer{rm: rm, opts: opts}
	return r.block(id, 0)
}

// Blocks renders a list of sibling block ids in order, concatenating
// the fragments left to right. Adjacent list items of the same kind are
// coalesced into a single <ul> or <ol>, preserving item order.
func Blocks(rm *recordmap.RecordMap, ids []string, opts Options) string {
	r := &renderer{rm: rm, opts: opts}
	return r.siblings(ids, 0)
}

type renderer struct {
	rm   *recordmap.RecordMap
	opts Options
}

func (r *renderer) siblings(ids []string, depth int) string {
	if depth > maxDepth {
		return ""
	}
	var sb strings.Builder
	for i := 0; i < len(ids); i++ {
		b := r.rm.BlockByID(ids[i])
		if b == nil {
			continue
		}
		if tag := listTag(b.Type); tag != "" {
			// collect the run of same-kind list items
			var items strings.Builder
			j := i
			for ; j < len(ids); j++ {
				nb := r.rm.BlockByID(ids[j])
				if nb == nil || listTag(nb.Type) != tag {
					break
				}
				items.WriteString(r.listItem(nb, depth))
			}
			sb.WriteString("<" + tag + ">" + items.String() + "</" + tag + ">")
			i = j - 1
			continue
		}
		sb.WriteString(r.block(ids[i], depth))
	}
	return sb.String()
}

func listTag(blockType string) string {
	switch blockType {
	case "bulleted_list", "bulleted_list_item":
		return "ul"
	case "numbered_list", "numbered_list_item":
		return "ol"
	}
	return ""
}

func (r *renderer) block(id string, depth int) string {
	if depth > maxDepth {
		return ""
	}
	b := r.rm.BlockByID(id)
	if b == nil {
		return ""
	}

	switch b.Type {
	case "header", "heading_1":
		// headings are demoted one level: the page's own title is the h1
		return heading("h2", b.Title())
	case "sub_header", "heading_2":
		return heading("h3", b.Title())
	case "sub_sub_header", "heading_3":
		return heading("h4", b.Title())

	case "text", "paragraph":
		text := b.Properties["title"].PlainEscaped()
		if text == "" {
			// no empty paragraphs
			return ""
		}
		return "<p>" + text + "</p>"

	case "bulleted_list", "bulleted_list_item":
		return "<ul>" + r.listItem(b, depth) + "</ul>"
	case "numbered_list", "numbered_list_item":
		return "<ol>" + r.listItem(b, depth) + "</ol>"

	case "to_do":
		return r.todo(b)

	case "quote":
		text := b.Properties["title"].PlainEscaped()
		if text == "" {
			return ""
		}
		return "<blockquote>" + text + "</blockquote>"

	case "code":
		return r.code(b)

	case "divider":
		return "<hr>"

	case "image":
		return r.image(b)

	case "video":
		return r.video(b)

	case "audio":
		return r.audio(b)

	case "tweet":
		return tweetEmbed(blockSourceURL(b))

	case "bookmark":
		return r.bookmark(b)

	case "embed", "maps", "figma", "typeform", "codepen", "gist",
		"abstract", "invision", "framer", "whimsical", "mural", "loom":
		return r.genericEmbed(b)

	case "drive":
		return r.drive(b)

	case "pdf":
		return r.pdf(b)

	case "file":
		return r.file(b)

	case "miro":
		return r.miro(b)

	case "excalidraw":
		return sizedIframe(blockSourceURL(b), b.FormatView())

	case "table_of_contents":
		// a real TOC is built client side from the rendered headings
		return `<nav class="table-of-contents"></nav>`

	case "table":
		return r.table(b, depth)

	case "collection_view", "collection_view_page":
		return r.collectionPlaceholder(b)

	case "callout":
		return r.callout(b, depth)

	case "equation":
		expr := b.Properties["title"].PlainEscaped()
		if expr == "" {
			return ""
		}
		return `<pre class="equation"><code>` + expr + `</code></pre>`

	case "alias", "link_to_page":
		return r.pageLink(b)

	case "transclusion_container":
		// synced block container: children inline, no visual boundary
		return r.siblings(b.Content, depth+1)

	case "transclusion_reference":
		return r.syncedReference(b, depth)

	case "breadcrumb":
		return ""

	case "toggle":
		return r.toggle(b, depth)

	case "column_list":
		return `<div class="column-list" style="display:flex;gap:1rem">` + r.siblings(b.Content, depth+1) + "</div>"

	case "column":
		return r.column(b, depth)

	case "page":
		// a child page in content renders as a link to it
		return r.pageLink(b)
	}

	return r.fallback(b)
}

func heading(tag, text string) string {
	text = recordmap.EscapeHTML(text)
	if text == "" {
		return ""
	}
	return "<" + tag + ">" + text + "</" + tag + ">"
}

// listItem renders one list item body, including its nested children,
// without the enclosing <ul>/<ol>.
func (r *renderer) listItem(b *recordmap.Block, depth int) string {
	text := b.Properties["title"].PlainEscaped()
	nested := ""
	if len(b.Content) > 0 {
		nested = r.siblings(b.Content, depth+1)
	}
	return "<li>" + text + nested + "</li>"
}

func (r *renderer) todo(b *recordmap.Block) string {
	text := b.Properties["title"].PlainEscaped()
	checked := strings.EqualFold(b.Text("checked"), "Yes")

	var sb strings.Builder
	sb.WriteString(`<div class="to-do"><input type="checkbox" disabled`)
	if checked {
		sb.WriteString(" checked")
	}
	sb.WriteString(">")
	if checked {
		sb.WriteString("<label><del>" + text + "</del></label>")
	} else {
		sb.WriteString("<label>" + text + "</label>")
	}
	sb.WriteString("</div>")
	return sb.String()
}

func (r *renderer) code(b *recordmap.Block) string {
	source := b.Properties["title"].PlainEscaped()
	lang := b.Text("language")
	if lang == "" {
		lang = b.FormatView().Language
	}
	langClass := ""
	if lang != "" {
		langClass = ` class="language-` + recordmap.EscapeHTML(strings.ToLower(lang)) + `"`
	}

	var sb strings.Builder
	sb.WriteString(`<div class="code-block">`)
	sb.WriteString(`<button class="copy-code" type="button">Copy</button>`)
	if lang != "" {
		sb.WriteString(`<span class="code-language">` + recordmap.EscapeHTML(lang) + `</span>`)
	}
	sb.WriteString("<pre><code" + langClass + ">" + source + "</code></pre>")
	sb.WriteString("</div>")
	return sb.String()
}

func (r *renderer) image(b *recordmap.Block) string {
	f := b.FormatView()
	src := f.DisplaySource
	if src == "" {
		src = b.Properties["source"].FirstURL()
	}
	if src == "" {
		return ""
	}

	img := `<img src="` + recordmap.EscapeHTML(src) + `" alt="" loading="lazy">`
	if f.BlockWidth > 0 {
		img = fmt.Sprintf(`<img src="%s" alt="" width="%d" loading="lazy">`,
			recordmap.EscapeHTML(src), int(f.BlockWidth))
	}

	caption := b.Properties["caption"].PlainEscaped()
	if caption != "" {
		return "<figure>" + img + "<figcaption>" + caption + "</figcaption></figure>"
	}
	return img
}

func (r *renderer) callout(b *recordmap.Block, depth int) string {
	icon := recordmap.EscapeHTML(b.FormatView().PageIcon)
	text := b.Properties["title"].PlainEscaped()

	body := text
	if body == "" {
		// empty title: the callout's content lives in its children
		body = r.siblings(b.Content, depth+1)
		if body == "" {
			return ""
		}
	}

	var sb strings.Builder
	sb.WriteString(`<aside class="callout">`)
	if icon != "" {
		sb.WriteString(`<span class="callout-icon">` + icon + `</span>`)
	}
	sb.WriteString(`<div class="callout-content">` + body + "</div>")
	sb.WriteString("</aside>")
	return sb.String()
}

func (r *renderer) toggle(b *recordmap.Block, depth int) string {
	summary := b.Properties["title"].PlainEscaped()
	children := r.siblings(b.Content, depth+1)
	if summary == "" && children == "" {
		return ""
	}
	return "<details><summary>" + summary + "</summary>" + children + "</details>"
}

func (r *renderer) column(b *recordmap.Block, depth int) string {
	style := "flex:1"
	if ratio := b.FormatView().ColumnRatio; ratio > 0 {
		style = fmt.Sprintf("flex:%g", ratio)
	}
	return `<div class="column" style="` + style + `">` + r.siblings(b.Content, depth+1) + "</div>"
}

func (r *renderer) syncedReference(b *recordmap.Block, depth int) string {
	ref := b.FormatView().TransclusionReference
	if ref == "" {
		return ""
	}
	target := r.rm.BlockByID(ref)
	if target == nil {
		return ""
	}
	return r.siblings(target.Content, depth+1)
}

func (r *renderer) pageLink(b *recordmap.Block) string {
	targetID := b.ID
	if b.Type == "alias" || b.Type == "link_to_page" {
		if ref := b.FormatView().AliasPointerID; ref != "" {
			targetID = ref
		}
	}
	target := r.rm.BlockByID(targetID)
	title := ""
	icon := ""
	if target != nil {
		title = target.Title()
		icon = target.FormatView().PageIcon
	}
	if title == "" {
		title = "Untitled"
	}

	href := "https://www.notion.so/" + strings.ReplaceAll(targetID, "-", "")
	var sb strings.Builder
	sb.WriteString(`<a class="page-link" href="` + recordmap.EscapeHTML(href) + `" target="_blank" rel="noopener noreferrer">`)
	if icon != "" {
		sb.WriteString(`<span class="page-link-icon">` + recordmap.EscapeHTML(icon) + `</span>`)
	}
	sb.WriteString(recordmap.EscapeHTML(title))
	sb.WriteString("</a>")
	return sb.String()
}

func (r *renderer) collectionPlaceholder(b *recordmap.Block) string {
	name := ""
	if b.CollectionID != "" {
		if rec, ok := r.rm.Collections[b.CollectionID]; ok {
			name = rec.Value.Name.Plain()
		}
	}
	if name == "" {
		name = "Database"
	}
	return `<div class="collection-placeholder">` + recordmap.EscapeHTML(name) + `</div>`
}
