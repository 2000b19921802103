package render

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/mkondo/notionsync/internal/recordmap"
)

// blockSourceURL locates a block's source URL from the several places
// Notion stores one, in priority order: the source property, then the
// format's display_source, source, uri and link fields.
func blockSourceURL(b *recordmap.Block) string {
	if b == nil {
		return ""
	}
	if u := b.Properties["source"].FirstURL(); u != "" {
		return u
	}
	f := b.FormatView()
	for _, u := range []string{f.DisplaySource, f.Source, f.URI, f.Link} {
		if u != "" {
			return u
		}
	}
	return ""
}

// genericEmbed renders the embed block family as a 16:9 iframe.
func (r *renderer) genericEmbed(b *recordmap.Block) string {
	src := blockSourceURL(b)
	if src == "" {
		return ""
	}
	src = NormalizeEmbedURL(src)
	return ratioIframe(src)
}

// NormalizeEmbedURL rewrites provider URLs into their embeddable form.
// Figma URLs must go through the embed endpoint; already-embed-form
// URLs are left unmodified.
func NormalizeEmbedURL(src string) string {
	u, err := url.Parse(src)
	if err != nil {
		return src
	}
	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))

	switch {
	case host == "figma.com":
		if strings.Contains(src, "embed_host") {
			return src
		}
		return "https://www.figma.com/embed?embed_host=notion&url=" + url.QueryEscape(src)
	case host == "loom.com":
		return strings.Replace(src, "loom.com/share/", "loom.com/embed/", 1)
	}
	return src
}

// ratioIframe wraps an iframe in a 16:9 aspect-ratio container
func ratioIframe(src string) string {
	if src == "" {
		return ""
	}
	return `<div class="embed-container" style="position:relative;padding-bottom:56.25%;height:0">` +
		`<iframe src="` + recordmap.EscapeHTML(src) + `" ` +
		`style="position:absolute;top:0;left:0;width:100%;height:100%" ` +
		`frameborder="0" allowfullscreen loading="lazy"></iframe></div>`
}

// sizedIframe renders an iframe honoring the block's stored dimensions
func sizedIframe(src string, f recordmap.BlockFormat) string {
	if src == "" {
		return ""
	}
	width, height := 700, 500
	if f.BlockWidth > 0 {
		width = int(f.BlockWidth)
	}
	if f.BlockHeight > 0 {
		height = int(f.BlockHeight)
	}
	return fmt.Sprintf(`<iframe src="%s" width="%d" height="%d" frameborder="0" allowfullscreen loading="lazy"></iframe>`,
		recordmap.EscapeHTML(src), width, height)
}

var (
	youtubeWatch = regexp.MustCompile(`(?:youtube\.com/watch\?.*v=|youtu\.be/|youtube\.com/shorts/)([\w-]{6,})`)
	vimeoVideo   = regexp.MustCompile(`vimeo\.com/(?:video/)?(\d+)`)
)

// VideoEmbedURL normalizes a recognized video platform URL into its
// embed iframe form. Returns "" for URLs of unrecognized platforms.
func VideoEmbedURL(src string) string {
	if m := youtubeWatch.FindStringSubmatch(src); m != nil {
		return "https://www.youtube.com/embed/" + m[1]
	}
	if m := vimeoVideo.FindStringSubmatch(src); m != nil {
		return "https://player.vimeo.com/video/" + m[1]
	}
	return ""
}

func (r *renderer) video(b *recordmap.Block) string {
	src := blockSourceURL(b)
	if src == "" {
		return ""
	}
	if embed := VideoEmbedURL(src); embed != "" {
		return ratioIframe(embed)
	}
	return `<video controls src="` + recordmap.EscapeHTML(src) + `"></video>`
}

func (r *renderer) audio(b *recordmap.Block) string {
	src := blockSourceURL(b)
	if src == "" {
		return ""
	}
	host := hostnameOf(src)
	if strings.Contains(host, "spotify.com") || strings.Contains(host, "soundcloud.com") {
		if snippet, ok := r.opts.EmbedHTML[src]; ok && snippet != "" {
			return snippet
		}
		return audioLinkCard(src, host)
	}
	return `<audio controls src="` + recordmap.EscapeHTML(src) + `"></audio>`
}

func audioLinkCard(src, host string) string {
	label := "Listen"
	switch {
	case strings.Contains(host, "spotify"):
		label = "Listen on Spotify"
	case strings.Contains(host, "soundcloud"):
		label = "Listen on SoundCloud"
	}
	return `<a class="audio-card" href="` + recordmap.EscapeHTML(src) + `" target="_blank" rel="noopener noreferrer">` + label + `</a>`
}

func tweetEmbed(src string) string {
	if src == "" {
		return ""
	}
	return `<blockquote class="twitter-tweet"><a href="` + recordmap.EscapeHTML(src) + `"></a></blockquote>` +
		`<script async src="https://platform.twitter.com/widgets.js" charset="utf-8"></script>`
}

func (r *renderer) bookmark(b *recordmap.Block) string {
	link := b.Properties["link"].FirstURL()
	if link == "" {
		link = blockSourceURL(b)
	}
	if link == "" {
		return ""
	}

	title := b.Properties["title"].PlainEscaped()
	description := b.Properties["description"].PlainEscaped()
	cover := b.FormatView().BookmarkCover

	// fall back to prefetched OpenGraph metadata for bare bookmarks
	if title == "" {
		if p, ok := r.opts.Previews[link]; ok {
			title = recordmap.EscapeHTML(p.Title)
			if description == "" {
				description = recordmap.EscapeHTML(p.Description)
			}
			if cover == "" {
				cover = p.Image
			}
		}
	}
	if title == "" {
		title = recordmap.EscapeHTML(link)
	}

	var sb strings.Builder
	sb.WriteString(`<a class="bookmark" href="` + recordmap.EscapeHTML(link) + `" target="_blank" rel="noopener noreferrer">`)
	sb.WriteString(`<div class="bookmark-title">` + title + `</div>`)
	if description != "" {
		sb.WriteString(`<div class="bookmark-description">` + description + `</div>`)
	}
	if cover != "" {
		sb.WriteString(`<img class="bookmark-cover" src="` + recordmap.EscapeHTML(cover) + `" alt="" loading="lazy">`)
	}
	sb.WriteString("</a>")
	return sb.String()
}

func (r *renderer) drive(b *recordmap.Block) string {
	src := blockSourceURL(b)
	if src == "" {
		return ""
	}
	if strings.Contains(hostnameOf(src), "google.com") {
		src = strings.Replace(src, "/view", "/preview", 1)
		return sizedIframe(src, b.FormatView())
	}
	return fileCard(src, b.Properties["title"].PlainEscaped())
}

func (r *renderer) pdf(b *recordmap.Block) string {
	src := blockSourceURL(b)
	if src == "" {
		return ""
	}
	return sizedIframe(src, b.FormatView())
}

func (r *renderer) file(b *recordmap.Block) string {
	src := b.Properties["source"].FirstURL()
	if src == "" {
		src = blockSourceURL(b)
	}
	if src == "" {
		return ""
	}
	return fileCard(src, b.Properties["title"].PlainEscaped())
}

func fileCard(src, name string) string {
	if name == "" {
		name = "Download file"
	}
	return `<a class="file-card" href="` + recordmap.EscapeHTML(src) + `" target="_blank" rel="noopener noreferrer">` + name + `</a>`
}

func (r *renderer) miro(b *recordmap.Block) string {
	src := blockSourceURL(b)
	if src == "" {
		return ""
	}
	// board URLs embed through the live-embed path
	src = strings.Replace(src, "miro.com/app/board/", "miro.com/app/live-embed/", 1)
	return sizedIframe(src, b.FormatView())
}

func hostnameOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
