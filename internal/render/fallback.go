package render

import (
	"strings"

	"github.com/mkondo/notionsync/internal/recordmap"
)

// providerRule pairs a hostname predicate with a renderer. The fallback
// arm walks this list in order, so adding a provider is a table entry,
// not new control flow.
type providerRule struct {
	match  func(host string) bool
	render func(r *renderer, b *recordmap.Block, src string) string
}

var providerRules = []providerRule{
	{
		match: hostIs("figma.com"),
		render: func(r *renderer, b *recordmap.Block, src string) string {
			return ratioIframe(NormalizeEmbedURL(src))
		},
	},
	{
		match: func(host string) bool {
			return hostIs("maps.google.com")(host) ||
				hostIs("maps.app.goo.gl")(host) ||
				(hostIs("google.com")(host))
		},
		render: func(r *renderer, b *recordmap.Block, src string) string {
			return ratioIframe(src)
		},
	},
	{
		match: func(host string) bool {
			return hostIs("twitter.com")(host) || hostIs("x.com")(host)
		},
		render: func(r *renderer, b *recordmap.Block, src string) string {
			return tweetEmbed(src)
		},
	},
	{
		match: func(host string) bool {
			return hostIs("spotify.com")(host) || hostIs("soundcloud.com")(host)
		},
		render: func(r *renderer, b *recordmap.Block, src string) string {
			if snippet, ok := r.opts.EmbedHTML[src]; ok && snippet != "" {
				return snippet
			}
			return audioLinkCard(src, hostnameOf(src))
		},
	},
	{
		match: hostIs("loom.com"),
		render: func(r *renderer, b *recordmap.Block, src string) string {
			return ratioIframe(NormalizeEmbedURL(src))
		},
	},
}

func hostIs(domain string) func(string) bool {
	return func(host string) bool {
		host = strings.TrimPrefix(host, "www.")
		return host == domain || strings.HasSuffix(host, "."+domain)
	}
}

// fallback is the default arm for unknown block types: new Notion block
// types degrade gracefully instead of breaking the page. Any URL-shaped
// value in properties or format is matched against known providers;
// text-only content becomes a paragraph; otherwise nothing is emitted.
func (r *renderer) fallback(b *recordmap.Block) string {
	if src := anyURL(b); src != "" {
		host := hostnameOf(src)
		for _, rule := range providerRules {
			if rule.match(host) {
				return rule.render(r, b, src)
			}
		}
	}
	if text := b.Properties["title"].PlainEscaped(); text != "" {
		return "<p>" + text + "</p>"
	}
	return ""
}

// anyURL scans a block's properties and format for the first URL-shaped
// value it can find.
func anyURL(b *recordmap.Block) string {
	if u := blockSourceURL(b); u != "" {
		return u
	}
	for _, rt := range b.Properties {
		if u := rt.FirstURL(); u != "" {
			return u
		}
	}
	for _, v := range b.Format {
		if s, ok := v.(string); ok && strings.HasPrefix(s, "http") {
			return s
		}
	}
	return ""
}
