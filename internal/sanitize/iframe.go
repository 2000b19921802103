package sanitize

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// filterIframes parses an HTML fragment and removes every <iframe> whose
// src hostname is not on the embed allow-list. Protocol-relative sources
// are resolved as https before the host check. Unparseable input is
// returned empty; the sanitizer must fail closed.
func filterIframes(fragment string) string {
	container := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), container)
	if err != nil {
		return ""
	}

	for _, n := range nodes {
		container.AppendChild(n)
	}
	pruneIframes(container)

	var buf bytes.Buffer
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return ""
		}
	}
	return buf.String()
}

func pruneIframes(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && c.DataAtom == atom.Iframe && !iframeAllowed(c) {
			n.RemoveChild(c)
		} else {
			pruneIframes(c)
		}
		c = next
	}
}

func iframeAllowed(n *html.Node) bool {
	for _, attr := range n.Attr {
		if attr.Key != "src" {
			continue
		}
		src := strings.TrimSpace(attr.Val)
		if strings.HasPrefix(src, "//") {
			src = "https:" + src
		}
		u, err := url.Parse(src)
		if err != nil {
			return false
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return false
		}
		return AllowedEmbedHost(u.Hostname())
	}
	// no src at all, nothing to load
	return false
}
