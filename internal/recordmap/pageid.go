package recordmap

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

var (
	ErrEmptyURL      = errors.New("recordmap: URL is empty")
	ErrNotNotionHost = errors.New("recordmap: URL is not on an allowed Notion host")
	ErrNoPageID      = errors.New("recordmap: no page id found in URL")
)

var hexRun = regexp.MustCompile(`[0-9a-fA-F]{32}`)

// allowedHost reports whether a hostname belongs to Notion. Fetches are
// only ever attempted against these hosts
func allowedHost(host string) bool {
	host = strings.ToLower(host)
	if host == "notion.so" || host == "www.notion.so" {
		return true
	}
	return strings.HasSuffix(host, ".notion.site") || host == "notion.site"
}

// PageID resolves a dashed page id from a Notion page or database URL.
// The id is the trailing 32-hex-character run of the last path segment,
// reconstructed into 8-4-4-4-12 form. Non-Notion hosts are rejected
// before any fetch is attempted.
func PageID(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", ErrEmptyURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", ErrNoPageID
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrNotNotionHost
	}
	if !allowedHost(u.Hostname()) {
		return "", ErrNotNotionHost
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	last := segments[len(segments)-1]

	// Page URLs end in "Some-Title-<32 hex>"; database URLs may carry the
	// id bare. Take the last hex run in the final segment.
	runs := hexRun.FindAllString(last, -1)
	if len(runs) == 0 {
		return "", ErrNoPageID
	}
	return DashID(runs[len(runs)-1]), nil
}

// DashID formats a bare 32-character id as a dashed UUID. Already-dashed
// or unexpected-length input is returned unchanged.
func DashID(id string) string {
	id = strings.ToLower(strings.ReplaceAll(id, "-", ""))
	if len(id) != 32 {
		return id
	}
	return id[0:8] + "-" + id[8:12] + "-" + id[12:16] + "-" + id[16:20] + "-" + id[20:32]
}
