package sanitize

import "strings"

// embedHosts is the explicit allow-list of hostnames an <iframe> may
// point at. Anything else is dropped by the iframe pass. This is a
// security boundary: widening it widens what third parties can run
// inside a reader's browser.
var embedHosts = []string{
	// design tools
	"figma.com",
	"miro.com",
	"excalidraw.com",
	"canva.com",
	"abstract.com",
	"invisionapp.com",
	"framer.com",
	"whimsical.com",
	"mural.co",
	"pitch.com",
	"prezi.com",
	// video platforms
	"youtube.com",
	"youtube-nocookie.com",
	"youtu.be",
	"vimeo.com",
	"player.vimeo.com",
	"loom.com",
	"wistia.com",
	"fast.wistia.net",
	"dailymotion.com",
	"twitch.tv",
	"player.twitch.tv",
	// docs, storage
	"docs.google.com",
	"drive.google.com",
	"calendar.google.com",
	"maps.google.com",
	"google.com",
	"onedrive.live.com",
	"dropbox.com",
	"box.com",
	"slideshare.net",
	"speakerdeck.com",
	// code sandboxes
	"codepen.io",
	"codesandbox.io",
	"stackblitz.com",
	"jsfiddle.net",
	"replit.com",
	"glitch.com",
	"gist.github.com",
	"observablehq.com",
	// social
	"twitter.com",
	"platform.twitter.com",
	"x.com",
	"instagram.com",
	"facebook.com",
	"linkedin.com",
	// audio
	"open.spotify.com",
	"soundcloud.com",
	"w.soundcloud.com",
	// forms
	"typeform.com",
	"airtable.com",
	"tally.so",
	"jotform.com",
	"forms.gle",
	// project management
	"trello.com",
	"asana.com",
	"monday.com",
	"clickup.com",
	"linear.app",
	"notion.so",
	// communication
	"slack.com",
	"zoom.us",
	"calendly.com",
	// CRM / support
	"intercom.com",
	"zendesk.com",
	"hubspot.com",
	// misc
	"desmos.com",
	"geogebra.org",
}

// AllowedEmbedHost reports whether an iframe may point at the given
// hostname. Subdomains of listed domains are allowed; a leading www. is
// ignored.
func AllowedEmbedHost(host string) bool {
	host = strings.ToLower(strings.TrimPrefix(host, "www."))
	if host == "" {
		return false
	}
	for _, allowed := range embedHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}
