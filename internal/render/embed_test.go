package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkondo/notionsync/internal/oembed"
	"github.com/mkondo/notionsync/internal/recordmap"
)

func TestNormalizeEmbedURL(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
	}{
		{
			name:     "figma file url goes through the embed endpoint",
			src:      "https://www.figma.com/file/abc/My-Design",
			expected: "https://www.figma.com/embed?embed_host=notion&url=https%3A%2F%2Fwww.figma.com%2Ffile%2Fabc%2FMy-Design",
		},
		{
			name:     "figma url already in embed form is untouched",
			src:      "https://www.figma.com/embed?embed_host=notion&url=x",
			expected: "https://www.figma.com/embed?embed_host=notion&url=x",
		},
		{
			name:     "loom share url becomes embed url",
			src:      "https://www.loom.com/share/abc123",
			expected: "https://www.loom.com/embed/abc123",
		},
		{
			name:     "other providers pass through",
			src:      "https://codepen.io/user/pen/abc",
			expected: "https://codepen.io/user/pen/abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeEmbedURL(tt.src))
		})
	}
}

func TestVideoEmbedURL(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
	}{
		{"youtube watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "https://www.youtube.com/embed/dQw4w9WgXcQ"},
		{"youtube watch with extra params", "https://www.youtube.com/watch?t=10&v=dQw4w9WgXcQ", "https://www.youtube.com/embed/dQw4w9WgXcQ"},
		{"youtu.be short link", "https://youtu.be/dQw4w9WgXcQ", "https://www.youtube.com/embed/dQw4w9WgXcQ"},
		{"youtube shorts", "https://www.youtube.com/shorts/dQw4w9WgXcQ", "https://www.youtube.com/embed/dQw4w9WgXcQ"},
		{"vimeo", "https://vimeo.com/123456789", "https://player.vimeo.com/video/123456789"},
		{"vimeo video path", "https://vimeo.com/video/123456789", "https://player.vimeo.com/video/123456789"},
		{"unrecognized platform", "https://example.com/video.mp4", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, VideoEmbedURL(tt.src))
		})
	}
}

func TestVideoBlock(t *testing.T) {
	yt := testMap(recordmap.Block{ID: "b", Type: "video", Properties: map[string]recordmap.RichText{
		"source": {{"https://www.youtube.com/watch?v=dQw4w9WgXcQ"}},
	}})
	out := Render(yt, "b", Options{})
	assert.Contains(t, out, "youtube.com/embed/dQw4w9WgXcQ")
	assert.Contains(t, out, "padding-bottom:56.25%")

	direct := testMap(recordmap.Block{ID: "b", Type: "video", Properties: map[string]recordmap.RichText{
		"source": {{"https://files.example.com/clip.mp4"}},
	}})
	assert.Equal(t, `<video controls src="https://files.example.com/clip.mp4"></video>`, Render(direct, "b", Options{}))
}

func TestAudioBlock(t *testing.T) {
	spotifyURL := "https://open.spotify.com/track/abc"

	spotify := testMap(recordmap.Block{ID: "b", Type: "audio", Properties: map[string]recordmap.RichText{
		"source": {{spotifyURL}},
	}})

	// prefetched oEmbed snippet wins
	opts := Options{EmbedHTML: map[string]string{spotifyURL: `<iframe src="https://open.spotify.com/embed/track/abc"></iframe>`}}
	assert.Contains(t, Render(spotify, "b", opts), "open.spotify.com/embed")

	// without a snippet the block degrades to a link card
	out := Render(spotify, "b", Options{})
	assert.Contains(t, out, "Listen on Spotify")
	assert.Contains(t, out, `href="https://open.spotify.com/track/abc"`)

	direct := testMap(recordmap.Block{ID: "b", Type: "audio", Properties: map[string]recordmap.RichText{
		"source": {{"https://files.example.com/song.mp3"}},
	}})
	assert.Equal(t, `<audio controls src="https://files.example.com/song.mp3"></audio>`, Render(direct, "b", Options{}))
}

func TestTweet(t *testing.T) {
	rm := testMap(recordmap.Block{ID: "b", Type: "tweet", Properties: map[string]recordmap.RichText{
		"source": {{"https://twitter.com/user/status/123"}},
	}})
	out := Render(rm, "b", Options{})
	assert.Contains(t, out, `class="twitter-tweet"`)
	assert.Contains(t, out, "https://platform.twitter.com/widgets.js")
	assert.Contains(t, out, `href="https://twitter.com/user/status/123"`)
}

func TestBookmark(t *testing.T) {
	full := testMap(recordmap.Block{ID: "b", Type: "bookmark", Properties: map[string]recordmap.RichText{
		"link":        {{"https://example.com/post"}},
		"title":       {{"An article"}},
		"description": {{"Worth reading"}},
	}})
	out := Render(full, "b", Options{})
	assert.Contains(t, out, `href="https://example.com/post"`)
	assert.Contains(t, out, `<div class="bookmark-title">An article</div>`)
	assert.Contains(t, out, `<div class="bookmark-description">Worth reading</div>`)

	// bare bookmark picks up prefetched OpenGraph metadata
	bare := testMap(recordmap.Block{ID: "b", Type: "bookmark", Properties: map[string]recordmap.RichText{
		"link": {{"https://example.com/post"}},
	}})
	opts := Options{Previews: map[string]oembed.Preview{
		"https://example.com/post": {Title: "Fetched title", Description: "Fetched description", Image: "https://example.com/og.png"},
	}}
	out = Render(bare, "b", opts)
	assert.Contains(t, out, "Fetched title")
	assert.Contains(t, out, "Fetched description")
	assert.Contains(t, out, `src="https://example.com/og.png"`)

	// no metadata at all: the URL itself is the title
	out = Render(bare, "b", Options{})
	assert.Contains(t, out, `<div class="bookmark-title">https://example.com/post</div>`)
}

func TestEmbedBlock(t *testing.T) {
	rm := testMap(recordmap.Block{ID: "b", Type: "embed", Format: map[string]interface{}{
		"display_source": "https://codepen.io/user/pen/abc",
	}})
	out := Render(rm, "b", Options{})
	assert.Contains(t, out, `src="https://codepen.io/user/pen/abc"`)
	assert.Contains(t, out, "padding-bottom:56.25%")

	noSource := testMap(recordmap.Block{ID: "b", Type: "embed"})
	assert.Equal(t, "", Render(noSource, "b", Options{}))
}

func TestFigmaBlock(t *testing.T) {
	rm := testMap(recordmap.Block{ID: "b", Type: "figma", Properties: map[string]recordmap.RichText{
		"source": {{"https://www.figma.com/file/abc/My-Design"}},
	}})
	out := Render(rm, "b", Options{})
	assert.Contains(t, out, "figma.com/embed?embed_host=notion")
}

func TestMiro(t *testing.T) {
	rm := testMap(recordmap.Block{ID: "b", Type: "miro", Properties: map[string]recordmap.RichText{
		"source": {{"https://miro.com/app/board/abc="}},
	}})
	out := Render(rm, "b", Options{})
	assert.Contains(t, out, "miro.com/app/live-embed/abc=")
	assert.Contains(t, out, `width="700" height="500"`)
}

func TestDrive(t *testing.T) {
	google := testMap(recordmap.Block{ID: "b", Type: "drive", Properties: map[string]recordmap.RichText{
		"source": {{"https://drive.google.com/file/d/abc/view"}},
	}})
	out := Render(google, "b", Options{})
	assert.Contains(t, out, "https://drive.google.com/file/d/abc/preview")
	assert.Contains(t, out, "<iframe")

	other := testMap(recordmap.Block{ID: "b", Type: "drive", Properties: map[string]recordmap.RichText{
		"source": {{"https://dropbox.com/s/abc/file.zip"}},
		"title":  {{"file.zip"}},
	}})
	out = Render(other, "b", Options{})
	assert.Contains(t, out, `class="file-card"`)
	assert.Contains(t, out, "file.zip")
}

func TestPDFAndFile(t *testing.T) {
	pdf := testMap(recordmap.Block{ID: "b", Type: "pdf",
		Properties: map[string]recordmap.RichText{"source": {{"https://files.example.com/doc.pdf"}}},
		Format:     map[string]interface{}{"block_width": 640, "block_height": 480},
	})
	out := Render(pdf, "b", Options{})
	assert.Contains(t, out, `src="https://files.example.com/doc.pdf"`)
	assert.Contains(t, out, `width="640" height="480"`)

	file := testMap(recordmap.Block{ID: "b", Type: "file", Properties: map[string]recordmap.RichText{
		"source": {{"https://files.example.com/report.xlsx"}},
		"title":  {{"report.xlsx"}},
	}})
	assert.Equal(t,
		`<a class="file-card" href="https://files.example.com/report.xlsx" target="_blank" rel="noopener noreferrer">report.xlsx</a>`,
		Render(file, "b", Options{}))

	unnamed := testMap(recordmap.Block{ID: "b", Type: "file", Properties: map[string]recordmap.RichText{
		"source": {{"https://files.example.com/blob"}},
	}})
	assert.Contains(t, Render(unnamed, "b", Options{}), "Download file")
}

func TestBlockSourceURLPriority(t *testing.T) {
	b := &recordmap.Block{
		Properties: map[string]recordmap.RichText{"source": {{"https://from-properties.example.com"}}},
		Format:     map[string]interface{}{"display_source": "https://from-format.example.com"},
	}
	assert.Equal(t, "https://from-properties.example.com", blockSourceURL(b))

	formatOnly := &recordmap.Block{Format: map[string]interface{}{"uri": "https://from-uri.example.com"}}
	assert.Equal(t, "https://from-uri.example.com", blockSourceURL(formatOnly))

	assert.Equal(t, "", blockSourceURL(nil))
	assert.Equal(t, "", blockSourceURL(&recordmap.Block{}))
}
