package document

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articlePage = `<!doctype html>
<html>
<head><title>Deep Sea Vents</title><script>var x = 1;</script></head>
<body>
<nav>Home | About</nav>
<article>
<h2>Chemosynthesis</h2>
<p>Bacteria near vents turn chemicals into energy.</p>
</article>
<footer>copyright</footer>
</body>
</html>`

func TestFromWebsite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/article":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(articlePage))
		case "/untitled":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><head><meta property="og:title" content="OG Title"></head><body><main><p>Body text here.</p></main></body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	loader := NewLoader()
	ctx := context.Background()

	t.Run("Should keep the article and drop page chrome", func(t *testing.T) {
		d, err := loader.FromWebsite(ctx, srv.URL+"/article")
		require.NoError(t, err)
		assert.Equal(t, "Deep Sea Vents", d.Title)
		assert.Equal(t, SourceWebsite, d.Source)
		assert.Equal(t, srv.URL+"/article", d.URL)
		assert.Contains(t, d.Text, "Chemosynthesis")
		assert.Contains(t, d.Text, "Bacteria near vents turn chemicals into energy.")
		assert.NotContains(t, d.Text, "Home | About")
		assert.NotContains(t, d.Text, "copyright")
		assert.NotContains(t, d.Text, "var x")
	})
	t.Run("Should fall back to og:title and main", func(t *testing.T) {
		d, err := loader.FromWebsite(ctx, srv.URL+"/untitled")
		require.NoError(t, err)
		assert.Equal(t, "OG Title", d.Title)
		assert.Contains(t, d.Text, "Body text here.")
	})
	t.Run("Should fail on an error status", func(t *testing.T) {
		_, err := loader.FromWebsite(ctx, srv.URL+"/missing")
		assert.Error(t, err)
	})
}

func TestYouTubeIDFromURL(t *testing.T) {
	t.Run("Should extract ids from supported forms", func(t *testing.T) {
		cases := map[string]string{
			"https://www.youtube.com/watch?v=dQw4w9WgXcQ":      "dQw4w9WgXcQ",
			"http://youtube.com/watch?v=dQw4w9WgXcQ&t=42":      "dQw4w9WgXcQ",
			"https://youtu.be/dQw4w9WgXcQ":                     "dQw4w9WgXcQ",
			"youtu.be/a_b-c_d-e_f":                             "a_b-c_d-e_f",
		}
		for in, want := range cases {
			got, err := YouTubeIDFromURL(in)
			require.NoError(t, err, in)
			assert.Equal(t, want, got, in)
		}
	})
	t.Run("Should reject other urls", func(t *testing.T) {
		for _, in := range []string{"https://vimeo.com/123", "https://www.youtube.com/channel/xyz", "see https://youtu.be/dQw4w9WgXcQ"} {
			_, err := YouTubeIDFromURL(in)
			assert.ErrorIs(t, err, ErrInvalidYouTubeURL, in)
		}
	})
}

func TestFromYouTube(t *testing.T) {
	var transcript string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oembed":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"title":"Volcano Talk","author_name":"geo"}`))
		case "/timedtext":
			if r.URL.Query().Get("v") != "dQw4w9WgXcQ" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "text/xml")
			_, _ = w.Write([]byte(transcript))
		}
	}))
	defer srv.Close()

	loader := NewLoader(WithYouTubeEndpoints(srv.URL+"/oembed", srv.URL+"/timedtext"))
	videoURL := "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

	t.Run("Should join caption lines and unescape entities", func(t *testing.T) {
		transcript = `<?xml version="1.0" encoding="utf-8" ?><transcript>` +
			`<text start="0" dur="1.2">Magma rises</text>` +
			`<text start="1.2" dur="2">it&amp;#39;s hot</text>` +
			`</transcript>`
		d, err := loader.FromYouTube(context.Background(), videoURL)
		require.NoError(t, err)
		assert.Equal(t, "Volcano Talk", d.Title)
		assert.Equal(t, SourceYouTube, d.Source)
		assert.Equal(t, videoURL, d.URL)
		assert.Equal(t, "Magma rises\nit's hot", d.Text)
	})
	t.Run("Should report a missing transcript", func(t *testing.T) {
		transcript = ""
		_, err := loader.FromYouTube(context.Background(), videoURL)
		assert.ErrorIs(t, err, ErrNoTranscript)
	})
	t.Run("Should reject a non youtube url before fetching", func(t *testing.T) {
		_, err := loader.FromYouTube(context.Background(), "https://example.com/video")
		assert.ErrorIs(t, err, ErrInvalidYouTubeURL)
	})
}
