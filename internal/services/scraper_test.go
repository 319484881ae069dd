package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/questhaven/gamevault/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScraper() *ScraperService {
	return NewScraperService(&config.ScraperConfig{
		Timeout:      5 * time.Second,
		MaxBodyBytes: 1 << 20,
		UserAgent:    "GameVaultBot/1.0",
	})
}

func servePage(t *testing.T, html string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(html))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestScrape(t *testing.T) {
	ctx := context.Background()

	t.Run("prefers open graph metadata", func(t *testing.T) {
		srv := servePage(t, `<html><head>
			<title>Fallback Title</title>
			<meta property="og:title" content="Starfall Tactics">
			<meta property="og:description" content="A tactical space saga.">
			<meta property="og:image" content="/covers/starfall.jpg">
			<meta name="description" content="Ignored fallback.">
		</head><body><h1>Ignored H1</h1></body></html>`)

		result, err := newScraper().Scrape(ctx, srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "Starfall Tactics", result.Title)
		assert.Equal(t, "A tactical space saga.", result.Description)
		assert.Equal(t, srv.URL+"/covers/starfall.jpg", result.CoverImage)
	})

	t.Run("falls back to title tag then h1", func(t *testing.T) {
		srv := servePage(t, `<html><head><title>Page Title</title></head><body></body></html>`)
		result, err := newScraper().Scrape(ctx, srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "Page Title", result.Title)

		srv2 := servePage(t, `<html><body><h1>  Heading Only  </h1></body></html>`)
		result, err = newScraper().Scrape(ctx, srv2.URL)
		require.NoError(t, err)
		assert.Equal(t, "Heading Only", result.Title)
	})

	t.Run("falls back to meta description then first paragraph", func(t *testing.T) {
		srv := servePage(t, `<html><head>
			<meta name="description" content="Meta description.">
		</head><body><p>Paragraph text.</p></body></html>`)
		result, err := newScraper().Scrape(ctx, srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "Meta description.", result.Description)

		srv2 := servePage(t, `<html><body><p>First paragraph wins.</p><p>Second.</p></body></html>`)
		result, err = newScraper().Scrape(ctx, srv2.URL)
		require.NoError(t, err)
		assert.Equal(t, "First paragraph wins.", result.Description)
	})

	t.Run("picks referral anchor by store keywords", func(t *testing.T) {
		srv := servePage(t, `<html><body>
			<a href="/about">About us</a>
			<a href="https://store.steampowered.com/app/123">Buy on Steam</a>
		</body></html>`)
		result, err := newScraper().Scrape(ctx, srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "https://store.steampowered.com/app/123", result.ReferralURL)
	})

	t.Run("referral falls back to page url", func(t *testing.T) {
		srv := servePage(t, `<html><body><a href="/about">About us</a></body></html>`)
		result, err := newScraper().Scrape(ctx, srv.URL)
		require.NoError(t, err)
		assert.Equal(t, srv.URL, result.ReferralURL)
	})

	t.Run("resolves relative image against page url", func(t *testing.T) {
		srv := servePage(t, `<html><body><img src="assets/cover.png"></body></html>`)
		result, err := newScraper().Scrape(ctx, srv.URL)
		require.NoError(t, err)
		assert.Equal(t, srv.URL+"/assets/cover.png", result.CoverImage)
	})

	t.Run("sends configured user agent", func(t *testing.T) {
		var gotUA string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			w.Write([]byte("<html></html>"))
		}))
		defer srv.Close()

		_, err := newScraper().Scrape(ctx, srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "GameVaultBot/1.0", gotUA)
	})

	t.Run("non-2xx surfaces as upstream error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := newScraper().Scrape(ctx, srv.URL)
		assert.ErrorIs(t, err, ErrUpstream)
	})

	t.Run("unreachable host surfaces as upstream error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // now refuses connections

		_, err := newScraper().Scrape(ctx, srv.URL)
		assert.ErrorIs(t, err, ErrUpstream)
	})

	t.Run("rejects bad urls", func(t *testing.T) {
		for _, raw := range []string{"", "notaurl", "ftp://example.com/x", "http://"} {
			_, err := newScraper().Scrape(ctx, raw)
			assert.ErrorIs(t, err, ErrBadURL, "url: %q", raw)
		}
	})
}
