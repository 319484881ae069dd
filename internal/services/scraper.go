package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/questhaven/gamevault/pkg/config"
	"github.com/rs/zerolog/log"
)

// Scraper errors. ErrUpstream covers everything the target site did wrong
// (unreachable, non-2xx, unparsable); handlers map it to 502. ErrBadURL is
// the caller's fault and maps to 400.
var (
	ErrBadURL   = errors.New("invalid scrape url")
	ErrUpstream = errors.New("upstream fetch failed")
)

// descriptionLimit caps how much text a fallback paragraph contributes.
const descriptionLimit = 300

// referralKeywords mark anchors that look like store/purchase links.
var referralKeywords = []string{"buy", "store", "steam", "shop", "purchase", "gog.com", "epicgames"}

// ScrapeResult holds the fields extracted from a product page. Empty
// fields mean the heuristic found nothing; the admin reviews the result
// before importing.
type ScrapeResult struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CoverImage  string `json:"cover_image"`
	ReferralURL string `json:"referral_url"`
}

// ScraperService fetches an external product page and extracts game
// metadata with fixed CSS heuristics. The outbound request is bounded by
// a timeout and a body size cap so a slow or hostile site cannot stall an
// admin request.
type ScraperService struct {
	client    *http.Client
	maxBody   int64
	userAgent string
}

// NewScraperService creates the scraper from its configuration.
func NewScraperService(cfg *config.ScraperConfig) *ScraperService {
	return &ScraperService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		maxBody:   cfg.MaxBodyBytes,
		userAgent: cfg.UserAgent,
	}
}

// Scrape fetches a page and extracts title, description, cover image, and
// a referral link candidate.
//
// Heuristics, in priority order:
//   - title: og:title → <title> → first <h1>
//   - description: og:description → meta description → first <p>
//   - cover image: og:image → first <img>, resolved against the page URL
//   - referral: first anchor whose text or href mentions a store keyword,
//     falling back to the page URL itself
func (s *ScraperService) Scrape(ctx context.Context, rawURL string) (*ScrapeResult, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil || (pageURL.Scheme != "http" && pageURL.Scheme != "https") || pageURL.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrBadURL, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadURL, err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d from %s", ErrUpstream, resp.StatusCode, pageURL.Host)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, s.maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: unparsable body: %v", ErrUpstream, err)
	}

	result := &ScrapeResult{
		URL:         pageURL.String(),
		Title:       extractTitle(doc),
		Description: extractDescription(doc),
		CoverImage:  extractImage(doc, pageURL),
		ReferralURL: extractReferral(doc, pageURL),
	}

	log.Info().
		Str("url", result.URL).
		Bool("found_title", result.Title != "").
		Bool("found_image", result.CoverImage != "").
		Msg("Page scraped")

	return result, nil
}

func extractTitle(doc *goquery.Document) string {
	if content, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if title := strings.TrimSpace(content); title != "" {
			return title
		}
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

func extractDescription(doc *goquery.Document) string {
	if content, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		if desc := strings.TrimSpace(content); desc != "" {
			return desc
		}
	}
	if content, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		if desc := strings.TrimSpace(content); desc != "" {
			return desc
		}
	}

	desc := strings.TrimSpace(doc.Find("p").First().Text())
	if len(desc) > descriptionLimit {
		desc = desc[:descriptionLimit]
	}
	return desc
}

func extractImage(doc *goquery.Document, base *url.URL) string {
	if content, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok {
		if img := strings.TrimSpace(content); img != "" {
			return absoluteURL(base, img)
		}
	}
	if src, ok := doc.Find("img").First().Attr("src"); ok {
		if img := strings.TrimSpace(src); img != "" {
			return absoluteURL(base, img)
		}
	}
	return ""
}

func extractReferral(doc *goquery.Document, base *url.URL) string {
	referral := ""
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		haystack := strings.ToLower(sel.Text() + " " + href)
		for _, keyword := range referralKeywords {
			if strings.Contains(haystack, keyword) {
				referral = absoluteURL(base, strings.TrimSpace(href))
				return false
			}
		}
		return true
	})

	if referral == "" {
		return base.String()
	}
	return referral
}

// absoluteURL resolves a possibly-relative reference against the page URL.
// Unparsable references are returned untouched.
func absoluteURL(base *url.URL, ref string) string {
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}
