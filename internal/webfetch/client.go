// Package webfetch implements toolregistry.WebFetcher over plain
// net/http, grounded on
// original_source/app/agents/tools/web_scraping_tool.py's og:title /
// og:description / og:image extraction priority. No HTML parser
// appears in the examples pack's go.mod files, so extraction here uses
// targeted regexes over the raw body rather than a DOM tree, covering
// meta tags, <title> and the first <h1>. The image comes only from the
// og:image / twitter:image meta tags; <img> elements are not read.
package webfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ivanintech/agentic-assistant/internal/toolregistry"
)

type Client struct {
	HTTP *http.Client
}

func NewClient() *Client {
	return &Client{HTTP: &http.Client{Timeout: 10 * time.Second}}
}

var (
	metaTagPattern  = regexp.MustCompile(`(?is)<meta\s+[^>]*(?:property|name)=["']([^"']+)["'][^>]*content=["']([^"']*)["'][^>]*>`)
	metaTagPattern2 = regexp.MustCompile(`(?is)<meta\s+[^>]*content=["']([^"']*)["'][^>]*(?:property|name)=["']([^"']+)["'][^>]*>`)
	titleTagPattern = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	h1TagPattern    = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
	tagPattern      = regexp.MustCompile(`(?is)<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Fetch implements toolregistry.WebFetcher.
func (c *Client) Fetch(ctx context.Context, targetURL string, extractImage, extractText bool) (toolregistry.ScrapedPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return toolregistry.ScrapedPage{}, fmt.Errorf("webfetch: build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; agentic-assistant/1.0)")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return toolregistry.ScrapedPage{}, fmt.Errorf("webfetch: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return toolregistry.ScrapedPage{}, fmt.Errorf("webfetch: %s returned %s", targetURL, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return toolregistry.ScrapedPage{}, fmt.Errorf("webfetch: read body: %w", err)
	}
	html := string(body)
	meta := metaTags(html)

	page := toolregistry.ScrapedPage{
		Title:       firstNonEmpty(meta["og:title"], meta["twitter:title"], titleTagOr(html), h1TagOr(html), targetURL),
		Description: firstNonEmpty(meta["og:description"], meta["twitter:description"], meta["description"]),
	}
	if extractImage {
		page.Image = firstNonEmpty(meta["og:image"], meta["twitter:image"])
	}
	if extractText {
		page.Text = truncate(stripTags(html), 4000)
	}
	return page, nil
}

// ScanForEvents implements toolregistry.WebFetcher: it fetches each
// site and checks whether the extracted title/description match any
// keyword, emitting one candidate per hit.
func (c *Client) ScanForEvents(ctx context.Context, sites, keywords []string) ([]toolregistry.CandidateEvent, error) {
	var out []toolregistry.CandidateEvent
	for _, site := range sites {
		page, err := c.Fetch(ctx, site, false, false)
		if err != nil {
			continue
		}
		haystack := strings.ToLower(page.Title + " " + page.Description)
		for _, kw := range keywords {
			if strings.Contains(haystack, strings.ToLower(kw)) {
				out = append(out, toolregistry.CandidateEvent{Title: page.Title, URL: site, Site: site})
				break
			}
		}
	}
	return out, nil
}

func metaTags(html string) map[string]string {
	tags := make(map[string]string)
	for _, m := range metaTagPattern.FindAllStringSubmatch(html, -1) {
		tags[strings.ToLower(m[1])] = m[2]
	}
	for _, m := range metaTagPattern2.FindAllStringSubmatch(html, -1) {
		if _, exists := tags[strings.ToLower(m[2])]; !exists {
			tags[strings.ToLower(m[2])] = m[1]
		}
	}
	return tags
}

func titleTagOr(html string) string {
	if m := titleTagPattern.FindStringSubmatch(html); m != nil {
		return strings.TrimSpace(stripTags(m[1]))
	}
	return ""
}

func h1TagOr(html string) string {
	if m := h1TagPattern.FindStringSubmatch(html); m != nil {
		return strings.TrimSpace(stripTags(m[1]))
	}
	return ""
}

func stripTags(html string) string {
	text := tagPattern.ReplaceAllString(html, " ")
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
