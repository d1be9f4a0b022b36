package toolregistry

import (
	"context"
	"net/url"
	"regexp"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// ScrapedPage is the shape scrape_web_content returns.
type ScrapedPage struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
	Text        string `json:"text,omitempty"`
}

// CandidateEvent is the shape scrape_news_for_events returns.
type CandidateEvent struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Site  string `json:"site"`
}

// WebFetcher abstracts outbound HTTP fetching for the scraping tools.
type WebFetcher interface {
	Fetch(ctx context.Context, targetURL string, extractImage, extractText bool) (ScrapedPage, error)
	ScanForEvents(ctx context.Context, sites, keywords []string) ([]CandidateEvent, error)
}

var urlPattern = regexp.MustCompile(`https?://[^\s<>"')\]]+`)

type ExtractURLsTool struct{}

func NewExtractURLsTool() *ExtractURLsTool { return &ExtractURLsTool{} }

func (t *ExtractURLsTool) Name() string        { return "extract_urls" }
func (t *ExtractURLsTool) AgentCodes() []string { return []string{"GEN", "COMMS"} }

func (t *ExtractURLsTool) Definition() mcp.Tool {
	return mcp.NewTool("extract_urls",
		mcp.WithDescription("Extract URLs found in free text."),
		mcp.WithString("text", mcp.Required()),
		mcp.WithBoolean("normalize", mcp.Description("Lowercase the scheme and host. Defaults to true.")),
		mcp.WithBoolean("remove_duplicates", mcp.Description("Collapse duplicate URLs. Defaults to true.")),
	)
}

func (t *ExtractURLsTool) Execute(_ context.Context, args map[string]any) ToolResult {
	started := time.Now()
	text, _ := args["text"].(string)
	normalize := boolArgOr(args, "normalize", true)
	dedupe := boolArgOr(args, "remove_duplicates", true)

	found := urlPattern.FindAllString(text, -1)
	var out []string
	seen := make(map[string]bool)
	for _, raw := range found {
		u := raw
		if normalize {
			if parsed, err := url.Parse(raw); err == nil {
				parsed.Scheme = toLowerASCII(parsed.Scheme)
				parsed.Host = toLowerASCII(parsed.Host)
				u = parsed.String()
			}
		}
		if dedupe && seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return Ok(t.Name(), out, "", time.Since(started))
}

type ScrapeWebContentTool struct{ fetcher WebFetcher }

func NewScrapeWebContentTool(f WebFetcher) *ScrapeWebContentTool { return &ScrapeWebContentTool{fetcher: f} }

func (t *ScrapeWebContentTool) Name() string        { return "scrape_web_content" }
func (t *ScrapeWebContentTool) AgentCodes() []string { return []string{"GEN", "SCHED"} }

func (t *ScrapeWebContentTool) Definition() mcp.Tool {
	return mcp.NewTool("scrape_web_content",
		mcp.WithDescription("Fetch a URL and extract title, description, and optionally image/text."),
		mcp.WithString("url", mcp.Required()),
		mcp.WithBoolean("extract_image", mcp.Description("Include the page's primary image. Defaults to false.")),
		mcp.WithBoolean("extract_text", mcp.Description("Include extracted body text. Defaults to false.")),
	)
}

func (t *ScrapeWebContentTool) Execute(ctx context.Context, args map[string]any) ToolResult {
	started := time.Now()
	target, _ := args["url"].(string)
	page, err := t.fetcher.Fetch(ctx, target, boolArgOr(args, "extract_image", false), boolArgOr(args, "extract_text", false))
	if err != nil {
		return Err(t.Name(), err, time.Since(started))
	}
	return Ok(t.Name(), page, "", time.Since(started))
}

type ScrapeNewsForEventsTool struct{ fetcher WebFetcher }

func NewScrapeNewsForEventsTool(f WebFetcher) *ScrapeNewsForEventsTool {
	return &ScrapeNewsForEventsTool{fetcher: f}
}

func (t *ScrapeNewsForEventsTool) Name() string        { return "scrape_news_for_events" }
func (t *ScrapeNewsForEventsTool) AgentCodes() []string { return []string{"SCHED", "GEN"} }

func (t *ScrapeNewsForEventsTool) Definition() mcp.Tool {
	return mcp.NewTool("scrape_news_for_events",
		mcp.WithDescription("Scan the given sites for articles matching keywords and return candidate events."),
		mcp.WithArray("sites", mcp.Required(), mcp.Description("Site URLs to scan.")),
		mcp.WithArray("keywords", mcp.Required(), mcp.Description("Keywords an article must match.")),
	)
}

func (t *ScrapeNewsForEventsTool) Execute(ctx context.Context, args map[string]any) ToolResult {
	started := time.Now()
	sites := stringSliceArg(args, "sites")
	keywords := stringSliceArg(args, "keywords")

	events, err := t.fetcher.ScanForEvents(ctx, sites, keywords)
	if err != nil {
		return Err(t.Name(), err, time.Since(started))
	}
	return Ok(t.Name(), events, "", time.Since(started))
}

// MockWebFetcher returns deterministic fixtures for mock_mode and tests.
type MockWebFetcher struct{}

func (MockWebFetcher) Fetch(_ context.Context, targetURL string, extractImage, extractText bool) (ScrapedPage, error) {
	page := ScrapedPage{Title: "Mock page for " + targetURL, Description: "A mock description."}
	if extractImage {
		page.Image = targetURL + "/og-image.png"
	}
	if extractText {
		page.Text = "Mock extracted body text."
	}
	return page, nil
}

func (MockWebFetcher) ScanForEvents(_ context.Context, sites, keywords []string) ([]CandidateEvent, error) {
	if len(sites) == 0 {
		return nil, nil
	}
	return []CandidateEvent{{Title: "Mock conference", URL: sites[0] + "/events/1", Site: sites[0]}}, nil
}

func boolArgOr(args map[string]any, key string, fallback bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return fallback
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
