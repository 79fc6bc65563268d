package search

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"blogforge/app/internal/webfetch"
)

// WebSearcher produces general web search hits for a query.
type WebSearcher interface {
	Search(ctx context.Context, query, region, timelimit string, max int) ([]Result, error)
}

// NewsSearcher produces news article hits for a query.
type NewsSearcher interface {
	Search(ctx context.Context, query, region, timelimit string, max int) ([]NewsResult, error)
}

// ProviderOptions configures the search provider.
type ProviderOptions struct {
	HTTPClient *http.Client
	Fetcher    *webfetch.Fetcher
	Cache      *Cache
	Logger     *logrus.Logger
	Web        WebSearcher
	News       NewsSearcher
}

// Provider gathers web and news evidence for a keyword, with caching.
// Upstream failures never propagate: a failed branch just contributes no
// section, and an empty overall result is the empty string.
type Provider struct {
	fetcher *webfetch.Fetcher
	cache   *Cache
	logger  *logrus.Logger
	web     WebSearcher
	news    NewsSearcher
}

// NewProvider constructs a Provider, defaulting to the DuckDuckGo HTML
// endpoint for web results and the Google News RSS feed for news results.
func NewProvider(opts ProviderOptions) *Provider {
	web := opts.Web
	if web == nil {
		web = newDDGSearcher(opts.HTTPClient)
	}
	news := opts.News
	if news == nil {
		news = newGoogleNewsSearcher(opts.HTTPClient)
	}
	cache := opts.Cache
	if cache == nil {
		cache = NewCache(0, 0)
	}

	return &Provider{
		fetcher: opts.Fetcher,
		cache:   cache,
		logger:  opts.Logger,
		web:     web,
		news:    news,
	}
}

// SearchWeb performs a web search plus a news search for the keyword and
// returns both as formatted evidence text. A blank keyword short-circuits to
// an empty string without touching the network or the cache.
func (p *Provider) SearchWeb(ctx context.Context, keyword string, maxResults, maxNews int, region, timelimit string) string {
	query := strings.TrimSpace(keyword)
	if query == "" {
		return ""
	}

	if cached, ok := p.cache.Get(query, region, timelimit); ok {
		p.debug(query, "search cache hit")
		return cached
	}

	var sections []string

	if maxResults > 0 {
		results, err := p.web.Search(ctx, query, region, timelimit, maxResults)
		if err != nil {
			p.warn(query, err, "web search branch failed")
		} else if len(results) > 0 {
			sections = append(sections, formatWebSection(results))
		}
	}

	if maxNews > 0 {
		news, err := p.news.Search(ctx, query, region, timelimit, maxNews)
		if err != nil {
			p.warn(query, err, "news search branch failed")
		} else if len(news) > 0 {
			sections = append(sections, formatNewsSection(news))
		}
	}

	evidence := strings.Join(sections, "\n\n")
	if evidence != "" {
		p.cache.Set(query, region, timelimit, evidence)
	}
	return evidence
}

// SearchRelatedToURL fetches the URL's content, derives a short query from it
// and searches for related evidence. Fetch failures propagate; search
// failures degrade to empty evidence as usual.
func (p *Provider) SearchRelatedToURL(ctx context.Context, rawURL string, maxResults, maxNews int, region, timelimit string) (*webfetch.Page, string, error) {
	page, err := p.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, "", err
	}

	keywords := ExtractKeywords(page)
	if len(keywords) == 0 {
		keywords = []string{strings.TrimSpace(page.Title)}
	}

	if len(keywords) > 3 {
		keywords = keywords[:3]
	}
	query := strings.TrimSpace(strings.Join(keywords, " "))
	if query == "" {
		return page, "", nil
	}

	return page, p.SearchWeb(ctx, query, maxResults, maxNews, region, timelimit), nil
}

func formatWebSection(results []Result) string {
	entries := make([]string, 0, len(results))
	for i, r := range results {
		parts := []string{fmt.Sprintf("[%d] %s", i+1, r.Title)}
		if r.Snippet != "" {
			parts = append(parts, "  요약: "+r.Snippet)
		}
		if r.URL != "" {
			parts = append(parts, "  URL: "+r.URL)
		}
		entries = append(entries, strings.Join(parts, "\n"))
	}
	return "--- 일반 웹 검색 ---\n" + strings.Join(entries, "\n\n")
}

func formatNewsSection(results []NewsResult) string {
	entries := make([]string, 0, len(results))
	for i, r := range results {
		head := fmt.Sprintf("[뉴스 %d] %s", i+1, r.Title)
		extra := strings.TrimSpace(strings.Join(nonEmpty(r.Source, r.Date), " "))
		if extra != "" {
			head += " (" + extra + ")"
		}
		parts := []string{head}
		if r.Snippet != "" {
			parts = append(parts, "  요약: "+r.Snippet)
		}
		if r.URL != "" {
			parts = append(parts, "  URL: "+r.URL)
		}
		entries = append(entries, strings.Join(parts, "\n"))
	}
	return "--- 뉴스 기사 ---\n" + strings.Join(entries, "\n\n")
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func (p *Provider) warn(query string, err error, message string) {
	if p.logger == nil {
		return
	}
	p.logger.WithFields(logrus.Fields{"query": query, "error": err.Error()}).Warn(message)
}

func (p *Provider) debug(query, message string) {
	if p.logger == nil {
		return
	}
	p.logger.WithField("query", query).Debug(message)
}
