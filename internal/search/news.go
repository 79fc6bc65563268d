package search

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rotisserie/eris"
)

const googleNewsBaseURL = "https://news.google.com/rss/search"

// NewsResult is a single news article hit.
type NewsResult struct {
	Title   string
	Snippet string
	URL     string
	Source  string
	Date    string
}

// newsSearcher queries the Google News RSS search feed. Items carry the
// publisher appended to the headline, which is split back out into Source.
type googleNewsSearcher struct {
	parser  *gofeed.Parser
	baseURL string
}

func newGoogleNewsSearcher(client *http.Client) *googleNewsSearcher {
	parser := gofeed.NewParser()
	if client != nil {
		parser.Client = client
	} else {
		parser.Client = &http.Client{Timeout: 15 * time.Second}
	}
	return &googleNewsSearcher{parser: parser, baseURL: googleNewsBaseURL}
}

func (g *googleNewsSearcher) Search(ctx context.Context, query, region, timelimit string, max int) ([]NewsResult, error) {
	params := url.Values{}
	params.Set("q", withRecencyFilter(query, timelimit))

	if strings.HasPrefix(region, "kr-") {
		params.Set("hl", "ko")
		params.Set("gl", "KR")
		params.Set("ceid", "KR:ko")
	} else {
		params.Set("hl", "en-US")
		params.Set("gl", "US")
		params.Set("ceid", "US:en")
	}

	feed, err := g.parser.ParseURLWithContext(g.baseURL+"?"+params.Encode(), ctx)
	if err != nil {
		return nil, eris.Wrap(err, "fetching news feed")
	}

	var results []NewsResult
	for _, item := range feed.Items {
		if len(results) >= max {
			break
		}

		title, source := splitNewsTitle(item.Title)

		date := ""
		if item.PublishedParsed != nil {
			date = item.PublishedParsed.Format("2006-01-02")
		} else {
			date = strings.TrimSpace(item.Published)
		}

		results = append(results, NewsResult{
			Title:   title,
			Snippet: stripTags(item.Description),
			URL:     item.Link,
			Source:  source,
			Date:    date,
		})
	}

	return results, nil
}

// withRecencyFilter maps the web-search timelimit codes onto Google News
// when: operators.
func withRecencyFilter(query, timelimit string) string {
	switch timelimit {
	case "d":
		return query + " when:1d"
	case "w":
		return query + " when:7d"
	case "m":
		return query + " when:30d"
	}
	return query
}

// splitNewsTitle separates "Headline - Publisher" formatted feed titles.
func splitNewsTitle(raw string) (title, source string) {
	raw = strings.TrimSpace(raw)
	idx := strings.LastIndex(raw, " - ")
	if idx <= 0 {
		return raw, ""
	}
	return strings.TrimSpace(raw[:idx]), strings.TrimSpace(raw[idx+len(" - "):])
}

func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
