package search

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

const ddgBaseURL = "https://html.duckduckgo.com/html/"

var httpURLPattern = regexp.MustCompile(`^https?://`)

// Result is a single general web search hit.
type Result struct {
	Title   string
	Snippet string
	URL     string
}

// ddgSearcher queries the DuckDuckGo HTML endpoint and scrapes the result list.
// No API key is required.
type ddgSearcher struct {
	client  *http.Client
	baseURL string
}

func newDDGSearcher(client *http.Client) *ddgSearcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &ddgSearcher{client: client, baseURL: ddgBaseURL}
}

func (d *ddgSearcher) Search(ctx context.Context, query, region, timelimit string, max int) ([]Result, error) {
	params := url.Values{}
	params.Set("q", query)
	if region != "" {
		params.Set("kl", region)
	}
	if timelimit != "" {
		params.Set("df", timelimit)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "building search request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "performing search request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("search returned status %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "parsing search results")
	}

	var results []Result
	doc.Find(".result__body").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if len(results) >= max {
			return false
		}

		titleSel := s.Find(".result__title a")
		if titleSel.Length() == 0 {
			return true
		}

		href, ok := titleSel.Attr("href")
		if !ok {
			return true
		}

		results = append(results, Result{
			Title:   strings.TrimSpace(titleSel.Text()),
			Snippet: strings.TrimSpace(s.Find(".result__snippet").Text()),
			URL:     resolveDDGLink(href),
		})
		return true
	})

	return results, nil
}

// resolveDDGLink unwraps DuckDuckGo's redirect links, which carry the real
// target in the uddg query parameter.
func resolveDDGLink(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		href = target
	}
	if !httpURLPattern.MatchString(href) {
		return ""
	}
	return href
}
