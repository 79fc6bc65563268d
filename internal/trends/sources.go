package trends

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/mmcdole/gofeed"
	"github.com/rotisserie/eris"
)

const (
	csvExportBaseURL = "https://trends.google.com/trending/rss/export"
	rssBaseURL       = "https://trends.google.com/trending/rss"

	minKeywordRunes = 2
	maxKeywordRunes = 50
)

// CSVSource collects trending keywords from the Google Trends CSV export.
type CSVSource interface {
	Fetch(ctx context.Context, geo string, limit int) ([]string, error)
}

// RSSSource collects trending keywords from the Google Trends RSS feed.
type RSSSource interface {
	Fetch(ctx context.Context, geo string) ([]string, error)
}

type csvExportSource struct {
	client  *http.Client
	baseURL string
}

func newCSVExportSource(client *http.Client) *csvExportSource {
	return &csvExportSource{client: client, baseURL: csvExportBaseURL}
}

// Fetch downloads the CSV trend export for a geo and extracts keywords from
// the main trend column plus its breakdown terms, deduplicated in order.
func (s *csvExportSource) Fetch(ctx context.Context, geo string, limit int) ([]string, error) {
	endpoint := fmt.Sprintf("%s?geo=%s&hours=24", s.baseURL, url.QueryEscape(geo))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrap(err, "failed to build trends csv request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "trends csv request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("trends csv export returned status %d", resp.StatusCode)
	}

	return parseTrendCSV(resp.Body, limit)
}

// parseTrendCSV reads the export, locating the trend and breakdown columns by
// header name. Column naming has shifted over time, so a couple of fallbacks
// are tried.
func parseTrendCSV(r io.Reader, limit int) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "failed to read trends csv header")
	}

	trendCol := findColumn(header, "Trends", "trends", "title")
	if trendCol < 0 {
		return nil, eris.New("trends csv is missing the trend column")
	}
	breakdownCol := findColumn(header, "Trend breakdown", "trend breakdown")

	var keywords []string
	seen := make(map[string]struct{})
	add := func(raw string) {
		kw := strings.TrimSpace(raw)
		n := utf8.RuneCountInString(kw)
		if n < minKeywordRunes || n > maxKeywordRunes {
			return
		}
		if _, dup := seen[kw]; dup {
			return
		}
		seen[kw] = struct{}{}
		keywords = append(keywords, kw)
	}

	for len(keywords) < limit {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "failed to read trends csv record")
		}
		if trendCol < len(record) {
			add(record[trendCol])
		}
		if breakdownCol >= 0 && breakdownCol < len(record) {
			for _, token := range strings.Split(record[breakdownCol], ",") {
				if len(keywords) >= limit {
					break
				}
				add(token)
			}
		}
	}

	return keywords, nil
}

func findColumn(header []string, names ...string) int {
	for _, name := range names {
		for i, col := range header {
			if strings.EqualFold(strings.TrimSpace(col), name) {
				return i
			}
		}
	}
	return -1
}

type rssFeedSource struct {
	parser  *gofeed.Parser
	baseURL string
}

func newRSSFeedSource(client *http.Client) *rssFeedSource {
	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = "Mozilla/5.0"
	return &rssFeedSource{parser: parser, baseURL: rssBaseURL}
}

// Fetch reads the daily-trends RSS feed and returns item titles in feed order.
func (s *rssFeedSource) Fetch(ctx context.Context, geo string) ([]string, error) {
	feedURL := fmt.Sprintf("%s?geo=%s", s.baseURL, url.QueryEscape(geo))
	feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, eris.Wrap(err, "failed to fetch trends rss feed")
	}

	keywords := make([]string, 0, len(feed.Items))
	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		if title != "" {
			keywords = append(keywords, title)
		}
	}
	return keywords, nil
}
