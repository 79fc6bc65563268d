package webfetch

import (
	"context"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// ErrUnavailable marks URLs that passed the safety check but could not be retrieved.
var ErrUnavailable = eris.New("url could not be retrieved")

const (
	fetchTimeout = 15 * time.Second
	maxBodyChars = 8000
	maxKeywords  = 10

	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	acceptHeader   = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptLanguage = "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7"
)

// Elements removed before body text extraction.
const strippedSelector = "script,style,nav,footer,header,aside,noscript,iframe,form"

// Page holds the content extracted from a single fetched URL.
// It is built once per fetch and never mutated afterwards.
type Page struct {
	URL         string
	Title       string
	Description string
	Text        string
	Keywords    []string
}

// FetcherOptions configures the content fetcher.
type FetcherOptions struct {
	HTTPClient *http.Client
	Logger     *logrus.Logger
	LookupIP   func(host string) ([]net.IP, error)
}

// Fetcher retrieves a URL's HTML and extracts title, description, keywords and body text.
type Fetcher struct {
	client   *http.Client
	logger   *logrus.Logger
	lookupIP func(host string) ([]net.IP, error)
}

// NewFetcher constructs a Fetcher with a bounded request timeout.
func NewFetcher(opts FetcherOptions) *Fetcher {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}

	lookup := opts.LookupIP
	if lookup == nil {
		lookup = net.LookupIP
	}

	return &Fetcher{
		client:   client,
		logger:   opts.Logger,
		lookupIP: lookup,
	}
}

// Fetch retrieves the URL and extracts its content. The safety check runs
// before any network traffic; any failure is attributable to the caller's URL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	if err := f.checkURL(rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(ErrUnavailable, err.Error())
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := f.client.Do(req)
	if err != nil {
		f.warn(rawURL, err, "fetching url")
		return nil, eris.Wrap(ErrUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.warn(rawURL, nil, "fetch returned non-success status "+resp.Status)
		return nil, eris.Wrapf(ErrUnavailable, "unexpected status: %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		f.warn(rawURL, err, "parsing html")
		return nil, eris.Wrap(ErrUnavailable, err.Error())
	}

	return extractPage(rawURL, doc), nil
}

func extractPage(rawURL string, doc *goquery.Document) *Page {
	page := &Page{URL: rawURL}

	page.Title = strings.TrimSpace(doc.Find("title").First().Text())
	if page.Title == "" {
		page.Title = metaContent(doc, "meta[property='og:title']")
	}

	page.Description = metaContent(doc, "meta[name='description']")
	if page.Description == "" {
		page.Description = metaContent(doc, "meta[property='og:description']")
	}

	if raw := metaContent(doc, "meta[name='keywords']"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if kw := strings.TrimSpace(part); kw != "" {
				page.Keywords = append(page.Keywords, kw)
				if len(page.Keywords) >= maxKeywords {
					break
				}
			}
		}
	}

	doc.Find(strippedSelector).Remove()

	root := doc.Find("article").First()
	if root.Length() == 0 {
		root = doc.Find("main").First()
	}
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}

	if root.Length() > 0 {
		page.Text = normalizeText(nodeText(root))
	}

	return page
}

func metaContent(doc *goquery.Document, selector string) string {
	value, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(value)
}

// nodeText collects text nodes under the selection, newline-separated,
// so that block boundaries survive extraction.
func nodeText(sel *goquery.Selection) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				sb.WriteString(text)
				sb.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, node := range sel.Nodes {
		walk(node)
	}
	return sb.String()
}

var (
	newlineRuns    = regexp.MustCompile(`\n{3,}`)
	horizontalRuns = regexp.MustCompile(`[ \t]+`)
)

func normalizeText(text string) string {
	text = newlineRuns.ReplaceAllString(text, "\n\n")
	text = horizontalRuns.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	if runes := []rune(text); len(runes) > maxBodyChars {
		text = string(runes[:maxBodyChars]) + "..."
	}
	return text
}

func (f *Fetcher) warn(url string, err error, message string) {
	if f.logger == nil {
		return
	}
	entry := f.logger.WithField("url", url)
	if err != nil {
		entry = entry.WithField("error", err.Error())
	}
	entry.Warn(message)
}
