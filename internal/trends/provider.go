package trends

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const sourceTimeout = 10 * time.Second

// Result carries one trend lookup: the combined keyword list, a label for how
// it was produced, and the raw contributions from Google Trends and the
// recommendation pool.
type Result struct {
	Keywords  []string
	Source    string
	Google    []string
	Recommend []string
}

// Provider resolves trending keywords through a tiered chain: the CSV export
// (when enabled, default region only), then the RSS feed, padded from the
// recommendation pool when the feed comes up short.
type Provider struct {
	cache  *Cache
	csv    CSVSource
	rss    RSSSource
	useCSV bool
	logger *logrus.Logger
}

// ProviderOptions configures a trends Provider. Zero-value fields fall back
// to production defaults.
type ProviderOptions struct {
	HTTPClient *http.Client
	Cache      *Cache
	Logger     *logrus.Logger
	UseCSV     bool

	// CSV and RSS override the upstream sources, for tests.
	CSV CSVSource
	RSS RSSSource
}

func NewProvider(opts ProviderOptions) *Provider {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: sourceTimeout}
	}
	cache := opts.Cache
	if cache == nil {
		cache = NewCache(defaultCacheTTL)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}
	csvSource := opts.CSV
	if csvSource == nil {
		csvSource = newCSVExportSource(client)
	}
	rssSource := opts.RSS
	if rssSource == nil {
		rssSource = newRSSFeedSource(client)
	}
	return &Provider{
		cache:  cache,
		csv:    csvSource,
		rss:    rssSource,
		useCSV: opts.UseCSV,
		logger: logger,
	}
}

// TrendingKeywords returns up to limit keywords for a region. It never fails:
// every tier degrades to the next one, and the fixed recommendation pool
// guarantees a non-empty answer. Unknown regions resolve to the default
// region's feed.
func (p *Provider) TrendingKeywords(ctx context.Context, regionID string, limit int) Result {
	if cached, source, google, recommend, ok := p.cache.Get(regionID, limit); ok {
		return Result{
			Keywords:  cached,
			Source:    source + "(cached)",
			Google:    google,
			Recommend: recommend,
		}
	}

	region := regionOrDefault(regionID)

	if p.useCSV && region.ID == defaultRegionID {
		keywords, err := p.csv.Fetch(ctx, region.Geo, limit)
		if err != nil {
			p.logger.WithError(err).WithField("geo", region.Geo).Warn("trends csv export failed, falling back to rss")
		} else if len(keywords) > 0 {
			p.cache.Set(regionID, limit, keywords, "csv", keywords, nil)
			return Result{Keywords: keywords, Source: "csv", Google: keywords}
		}
	}

	google, err := p.rss.Fetch(ctx, region.Geo)
	if err != nil {
		p.logger.WithError(err).WithField("geo", region.Geo).Warn("trends rss feed failed, padding from recommendation pool")
		google = nil
	}

	seen := make(map[string]struct{}, len(google))
	for _, kw := range google {
		seen[kw] = struct{}{}
	}

	var recommend []string
	for _, kw := range fallbackKeywords {
		if len(google)+len(recommend) >= limit {
			break
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		recommend = append(recommend, kw)
	}

	combined := make([]string, 0, len(google)+len(recommend))
	combined = append(combined, google...)
	combined = append(combined, recommend...)
	if len(combined) > limit {
		combined = combined[:limit]
	}

	source := "mixed"
	if len(google) > 0 && len(recommend) == 0 {
		source = "rss"
	}

	if len(combined) > 0 {
		p.cache.Set(regionID, limit, combined, source, google, recommend)
	}

	return Result{Keywords: combined, Source: source, Google: google, Recommend: recommend}
}
