package search

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

type fakeWebSearcher struct {
	results []Result
	err     error
	calls   int
}

func (f *fakeWebSearcher) Search(_ context.Context, _, _, _ string, _ int) ([]Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeNewsSearcher struct {
	results []NewsResult
	err     error
	calls   int
}

func (f *fakeNewsSearcher) Search(_ context.Context, _, _, _ string, _ int) ([]NewsResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func newTestProvider(web WebSearcher, news NewsSearcher) *Provider {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return NewProvider(ProviderOptions{
		Cache:  NewCache(0, 0),
		Logger: logger,
		Web:    web,
		News:   news,
	})
}

func TestSearchWebBlankKeywordSkipsUpstream(t *testing.T) {
	t.Parallel()

	web := &fakeWebSearcher{results: []Result{{Title: "t"}}}
	news := &fakeNewsSearcher{}
	provider := newTestProvider(web, news)

	for _, keyword := range []string{"", "   ", "\t\n"} {
		if got := provider.SearchWeb(context.Background(), keyword, 5, 5, "kr-ko", "m"); got != "" {
			t.Errorf("expected empty evidence for blank keyword %q, got %q", keyword, got)
		}
	}

	if web.calls != 0 || news.calls != 0 {
		t.Fatalf("expected no upstream calls for blank keywords, got web=%d news=%d", web.calls, news.calls)
	}
}

func TestSearchWebFormatsBothSections(t *testing.T) {
	t.Parallel()

	web := &fakeWebSearcher{results: []Result{
		{Title: "첫 번째 결과", Snippet: "요약문", URL: "https://a.example.com"},
		{Title: "두 번째 결과"},
	}}
	news := &fakeNewsSearcher{results: []NewsResult{
		{Title: "뉴스 제목", Snippet: "뉴스 요약", URL: "https://news.example.com", Source: "연합뉴스", Date: "2025-06-01"},
	}}
	provider := newTestProvider(web, news)

	evidence := provider.SearchWeb(context.Background(), "키워드", 5, 5, "kr-ko", "m")

	if !strings.Contains(evidence, "--- 일반 웹 검색 ---") {
		t.Errorf("expected web section header, got %q", evidence)
	}
	if !strings.Contains(evidence, "[1] 첫 번째 결과\n  요약: 요약문\n  URL: https://a.example.com") {
		t.Errorf("expected formatted web entry, got %q", evidence)
	}
	if !strings.Contains(evidence, "[2] 두 번째 결과") {
		t.Errorf("expected numbered second entry, got %q", evidence)
	}
	if !strings.Contains(evidence, "--- 뉴스 기사 ---") {
		t.Errorf("expected news section header, got %q", evidence)
	}
	if !strings.Contains(evidence, "[뉴스 1] 뉴스 제목 (연합뉴스 2025-06-01)") {
		t.Errorf("expected news entry with source and date, got %q", evidence)
	}
	if !strings.Contains(evidence, "\n\n--- 뉴스 기사 ---") {
		t.Errorf("expected sections joined by a blank line, got %q", evidence)
	}
}

func TestSearchWebToleratesBranchFailures(t *testing.T) {
	t.Parallel()

	web := &fakeWebSearcher{err: eris.New("upstream down")}
	news := &fakeNewsSearcher{results: []NewsResult{{Title: "살아남은 뉴스"}}}
	provider := newTestProvider(web, news)

	evidence := provider.SearchWeb(context.Background(), "키워드", 5, 5, "kr-ko", "m")

	if strings.Contains(evidence, "일반 웹 검색") {
		t.Errorf("expected failed web branch to be omitted, got %q", evidence)
	}
	if !strings.Contains(evidence, "[뉴스 1] 살아남은 뉴스") {
		t.Errorf("expected surviving news branch, got %q", evidence)
	}

	bothDown := newTestProvider(
		&fakeWebSearcher{err: eris.New("down")},
		&fakeNewsSearcher{err: eris.New("down too")},
	)
	if got := bothDown.SearchWeb(context.Background(), "키워드", 5, 5, "kr-ko", "m"); got != "" {
		t.Errorf("expected empty evidence when both branches fail, got %q", got)
	}
}

func TestSearchWebCachesNonEmptyResults(t *testing.T) {
	t.Parallel()

	web := &fakeWebSearcher{results: []Result{{Title: "결과"}}}
	news := &fakeNewsSearcher{}
	provider := newTestProvider(web, news)

	first := provider.SearchWeb(context.Background(), "캐시 키워드", 5, 5, "kr-ko", "m")
	second := provider.SearchWeb(context.Background(), "캐시 키워드", 5, 5, "kr-ko", "m")

	if first == "" || first != second {
		t.Fatalf("expected identical cached evidence, got %q vs %q", first, second)
	}
	if web.calls != 1 {
		t.Fatalf("expected a single upstream call, got %d", web.calls)
	}
}

func TestSearchWebDoesNotCacheEmptyResults(t *testing.T) {
	t.Parallel()

	web := &fakeWebSearcher{}
	news := &fakeNewsSearcher{}
	provider := newTestProvider(web, news)

	provider.SearchWeb(context.Background(), "빈 키워드", 5, 5, "kr-ko", "m")
	provider.SearchWeb(context.Background(), "빈 키워드", 5, 5, "kr-ko", "m")

	if web.calls != 2 {
		t.Fatalf("expected empty results to bypass the cache, got %d calls", web.calls)
	}
}

func TestSearchWebZeroLimitsSkipBranches(t *testing.T) {
	t.Parallel()

	web := &fakeWebSearcher{results: []Result{{Title: "t"}}}
	news := &fakeNewsSearcher{results: []NewsResult{{Title: "n"}}}
	provider := newTestProvider(web, news)

	if got := provider.SearchWeb(context.Background(), "키워드", 0, 0, "kr-ko", "m"); got != "" {
		t.Errorf("expected empty evidence with zero limits, got %q", got)
	}
	if web.calls != 0 || news.calls != 0 {
		t.Errorf("expected no upstream calls with zero limits, got web=%d news=%d", web.calls, news.calls)
	}
}
