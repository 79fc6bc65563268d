package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"blogforge/app/internal/trends"
	"blogforge/app/internal/writer"
)

type stubWriterService struct {
	markdown     string
	urlResult    *writer.URLResult
	err          error
	chunks       []string
	streamErr    error
	lastKeyword  writer.Request
	lastURL      writer.URLRequest
	keywordCalls int
	urlCalls     int
}

func (s *stubWriterService) GenerateFromKeyword(_ context.Context, req writer.Request) (string, error) {
	s.keywordCalls++
	s.lastKeyword = req
	if s.err != nil {
		return "", s.err
	}
	return s.markdown, nil
}

func (s *stubWriterService) GenerateFromKeywordStream(_ context.Context, req writer.Request, emit func(string) error) error {
	s.keywordCalls++
	s.lastKeyword = req
	if s.streamErr != nil {
		return s.streamErr
	}
	for _, chunk := range s.chunks {
		if err := emit(chunk); err != nil {
			return err
		}
	}
	return nil
}

func (s *stubWriterService) GenerateFromURL(_ context.Context, req writer.URLRequest) (*writer.URLResult, error) {
	s.urlCalls++
	s.lastURL = req
	if s.err != nil {
		return nil, s.err
	}
	return s.urlResult, nil
}

func (s *stubWriterService) GenerateFromURLStream(_ context.Context, req writer.URLRequest, emit func(string) error) error {
	s.urlCalls++
	s.lastURL = req
	if s.streamErr != nil {
		return s.streamErr
	}
	for _, chunk := range s.chunks {
		if err := emit(chunk); err != nil {
			return err
		}
	}
	return nil
}

type staticRSSSource struct {
	keywords []string
}

func (s *staticRSSSource) Fetch(context.Context, string) ([]string, error) {
	return s.keywords, nil
}

func newTestServer(t *testing.T, svc writer.Service, limits RateLimitSettings) *Server {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	provider := trends.NewProvider(trends.ProviderOptions{
		Cache:  trends.NewCache(0),
		Logger: logger,
		RSS:    &staticRSSSource{keywords: []string{"트렌드 키워드"}},
	})

	srv, err := NewServer(Options{
		Writer:    svc,
		Trends:    provider,
		Logger:    logger,
		RateLimit: limits,
	})
	if err != nil {
		t.Fatalf("NewServer returned error: %v", err)
	}
	return srv
}

func TestRegionsRoute(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubWriterService{}, RateLimitSettings{})
	req := httptest.NewRequest("GET", "/api/regions", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Regions []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"regions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(payload.Regions) != 1 || payload.Regions[0].ID != "south_korea" || payload.Regions[0].Name != "한국" {
		t.Fatalf("unexpected regions payload: %+v", payload.Regions)
	}
}

func TestTrendsRoute(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubWriterService{}, RateLimitSettings{})
	req := httptest.NewRequest("GET", "/api/trends?limit=3", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Keywords  []string `json:"keywords"`
		Region    string   `json:"region"`
		Source    string   `json:"source"`
		Google    []string `json:"google"`
		Recommend []string `json:"recommend"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if payload.Region != "south_korea" {
		t.Errorf("expected default region echoed, got %q", payload.Region)
	}
	if len(payload.Keywords) != 3 || payload.Keywords[0] != "트렌드 키워드" {
		t.Errorf("unexpected keywords: %v", payload.Keywords)
	}
	if payload.Source != "mixed" {
		t.Errorf("unexpected source: %q", payload.Source)
	}
}

func TestTrendsRouteRejectsOutOfRangeLimit(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubWriterService{}, RateLimitSettings{})
	req := httptest.NewRequest("GET", "/api/trends?limit=500", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 422 {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
}

func TestGenerateRoute(t *testing.T) {
	t.Parallel()

	svc := &stubWriterService{markdown: "# 생성된 글"}
	srv := newTestServer(t, svc, RateLimitSettings{})

	body := `{"keyword":"비트코인 전망","style":"리뷰","length":"long","use_web_search":false}`
	req := httptest.NewRequest("POST", "/api/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Markdown string `json:"markdown"`
		Keyword  string `json:"keyword"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if payload.Markdown != "# 생성된 글" || payload.Keyword != "비트코인 전망" {
		t.Errorf("unexpected payload: %+v", payload)
	}

	if svc.lastKeyword.Style != "리뷰" || svc.lastKeyword.Length != "long" {
		t.Errorf("expected options forwarded, got %+v", svc.lastKeyword)
	}
	if svc.lastKeyword.UseWebSearch {
		t.Errorf("expected web search disabled")
	}
	if svc.lastKeyword.Lang != "ko" {
		t.Errorf("expected default lang ko, got %q", svc.lastKeyword.Lang)
	}
}

func TestGenerateRouteValidatesKeyword(t *testing.T) {
	t.Parallel()

	svc := &stubWriterService{}
	srv := newTestServer(t, svc, RateLimitSettings{})

	req := httptest.NewRequest("POST", "/api/generate", strings.NewReader(`{"keyword":"a"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 422 {
		t.Fatalf("expected status 422 for short keyword, got %d", rec.Code)
	}
	if svc.keywordCalls != 0 {
		t.Errorf("expected no service call for invalid input")
	}
}

func TestGenerateRouteForwardsGuideAndReferenceURL(t *testing.T) {
	t.Parallel()

	svc := &stubWriterService{markdown: "글"}
	srv := newTestServer(t, svc, RateLimitSettings{})

	body := `{"keyword":"키워드","guide":"초보자 눈높이로 설명해 주세요","reference_url":"https://example.com/ref"}`
	req := httptest.NewRequest("POST", "/api/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastKeyword.Guide != "초보자 눈높이로 설명해 주세요" {
		t.Errorf("expected guide forwarded, got %q", svc.lastKeyword.Guide)
	}
	if svc.lastKeyword.ReferenceURL != "https://example.com/ref" {
		t.Errorf("expected reference url forwarded, got %q", svc.lastKeyword.ReferenceURL)
	}
}

func TestGenerateRouteValidatesReferenceURLScheme(t *testing.T) {
	t.Parallel()

	svc := &stubWriterService{}
	srv := newTestServer(t, svc, RateLimitSettings{})

	body := `{"keyword":"키워드","reference_url":"ftp://example.com/ref"}`
	req := httptest.NewRequest("POST", "/api/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 422 {
		t.Fatalf("expected status 422 for non-http reference url, got %d", rec.Code)
	}
	if svc.keywordCalls != 0 {
		t.Errorf("expected no service call for invalid reference url")
	}
}

func TestGenerateFromURLRouteForwardsGuide(t *testing.T) {
	t.Parallel()

	svc := &stubWriterService{urlResult: &writer.URLResult{Markdown: "글", URL: "https://example.com"}}
	srv := newTestServer(t, svc, RateLimitSettings{})

	body := `{"url":"https://example.com","guide":"장단점 비교를 넣어 주세요"}`
	req := httptest.NewRequest("POST", "/api/generate-from-url", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastURL.Guide != "장단점 비교를 넣어 주세요" {
		t.Errorf("expected guide forwarded, got %q", svc.lastURL.Guide)
	}
}

func TestGenerateRouteValidatesAPIKeyFormat(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubWriterService{}, RateLimitSettings{})

	body := `{"keyword":"키워드","anthropic_api_key":"wrong-prefix-key-0123456789"}`
	req := httptest.NewRequest("POST", "/api/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 422 {
		t.Fatalf("expected status 422 for malformed key, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "올바른 API 키 형식이 아닙니다.") {
		t.Errorf("expected key format detail, got %s", rec.Body.String())
	}
}

func TestGenerateRouteMapsBadInputTo400(t *testing.T) {
	t.Parallel()

	svc := &stubWriterService{err: &writer.BadInputError{Detail: "ANTHROPIC_API_KEY 환경변수 또는 요청 body의 anthropic_api_key를 설정해 주세요."}}
	srv := newTestServer(t, svc, RateLimitSettings{})

	req := httptest.NewRequest("POST", "/api/generate", strings.NewReader(`{"keyword":"키워드"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 400 {
		t.Fatalf("expected status 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "anthropic_api_key") {
		t.Errorf("expected missing-key detail, got %s", rec.Body.String())
	}
}

func TestGenerateRouteMapsUpstreamFailureTo502(t *testing.T) {
	t.Parallel()

	svc := &stubWriterService{err: &writer.UpstreamError{Detail: "Claude API 요청 한도를 초과했습니다. 잠시 후 다시 시도해 주세요."}}
	srv := newTestServer(t, svc, RateLimitSettings{})

	req := httptest.NewRequest("POST", "/api/generate", strings.NewReader(`{"keyword":"키워드"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 502 {
		t.Fatalf("expected status 502, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "요청 한도를 초과했습니다") {
		t.Errorf("expected classified detail, got %s", rec.Body.String())
	}
}

func TestGenerateStreamRoute(t *testing.T) {
	t.Parallel()

	svc := &stubWriterService{chunks: []string{"# 제목\n", "본문 내용"}}
	srv := newTestServer(t, svc, RateLimitSettings{})

	req := httptest.NewRequest("POST", "/api/generate/stream", strings.NewReader(`{"keyword":"키워드"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != streamContentType {
		t.Errorf("expected content type %q, got %q", streamContentType, ct)
	}
	if rec.Body.String() != "# 제목\n본문 내용" {
		t.Errorf("unexpected streamed body: %q", rec.Body.String())
	}
}

func TestGenerateStreamRouteReportsSetupFailure(t *testing.T) {
	t.Parallel()

	svc := &stubWriterService{streamErr: &writer.BadInputError{Detail: "keyword를 입력해 주세요."}}
	srv := newTestServer(t, svc, RateLimitSettings{})

	req := httptest.NewRequest("POST", "/api/generate/stream", strings.NewReader(`{"keyword":"키워드"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 400 {
		t.Fatalf("expected status 400 for pre-stream failure, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "keyword를 입력해 주세요.") {
		t.Errorf("expected detail in body, got %s", rec.Body.String())
	}
}

func TestGenerateFromURLRoute(t *testing.T) {
	t.Parallel()

	svc := &stubWriterService{urlResult: &writer.URLResult{
		Markdown:      "# 새 글",
		URL:           "https://example.com/article",
		AnalyzedTitle: "원본 제목",
		Keywords:      []string{"키워드1"},
	}}
	srv := newTestServer(t, svc, RateLimitSettings{})

	body := `{"url":"https://example.com/article"}`
	req := httptest.NewRequest("POST", "/api/generate-from-url", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Markdown      string   `json:"markdown"`
		URL           string   `json:"url"`
		AnalyzedTitle string   `json:"analyzed_title"`
		Keywords      []string `json:"keywords"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if payload.AnalyzedTitle != "원본 제목" || len(payload.Keywords) != 1 {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestGenerateFromURLRouteValidatesScheme(t *testing.T) {
	t.Parallel()

	svc := &stubWriterService{}
	srv := newTestServer(t, svc, RateLimitSettings{})

	req := httptest.NewRequest("POST", "/api/generate-from-url", strings.NewReader(`{"url":"ftp://example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 422 {
		t.Fatalf("expected status 422 for non-http url, got %d", rec.Code)
	}
	if svc.urlCalls != 0 {
		t.Errorf("expected no service call for invalid url")
	}
}

func TestGenerateRouteRateLimited(t *testing.T) {
	t.Parallel()

	svc := &stubWriterService{markdown: "글"}
	srv := newTestServer(t, svc, RateLimitSettings{GeneratePerMinute: 1})

	body := `{"keyword":"키워드"}`

	first := httptest.NewRequest("POST", "/api/generate", strings.NewReader(body))
	first.Header.Set("Content-Type", "application/json")
	firstRec := httptest.NewRecorder()
	srv.ServeHTTP(firstRec, first)
	if firstRec.Code != 200 {
		t.Fatalf("expected first request to pass, got %d", firstRec.Code)
	}

	second := httptest.NewRequest("POST", "/api/generate", strings.NewReader(body))
	second.Header.Set("Content-Type", "application/json")
	secondRec := httptest.NewRecorder()
	srv.ServeHTTP(secondRec, second)

	if secondRec.Code != 429 {
		t.Fatalf("expected status 429, got %d", secondRec.Code)
	}
	if secondRec.Header().Get("Retry-After") == "" {
		t.Errorf("expected Retry-After header")
	}
	if !strings.Contains(secondRec.Body.String(), "요청이 너무 많습니다") {
		t.Errorf("expected korean limit message, got %s", secondRec.Body.String())
	}
	if svc.keywordCalls != 1 {
		t.Errorf("expected service untouched by limited request, got %d calls", svc.keywordCalls)
	}
}

func TestRateLimitKeyedByForwardedFor(t *testing.T) {
	t.Parallel()

	svc := &stubWriterService{markdown: "글"}
	srv := newTestServer(t, svc, RateLimitSettings{GeneratePerMinute: 1})

	body := `{"keyword":"키워드"}`

	for i, ip := range []string{"203.0.113.5", "203.0.113.9"} {
		req := httptest.NewRequest("POST", "/api/generate", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		if rec.Code != 200 {
			t.Fatalf("expected request %d from distinct client to pass, got %d", i+1, rec.Code)
		}
	}
}

func TestTrendsAndGenerateUseSeparateQuotas(t *testing.T) {
	t.Parallel()

	svc := &stubWriterService{markdown: "글"}
	srv := newTestServer(t, svc, RateLimitSettings{GeneratePerMinute: 1, TrendsPerMinute: 5})

	genReq := httptest.NewRequest("POST", "/api/generate", strings.NewReader(`{"keyword":"키워드"}`))
	genReq.Header.Set("Content-Type", "application/json")
	srv.ServeHTTP(httptest.NewRecorder(), genReq)

	trendsReq := httptest.NewRequest("GET", "/api/trends", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, trendsReq)

	if rec.Code != 200 {
		t.Fatalf("expected trends unaffected by generate quota, got %d", rec.Code)
	}
}

func TestHealthRoute(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubWriterService{}, RateLimitSettings{})
	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected health body: %s", rec.Body.String())
	}
}

func TestStaticIndexServed(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubWriterService{}, RateLimitSettings{})
	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "티스토리 글 자동 생성") {
		t.Errorf("expected frontend markup in body")
	}
}
