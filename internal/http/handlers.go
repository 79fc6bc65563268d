package http

import (
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rotisserie/eris"

	"blogforge/app/internal/trends"
	"blogforge/app/internal/writer"
)

const streamContentType = "text/plain; charset=utf-8"

type regionView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type regionsResponse struct {
	Body struct {
		Regions []regionView `json:"regions"`
	}
}

type trendsInput struct {
	Region string `query:"region" default:"south_korea" doc:"지역 코드"`
	Limit  int    `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"키워드 개수"`
}

type trendsResponse struct {
	Body struct {
		Keywords  []string `json:"keywords"`
		Region    string   `json:"region"`
		Source    string   `json:"source"`
		Google    []string `json:"google"`
		Recommend []string `json:"recommend"`
	}
}

type generateBody struct {
	Keyword         string `json:"keyword" minLength:"2" maxLength:"100" doc:"글 주제 키워드"`
	AnthropicAPIKey string `json:"anthropic_api_key,omitempty" doc:"요청별 Anthropic API 키 (없으면 서버 설정 사용)"`
	Lang            string `json:"lang,omitempty" enum:"ko,en" default:"ko"`
	Style           string `json:"style,omitempty" enum:"정보성,리뷰,How-to,뉴스해설" default:"정보성"`
	Length          string `json:"length,omitempty" enum:"short,medium,long" default:"medium"`
	UseEmoji        bool   `json:"use_emoji,omitempty"`
	UseWebSearch    bool   `json:"use_web_search,omitempty" default:"true"`
	Guide           string `json:"guide,omitempty" maxLength:"1000" doc:"글 작성 가이드 (선택)"`
	ReferenceURL    string `json:"reference_url,omitempty" maxLength:"2000" doc:"참고할 페이지 URL (선택)"`
}

// Resolve normalizes and validates the optional API key and reference URL
// beyond what schema tags can express.
func (b *generateBody) Resolve(huma.Context) []error {
	b.AnthropicAPIKey = strings.TrimSpace(b.AnthropicAPIKey)
	b.ReferenceURL = strings.TrimSpace(b.ReferenceURL)

	var errs []error
	if b.ReferenceURL != "" && !strings.HasPrefix(b.ReferenceURL, "http://") && !strings.HasPrefix(b.ReferenceURL, "https://") {
		errs = append(errs, &huma.ErrorDetail{
			Message:  "올바른 URL 형식이 아닙니다. (http:// 또는 https://로 시작해야 합니다)",
			Location: "body.reference_url",
			Value:    b.ReferenceURL,
		})
	}
	return append(errs, validateAPIKey(b.AnthropicAPIKey)...)
}

type generateInput struct {
	Body generateBody
}

type generateResponse struct {
	Body struct {
		Markdown string `json:"markdown"`
		Keyword  string `json:"keyword"`
	}
}

type generateFromURLBody struct {
	URL             string `json:"url" minLength:"1" maxLength:"2000" doc:"분석할 페이지 URL"`
	AnthropicAPIKey string `json:"anthropic_api_key,omitempty" doc:"요청별 Anthropic API 키 (없으면 서버 설정 사용)"`
	Lang            string `json:"lang,omitempty" enum:"ko,en" default:"ko"`
	Style           string `json:"style,omitempty" enum:"정보성,리뷰,How-to,뉴스해설" default:"정보성"`
	Length          string `json:"length,omitempty" enum:"short,medium,long" default:"medium"`
	UseEmoji        bool   `json:"use_emoji,omitempty"`
	UseWebSearch    bool   `json:"use_web_search,omitempty" default:"true"`
	Guide           string `json:"guide,omitempty" maxLength:"1000" doc:"글 작성 가이드 (선택)"`
}

func (b *generateFromURLBody) Resolve(huma.Context) []error {
	b.URL = strings.TrimSpace(b.URL)
	b.AnthropicAPIKey = strings.TrimSpace(b.AnthropicAPIKey)

	var errs []error
	if !strings.HasPrefix(b.URL, "http://") && !strings.HasPrefix(b.URL, "https://") {
		errs = append(errs, &huma.ErrorDetail{
			Message:  "올바른 URL 형식이 아닙니다. (http:// 또는 https://로 시작해야 합니다)",
			Location: "body.url",
			Value:    b.URL,
		})
	}
	return append(errs, validateAPIKey(b.AnthropicAPIKey)...)
}

type generateFromURLInput struct {
	Body generateFromURLBody
}

type generateFromURLResponse struct {
	Body struct {
		Markdown      string   `json:"markdown"`
		URL           string   `json:"url"`
		AnalyzedTitle string   `json:"analyzed_title"`
		Keywords      []string `json:"keywords"`
	}
}

type healthResponse struct {
	Body struct {
		Status string `json:"status"`
	}
}

func validateAPIKey(key string) []error {
	if key == "" {
		return nil
	}
	if !strings.HasPrefix(key, "sk-") {
		return []error{&huma.ErrorDetail{
			Message:  "올바른 API 키 형식이 아닙니다.",
			Location: "body.anthropic_api_key",
		}}
	}
	if len(key) < 20 {
		return []error{&huma.ErrorDetail{
			Message:  "API 키가 너무 짧습니다.",
			Location: "body.anthropic_api_key",
		}}
	}
	return nil
}

func (s *Server) registerRegionsRoute() {
	huma.Get(s.api, "/api/regions", s.regionsHandler, func(op *huma.Operation) {
		op.Summary = "지원 지역 목록"
	})
}

func (s *Server) registerTrendsRoute() {
	huma.Get(s.api, "/api/trends", s.trendsHandler, func(op *huma.Operation) {
		op.Summary = "인기 검색어(트렌드) 키워드 목록"
	})
}

func (s *Server) registerGenerateRoutes() {
	huma.Post(s.api, "/api/generate", s.generateHandler, func(op *huma.Operation) {
		op.Summary = "키워드로 블로그 글(마크다운) 생성"
	})
	huma.Post(s.api, "/api/generate/stream", s.generateStreamHandler, func(op *huma.Operation) {
		op.Summary = "키워드로 블로그 글(마크다운) 스트리밍 생성"
	})
}

func (s *Server) registerGenerateFromURLRoutes() {
	huma.Post(s.api, "/api/generate-from-url", s.generateFromURLHandler, func(op *huma.Operation) {
		op.Summary = "URL 콘텐츠를 분석하여 블로그 글(마크다운) 생성"
	})
	huma.Post(s.api, "/api/generate-from-url/stream", s.generateFromURLStreamHandler, func(op *huma.Operation) {
		op.Summary = "URL 콘텐츠를 분석하여 블로그 글(마크다운) 스트리밍 생성"
	})
}

func (s *Server) registerHealthRoute() {
	huma.Get(s.api, "/healthz", s.healthHandler, func(op *huma.Operation) {
		op.Summary = "Health check"
	})
}

func (s *Server) regionsHandler(_ context.Context, _ *struct{}) (*regionsResponse, error) {
	resp := &regionsResponse{}
	resp.Body.Regions = make([]regionView, 0)
	for _, region := range trends.Regions() {
		resp.Body.Regions = append(resp.Body.Regions, regionView{ID: region.ID, Name: region.Name})
	}
	return resp, nil
}

func (s *Server) trendsHandler(ctx context.Context, input *trendsInput) (*trendsResponse, error) {
	result := s.trends.TrendingKeywords(ctx, input.Region, input.Limit)

	resp := &trendsResponse{}
	resp.Body.Keywords = emptyIfNil(result.Keywords)
	resp.Body.Region = input.Region
	resp.Body.Source = result.Source
	resp.Body.Google = emptyIfNil(result.Google)
	resp.Body.Recommend = emptyIfNil(result.Recommend)
	return resp, nil
}

func (s *Server) generateHandler(ctx context.Context, input *generateInput) (*generateResponse, error) {
	markdown, err := s.writer.GenerateFromKeyword(ctx, writerRequest(input.Body))
	if err != nil {
		return nil, s.writerError(ctx, err, "keyword generation request failed")
	}

	resp := &generateResponse{}
	resp.Body.Markdown = markdown
	resp.Body.Keyword = input.Body.Keyword
	return resp, nil
}

func (s *Server) generateStreamHandler(_ context.Context, input *generateInput) (*huma.StreamResponse, error) {
	return &huma.StreamResponse{
		Body: func(ctx huma.Context) {
			emit := s.streamEmitter(ctx)
			err := s.writer.GenerateFromKeywordStream(ctx.Context(), writerRequest(input.Body), emit)
			if err != nil {
				s.writeStreamSetupError(ctx, err)
			}
		},
	}, nil
}

func (s *Server) generateFromURLHandler(ctx context.Context, input *generateFromURLInput) (*generateFromURLResponse, error) {
	result, err := s.writer.GenerateFromURL(ctx, writerURLRequest(input.Body))
	if err != nil {
		return nil, s.writerError(ctx, err, "url generation request failed")
	}

	resp := &generateFromURLResponse{}
	resp.Body.Markdown = result.Markdown
	resp.Body.URL = result.URL
	resp.Body.AnalyzedTitle = result.AnalyzedTitle
	resp.Body.Keywords = emptyIfNil(result.Keywords)
	return resp, nil
}

func (s *Server) generateFromURLStreamHandler(_ context.Context, input *generateFromURLInput) (*huma.StreamResponse, error) {
	return &huma.StreamResponse{
		Body: func(ctx huma.Context) {
			emit := s.streamEmitter(ctx)
			err := s.writer.GenerateFromURLStream(ctx.Context(), writerURLRequest(input.Body), emit)
			if err != nil {
				s.writeStreamSetupError(ctx, err)
			}
		},
	}, nil
}

func (s *Server) healthHandler(context.Context, *struct{}) (*healthResponse, error) {
	resp := &healthResponse{}
	resp.Body.Status = "ok"
	return resp, nil
}

func writerRequest(body generateBody) writer.Request {
	return writer.Request{
		Keyword:      body.Keyword,
		APIKey:       body.AnthropicAPIKey,
		Lang:         body.Lang,
		Style:        body.Style,
		Length:       body.Length,
		UseEmoji:     body.UseEmoji,
		UseWebSearch: body.UseWebSearch,
		Guide:        body.Guide,
		ReferenceURL: body.ReferenceURL,
	}
}

func writerURLRequest(body generateFromURLBody) writer.URLRequest {
	return writer.URLRequest{
		URL:          body.URL,
		APIKey:       body.AnthropicAPIKey,
		Lang:         body.Lang,
		Style:        body.Style,
		Length:       body.Length,
		UseEmoji:     body.UseEmoji,
		UseWebSearch: body.UseWebSearch,
		Guide:        body.Guide,
	}
}

// writerError maps service failures onto HTTP statuses: caller mistakes get
// 400, dependency failures get 502 with the classified detail.
func (s *Server) writerError(ctx context.Context, err error, message string) error {
	var badInput *writer.BadInputError
	if eris.As(err, &badInput) {
		return huma.Error400BadRequest(badInput.Detail)
	}

	var upstream *writer.UpstreamError
	if eris.As(err, &upstream) {
		s.recordError(ctx, err, message, nil)
		return huma.Error502BadGateway(upstream.Detail)
	}

	s.recordError(ctx, err, message, nil)
	return huma.Error502BadGateway(err.Error())
}

// streamEmitter adapts the huma body writer into the writer service's chunk
// callback. Headers go out with the first chunk; each chunk is flushed so
// clients see progress immediately.
func (s *Server) streamEmitter(ctx huma.Context) func(string) error {
	bodyWriter := ctx.BodyWriter()
	flusher, _ := bodyWriter.(stdhttp.Flusher)
	started := false

	return func(chunk string) error {
		if !started {
			ctx.SetHeader("Content-Type", streamContentType)
			started = true
		}
		if _, err := io.WriteString(bodyWriter, chunk); err != nil {
			return eris.Wrap(err, "writing stream chunk")
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	}
}

// writeStreamSetupError reports a failure that happened before any chunk was
// written, where a real status code is still possible.
func (s *Server) writeStreamSetupError(ctx huma.Context, err error) {
	status := stdhttp.StatusBadGateway
	var badInput *writer.BadInputError
	if eris.As(err, &badInput) {
		status = stdhttp.StatusBadRequest
	} else {
		s.recordError(ctx.Context(), err, "stream setup failed", nil)
	}

	ctx.SetHeader("Content-Type", "application/json; charset=utf-8")
	ctx.SetStatus(status)
	payload, _ := json.Marshal(map[string]string{"detail": err.Error()})
	_, _ = ctx.BodyWriter().Write(payload)
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
