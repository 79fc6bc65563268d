package writer

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"blogforge/app/internal/llm"
	"blogforge/app/internal/prompt"
	"blogforge/app/internal/webfetch"
)

const (
	missingKeyMessage = "ANTHROPIC_API_KEY 환경변수 또는 요청 body의 anthropic_api_key를 설정해 주세요."

	searchResultCount = 5
	searchNewsCount   = 5
	searchTimelimit   = "m"
)

// BadInputError marks failures the caller can fix by changing the request.
type BadInputError struct {
	Detail string
}

func (e *BadInputError) Error() string {
	return e.Detail
}

// UpstreamError marks failures of a dependency the caller cannot influence.
type UpstreamError struct {
	Detail string
}

func (e *UpstreamError) Error() string {
	return e.Detail
}

// Generator is the slice of the LLM client the writer needs.
type Generator interface {
	Generate(ctx context.Context, req llm.Request) (string, error)
	GenerateStream(ctx context.Context, req llm.Request, emit func(string) error) error
}

// SearchProvider supplies evidence text for prompts.
type SearchProvider interface {
	SearchWeb(ctx context.Context, keyword string, maxResults, maxNews int, region, timelimit string) string
	SearchRelatedToURL(ctx context.Context, rawURL string, maxResults, maxNews int, region, timelimit string) (*webfetch.Page, string, error)
}

// PageFetcher retrieves reference-URL content for keyword prompts.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*webfetch.Page, error)
}

// Service orchestrates article generation: it resolves credentials, gathers
// search evidence, builds prompts, and classifies upstream failures.
type Service interface {
	GenerateFromKeyword(ctx context.Context, req Request) (string, error)
	GenerateFromKeywordStream(ctx context.Context, req Request, emit func(string) error) error
	GenerateFromURL(ctx context.Context, req URLRequest) (*URLResult, error)
	GenerateFromURLStream(ctx context.Context, req URLRequest, emit func(string) error) error
}

// Request parameterizes keyword-based generation. APIKey overrides the
// configured default when present. Guide carries free-form writing
// instructions; ReferenceURL names a page whose content should inform the
// article.
type Request struct {
	Keyword      string
	APIKey       string
	Lang         string
	Style        string
	Length       string
	UseEmoji     bool
	UseWebSearch bool
	Guide        string
	ReferenceURL string
}

// URLRequest parameterizes URL-based generation.
type URLRequest struct {
	URL          string
	APIKey       string
	Lang         string
	Style        string
	Length       string
	UseEmoji     bool
	UseWebSearch bool
	Guide        string
}

// URLResult is the outcome of URL-based generation, including what the
// analysis saw in the source page.
type URLResult struct {
	Markdown      string
	URL           string
	AnalyzedTitle string
	Keywords      []string
}

// ServiceOptions wires a writer service.
type ServiceOptions struct {
	Generator     Generator
	Search        SearchProvider
	Fetcher       PageFetcher
	DefaultAPIKey string
	Logger        *logrus.Logger
}

type service struct {
	generator     Generator
	search        SearchProvider
	fetcher       PageFetcher
	defaultAPIKey string
	logger        *logrus.Logger
}

func NewService(opts ServiceOptions) (Service, error) {
	if opts.Generator == nil {
		return nil, eris.New("writer generator is required")
	}
	if opts.Search == nil {
		return nil, eris.New("writer search provider is required")
	}
	if opts.Fetcher == nil {
		return nil, eris.New("writer page fetcher is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}
	return &service{
		generator:     opts.Generator,
		search:        opts.Search,
		fetcher:       opts.Fetcher,
		defaultAPIKey: strings.TrimSpace(opts.DefaultAPIKey),
		logger:        logger,
	}, nil
}

func (s *service) resolveAPIKey(requestKey string) (string, error) {
	if key := strings.TrimSpace(requestKey); key != "" {
		return key, nil
	}
	if s.defaultAPIKey != "" {
		return s.defaultAPIKey, nil
	}
	return "", &BadInputError{Detail: missingKeyMessage}
}

func searchRegion(lang string) string {
	if lang == "ko" {
		return "kr-ko"
	}
	return "wt-wt"
}

func (s *service) keywordEvidence(ctx context.Context, req Request) string {
	if !req.UseWebSearch {
		return ""
	}
	return s.search.SearchWeb(ctx, strings.TrimSpace(req.Keyword), searchResultCount, searchNewsCount, searchRegion(req.Lang), searchTimelimit)
}

// referenceContent fetches the reference URL's body text. Failures are not
// fatal to generation: the article is still produced, just without the
// reference block.
func (s *service) referenceContent(ctx context.Context, rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	page, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		s.logger.WithError(err).WithField("url", rawURL).Warn("reference url fetch failed")
		return ""
	}
	return page.Text
}

func (s *service) keywordRequest(apiKey string, req Request, webContext, reference string) llm.Request {
	return llm.Request{
		APIKey: apiKey,
		System: prompt.SystemPrompt,
		User: prompt.Build(prompt.Input{
			Keyword:    strings.TrimSpace(req.Keyword),
			Lang:       req.Lang,
			Style:      req.Style,
			Length:     req.Length,
			UseEmoji:   req.UseEmoji,
			WebContext: webContext,
			Guide:      req.Guide,
			Reference:  reference,
		}),
	}
}

// GenerateFromKeyword produces a full article in one call.
func (s *service) GenerateFromKeyword(ctx context.Context, req Request) (string, error) {
	apiKey, err := s.resolveAPIKey(req.APIKey)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(req.Keyword) == "" {
		return "", &BadInputError{Detail: "keyword를 입력해 주세요."}
	}

	webContext := s.keywordEvidence(ctx, req)
	reference := s.referenceContent(ctx, req.ReferenceURL)

	markdown, err := s.generator.Generate(ctx, s.keywordRequest(apiKey, req, webContext, reference))
	if err != nil {
		s.logger.WithError(err).WithField("keyword", req.Keyword).Error("keyword generation failed")
		return "", &UpstreamError{Detail: FailureMessage(err, ScopeKeyword)}
	}
	return markdown, nil
}

// GenerateFromKeywordStream streams an article chunk by chunk. Upstream
// failures after the stream opens are reported in-band through emit; the
// method itself only fails on pre-stream problems.
func (s *service) GenerateFromKeywordStream(ctx context.Context, req Request, emit func(string) error) error {
	apiKey, err := s.resolveAPIKey(req.APIKey)
	if err != nil {
		return err
	}
	if strings.TrimSpace(req.Keyword) == "" {
		return &BadInputError{Detail: "keyword를 입력해 주세요."}
	}

	webContext := s.keywordEvidence(ctx, req)
	reference := s.referenceContent(ctx, req.ReferenceURL)

	if err := s.generator.GenerateStream(ctx, s.keywordRequest(apiKey, req, webContext, reference), emit); err != nil {
		s.logger.WithError(err).WithField("keyword", req.Keyword).Error("keyword stream failed")
		_ = emit(StreamTrailer(err))
	}
	return nil
}

func (s *service) analyzeURL(ctx context.Context, req URLRequest) (*webfetch.Page, string, error) {
	maxResults, maxNews := 0, 0
	if req.UseWebSearch {
		maxResults, maxNews = searchResultCount, searchNewsCount
	}

	page, related, err := s.search.SearchRelatedToURL(ctx, req.URL, maxResults, maxNews, searchRegion(req.Lang), searchTimelimit)
	if err != nil {
		if eris.Is(err, webfetch.ErrUnsafeURL) {
			return nil, "", &BadInputError{Detail: err.Error()}
		}
		// An unreachable or non-success page is the caller's URL problem,
		// same as an unsafe one.
		if eris.Is(err, webfetch.ErrUnavailable) {
			s.logger.WithError(err).WithField("url", req.URL).Warn("url fetch failed")
			return nil, "", &BadInputError{Detail: err.Error()}
		}
		s.logger.WithError(err).WithField("url", req.URL).Warn("url analysis failed")
		return nil, "", &UpstreamError{Detail: "URL 분석 중 오류가 발생했습니다: " + err.Error()}
	}
	return page, related, nil
}

func (s *service) urlRequest(apiKey string, req URLRequest, page *webfetch.Page, related string) llm.Request {
	return llm.Request{
		APIKey: apiKey,
		System: prompt.SystemPrompt,
		User: prompt.BuildFromURL(prompt.URLInput{
			Page:          page,
			Lang:          req.Lang,
			Style:         req.Style,
			Length:        req.Length,
			UseEmoji:      req.UseEmoji,
			RelatedSearch: related,
			Guide:         req.Guide,
		}),
	}
}

// GenerateFromURL analyzes a page and produces a full article in one call.
func (s *service) GenerateFromURL(ctx context.Context, req URLRequest) (*URLResult, error) {
	apiKey, err := s.resolveAPIKey(req.APIKey)
	if err != nil {
		return nil, err
	}

	page, related, err := s.analyzeURL(ctx, req)
	if err != nil {
		return nil, err
	}

	markdown, err := s.generator.Generate(ctx, s.urlRequest(apiKey, req, page, related))
	if err != nil {
		s.logger.WithError(err).WithField("url", req.URL).Error("url generation failed")
		return nil, &UpstreamError{Detail: FailureMessage(err, ScopeURL)}
	}

	return &URLResult{
		Markdown:      markdown,
		URL:           req.URL,
		AnalyzedTitle: page.Title,
		Keywords:      page.Keywords,
	}, nil
}

// GenerateFromURLStream analyzes a page and streams the article. Analysis
// errors fail the call; generation errors after the stream opens are
// reported in-band through emit.
func (s *service) GenerateFromURLStream(ctx context.Context, req URLRequest, emit func(string) error) error {
	apiKey, err := s.resolveAPIKey(req.APIKey)
	if err != nil {
		return err
	}

	page, related, err := s.analyzeURL(ctx, req)
	if err != nil {
		return err
	}

	if err := s.generator.GenerateStream(ctx, s.urlRequest(apiKey, req, page, related), emit); err != nil {
		s.logger.WithError(err).WithField("url", req.URL).Error("url stream failed")
		_ = emit(StreamTrailer(err))
	}
	return nil
}
