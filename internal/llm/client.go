package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/packages/ssestream"
	"github.com/openai/openai-go/v2/shared"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// Anthropic exposes an OpenAI-compatible surface, which lets the standard SDK
// talk to Claude models directly.
const anthropicBaseURL = "https://api.anthropic.com/v1/"

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "claude-sonnet-4-20250514"

	generationTemperature = 0.7
	maxCompletionTokens   = 2048
)

// ClientOptions controls how the Claude client is initialised.
type ClientOptions struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

// Client wraps the chat-completion service used for article generation. API
// keys are supplied per request, because callers may bring their own key.
type Client struct {
	chat    chatCompletionClient
	logger  *logrus.Logger
	model   string
	baseURL string
}

type chatCompletionClient interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
	NewStreaming(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) *ssestream.Stream[openai.ChatCompletionChunk]
}

// NewClient constructs a Client pointed at the Anthropic compatibility
// endpoint.
func NewClient(opts ClientOptions) *Client {
	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		baseURL = anthropicBaseURL
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}

	requestOptions := []option.RequestOption{
		option.WithBaseURL(baseURL),
	}
	if opts.HTTPClient != nil {
		requestOptions = append(requestOptions, option.WithHTTPClient(opts.HTTPClient))
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}

	apiClient := openai.NewClient(requestOptions...)

	return &Client{
		chat:    &apiClient.Chat.Completions,
		logger:  logger,
		model:   model,
		baseURL: baseURL,
	}
}

// Model returns the model ID requests are issued against.
func (c *Client) Model() string {
	return c.model
}

// Request carries one generation call. APIKey is mandatory and applied per
// request so concurrent calls with different keys never interfere.
type Request struct {
	APIKey string
	System string
	User   string
}

func (c *Client) params(req Request) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		Temperature: openai.Float(generationTemperature),
		MaxTokens:   openai.Int(maxCompletionTokens),
	}
}

// Generate runs a blocking completion and returns the cleaned article
// Markdown.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.APIKey) == "" {
		return "", eris.New("api key is required")
	}

	completion, err := c.chat.New(ctx, c.params(req), option.WithAPIKey(req.APIKey))
	if err != nil {
		return "", eris.Wrap(err, "requesting chat completion")
	}

	if len(completion.Choices) == 0 {
		return "", eris.New("completion returned no choices")
	}

	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	return CleanMarkdown(text), nil
}

// GenerateStream runs a streaming completion, passing each content delta to
// emit as it arrives. It stops early when emit returns an error, which lets
// callers abort on a closed connection. Streamed output is forwarded verbatim:
// fence cleanup would need the full text, and chunks are already on the wire.
func (c *Client) GenerateStream(ctx context.Context, req Request, emit func(string) error) error {
	if strings.TrimSpace(req.APIKey) == "" {
		return eris.New("api key is required")
	}

	stream := c.chat.NewStreaming(ctx, c.params(req), option.WithAPIKey(req.APIKey))
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		if err := emit(delta); err != nil {
			return eris.Wrap(err, "forwarding stream chunk")
		}
	}

	if err := stream.Err(); err != nil {
		return eris.Wrap(err, "streaming chat completion")
	}
	return nil
}
