package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/nugget/paperscout/internal/config"
	"github.com/nugget/paperscout/internal/httpkit"
)

// OpenAIClient calls an OpenAI-compatible chat completions endpoint with
// the prompt as a single user message.
type OpenAIClient struct {
	client openai.Client
	model  string
	key    KeyFunc
	logger *slog.Logger
}

// NewOpenAIClient creates a client. An empty baseURL uses the OpenAI API.
func NewOpenAIClient(baseURL, model string, key KeyFunc, timeout time.Duration, logger *slog.Logger) *OpenAIClient {
	if logger == nil {
		logger = slog.Default()
	}
	opts := []option.RequestOption{
		option.WithHTTPClient(httpkit.NewClient(httpkit.WithTimeout(timeout))),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIClient{
		client: openai.NewClient(opts...),
		model:  model,
		key:    key,
		logger: logger,
	}
}

func (c *OpenAIClient) Provider() string { return "openai" }
func (c *OpenAIClient) Model() string    { return c.model }

// Generate sends one chat completion request.
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (*Response, error) {
	key, err := c.key(ctx)
	if err != nil {
		return nil, err
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxOutputTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxOutputTokens))
	}

	c.logger.Log(ctx, config.LevelTrace, "openai request", "model", c.model, "prompt", req.Prompt)

	start := time.Now()
	completion, err := c.client.Chat.Completions.New(ctx, params, option.WithAPIKey(key))
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, &APIError{
				Provider:   "openai",
				StatusCode: apiErr.StatusCode,
				Body:       apiErr.Message,
			}
		}
		return nil, fmt.Errorf("openai: request failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty response (no choices)")
	}
	text := completion.Choices[0].Message.Content
	c.logger.Log(ctx, config.LevelTrace, "openai response", "model", c.model, "text", text)

	model := completion.Model
	if model == "" {
		model = c.model
	}
	return &Response{
		Text:         text,
		Model:        model,
		InputTokens:  int(completion.Usage.PromptTokens),
		OutputTokens: int(completion.Usage.CompletionTokens),
		Latency:      time.Since(start),
	}, nil
}
