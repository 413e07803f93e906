package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nugget/paperscout/internal/config"
	"github.com/nugget/paperscout/internal/httpkit"
)

// DefaultGeminiURL is the Generative Language API root.
const DefaultGeminiURL = "https://generativelanguage.googleapis.com"

// GeminiClient calls the Gemini generateContent endpoint.
type GeminiClient struct {
	baseURL    string
	model      string
	key        KeyFunc
	httpClient *http.Client
	logger     *slog.Logger
}

// NewGeminiClient creates a Gemini client. The key is fetched through
// key on every call. timeout bounds each call; zero leaves it to ctx.
func NewGeminiClient(baseURL, model string, key KeyFunc, timeout time.Duration, logger *slog.Logger) *GeminiClient {
	if baseURL == "" {
		baseURL = DefaultGeminiURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GeminiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		key:     key,
		httpClient: httpkit.NewClient(
			httpkit.WithTimeout(timeout),
			httpkit.WithRetry(2, time.Second),
			httpkit.WithLogger(logger),
		),
		logger: logger,
	}
}

func (c *GeminiClient) Provider() string { return "gemini" }
func (c *GeminiClient) Model() string    { return c.model }

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	ModelVersion string `json:"modelVersion"`
}

// Generate sends the prompt as a single user turn.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (*Response, error) {
	key, err := c.key(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: req.Prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxOutputTokens,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(c.model), url.QueryEscape(key))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gemini: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Log(ctx, config.LevelTrace, "gemini request", "model", c.model, "prompt", req.Prompt)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// The URL carries the key; report only the transport failure.
		return nil, fmt.Errorf("gemini: request failed: %w", unwrapURLError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			Provider:   "gemini",
			StatusCode: resp.StatusCode,
			Body:       httpkit.ReadErrorBody(resp.Body, 1024),
		}
	}

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("gemini: decode response: %w", err)
	}

	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		reason := "no candidates"
		if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
			reason = "blocked: " + gr.PromptFeedback.BlockReason
		} else if len(gr.Candidates) > 0 && gr.Candidates[0].FinishReason != "" {
			reason = "finish reason " + gr.Candidates[0].FinishReason
		}
		return nil, fmt.Errorf("gemini: empty response (%s)", reason)
	}

	text := gr.Candidates[0].Content.Parts[0].Text
	c.logger.Log(ctx, config.LevelTrace, "gemini response", "model", c.model, "text", text)

	model := gr.ModelVersion
	if model == "" {
		model = c.model
	}
	return &Response{
		Text:         text,
		Model:        model,
		InputTokens:  gr.UsageMetadata.PromptTokenCount,
		OutputTokens: gr.UsageMetadata.CandidatesTokenCount,
		Latency:      time.Since(start),
	}, nil
}

// Ping sends a short test prompt to confirm the key and model work.
func (c *GeminiClient) Ping(ctx context.Context) error {
	_, err := c.Generate(ctx, Request{Prompt: "Hello", Temperature: 0, MaxOutputTokens: 16})
	return err
}

// unwrapURLError strips the *url.Error wrapper, whose message includes
// the full request URL.
func unwrapURLError(err error) error {
	if ue, ok := err.(*url.Error); ok {
		return fmt.Errorf("%s: %w", ue.Op, ue.Err)
	}
	return err
}
