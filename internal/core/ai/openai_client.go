package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/LabelSafe/food-advisory-service/config"
	"github.com/LabelSafe/food-advisory-service/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	api "go.opentelemetry.io/otel/metric"
)

// Generator is the opaque text-completion capability the advisory and
// translation components depend on.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// GenerateRequest carries one system/user prompt pair plus generation settings.
type GenerateRequest struct {
	System      string
	User        string
	Model       string
	MaxTokens   int
	Temperature float64
}

type openAIClient struct {
	config     config.OpenAIConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// Chat Completions API structures
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionResponse struct {
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func NewOpenAIClient(cfg config.OpenAIConfig, logger *slog.Logger) Generator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}

	return &openAIClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 45 * time.Second,
		},
		logger: logger.With("service", "openai"),
	}
}

// Generate issues one chat-completion call and returns the raw assistant text.
func (c *openAIClient) Generate(ctx context.Context, genReq GenerateRequest) (string, error) {
	messages := make([]Message, 0, 2)
	if genReq.System != "" {
		messages = append(messages, Message{Role: "system", Content: genReq.System})
	}
	messages = append(messages, Message{Role: "user", Content: genReq.User})

	reqBody := ChatCompletionRequest{
		Model:       genReq.Model,
		Messages:    messages,
		MaxTokens:   genReq.MaxTokens,
		Temperature: genReq.Temperature,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.countError(ctx, genReq.Model)
		return "", fmt.Errorf("failed to make chat completion request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.countError(ctx, genReq.Model)
		return "", fmt.Errorf("failed to read chat completion response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.countError(ctx, genReq.Model)
		return "", fmt.Errorf("chat completion API error: %d - %s", resp.StatusCode, string(body))
	}

	var chatResp ChatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		c.countError(ctx, genReq.Model)
		return "", fmt.Errorf("failed to unmarshal chat completion response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		c.countError(ctx, genReq.Model)
		return "", fmt.Errorf("no choices in chat completion response")
	}

	content := chatResp.Choices[0].Message.Content
	if content == "" {
		c.countError(ctx, genReq.Model)
		return "", fmt.Errorf("empty content in chat completion response")
	}

	c.logger.Debug("Chat completion succeeded",
		"model", genReq.Model,
		"max_tokens", genReq.MaxTokens,
		"tokens_used", chatResp.Usage.TotalTokens,
		"finish_reason", chatResp.Choices[0].FinishReason)

	return content, nil
}

func (c *openAIClient) countError(ctx context.Context, model string) {
	if telemetry.OpenAIErrorsTotal != nil {
		telemetry.OpenAIErrorsTotal.Add(ctx, 1,
			api.WithAttributes(attribute.String("model", model)))
	}
}
