package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/restaurant-classifier/internal/core/domain"
	"github.com/kirillkom/restaurant-classifier/internal/infrastructure/httpclient"
	"github.com/kirillkom/restaurant-classifier/internal/infrastructure/resilience"
)

const (
	providerName   = "openai"
	DefaultBaseURL = "https://api.openai.com/v1"
)

// Client talks to any OpenAI-compatible chat completions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	exec       *resilience.Executor
}

func New(baseURL, apiKey, model string, exec *resilience.Executor) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(apiKey),
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		exec:       exec,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

func (c *Client) Complete(ctx context.Context, prompt domain.ChatPrompt) (string, error) {
	if c.apiKey == "" {
		return "", domain.WrapError(domain.ErrConfigurationMissing, "openai chat", errors.New("api key missing"))
	}

	messages := make([]message, 0, 2)
	if prompt.System != "" {
		messages = append(messages, message{Role: "system", Content: prompt.System})
	}
	messages = append(messages, message{Role: "user", Content: prompt.User})

	req := completionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   prompt.MaxOutputTokens,
		Temperature: prompt.Temperature,
	}

	var resp completionResponse
	err := c.exec.Execute(ctx, "openai.chat", func(callCtx context.Context) error {
		return httpclient.Do(callCtx, c.httpClient, httpclient.Request{
			Provider:  providerName,
			Operation: "chat",
			Method:    http.MethodPost,
			URL:       c.baseURL + "/chat/completions",
			Headers:   map[string]string{"Authorization": "Bearer " + c.apiKey},
			Payload:   req,
			Out:       &resp,
		})
	}, httpclient.RecordFailure)
	if err != nil {
		return "", httpclient.WrapProviderError("openai chat", err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.WrapError(domain.ErrProvider, "openai chat", errors.New("no choices in response"))
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
