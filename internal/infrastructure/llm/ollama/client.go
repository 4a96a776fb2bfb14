package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/restaurant-classifier/internal/core/domain"
	"github.com/kirillkom/restaurant-classifier/internal/infrastructure/httpclient"
	"github.com/kirillkom/restaurant-classifier/internal/infrastructure/resilience"
)

const providerName = "ollama"

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	exec       *resilience.Executor
}

func New(baseURL, model string, exec *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		exec:       exec,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

// Complete runs one non-streaming /api/chat call.
func (c *Client) Complete(ctx context.Context, prompt domain.ChatPrompt) (string, error) {
	options := map[string]any{"temperature": prompt.Temperature}
	if prompt.MaxOutputTokens > 0 {
		options["num_predict"] = prompt.MaxOutputTokens
	}
	req := chatRequest{
		Model:    c.model,
		Messages: buildMessages(prompt),
		Stream:   false,
		Options:  options,
	}

	var resp chatResponse
	err := c.exec.Execute(ctx, "ollama.chat", func(callCtx context.Context) error {
		return httpclient.Do(callCtx, c.httpClient, httpclient.Request{
			Provider:  providerName,
			Operation: "chat",
			Method:    http.MethodPost,
			URL:       c.baseURL + "/api/chat",
			Payload:   req,
			Out:       &resp,
		})
	}, httpclient.RecordFailure)
	if err != nil {
		return "", httpclient.WrapProviderError("ollama chat", err)
	}
	return strings.TrimSpace(resp.Message.Content), nil
}

func buildMessages(prompt domain.ChatPrompt) []chatMessage {
	messages := make([]chatMessage, 0, 2)
	if prompt.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: prompt.System})
	}
	return append(messages, chatMessage{Role: "user", Content: prompt.User})
}
