package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kirillkom/restaurant-classifier/internal/core/domain"
	"github.com/kirillkom/restaurant-classifier/internal/infrastructure/httpclient"
	"github.com/kirillkom/restaurant-classifier/internal/infrastructure/resilience"
)

const (
	providerName   = "gemini"
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

// Client calls the Gemini generateContent endpoint.
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
		httpClient: &http.Client{Timeout: 60 * time.Second},
		exec:       exec,
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateRequest struct {
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (c *Client) Complete(ctx context.Context, prompt domain.ChatPrompt) (string, error) {
	if c.apiKey == "" {
		return "", domain.WrapError(domain.ErrConfigurationMissing, "gemini generate", errors.New("api key missing"))
	}

	req := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt.User}}}},
		GenerationConfig: generationConfig{
			Temperature:     prompt.Temperature,
			MaxOutputTokens: prompt.MaxOutputTokens,
		},
	}
	if prompt.System != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: prompt.System}}}
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))

	var resp generateResponse
	err := c.exec.Execute(ctx, "gemini.generate", func(callCtx context.Context) error {
		return httpclient.Do(callCtx, c.httpClient, httpclient.Request{
			Provider:  providerName,
			Operation: "generate",
			Method:    http.MethodPost,
			URL:       endpoint,
			Headers:   map[string]string{"x-goog-api-key": c.apiKey},
			Payload:   req,
			Out:       &resp,
		})
	}, httpclient.RecordFailure)
	if err != nil {
		return "", httpclient.WrapProviderError("gemini generate", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", domain.WrapError(domain.ErrProvider, "gemini generate", errors.New("no candidates in response"))
	}
	return strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text), nil
}
