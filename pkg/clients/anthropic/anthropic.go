package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
	defaultModel   = "claude-3-haiku-20240307"
	maxTokens      = 1024
)

// ErrEmptyReply is returned when the API answers without any text block.
var ErrEmptyReply = errors.New("empty response from ai")

// Client sends farm assistant conversations to the messages API.
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (Reply, error)
}

// Config configures the HTTP client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Turn is one message of the conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Image is a base64 encoded picture attached to the last user turn.
type Image struct {
	MediaType string
	Data      string
}

// ChatRequest is a conversation to continue.
type ChatRequest struct {
	System string
	Turns  []Turn
	Image  *Image
}

// Reply is the assistant answer.
type Reply struct {
	Text         string `json:"text"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("anthropic api error %d: %s", e.StatusCode, e.Body)
}

type anthropicClient struct {
	httpClient *resty.Client
	model      string
}

// NewClient creates a configured Anthropic client.
func NewClient(cfg Config) Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("x-api-key", cfg.APIKey).
		SetHeader("anthropic-version", apiVersion).
		SetHeader("content-type", "application/json").
		SetTimeout(cfg.Timeout)

	return &anthropicClient{httpClient: client, model: cfg.Model}
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (c *anthropicClient) Chat(ctx context.Context, req ChatRequest) (Reply, error) {
	body := messageRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    req.System,
		Messages:  buildMessages(req.Turns, req.Image),
	}

	var respBody messageResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&respBody).
		Post("/v1/messages")
	if err != nil {
		return Reply{}, fmt.Errorf("anthropic api call: %w", err)
	}
	if resp.IsError() {
		return Reply{}, &APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	var text strings.Builder
	for _, block := range respBody.Content {
		if block.Type == "" || block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return Reply{}, ErrEmptyReply
	}

	return Reply{
		Text:         strings.TrimSpace(text.String()),
		InputTokens:  respBody.Usage.InputTokens,
		OutputTokens: respBody.Usage.OutputTokens,
	}, nil
}

func buildMessages(turns []Turn, img *Image) []message {
	out := make([]message, 0, len(turns))
	lastUser := -1
	for i, t := range turns {
		out = append(out, message{Role: t.Role, Content: []contentBlock{{Type: "text", Text: t.Content}}})
		if t.Role == "user" {
			lastUser = i
		}
	}
	if img != nil && lastUser >= 0 {
		block := contentBlock{
			Type:   "image",
			Source: &imageSource{Type: "base64", MediaType: img.MediaType, Data: img.Data},
		}
		// image first, then the question about it
		out[lastUser].Content = append([]contentBlock{block}, out[lastUser].Content...)
	}
	return out
}
