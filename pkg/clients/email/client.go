// Package email sends transactional emails through the Resend HTTP API.
package email

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.resend.com"

// Config configures the Resend client.
type Config struct {
	APIKey     string
	From       string
	BaseURL    string
	MaxRetries int
	RetryWait  time.Duration
	MaxWait    time.Duration
	Timeout    time.Duration
}

// ErrorKind classifies a failed send.
type ErrorKind string

const (
	KindTransport   ErrorKind = "transport"
	KindRateLimited ErrorKind = "rate_limited"
	KindServer      ErrorKind = "server"
	KindClient      ErrorKind = "client"
)

// Retryable reports whether a send failing with this kind may succeed later.
func (k ErrorKind) Retryable() bool {
	return k == KindTransport || k == KindRateLimited || k == KindServer
}

// Error is a failed send after all attempts.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("email send failed (%s, status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("email send failed (%s): %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Message is one email.
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
	Tags    map[string]string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Client is a resty-backed Sender.
type Client struct {
	httpClient *resty.Client
	from       string
	logger     *zap.Logger
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
	Tags    []tag    `json:"tags,omitempty"`
}

type tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type sendResponse struct {
	ID string `json:"id"`
}

type apiError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// NewClient builds a Resend client with bounded exponential retries.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = 500 * time.Millisecond
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 5 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	restyClient := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(cfg.MaxWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return classify(r, err).Retryable()
		})

	return &Client{httpClient: restyClient, from: cfg.From, logger: logger}
}

// Send delivers msg and returns the provider message id.
func (c *Client) Send(ctx context.Context, msg Message) (string, error) {
	if len(msg.To) == 0 {
		return "", &Error{Kind: KindClient, Message: "no recipient"}
	}

	body := sendRequest{From: c.from, To: msg.To, Subject: msg.Subject, HTML: msg.HTML, Text: msg.Text}
	for k, v := range msg.Tags {
		body.Tags = append(body.Tags, tag{Name: k, Value: v})
	}

	result := new(sendResponse)
	errBody := new(apiError)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(result).
		SetError(errBody).
		Post("/emails")

	kind := classify(resp, err)
	if kind != "" {
		sendErr := &Error{Kind: kind, Err: err}
		if resp != nil {
			sendErr.StatusCode = resp.StatusCode()
		}
		switch {
		case errBody.Message != "":
			sendErr.Message = errBody.Message
		case err != nil:
			sendErr.Message = err.Error()
		default:
			sendErr.Message = resp.String()
		}
		c.logger.Error("email send failed",
			zap.String("subject", msg.Subject),
			zap.Strings("to", msg.To),
			zap.String("kind", string(kind)),
			zap.Int("status", sendErr.StatusCode),
			zap.Int("attempts", attempts(resp)),
			zap.Error(sendErr))
		return "", sendErr
	}

	c.logger.Info("email sent",
		zap.String("id", result.ID),
		zap.String("subject", msg.Subject),
		zap.Strings("to", msg.To),
		zap.Int("attempts", attempts(resp)))
	return result.ID, nil
}

// classify returns the error kind of an attempt, or "" on success.
func classify(resp *resty.Response, err error) ErrorKind {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return KindClient
		}
		return KindTransport
	}
	if resp == nil {
		return KindTransport
	}
	switch code := resp.StatusCode(); {
	case code == http.StatusTooManyRequests:
		return KindRateLimited
	case code >= 500:
		return KindServer
	case code >= 400:
		return KindClient
	}
	return ""
}

func attempts(resp *resty.Response) int {
	if resp == nil || resp.Request == nil {
		return 1
	}
	return resp.Request.Attempt
}
