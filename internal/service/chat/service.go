// Package chat runs the farm assistant conversation: caller rate limiting,
// daily quotas and the livestock context sent along with the question.
package chat

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/porkyfarm/porcpro/internal/service/dashboard"
	"github.com/porkyfarm/porcpro/internal/store"
	"github.com/porkyfarm/porcpro/pkg/clients/anthropic"
)

const maxHistory = 20

var (
	// ErrNoQuestion is returned when the conversation does not end with a user message.
	ErrNoQuestion = errors.New("conversation must end with a user message")
	// ErrUnavailable is returned when the assistant backend failed.
	ErrUnavailable = errors.New("assistant unavailable")
)

var chatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "porkyfarm_chat_requests_total",
	Help: "Assistant requests by outcome",
}, []string{"outcome"})

// Input is one assistant request.
type Input struct {
	Messages       []anthropic.Turn
	Image          *anthropic.Image
	IncludeContext bool
}

// Result is the assistant answer or the limited response.
type Result struct {
	Reply    string
	Limited  bool
	Message  string
	Decision Decision
}

// Options configures the service limits.
type Options struct {
	PerWindow  int
	Window     time.Duration
	DailyLimit int
}

// Service answers farmer questions.
type Service struct {
	client    anthropic.Client
	dashboard *dashboard.Service
	window    *Limit
	quota     *Limit
	now       func() time.Time
	logger    *zap.Logger
}

// NewService wires a chat service.
func NewService(client anthropic.Client, dash *dashboard.Service, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PerWindow <= 0 {
		opts.PerWindow = 10
	}
	if opts.Window <= 0 {
		opts.Window = time.Minute
	}
	if opts.DailyLimit <= 0 {
		opts.DailyLimit = 100
	}
	return &Service{
		client:    client,
		dashboard: dash,
		window:    NewLimit("window", opts.PerWindow, opts.Window),
		quota:     NewLimit("daily", opts.DailyLimit, 24*time.Hour),
		now:       time.Now,
		logger:    logger,
	}
}

// Chat answers the conversation for caller. Exceeding a limit is not an
// error: the result is marked Limited with a retry message.
func (s *Service) Chat(ctx context.Context, caller string, h *store.Handle, in Input) (Result, error) {
	turns := trimHistory(in.Messages)
	if len(turns) == 0 || turns[len(turns)-1].Role != "user" || strings.TrimSpace(turns[len(turns)-1].Content) == "" {
		return Result{}, ErrNoQuestion
	}

	d, err := s.window.Check(ctx, caller)
	if err != nil {
		return Result{}, fmt.Errorf("check rate limit: %w", err)
	}
	if !d.Allowed {
		chatRequests.WithLabelValues("rate_limited").Inc()
		return limited(d, "Too many requests"), nil
	}
	q, err := s.quota.Check(ctx, caller)
	if err != nil {
		return Result{}, fmt.Errorf("check daily quota: %w", err)
	}
	if !q.Allowed {
		chatRequests.WithLabelValues("quota_exceeded").Inc()
		return limited(q, "Daily assistant quota reached"), nil
	}

	req := anthropic.ChatRequest{System: systemPrompt, Turns: turns, Image: in.Image}
	if in.IncludeContext && h != nil && s.dashboard != nil {
		req.System += "\n\n" + FarmContext(s.dashboard.Summary(h, s.now()))
	}

	reply, err := s.client.Chat(ctx, req)
	if err != nil {
		chatRequests.WithLabelValues("failed").Inc()
		s.logger.Error("assistant call failed", zap.String("caller", caller), zap.Error(err))
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// only answered questions count against the limits
	if taken, err := s.window.Take(ctx, caller); err != nil {
		s.logger.Warn("rate limit not counted", zap.String("caller", caller), zap.Error(err))
	} else {
		d = taken
	}
	if _, err := s.quota.Take(ctx, caller); err != nil {
		s.logger.Warn("daily quota not counted", zap.String("caller", caller), zap.Error(err))
	}

	chatRequests.WithLabelValues("ok").Inc()
	s.logger.Info("assistant answered",
		zap.String("caller", caller),
		zap.Int("input_tokens", reply.InputTokens),
		zap.Int("output_tokens", reply.OutputTokens))
	return Result{Reply: reply.Text, Decision: d}, nil
}

func limited(d Decision, reason string) Result {
	secs := int(math.Ceil(d.RetryAfter.Seconds()))
	return Result{
		Limited:  true,
		Decision: d,
		Message:  fmt.Sprintf("%s. Please try again in %d seconds.", reason, secs),
	}
}

func trimHistory(turns []anthropic.Turn) []anthropic.Turn {
	out := make([]anthropic.Turn, 0, len(turns))
	for _, t := range turns {
		if t.Role != "user" && t.Role != "assistant" {
			continue
		}
		out = append(out, t)
	}
	if len(out) > maxHistory {
		out = out[len(out)-maxHistory:]
	}
	// the messages API wants the first turn from the user
	for len(out) > 0 && out[0].Role != "user" {
		out = out[1:]
	}
	return out
}
