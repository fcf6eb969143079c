package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/porkyfarm/porcpro/internal/server/middleware"
	"github.com/porkyfarm/porcpro/internal/server/response"
	"github.com/porkyfarm/porcpro/internal/service/chat"
	"github.com/porkyfarm/porcpro/pkg/clients/anthropic"
)

type chatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required,max=8000"`
}

type chatImage struct {
	MediaType string `json:"media_type" binding:"required,oneof=image/jpeg image/png image/gif image/webp"`
	Data      string `json:"data" binding:"required,base64"`
}

type chatRequest struct {
	Messages       []chatMessage `json:"messages" binding:"required,min=1,max=50,dive"`
	Image          *chatImage    `json:"image"`
	IncludeContext bool          `json:"include_context"`
}

// Chat forwards the conversation to the farm assistant.
func (h *Handler) Chat(c *gin.Context) {
	if h.chat == nil {
		response.Error(c, http.StatusServiceUnavailable, response.CodeUnavailable, "The assistant is not configured")
		return
	}
	var req chatRequest
	if !bind(c, &req) {
		return
	}
	handle, ok := h.open(c)
	if !ok {
		return
	}

	in := chat.Input{IncludeContext: req.IncludeContext}
	for _, m := range req.Messages {
		in.Messages = append(in.Messages, anthropic.Turn{Role: m.Role, Content: m.Content})
	}
	if req.Image != nil {
		in.Image = &anthropic.Image{MediaType: req.Image.MediaType, Data: req.Image.Data}
	}

	caller := middleware.UserID(c)
	if caller == "" {
		caller = "ip:" + c.ClientIP()
	}

	res, err := h.chat.Chat(c.Request.Context(), caller, handle, in)
	switch {
	case errors.Is(err, chat.ErrNoQuestion):
		response.Error(c, http.StatusBadRequest, response.CodeValidation, err.Error())
		return
	case err != nil:
		response.Error(c, http.StatusBadGateway, response.CodeUpstream, "The assistant is unavailable. Try again later.")
		return
	}

	setRateHeaders(c, res.Decision)
	if res.Limited {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(res.Decision.RetryAfter.Seconds()))))
		response.ErrorWithDetails(c, http.StatusTooManyRequests, response.CodeRateLimited, res.Message, gin.H{
			"retry_after": int(math.Ceil(res.Decision.RetryAfter.Seconds())),
			"reset":       res.Decision.Reset.Unix(),
		})
		return
	}
	h.ok(c, gin.H{"reply": res.Reply})
}

func setRateHeaders(c *gin.Context, d chat.Decision) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))
}
