package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/porkyfarm/porcpro/internal/server/response"
	"github.com/porkyfarm/porcpro/internal/service/oauth"
	"github.com/porkyfarm/porcpro/pkg/clients/email"
)

type welcomeEmailRequest struct {
	To   string `json:"to" binding:"required,email"`
	Name string `json:"name" binding:"required,max=100"`
}

type resetEmailRequest struct {
	To   string `json:"to" binding:"required,email"`
	Name string `json:"name" binding:"max=100"`
	Link string `json:"link" binding:"required,url"`
}

type introspectRequest struct {
	Code     string `json:"code" binding:"required"`
	ClientID string `json:"client_id" binding:"required"`
}

// SendWelcomeEmail sends the welcome template. Called by the identity provider hook.
func (h *Handler) SendWelcomeEmail(c *gin.Context) {
	var req welcomeEmailRequest
	if !bind(c, &req) {
		return
	}
	h.sendMail(c, func(m *email.Mailer) (string, error) {
		return m.SendWelcome(c.Request.Context(), req.To, req.Name)
	})
}

// SendPasswordResetEmail sends the reset link template.
func (h *Handler) SendPasswordResetEmail(c *gin.Context) {
	var req resetEmailRequest
	if !bind(c, &req) {
		return
	}
	h.sendMail(c, func(m *email.Mailer) (string, error) {
		return m.SendPasswordReset(c.Request.Context(), req.To, req.Name, req.Link)
	})
}

func (h *Handler) sendMail(c *gin.Context, send func(*email.Mailer) (string, error)) {
	if h.mailer == nil {
		response.Error(c, http.StatusServiceUnavailable, response.CodeUnavailable, "Email is not configured")
		return
	}
	id, err := send(h.mailer)
	if err != nil {
		var sendErr *email.Error
		if errors.As(err, &sendErr) {
			response.ErrorWithDetails(c, http.StatusBadGateway, response.CodeUpstream, "Email delivery failed", gin.H{
				"kind":      sendErr.Kind,
				"retryable": sendErr.Kind.Retryable(),
			})
			return
		}
		response.Error(c, http.StatusBadGateway, response.CodeUpstream, "Email delivery failed")
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"id": id})
}

// IntrospectCode verifies an authorization code for a client.
func (h *Handler) IntrospectCode(c *gin.Context) {
	if h.oauth == nil {
		response.Error(c, http.StatusServiceUnavailable, response.CodeUnavailable, "OAuth is not configured")
		return
	}
	var req introspectRequest
	if !bind(c, &req) {
		return
	}
	claims, err := h.oauth.VerifyCode(req.Code, req.ClientID)
	if err != nil {
		if errors.Is(err, oauth.ErrInvalidCode) {
			h.ok(c, gin.H{"active": false})
			return
		}
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{
		"active":       true,
		"sub":          claims.Subject,
		"scope":        claims.Scope,
		"redirect_uri": claims.RedirectURI,
		"exp":          claims.ExpiresAt.Unix(),
	})
}
