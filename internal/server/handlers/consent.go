package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/porkyfarm/porcpro/internal/server/middleware"
	"github.com/porkyfarm/porcpro/internal/server/response"
	"github.com/porkyfarm/porcpro/internal/service/oauth"
)

type consentDecision struct {
	Decision string `json:"decision" binding:"required,oneof=approve deny"`
}

// Authorize validates a consent request and describes it for the consent screen.
func (h *Handler) Authorize(c *gin.Context) {
	req, ok := h.parseConsent(c)
	if !ok {
		return
	}
	h.ok(c, gin.H{
		"client_id":    req.Client.ID,
		"client_name":  req.Client.Name,
		"redirect_uri": req.RedirectURI,
		"scopes":       req.Scopes,
		"state":        req.State,
	})
}

// Consent applies the user decision and returns where to redirect the browser.
func (h *Handler) Consent(c *gin.Context) {
	req, ok := h.parseConsent(c)
	if !ok {
		return
	}
	var body consentDecision
	if !bind(c, &body) {
		return
	}

	var (
		location string
		err      error
	)
	if body.Decision == "deny" {
		location, err = h.oauth.Deny(req)
	} else {
		userID := middleware.UserID(c)
		if userID == "" {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Sign in to grant access")
			return
		}
		location, err = h.oauth.Approve(req, userID)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"redirect_to": location})
}

func (h *Handler) parseConsent(c *gin.Context) (oauth.Request, bool) {
	if h.oauth == nil {
		response.Error(c, http.StatusServiceUnavailable, response.CodeUnavailable, "OAuth is not configured")
		return oauth.Request{}, false
	}
	req, err := h.oauth.Parse(c.Request.URL.Query())
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, oauth.ErrUnknownClient) {
			status = http.StatusNotFound
		}
		response.Error(c, status, response.CodeInvalidRequest, err.Error())
		return oauth.Request{}, false
	}
	return req, true
}
