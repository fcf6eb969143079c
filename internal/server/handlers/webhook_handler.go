package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/porkyfarm/porcpro/internal/domain/models"
	"github.com/porkyfarm/porcpro/internal/server/response"
	service "github.com/porkyfarm/porcpro/internal/service/whatsapp"
)

const signatureHeader = "X-Hub-Signature-256"

// WebhookHandler handles inbound and outbound WhatsApp HTTP events.
type WebhookHandler struct {
	svc       service.MessagingService
	appSecret []byte
	logger    *zap.Logger
}

// NewWebhookHandler constructs the HTTP handler adapter. When appSecret is
// set, callbacks must carry a matching X-Hub-Signature-256 header.
func NewWebhookHandler(svc service.MessagingService, appSecret string, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{svc: svc, appSecret: []byte(appSecret), logger: logger}
}

// Verify responds to Meta's webhook verification challenge.
func (h *WebhookHandler) Verify(c *gin.Context) {
	resp, err := h.svc.VerifyWebhookToken(c.Query("hub.mode"), c.Query("hub.verify_token"), c.Query("hub.challenge"))
	if err != nil {
		h.logger.Warn("webhook verification failed", zap.Error(err))
		c.String(http.StatusForbidden, "verification failed")
		return
	}
	c.String(http.StatusOK, resp)
}

// Receive ingests webhook POST callbacks from Meta. Processing failures are
// logged and acknowledged so Meta does not redeliver the batch.
func (h *WebhookHandler) Receive(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeInvalidRequest, "unreadable payload")
		return
	}
	if !h.signed(raw, c.GetHeader(signatureHeader)) {
		h.logger.Warn("webhook signature mismatch")
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid signature")
		return
	}

	var payload models.WebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.logger.Warn("invalid webhook payload", zap.Error(err))
		response.Error(c, http.StatusBadRequest, response.CodeInvalidRequest, "invalid payload")
		return
	}

	if err := h.svc.HandleWebhook(c.Request.Context(), payload); err != nil {
		h.logger.Error("failed processing webhook", zap.Error(err))
	}
	c.Status(http.StatusOK)
}

// signed checks the "sha256=<hex>" HMAC Meta computes over the raw body.
func (h *WebhookHandler) signed(body []byte, header string) bool {
	if len(h.appSecret) == 0 {
		return true
	}
	got, err := hex.DecodeString(strings.TrimPrefix(header, "sha256="))
	if err != nil || len(got) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, h.appSecret)
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// SendMessage allows operators to push a WhatsApp message.
func (h *WebhookHandler) SendMessage(c *gin.Context) {
	var req models.OutboundMessageRequest
	if !bind(c, &req) {
		return
	}

	id, err := h.svc.SendOutbound(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("failed sending outbound", zap.Error(err))
		response.Error(c, http.StatusBadGateway, response.CodeUpstream, "unable to send message")
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"id": id})
}
