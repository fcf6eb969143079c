package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/porkyfarm/porcpro/internal/config"
	"github.com/porkyfarm/porcpro/internal/domain/models"
	"github.com/porkyfarm/porcpro/internal/service/commands"
	client "github.com/porkyfarm/porcpro/pkg/clients/whatsapp"
)

const sendTimeout = 10 * time.Second

// UnlinkedReply answers numbers that belong to no configured farm.
const UnlinkedReply = "This number is not linked to a PorcPro farm. Ask your farm owner to add it."

// ErrVerification is returned when Meta's subscription handshake does not match.
var ErrVerification = errors.New("webhook verification failed")

// MessagingService describes the operations the HTTP layer can perform.
type MessagingService interface {
	VerifyWebhookToken(mode, verifyToken, challenge string) (string, error)
	HandleWebhook(ctx context.Context, payload models.WebhookPayload) error
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) (string, error)
}

// MetaWhatsAppService answers farmer commands received through the Cloud API webhook.
type MetaWhatsAppService struct {
	cfg        config.WhatsAppConfig
	client     client.Client
	dispatcher commands.Dispatcher
	farms      map[string]string
	logger     *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance. Recipients with a
// phone number link that number to their farm.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, c client.Client, dispatcher commands.Dispatcher, recipients []config.Recipient, logger *zap.Logger) *MetaWhatsAppService {
	if logger == nil {
		logger = zap.NewNop()
	}
	farms := make(map[string]string)
	for _, r := range recipients {
		if phone := normalizePhone(r.Phone); phone != "" {
			farms[phone] = r.UserID
		}
	}
	return &MetaWhatsAppService{
		cfg:        cfg,
		client:     c,
		dispatcher: dispatcher,
		farms:      farms,
		logger:     logger,
	}
}

// VerifyWebhookToken validates the callback verification token.
func (s *MetaWhatsAppService) VerifyWebhookToken(mode, verifyToken, challenge string) (string, error) {
	if mode == "" || verifyToken == "" {
		return "", fmt.Errorf("%w: missing mode or verify token", ErrVerification)
	}
	if !strings.EqualFold(mode, "subscribe") {
		return "", fmt.Errorf("%w: unsupported hub.mode %s", ErrVerification, mode)
	}
	if s.cfg.VerifyToken == "" || verifyToken != s.cfg.VerifyToken {
		return "", fmt.Errorf("%w: invalid verify token", ErrVerification)
	}
	return challenge, nil
}

// HandleWebhook answers every inbound message of the payload and returns the first failure.
func (s *MetaWhatsAppService) HandleWebhook(ctx context.Context, payload models.WebhookPayload) error {
	var firstErr error
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if err := s.handleInboundMessage(ctx, msg); err != nil {
					s.logger.Error("failed to handle inbound message", zap.Error(err), zap.String("message_id", msg.ID))
					if firstErr == nil {
						firstErr = err
					}
				}
			}
		}
	}
	return firstErr
}

func (s *MetaWhatsAppService) handleInboundMessage(ctx context.Context, msg models.InboundMessage) error {
	text := msg.Body()
	if strings.TrimSpace(text) == "" {
		s.logger.Debug("ignoring message without text", zap.String("type", msg.Type), zap.String("message_id", msg.ID))
		return nil
	}

	reply := UnlinkedReply
	userID, linked := s.farms[normalizePhone(msg.From)]
	if linked {
		cmd := models.ParseCommand(text)
		s.logger.Info("parsed inbound command",
			zap.String("user_id", userID),
			zap.String("command", string(cmd.Type)))

		var err error
		reply, err = s.dispatcher.HandleCommand(ctx, cmd, userID)
		if err != nil {
			return fmt.Errorf("handle %s from %s: %w", cmd.Type, userID, err)
		}
	} else {
		s.logger.Warn("message from unlinked number", zap.String("message_id", msg.ID))
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	_, err := s.client.SendText(ctxWithTimeout, msg.From, reply)
	return err
}

// SendOutbound lets internal operators push quick notifications via HTTP.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) (string, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	return s.client.SendText(ctxWithTimeout, req.To, req.Message)
}

// normalizePhone keeps the digits of an E.164 number, the form the webhook reports senders in.
func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
