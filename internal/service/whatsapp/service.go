package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/palmier/internal/config"
	"github.com/mamadbah2/palmier/internal/domain/models"
	"github.com/mamadbah2/palmier/internal/service/commands"
	client "github.com/mamadbah2/palmier/pkg/clients/whatsapp"
)

const sendTimeout = 10 * time.Second

var (
	// ErrInvalidVerification is returned when the webhook handshake does not match.
	ErrInvalidVerification = errors.New("invalid webhook verification")
	// ErrNoRecipient is returned when a notification has nobody to go to.
	ErrNoRecipient = errors.New("no recipient configured")
)

// MessagingService describes the operations the HTTP layer and the scheduler can perform.
type MessagingService interface {
	VerifyWebhookToken(mode, verifyToken, challenge string) (string, error)
	HandleWebhook(ctx context.Context, payload models.WebhookPayload) error
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
	NotifyManager(ctx context.Context, message string) error
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	cfg        config.WhatsAppConfig
	client     client.Client
	dispatcher commands.Dispatcher
	logger     *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, c client.Client, dispatcher commands.Dispatcher, logger *zap.Logger) *MetaWhatsAppService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if c == nil {
		c = client.NopClient{Logger: logger}
	}
	return &MetaWhatsAppService{
		cfg:        cfg,
		client:     c,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// VerifyWebhookToken validates the callback verification token.
func (s *MetaWhatsAppService) VerifyWebhookToken(mode, verifyToken, challenge string) (string, error) {
	if mode == "" || verifyToken == "" {
		return "", fmt.Errorf("%w: missing mode or verify token", ErrInvalidVerification)
	}
	if !strings.EqualFold(mode, "subscribe") {
		return "", fmt.Errorf("%w: unsupported hub.mode %s", ErrInvalidVerification, mode)
	}
	if s.cfg.VerifyToken == "" || verifyToken != s.cfg.VerifyToken {
		return "", fmt.Errorf("%w: token mismatch", ErrInvalidVerification)
	}
	return challenge, nil
}

// HandleWebhook answers every inbound message of the payload. Delivery
// statuses are only logged.
func (s *MetaWhatsAppService) HandleWebhook(ctx context.Context, payload models.WebhookPayload) error {
	var firstErr error

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, status := range change.Value.Statuses {
				s.logger.Debug("message status", zap.String("message_id", status.ID), zap.String("status", status.Status))
			}
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
	if text == "" {
		s.logger.Debug("ignoring message without text", zap.String("type", msg.Type), zap.String("message_id", msg.ID))
		return nil
	}

	cmd := models.ParseCommand(text)
	s.logger.Info("parsed inbound command",
		zap.String("from", msg.From),
		zap.String("command", string(cmd.Type)),
		zap.Strings("args", cmd.Args))

	reply := commands.HelpText
	if s.dispatcher != nil {
		var err error
		reply, err = s.dispatcher.HandleCommand(ctx, cmd, msg.From)
		if err != nil {
			s.logger.Error("command failed", zap.Error(err), zap.String("command", string(cmd.Type)))
			reply = "Sorry, that request could not be answered right now."
		}
	}

	return s.send(ctx, msg.From, reply, false)
}

// SendOutbound lets internal operators push quick notifications via HTTP.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	return s.send(ctx, req.To, req.Message, req.PreviewURL)
}

// NotifyManager sends message to the configured plantation manager.
func (s *MetaWhatsAppService) NotifyManager(ctx context.Context, message string) error {
	if s.cfg.ManagerID == "" {
		return ErrNoRecipient
	}
	return s.send(ctx, s.cfg.ManagerID, message, false)
}

func (s *MetaWhatsAppService) send(ctx context.Context, to, body string, preview bool) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	resp, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:         to,
		Body:       body,
		PreviewURL: preview,
	})
	if err != nil {
		return fmt.Errorf("send to %s: %w", to, err)
	}
	s.logger.Debug("message sent", zap.String("to", to), zap.String("message_id", resp.MessageID()))
	return nil
}
