package handlers

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/palmier/internal/domain/models"
	service "github.com/mamadbah2/palmier/internal/service/whatsapp"
)

// maxOutboundText is the WhatsApp Cloud API limit on a text body.
const maxOutboundText = 4096

// WebhookHandler exposes the WhatsApp channel the plantation manager uses to
// query stock, sales and cash from the field.
type WebhookHandler struct {
	svc    service.MessagingService
	logger *zap.Logger
}

func NewWebhookHandler(svc service.MessagingService, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{svc: svc, logger: logger.Named("webhook")}
}

// Verify answers Meta's subscription challenge.
func (h *WebhookHandler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	challenge, err := h.svc.VerifyWebhookToken(mode, c.Query("hub.verify_token"), c.Query("hub.challenge"))
	if err != nil {
		h.logger.Warn("subscription refused", zap.String("mode", mode), zap.Error(err))
		c.String(http.StatusForbidden, "verification failed")
		return
	}
	c.String(http.StatusOK, challenge)
}

// inboundCommand is one chat message resolved to the command it asks for.
type inboundCommand struct {
	From      string
	Sender    string
	MessageID string
	Command   models.Command
}

// inboundCommands flattens a payload into its text and button messages.
// Delivery receipts carry no command and are skipped.
func inboundCommands(payload models.WebhookPayload) []inboundCommand {
	var out []inboundCommand
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			names := make(map[string]string, len(change.Value.Contacts))
			for _, contact := range change.Value.Contacts {
				names[contact.WaID] = contact.Profile.Name
			}
			for _, msg := range change.Value.Messages {
				out = append(out, inboundCommand{
					From:      msg.From,
					Sender:    names[msg.From],
					MessageID: msg.ID,
					Command:   models.ParseCommand(msg.Body()),
				})
			}
		}
	}
	return out
}

// Receive ingests webhook callbacks. It always answers 200 once the body
// decodes, since Meta redelivers anything else.
func (h *WebhookHandler) Receive(c *gin.Context) {
	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.Warn("undecodable callback", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	commands := inboundCommands(payload)
	for _, in := range commands {
		h.logger.Info("chat command",
			zap.String("from", in.From),
			zap.String("sender", in.Sender),
			zap.String("message_id", in.MessageID),
			zap.String("command", string(in.Command.Type)),
			zap.Strings("args", in.Command.Args),
		)
	}

	if err := h.svc.HandleWebhook(c.Request.Context(), payload); err != nil {
		h.logger.Error("callback not processed",
			zap.Error(err),
			zap.String("object", payload.Object),
			zap.Int("commands", len(commands)),
		)
	}
	c.Status(http.StatusOK)
}

// SendMessage pushes a manual text to a phone number. The recipient is
// normalised to the digits-only form the Cloud API expects.
func (h *WebhookHandler) SendMessage(c *gin.Context) {
	var req models.OutboundMessageRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	req.To = normalizePhone(req.To)
	if req.To == "" {
		respondError(c, h.logger, models.NewValidationError("to", "must contain digits"))
		return
	}
	if utf8.RuneCountInString(req.Message) > maxOutboundText {
		respondError(c, h.logger, models.NewValidationError("message", "must be at most 4096 characters"))
		return
	}

	if err := h.svc.SendOutbound(c.Request.Context(), req); err != nil {
		h.logger.Error("outbound text failed", zap.String("to", req.To), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to send message"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"to": req.To})
}

func normalizePhone(raw string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
}
