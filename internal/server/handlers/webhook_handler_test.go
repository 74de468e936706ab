package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mamadbah2/palmier/internal/domain/models"
)

type fakeMessaging struct {
	handleErr error
	sendErr   error
	handled   []models.WebhookPayload
	sent      []models.OutboundMessageRequest
}

func (f *fakeMessaging) VerifyWebhookToken(mode, token, challenge string) (string, error) {
	if mode != "subscribe" || token != "palmier-secret" {
		return "", errors.New("token mismatch")
	}
	return challenge, nil
}

func (f *fakeMessaging) HandleWebhook(_ context.Context, payload models.WebhookPayload) error {
	f.handled = append(f.handled, payload)
	return f.handleErr
}

func (f *fakeMessaging) SendOutbound(_ context.Context, req models.OutboundMessageRequest) error {
	f.sent = append(f.sent, req)
	return f.sendErr
}

func (f *fakeMessaging) NotifyManager(context.Context, string) error { return nil }

func webhookRouter(svc *fakeMessaging, logger *zap.Logger) *gin.Engine {
	h := NewWebhookHandler(svc, logger)
	r := gin.New()
	r.GET("/webhook", h.Verify)
	r.POST("/webhook", h.Receive)
	r.POST("/send-message", h.SendMessage)
	return r
}

func serve(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

const stockCallback = `{
  "object": "whatsapp_business_account",
  "entry": [{"id": "1", "changes": [{"field": "messages", "value": {
    "contacts": [{"wa_id": "224620000000", "profile": {"name": "Mamadou"}}],
    "messages": [
      {"from": "224620000000", "id": "wamid.1", "type": "text", "text": {"body": "/ventes 2024"}},
      {"from": "224620000000", "id": "wamid.2", "type": "interactive",
       "interactive": {"type": "button_reply", "button_reply": {"id": "stock", "title": "Stock"}}}
    ],
    "statuses": [{"id": "wamid.0", "status": "read"}]
  }}]}]
}`

func TestWebhookVerify(t *testing.T) {
	r := webhookRouter(&fakeMessaging{}, nil)

	w := serve(r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=palmier-secret&hub.challenge=4242", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "4242", w.Body.String())

	w = serve(r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=4242", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestInboundCommandsResolveSenderAndCommand(t *testing.T) {
	var payload models.WebhookPayload
	require.NoError(t, json.Unmarshal([]byte(stockCallback), &payload))

	commands := inboundCommands(payload)
	require.Len(t, commands, 2)
	assert.Equal(t, "Mamadou", commands[0].Sender)
	assert.Equal(t, models.CommandSales, commands[0].Command.Type)
	assert.Equal(t, []string{"2024"}, commands[0].Command.Args)
	assert.Equal(t, "wamid.2", commands[1].MessageID)
	assert.Equal(t, models.CommandStock, commands[1].Command.Type)
}

func TestWebhookReceiveLogsCommandsAndAlwaysAcks(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	svc := &fakeMessaging{handleErr: errors.New("database unavailable")}
	r := webhookRouter(svc, zap.New(core))

	w := serve(r, http.MethodPost, "/webhook", stockCallback)
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, svc.handled, 1)

	commands := logs.FilterMessage("chat command").All()
	require.Len(t, commands, 2)
	fields := commands[0].ContextMap()
	assert.Equal(t, "224620000000", fields["from"])
	assert.Equal(t, "Mamadou", fields["sender"])
	assert.Equal(t, "sales", fields["command"])
	assert.Equal(t, "wamid.1", fields["message_id"])
	assert.Equal(t, 1, logs.FilterMessage("callback not processed").Len())

	w = serve(r, http.MethodPost, "/webhook", `{"entry": "nope"`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, svc.handled, 1)
}

func TestSendMessage(t *testing.T) {
	svc := &fakeMessaging{}
	r := webhookRouter(svc, nil)

	w := serve(r, http.MethodPost, "/send-message", `{"message": "Stock bas"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"to"`)

	w = serve(r, http.MethodPost, "/send-message", `{"to": "+-", "message": "Stock bas"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodPost, "/send-message", `{"to": "224 620", "message": "`+strings.Repeat("a", maxOutboundText+1)+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"message"`)
	assert.Empty(t, svc.sent)

	w = serve(r, http.MethodPost, "/send-message", `{"to": "+224 620-00-00-00", "message": "Stock bas"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, svc.sent, 1)
	assert.Equal(t, "224620000000", svc.sent[0].To)

	svc.sendErr = errors.New("meta down")
	w = serve(r, http.MethodPost, "/send-message", `{"to": "224620000000", "message": "Stock bas"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
