package whatsapp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/palmier/internal/config"
	"github.com/mamadbah2/palmier/internal/domain/models"
	"github.com/mamadbah2/palmier/internal/service/commands"
	client "github.com/mamadbah2/palmier/pkg/clients/whatsapp"
)

type recordingClient struct {
	sent []client.SendTextMessageRequest
	err  error
}

func (c *recordingClient) SendTextMessage(_ context.Context, req client.SendTextMessageRequest) (*client.SendTextMessageResponse, error) {
	c.sent = append(c.sent, req)
	return &client.SendTextMessageResponse{}, c.err
}

type fixedDispatcher struct {
	reply string
	err   error
	seen  []models.CommandType
}

func (d *fixedDispatcher) HandleCommand(_ context.Context, cmd models.Command, _ string) (string, error) {
	d.seen = append(d.seen, cmd.Type)
	return d.reply, d.err
}

func payload(messages ...models.InboundMessage) models.WebhookPayload {
	return models.WebhookPayload{
		Object: "whatsapp_business_account",
		Entry: []models.WebhookEntry{{
			Changes: []models.WebhookChange{{Value: models.WebhookValue{Messages: messages}}},
		}},
	}
}

func TestVerifyWebhookToken(t *testing.T) {
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{VerifyToken: "secret"}, &recordingClient{}, nil, nil)

	challenge, err := svc.VerifyWebhookToken("subscribe", "secret", "42")
	require.NoError(t, err)
	assert.Equal(t, "42", challenge)

	_, err = svc.VerifyWebhookToken("subscribe", "wrong", "42")
	assert.ErrorIs(t, err, ErrInvalidVerification)
	_, err = svc.VerifyWebhookToken("unsubscribe", "secret", "42")
	assert.ErrorIs(t, err, ErrInvalidVerification)
	_, err = svc.VerifyWebhookToken("", "", "42")
	assert.ErrorIs(t, err, ErrInvalidVerification)
}

func TestHandleWebhookRepliesWithDispatcherText(t *testing.T) {
	c := &recordingClient{}
	d := &fixedDispatcher{reply: "Stock: no lot under 20%"}
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{}, c, d, nil)

	err := svc.HandleWebhook(context.Background(), payload(
		models.InboundMessage{From: "224611", ID: "m1", Type: "text", Text: &models.TextContent{Body: "/stock"}},
		models.InboundMessage{From: "224612", ID: "m2", Type: "image"},
		models.InboundMessage{From: "224613", ID: "m3", Type: "interactive", Interactive: &models.InteractiveContent{
			ButtonReply: &models.ReplyTitle{ID: "ventes", Title: "Ventes"},
		}},
	))
	require.NoError(t, err)

	require.Len(t, c.sent, 2)
	assert.Equal(t, "224611", c.sent[0].To)
	assert.Equal(t, "Stock: no lot under 20%", c.sent[0].Body)
	assert.Equal(t, "224613", c.sent[1].To)
	assert.Equal(t, []models.CommandType{models.CommandStock, models.CommandSales}, d.seen)
}

func TestHandleWebhookFallsBackOnCommandError(t *testing.T) {
	c := &recordingClient{}
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{}, c, &fixedDispatcher{err: errors.New("db down")}, nil)

	require.NoError(t, svc.HandleWebhook(context.Background(), payload(
		models.InboundMessage{From: "224611", Text: &models.TextContent{Body: "caisse"}},
	)))
	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0].Body, "could not be answered")
}

func TestHandleWebhookReportsSendFailure(t *testing.T) {
	c := &recordingClient{err: errors.New("timeout")}
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{}, c, nil, nil)

	err := svc.HandleWebhook(context.Background(), payload(
		models.InboundMessage{From: "224611", Text: &models.TextContent{Body: "aide"}},
	))
	require.Error(t, err)
	assert.Equal(t, commands.HelpText, c.sent[0].Body)
}

func TestNotifyManager(t *testing.T) {
	c := &recordingClient{}
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{ManagerID: "224699"}, c, nil, nil)
	require.NoError(t, svc.NotifyManager(context.Background(), "weekly"))
	assert.Equal(t, "224699", c.sent[0].To)

	empty := NewMetaWhatsAppService(config.WhatsAppConfig{}, c, nil, nil)
	assert.ErrorIs(t, empty.NotifyManager(context.Background(), "weekly"), ErrNoRecipient)
}

func TestSendOutbound(t *testing.T) {
	c := &recordingClient{}
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{}, c, nil, nil)
	require.NoError(t, svc.SendOutbound(context.Background(), models.OutboundMessageRequest{To: "1", Message: "hi", PreviewURL: true}))
	assert.True(t, c.sent[0].PreviewURL)
}
