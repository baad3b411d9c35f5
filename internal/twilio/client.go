package twilio

import (
	"context"
	"fmt"
	"strings"

	"github.com/pathakanu/medMemo/internal/notify"
	twilio "github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Client delivers medication notifications as WhatsApp messages.
type Client struct {
	client       *twilio.RestClient
	fromWhatsApp string
	toWhatsApp   string
}

// New creates a Twilio client that sends from fromWhatsApp to toWhatsApp.
func New(accountSID, authToken, fromWhatsApp, toWhatsApp string) *Client {
	c := &Client{
		fromWhatsApp: fromWhatsApp,
		toWhatsApp:   toWhatsApp,
	}
	if accountSID != "" && authToken != "" {
		c.client = twilio.NewRestClientWithParams(twilio.ClientParams{Username: accountSID, Password: authToken})
	}
	return c
}

// Notify sends "title: message" to the configured recipient.
func (c *Client) Notify(_ context.Context, title, message string) error {
	if err := c.SendWhatsAppMessage(c.toWhatsApp, formatBody(title, message)); err != nil {
		return fmt.Errorf("%w: twilio: %v", notify.ErrNotification, err)
	}
	return nil
}

// SendWhatsAppMessage sends a WhatsApp message via Twilio's API.
func (c *Client) SendWhatsAppMessage(to, body string) error {
	if c.client == nil {
		return fmt.Errorf("twilio client not initialised")
	}

	sender := normalizeWhatsAppAddress(c.fromWhatsApp)
	if sender == "" {
		return fmt.Errorf("twilio sender WhatsApp number is not configured")
	}

	recipient := normalizeWhatsAppAddress(to)
	if recipient == "" {
		return fmt.Errorf("recipient number missing or invalid")
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(recipient)
	params.SetFrom(sender)
	params.SetBody(body)

	if _, err := c.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio send message error: %w", err)
	}
	return nil
}

func formatBody(title, message string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return message
	}
	return fmt.Sprintf("%s: %s", title, message)
}

func normalizeWhatsAppAddress(number string) string {
	trimmed := strings.TrimSpace(number)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "whatsapp:") {
		return trimmed
	}
	if strings.HasPrefix(trimmed, "+") {
		return "whatsapp:" + trimmed
	}
	return "whatsapp:+" + trimmed
}
