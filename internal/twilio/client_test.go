package twilio

import (
	"context"
	"errors"
	"testing"

	"github.com/pathakanu/medMemo/internal/notify"
)

func TestNormalizeWhatsAppAddress(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":                      "",
		"   ":                   "",
		"+15551234567":          "whatsapp:+15551234567",
		"15551234567":           "whatsapp:+15551234567",
		" whatsapp:+4470000000": "whatsapp:+4470000000",
	}
	for input, want := range cases {
		if got := normalizeWhatsAppAddress(input); got != want {
			t.Fatalf("normalizeWhatsAppAddress(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFormatBody(t *testing.T) {
	t.Parallel()
	if got := formatBody("Upcoming medication", "Aspirin in 10 minutes"); got != "Upcoming medication: Aspirin in 10 minutes" {
		t.Fatalf("unexpected body %q", got)
	}
	if got := formatBody(" ", "plain"); got != "plain" {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestNotifyWithoutCredentials(t *testing.T) {
	t.Parallel()
	c := New("", "", "+15550000000", "+15551111111")

	err := c.Notify(context.Background(), "Time to take medication", "Aspirin")
	if !errors.Is(err, notify.ErrNotification) {
		t.Fatalf("expected ErrNotification, got %v", err)
	}
}
