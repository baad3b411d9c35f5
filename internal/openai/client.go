package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// fallbackLimit is the number of characters kept when no model is available.
const fallbackLimit = 80

// Client wraps the OpenAI SDK and provides utility helpers.
type Client struct {
	client *openai.Client
	model  openai.ChatModel
}

// New returns a client. Without an apiKey the client only performs the local
// truncation fallback.
func New(apiKey string) *Client {
	if apiKey == "" {
		return &Client{}
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Client{
		client: &client,
		model:  openai.ChatModelGPT4oMini,
	}
}

// Enabled reports whether the client talks to the API.
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// SummarizeNotes condenses medication notes into one short sentence suitable
// for a notification body.
func (c *Client) SummarizeNotes(ctx context.Context, notes string) (string, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return "", fmt.Errorf("notes cannot be empty")
	}
	if !c.Enabled() {
		return truncate(notes, fallbackLimit), nil
	}

	req := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String("You shorten medication notes into one short instruction for a reminder notification. Never add medical advice."),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(fmt.Sprintf("Shorten these notes to one sentence: %s", notes)),
					},
				},
			},
		},
		Temperature:         openai.Float(0.2),
		MaxCompletionTokens: openai.Int(40),
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion received")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
