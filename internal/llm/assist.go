package llm

import (
	"context"
	"fmt"
	"strings"
)

const followupPrompt = `Draft a short sales follow-up message (4-6 sentences) from an account manager.

Context:
- Client: %q
- Risk reason: %q
- Client's last message: %q

Requirements: polite and to the point, no filler; offer 2-3 call slots; end with a clear call to action. Return only the message text.`

// DraftFollowup asks the model for a short follow-up message tailored to
// the risk reason. Single attempt semantics of Complete apply.
func (c *Client) DraftFollowup(ctx context.Context, clientName, reason, lastMessage string) (string, error) {
	prompt := fmt.Sprintf(followupPrompt, clientName, reason, lastMessage)
	text, err := c.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("draft followup: %w", err)
	}
	return strings.TrimSpace(text), nil
}

const tonePrompt = `Classify the TONE of this customer message as one word:
positive | neutral | negative

Message: %q
Reply with exactly one word, no commentary.`

// ClassifyTone labels a message as positive, neutral or negative.
// Anything the model returns outside those labels maps to neutral.
func (c *Client) ClassifyTone(ctx context.Context, text string) (string, error) {
	raw, err := c.Complete(ctx, fmt.Sprintf(tonePrompt, text))
	if err != nil {
		return "", fmt.Errorf("classify tone: %w", err)
	}
	content := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(content, "positive"):
		return "positive", nil
	case strings.Contains(content, "negative"):
		return "negative", nil
	default:
		return "neutral", nil
	}
}
