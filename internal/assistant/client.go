package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// persona is the fixed system instruction for the community chat assistant.
const persona = "You are Hubble, the friendly assistant of a student community " +
	"platform. Help students find workshops, announcements and awards. Keep " +
	"answers short and encouraging."

// Turn is one message of a chat conversation.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Client calls the generative-text service. Both operations are best-effort:
// any transport or decode failure yields a canned fallback string, never an
// error to the caller.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client. With skip enabled the client returns deterministic
// stub replies without touching the network (dev/test mode).
func New(baseURL, apiKey string, skip bool) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Skip:    skip,
		HTTP: &http.Client{
			Timeout: 30 * time.Second, // generation can take a while
		},
	}
}

// Describe returns a short promotional description for a workshop or
// announcement given its title and organization.
func (c *Client) Describe(ctx context.Context, title, org string) string {
	fallback := fmt.Sprintf("Join us for %s, brought to you by %s. Seats are limited — sign up now!", title, org)
	if c.Skip {
		return fallback
	}

	prompt := fmt.Sprintf("Write a two-sentence promotional description for a student event titled %q hosted by the %s organization.", title, org)
	text, err := c.complete(ctx, persona, []Turn{{Role: "user", Content: prompt}})
	if err != nil {
		log.Printf("assistant describe failed: %v", err)
		return fallback
	}
	return text
}

// Reply returns the assistant's answer to a new message given the prior
// conversation history.
func (c *Client) Reply(ctx context.Context, history []Turn, message string) string {
	const fallback = "Sorry, I'm having trouble answering right now. Please try again in a moment."
	if c.Skip {
		return "Hi! I'm Hubble. Ask me about workshops, announcements or your awards."
	}

	turns := make([]Turn, 0, len(history)+1)
	turns = append(turns, history...)
	turns = append(turns, Turn{Role: "user", Content: message})

	text, err := c.complete(ctx, persona, turns)
	if err != nil {
		log.Printf("assistant reply failed: %v", err)
		return fallback
	}
	return text
}

func (c *Client) complete(ctx context.Context, system string, turns []Turn) (string, error) {
	body, _ := json.Marshal(map[string]any{
		"system":   system,
		"messages": turns,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/complete", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("assistant service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("assistant service error %s", resp.Status)
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if out.Text == "" {
		return "", fmt.Errorf("empty completion")
	}
	return out.Text, nil
}
