// Package generate talks to the external schedule generator. The endpoint
// is an opaque collaborator: it takes the user's free-text description of
// their day and returns a markdown schedule, or fails. Network, auth and
// quota failures are indistinguishable to the rest of the system; callers
// surface one generic message and leave prior state untouched.
package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"dayflow/internal/config"
	appLog "dayflow/internal/log"
)

// ErrGeneration is the single failure the rest of the system sees.
var ErrGeneration = errors.New("schedule generation failed")

// Generator produces a markdown schedule from a free-text prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// systemPrompt shapes the model output into the block grammar the parser
// expects: bold time-range-and-title lines followed by task bullets.
const systemPrompt = `You are a daily planning assistant. Given a description of someone's day, produce a realistic schedule as markdown. Format every block exactly as:

**<start time> - <end time>: <title>**
* <task>
* <task>

Times use the form H:MM AM/PM. Order blocks chronologically. Output only the schedule.`

// Client posts prompts to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	cfg    config.GenerationConfig
	client *http.Client
}

// NewClient builds a client honoring the configured request timeout.
func NewClient(cfg config.GenerationConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends one prompt and returns the raw markdown text. Any
// failure collapses into ErrGeneration; the underlying cause is logged
// but not propagated to the user.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	appLog.Info("generation request start", "model", c.cfg.Model)

	resp, err := c.client.Do(req)
	if err != nil {
		appLog.Error("generation request failed", err, "model", c.cfg.Model)
		return "", ErrGeneration
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		appLog.Error("generation response read failed", err)
		return "", ErrGeneration
	}

	if resp.StatusCode != http.StatusOK {
		appLog.Error("generation non-OK status", errors.New(resp.Status), "status", resp.StatusCode)
		return "", ErrGeneration
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		appLog.Error("generation response decode failed", err)
		return "", ErrGeneration
	}
	if parsed.Error != nil {
		appLog.Error("generation endpoint error", errors.New(parsed.Error.Message))
		return "", ErrGeneration
	}
	if len(parsed.Choices) == 0 {
		appLog.Error("generation returned no choices", errors.New("empty choices"))
		return "", ErrGeneration
	}

	appLog.Info("generation request success", "model", c.cfg.Model, "bytes", len(parsed.Choices[0].Message.Content))
	return parsed.Choices[0].Message.Content, nil
}
