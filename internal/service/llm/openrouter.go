package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"wellmind/internal/config"
	"wellmind/internal/logger"
	"wellmind/internal/ratelimit"

	"github.com/sirupsen/logrus"
)

// historyWindow is how many trailing conversation messages are sent for
// context on each call.
const historyWindow = 6

// safetyDirective is the fixed system message prepended to every request.
// It is always first and is never drawn from history.
const safetyDirective = `You are a compassionate AI therapist assistant. IMPORTANT SAFETY GUIDELINES:

CRISIS SITUATIONS: If someone mentions suicide, self-harm, or emergency situations, immediately respond with:
"I'm concerned about what you're sharing. Please reach out for immediate help: Call 988 (Suicide & Crisis Lifeline) or 911 for emergencies. You deserve support from qualified professionals who can help you through this."

YOUR ROLE:
- Listen empathetically and provide supportive responses
- Ask thoughtful follow-up questions to help users explore their feelings
- Offer gentle guidance and evidence-based coping strategies
- Maintain professional boundaries while being warm and understanding
- NEVER provide medical diagnoses, prescribe medications, or replace professional therapy
- Keep responses concise but meaningful (2-3 sentences typically)
- Always encourage users to seek professional help for ongoing mental health concerns
- Remind users that you are an AI assistant, not a licensed therapist

Remember: You are a supportive tool, not a replacement for professional mental healthcare.`

// ConversationMessage is one turn of a conversation, passed read-only into
// the gateway for context construction. The gateway does not own or persist
// messages.
type ConversationMessage struct {
	Content        string    `json:"content"`
	IsFromUser     bool      `json:"is_from_user"`
	Timestamp      time.Time `json:"timestamp"`
	ConversationID string    `json:"conversation_id"`
}

// Message is a role-tagged message on the completion wire format
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the completion endpoint request body
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// ResponseUsage reports token accounting when the endpoint includes it
type ResponseUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse is the completion endpoint response body
type ChatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage *ResponseUsage `json:"usage,omitempty"`
}

// Gateway is the AI completion contract consumed by the chat service
type Gateway interface {
	FetchResponse(ctx context.Context, prompt string, history []ConversationMessage) (string, error)
}

// Ensure Client implements the Gateway interface
var _ Gateway = (*Client)(nil)

// Client calls the OpenRouter chat-completions endpoint, gated by the rate
// limiter and classifying every failure mode.
type Client struct {
	cfg        *config.LLMConfig
	limiter    *ratelimit.Limiter
	httpClient *http.Client
}

// NewClient creates a gateway client with the given configuration
func NewClient(cfg *config.LLMConfig, limiter *ratelimit.Limiter) *Client {
	return &Client{
		cfg:     cfg,
		limiter: limiter,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchResponse sends the prompt with bounded conversational context and
// returns the assistant's reply. Quota is consumed only after a response is
// received and accepted, so an abandoned or failed call never counts.
func (c *Client) FetchResponse(ctx context.Context, prompt string, history []ConversationMessage) (string, error) {
	if !c.limiter.CanMakeCall() {
		return "", &RateLimitError{Message: c.limiter.StatusMessage()}
	}

	if c.cfg.APIKey == "" || c.cfg.Referer == "" {
		return "", ErrNoCredentials
	}

	messages := buildMessages(prompt, history)

	reqBody := ChatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", &DecodingError{Err: err}
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", ErrInvalidURL
	}

	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", c.cfg.Referer)

	logger.Log.WithFields(logrus.Fields{
		"model":         c.cfg.Model,
		"message_count": len(messages),
	}).Info("Calling OpenRouter API")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", &DecodingError{Err: err}
	}

	if len(chatResp.Choices) == 0 {
		return "", ErrInvalidResponse
	}

	content := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	c.limiter.RecordCall()

	logger.Log.WithField("content_length", len(content)).Debug("Extracted content from response")
	return content, nil
}

// buildMessages assembles the outgoing list: the safety directive first,
// then the most recent history in chronological order, then the new prompt.
func buildMessages(prompt string, history []ConversationMessage) []Message {
	messages := make([]Message, 0, historyWindow+2)
	messages = append(messages, Message{Role: "system", Content: safetyDirective})

	recent := history
	if len(recent) > historyWindow {
		recent = recent[len(recent)-historyWindow:]
	}
	for _, m := range recent {
		role := "assistant"
		if m.IsFromUser {
			role = "user"
		}
		messages = append(messages, Message{Role: role, Content: m.Content})
	}

	messages = append(messages, Message{Role: "user", Content: prompt})
	return messages
}
