package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"wellmind/internal/service/chat"
	"wellmind/internal/service/llm"
)

// ChatHandlers exposes the chat service over HTTP
type ChatHandlers struct {
	chat *chat.Service
}

// NewChatHandlers creates the chat handler set
func NewChatHandlers(chatService *chat.Service) *ChatHandlers {
	return &ChatHandlers{chat: chatService}
}

type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// ChatResponse always carries the reply appended to the conversation, even
// on failure: the fallback reply renders in place while the error is shown
// separately.
type ChatResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
	Fallback       bool   `json:"fallback,omitempty"`
	Error          string `json:"error,omitempty"`
}

type RateLimitResponse struct {
	Remaining int    `json:"remaining"`
	Message   string `json:"message"`
}

type MessageData struct {
	Content        string    `json:"content"`
	IsFromUser     bool      `json:"is_from_user"`
	Timestamp      time.Time `json:"timestamp"`
	ConversationID string    `json:"conversation_id"`
}

type MessagesResponse struct {
	Messages []MessageData `json:"messages"`
}

// Chat sends a message and returns the assistant reply
func (h *ChatHandlers) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.Message == "" {
		sendError(w, http.StatusBadRequest, "Message is required", nil)
		return
	}

	result, err := h.chat.SendMessage(r.Context(), req.ConversationID, req.Message)
	if err != nil {
		sendJSON(w, gatewayStatus(err), ChatResponse{
			Response:       result.Reply,
			ConversationID: result.ConversationID,
			Fallback:       true,
			Error:          err.Error(),
		})
		return
	}

	sendJSON(w, http.StatusOK, ChatResponse{
		Response:       result.Reply,
		ConversationID: result.ConversationID,
	})
}

// RateLimit reports the current AI call quota
func (h *ChatHandlers) RateLimit(w http.ResponseWriter, r *http.Request) {
	remaining, message := h.chat.RateLimitStatus()
	sendJSON(w, http.StatusOK, RateLimitResponse{
		Remaining: remaining,
		Message:   message,
	})
}

// Messages lists the history of one conversation
func (h *ChatHandlers) Messages(w http.ResponseWriter, r *http.Request) {
	conversationID := r.PathValue("id")
	if conversationID == "" {
		sendError(w, http.StatusBadRequest, "Conversation id is required", nil)
		return
	}

	history := h.chat.Messages(conversationID)
	messages := make([]MessageData, 0, len(history))
	for _, m := range history {
		messages = append(messages, MessageData{
			Content:        m.Content,
			IsFromUser:     m.IsFromUser,
			Timestamp:      m.Timestamp,
			ConversationID: m.ConversationID,
		})
	}

	sendJSON(w, http.StatusOK, MessagesResponse{Messages: messages})
}

func gatewayStatus(err error) int {
	var rateLimitErr *llm.RateLimitError
	switch {
	case errors.As(err, &rateLimitErr):
		return http.StatusTooManyRequests
	case errors.Is(err, llm.ErrNoCredentials), errors.Is(err, llm.ErrInvalidURL):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
