package chat

import (
	"context"
	"sync"
	"time"

	"wellmind/internal/logger"
	"wellmind/internal/ratelimit"
	"wellmind/internal/service/llm"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// fallbackReply is appended to the conversation whenever the gateway fails,
// so the conversation never silently stalls. The underlying error is still
// surfaced separately.
const fallbackReply = "I'm having trouble connecting right now. Please try again in a moment."

// Service owns per-conversation message history and drives the AI gateway
type Service struct {
	mu            sync.Mutex
	gateway       llm.Gateway
	limiter       *ratelimit.Limiter
	conversations map[string][]llm.ConversationMessage
	now           func() time.Time
}

// NewService creates a chat service over the given gateway and limiter
func NewService(gateway llm.Gateway, limiter *ratelimit.Limiter) *Service {
	return &Service{
		gateway:       gateway,
		limiter:       limiter,
		conversations: make(map[string][]llm.ConversationMessage),
		now:           time.Now,
	}
}

// SendMessageResult is the outcome of sending one message
type SendMessageResult struct {
	Reply          string
	ConversationID string
	Fallback       bool
}

// SendMessage appends the user message, asks the gateway for a reply and
// appends it. On any gateway failure a fixed fallback assistant message is
// appended instead and the classified error is returned alongside it.
func (s *Service) SendMessage(ctx context.Context, conversationID, text string) (*SendMessageResult, error) {
	if conversationID == "" {
		conversationID = uuid.New().String()
	}

	s.mu.Lock()
	history := append([]llm.ConversationMessage(nil), s.conversations[conversationID]...)
	s.conversations[conversationID] = append(s.conversations[conversationID], llm.ConversationMessage{
		Content:        text,
		IsFromUser:     true,
		Timestamp:      s.now(),
		ConversationID: conversationID,
	})
	s.mu.Unlock()

	reply, err := s.gateway.FetchResponse(ctx, text, history)
	if err != nil {
		logger.Log.WithError(err).WithFields(logrus.Fields{
			"conversation_id": conversationID,
		}).Warn("AI gateway call failed, appending fallback reply")
		s.appendAssistant(conversationID, fallbackReply)
		return &SendMessageResult{
			Reply:          fallbackReply,
			ConversationID: conversationID,
			Fallback:       true,
		}, err
	}

	s.appendAssistant(conversationID, reply)
	return &SendMessageResult{
		Reply:          reply,
		ConversationID: conversationID,
	}, nil
}

// Messages returns a copy of the conversation history
func (s *Service) Messages(conversationID string) []llm.ConversationMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]llm.ConversationMessage(nil), s.conversations[conversationID]...)
}

// RateLimitStatus reports the remaining quota and a display message
func (s *Service) RateLimitStatus() (int, string) {
	return s.limiter.RemainingCalls(), s.limiter.StatusMessage()
}

func (s *Service) appendAssistant(conversationID, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations[conversationID] = append(s.conversations[conversationID], llm.ConversationMessage{
		Content:        content,
		IsFromUser:     false,
		Timestamp:      s.now(),
		ConversationID: conversationID,
	})
}
