package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MuthuAjay/contracts-v3/model"
)

const (
	welcomeMessage = "Hello! I'm your contract assistant. How can I help you today?"
	fallbackReply  = "I apologize, but I couldn't process that properly."
	errorReply     = "Sorry, there was an error processing your message. Please try again."
	customAnalysis = "Custom Analysis"
)

// RetryPolicy describes the linear backoff applied to failed chat requests.
// Attempt n waits n times the base delay before retrying.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// Delay returns the wait before retry attempt n (1-based)
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return time.Duration(attempt) * p.BaseDelay
}

// ChatService runs the conversational analysis flow. The transcript lives in
// the session store under chatMessages; the selected contract under
// chat_contract_id. Chat responses are custom_analysis results and share the
// registry's bookkeeping, but the transcript itself never touches the
// per-type snapshot keys.
type ChatService struct {
	sessions *SessionStore
	gateway  *AnalyzerGateway
	registry *Registry
	retry    RetryPolicy

	// sleep is swapped out in tests
	sleep func(time.Duration)
}

func NewChatService(sessions *SessionStore, gateway *AnalyzerGateway, registry *Registry, retry RetryPolicy) *ChatService {
	return &ChatService{
		sessions: sessions,
		gateway:  gateway,
		registry: registry,
		retry:    retry,
		sleep:    time.Sleep,
	}
}

// Messages returns the stored transcript, seeding the welcome message for a
// fresh session.
func (c *ChatService) Messages(ctx context.Context, user string) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	ok, err := c.sessions.Get(ctx, user, KeyChatMessages, &messages)
	if err != nil {
		return nil, err
	}
	if !ok || len(messages) == 0 {
		messages = []model.ChatMessage{c.welcome()}
		if err := c.sessions.Set(ctx, user, KeyChatMessages, messages); err != nil {
			return nil, err
		}
	}
	return messages, nil
}

func (c *ChatService) welcome() model.ChatMessage {
	return model.ChatMessage{
		ID:        uuid.New().String(),
		Content:   welcomeMessage,
		IsBot:     true,
		Timestamp: time.Now(),
		Status:    model.ChatStatusSent,
	}
}

// SelectContract binds the chat to a contract. Switching to a different
// contract resets the transcript so answers never mix documents.
func (c *ChatService) SelectContract(ctx context.Context, user, fileName string) error {
	doc, err := c.registry.Get(ctx, user, fileName)
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("contract %q: %w", fileName, ErrContractNotFound)
	}

	var current string
	ok, err := c.sessions.Get(ctx, user, KeyChatContractID, &current)
	if err != nil {
		return err
	}
	if ok && current == fileName {
		return nil
	}

	if err := c.sessions.Set(ctx, user, KeyChatContractID, fileName); err != nil {
		return err
	}
	return c.sessions.Set(ctx, user, KeyChatMessages, []model.ChatMessage{c.welcome()})
}

// Send appends the user's message to the transcript, queries the analyzer
// with linear-backoff retries, and appends the bot's reply. The user
// message's status moves sending -> sent on any analyzer response and
// sending -> error only when every retry is exhausted. The transcript is
// persisted after each state change so a crash never loses the user's text.
func (c *ChatService) Send(ctx context.Context, user, content string) ([]model.ChatMessage, error) {
	messages, err := c.Messages(ctx, user)
	if err != nil {
		return nil, err
	}

	userMsg := model.ChatMessage{
		ID:        uuid.New().String(),
		Content:   content,
		IsBot:     false,
		Timestamp: time.Now(),
		Status:    model.ChatStatusSending,
	}
	messages = append(messages, userMsg)
	if err := c.sessions.Set(ctx, user, KeyChatMessages, messages); err != nil {
		return nil, err
	}

	payload, fileName, err := c.analysisPayload(ctx, user)
	if err != nil {
		return nil, err
	}

	result, sendErr := c.askWithRetry(ctx, payload, content)

	idx := len(messages) - 1
	if sendErr != nil {
		messages[idx].Status = model.ChatStatusError
		messages = append(messages, model.ChatMessage{
			ID:        uuid.New().String(),
			Content:   errorReply,
			IsBot:     true,
			Timestamp: time.Now(),
			Status:    model.ChatStatusSent,
		})
		if err := c.sessions.Set(ctx, user, KeyChatMessages, messages); err != nil {
			return nil, err
		}
		return messages, nil
	}

	messages[idx].Status = model.ChatStatusSent
	messages = append(messages, model.ChatMessage{
		ID:        uuid.New().String(),
		Content:   replyContent(result),
		IsBot:     true,
		Timestamp: time.Now(),
		Status:    model.ChatStatusSent,
	})
	if err := c.sessions.Set(ctx, user, KeyChatMessages, messages); err != nil {
		return nil, err
	}

	// Successful chat answers enter the document's analysis history like any
	// other run, exactly once
	if fileName != "" {
		if err := c.registry.RecordAnalysis(ctx, user, fileName, model.TypeCustomAnalysis, result); err != nil {
			slog.Warn("failed to record chat analysis", "file_name", fileName, "error", err)
		}
	}

	return messages, nil
}

// analysisPayload builds the analyzer request context from the shared
// extraction info when a contract is selected, or a bare payload otherwise.
// Returns the bound file name, empty when chatting without a contract.
func (c *ChatService) analysisPayload(ctx context.Context, user string) (map[string]any, string, error) {
	var fileName string
	if _, err := c.sessions.Get(ctx, user, KeyChatContractID, &fileName); err != nil {
		return nil, "", err
	}

	var info map[string]any
	ok, err := c.sessions.Get(ctx, user, KeyExtractionInfo, &info)
	if err != nil {
		return nil, "", err
	}
	if ok && fileName != "" && info["fileName"] == fileName {
		return info, fileName, nil
	}
	return map[string]any{}, fileName, nil
}

// askWithRetry performs the initial attempt plus up to MaxRetries retries
// with linearly growing delays.
func (c *ChatService) askWithRetry(ctx context.Context, payload map[string]any, query string) (any, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			slog.Info("retrying chat request", "attempt", attempt, "max_retries", c.retry.MaxRetries)
			c.sleep(c.retry.Delay(attempt))
		}

		result, err := c.gateway.Analyze(ctx, payload, model.TypeCustomAnalysis, query)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("chat request failed after %d retries: %w", c.retry.MaxRetries, lastErr)
}

// replyContent extracts the bot's text from a custom analysis result
func replyContent(result any) string {
	switch v := result.(type) {
	case string:
		if v != "" {
			return v
		}
	case map[string]any:
		if text, ok := v[customAnalysis].(string); ok && text != "" {
			return text
		}
	}
	return fallbackReply
}

// Clear resets the transcript to the welcome message
func (c *ChatService) Clear(ctx context.Context, user string) ([]model.ChatMessage, error) {
	messages := []model.ChatMessage{c.welcome()}
	if err := c.sessions.Set(ctx, user, KeyChatMessages, messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// Leave releases the contract binding when the conversation never recorded a
// result on the bound document, so a stale selection doesn't leak into the
// next visit. Recorded means the registry bookkeeping actually ran: the
// document carries a custom_analysis result, either current or archived.
// Transcript contents don't count; an error reply is not a result.
func (c *ChatService) Leave(ctx context.Context, user string) error {
	var fileName string
	ok, err := c.sessions.Get(ctx, user, KeyChatContractID, &fileName)
	if err != nil {
		return err
	}
	if !ok || fileName == "" {
		return nil
	}

	doc, err := c.registry.Get(ctx, user, fileName)
	if err != nil {
		return err
	}
	if doc != nil {
		if doc.Type == string(model.TypeCustomAnalysis) {
			return nil
		}
		for _, rec := range doc.AnalysisHistory {
			if rec.Type == string(model.TypeCustomAnalysis) {
				return nil
			}
		}
	}

	return c.sessions.Remove(ctx, user, KeyChatContractID)
}
