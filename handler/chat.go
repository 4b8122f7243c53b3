package handler

import (
	"net/http"

	"github.com/MuthuAjay/contracts-v3/middleware"
	"github.com/MuthuAjay/contracts-v3/model"
	"github.com/MuthuAjay/contracts-v3/pkg/markdown"
	"github.com/MuthuAjay/contracts-v3/service"
	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type chatMessageView struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	HTML      string `json:"html"`
	IsBot     bool   `json:"isBot"`
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
}

// Messages returns the transcript, rendering bot messages to HTML
func (h *ChatHandler) Messages(c *gin.Context) {
	user := middleware.GetUsername(c)

	messages, err := h.chat.Messages(c.Request.Context(), user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": renderMessages(messages)})
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// Send posts a user message and returns the updated transcript. Analyzer
// failures surface as an error bot message with status 200; the send itself
// succeeded.
func (h *ChatHandler) Send(c *gin.Context) {
	user := middleware.GetUsername(c)

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	messages, err := h.chat.Send(c.Request.Context(), user, req.Content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": renderMessages(messages)})
}

// Clear resets the transcript
func (h *ChatHandler) Clear(c *gin.Context) {
	user := middleware.GetUsername(c)

	messages, err := h.chat.Clear(c.Request.Context(), user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": renderMessages(messages)})
}

type SelectContractRequest struct {
	FileName string `json:"fileName" binding:"required"`
}

// SelectContract binds the conversation to a contract
func (h *ChatHandler) SelectContract(c *gin.Context) {
	user := middleware.GetUsername(c)

	var req SelectContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.chat.SelectContract(c.Request.Context(), user, req.FileName); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"fileName": req.FileName})
}

// Leave releases the contract binding for idle conversations
func (h *ChatHandler) Leave(c *gin.Context) {
	user := middleware.GetUsername(c)

	if err := h.chat.Leave(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to leave chat"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func renderMessages(messages []model.ChatMessage) []chatMessageView {
	views := make([]chatMessageView, len(messages))
	for i, m := range messages {
		views[i] = chatMessageView{
			ID:        m.ID,
			Content:   m.Content,
			IsBot:     m.IsBot,
			Timestamp: m.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
			Status:    m.Status,
		}
		if m.IsBot {
			views[i].HTML = markdown.Render(m.Content)
		}
	}
	return views
}
