package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docent.chat/docent/internal/http/dto"
	"docent.chat/docent/internal/service"
	"docent.chat/docent/internal/session"
)

type SessionHandler struct {
	chatService service.ChatService
}

func NewSessionHandler(chatService service.ChatService) *SessionHandler {
	return &SessionHandler{chatService: chatService}
}

func parseSessionID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return 0, false
	}
	return id, true
}

func (h *SessionHandler) Create(c *gin.Context) {
	sess := h.chatService.StartSession(c.Request.Context())
	c.JSON(http.StatusCreated, dto.ToSessionResponse(sess))
}

func (h *SessionHandler) Get(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	sess, err := h.chatService.Session(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get session"})
		return
	}

	c.JSON(http.StatusOK, dto.ToSessionResponse(sess))
}

func (h *SessionHandler) Delete(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	if err := h.chatService.EndSession(c.Request.Context(), id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to end session"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) ListMessages(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	messages, err := h.chatService.Messages(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list messages"})
		return
	}

	c.JSON(http.StatusOK, dto.ToMessagesResponse(messages))
}

func (h *SessionHandler) SendMessage(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: message is required"})
		return
	}

	result, err := h.chatService.Send(ctx, id, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		case errors.Is(err, service.ErrEmptyMessage):
			c.JSON(http.StatusBadRequest, gin.H{"error": "message is empty"})
		default:
			slog.ErrorContext(ctx, "failed to process message", "error", err, "session_id", id)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process message"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToTurnResponse(result))
}

func (h *SessionHandler) ClearMessages(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	if err := h.chatService.ClearHistory(c.Request.Context(), id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear messages"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Transcript serializes the conversation as a plain-text download.
func (h *SessionHandler) Transcript(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	transcript, err := h.chatService.Transcript(ctx, id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to render transcript", "error", err, "session_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render transcript"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="chat_history.txt"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(transcript))
}
