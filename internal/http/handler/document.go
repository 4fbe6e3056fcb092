package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"docent.chat/docent/internal/http/dto"
	"docent.chat/docent/internal/ingest"
	"docent.chat/docent/internal/service"
	"docent.chat/docent/internal/session"
)

type DocumentHandler struct {
	chatService service.ChatService
	maxBytes    int64
}

func NewDocumentHandler(chatService service.ChatService, maxBytes int64) *DocumentHandler {
	return &DocumentHandler{
		chatService: chatService,
		maxBytes:    maxBytes,
	}
}

// Upload attaches a document to the session, replacing any previous one.
// The file arrives as the multipart form field "file".
func (h *DocumentHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: file is required"})
		return
	}

	if h.maxBytes > 0 && fileHeader.Size > h.maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("file exceeds the %d byte upload limit", h.maxBytes),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		slog.ErrorContext(ctx, "failed to open upload", "error", err, "session_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.ErrorContext(ctx, "failed to read upload", "error", err, "session_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")

	doc, err := h.chatService.AttachDocument(ctx, id, fileHeader.Filename, contentType, data)
	if err != nil {
		var extractionErr *ingest.ExtractionError
		switch {
		case errors.Is(err, session.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		case errors.Is(err, ingest.ErrUnsupportedFormat):
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "Unsupported file type. Please upload a TXT or PDF file."})
		case errors.As(err, &extractionErr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": fmt.Sprintf("Error reading PDF: %s", extractionErr)})
		default:
			slog.ErrorContext(ctx, "failed to attach document", "error", err, "session_id", id)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to attach document"})
		}
		return
	}

	c.JSON(http.StatusCreated, dto.ToDocumentResponse(doc))
}

func (h *DocumentHandler) Get(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	doc, err := h.chatService.Document(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		case errors.Is(err, service.ErrNoDocument):
			c.JSON(http.StatusNotFound, gin.H{"error": "no document attached"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get document"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToDocumentResponse(doc))
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	if err := h.chatService.RemoveDocument(c.Request.Context(), id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove document"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Summarize asks the model for a summary of the attached document. The
// summary renders outside the conversation.
func (h *DocumentHandler) Summarize(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	result, err := h.chatService.Summarize(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		case errors.Is(err, service.ErrNoDocument):
			c.JSON(http.StatusNotFound, gin.H{"error": "no document attached"})
		default:
			slog.ErrorContext(ctx, "failed to summarize document", "error", err, "session_id", id)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to summarize document"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToSummaryResponse(result))
}
