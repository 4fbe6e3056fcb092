package dto

import (
	"time"
	"unicode/utf8"

	"docent.chat/docent/internal/model"
	"docent.chat/docent/internal/service"
	"docent.chat/docent/internal/session"
)

// previewLimit caps the document preview returned to clients.
const previewLimit = 500

type SessionResponse struct {
	ID           int64             `json:"id,string"`
	State        string            `json:"state"`
	CreatedAt    time.Time         `json:"created_at"`
	MessageCount int               `json:"message_count"`
	Document     *DocumentResponse `json:"document,omitempty"`
}

func ToSessionResponse(s *session.Session) *SessionResponse {
	resp := &SessionResponse{
		ID:           s.ID,
		State:        string(s.State()),
		CreatedAt:    s.CreatedAt,
		MessageCount: s.Log().Len(),
	}
	if doc := s.Document(); doc != nil {
		resp.Document = ToDocumentResponse(doc)
	}
	return resp
}

type MessageResponse struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func toMessageResponse(m model.Message) MessageResponse {
	return MessageResponse{Role: string(m.Role), Content: m.Content}
}

type MessagesResponse struct {
	Messages []MessageResponse `json:"messages"`
}

func ToMessagesResponse(messages []model.Message) *MessagesResponse {
	resp := &MessagesResponse{Messages: make([]MessageResponse, len(messages))}
	for i, m := range messages {
		resp.Messages[i] = toMessageResponse(m)
	}
	return resp
}

type SendMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

type TurnResponse struct {
	User      MessageResponse `json:"user"`
	Assistant MessageResponse `json:"assistant"`
	Failed    bool            `json:"failed"`
}

func ToTurnResponse(t *service.TurnResult) *TurnResponse {
	return &TurnResponse{
		User:      toMessageResponse(t.User),
		Assistant: toMessageResponse(t.Assistant),
		Failed:    t.Failed,
	}
}

type DocumentResponse struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	TextChars int    `json:"text_chars"`
	Preview   string `json:"preview"`
}

func ToDocumentResponse(d *model.DocumentContext) *DocumentResponse {
	return &DocumentResponse{
		Name:      d.Name,
		SizeBytes: d.Size,
		TextChars: utf8.RuneCountInString(d.Text),
		Preview:   d.Preview(previewLimit),
	}
}

type SummaryResponse struct {
	Summary string `json:"summary"`
	Failed  bool   `json:"failed"`
}

func ToSummaryResponse(r *service.SummaryResult) *SummaryResponse {
	return &SummaryResponse{Summary: r.Summary, Failed: r.Failed}
}
