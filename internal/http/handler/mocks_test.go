package handler_test

import (
	"context"

	"docent.chat/docent/internal/model"
	"docent.chat/docent/internal/service"
	"docent.chat/docent/internal/session"
)

type mockChatService struct {
	startSessionFn   func(ctx context.Context) *session.Session
	sessionFn        func(ctx context.Context, sessionID int64) (*session.Session, error)
	endSessionFn     func(ctx context.Context, sessionID int64) error
	messagesFn       func(ctx context.Context, sessionID int64) ([]model.Message, error)
	sendFn           func(ctx context.Context, sessionID int64, utterance string) (*service.TurnResult, error)
	clearHistoryFn   func(ctx context.Context, sessionID int64) error
	transcriptFn     func(ctx context.Context, sessionID int64) (string, error)
	attachDocumentFn func(ctx context.Context, sessionID int64, name, contentType string, data []byte) (*model.DocumentContext, error)
	documentFn       func(ctx context.Context, sessionID int64) (*model.DocumentContext, error)
	removeDocumentFn func(ctx context.Context, sessionID int64) error
	summarizeFn      func(ctx context.Context, sessionID int64) (*service.SummaryResult, error)
}

func (m *mockChatService) StartSession(ctx context.Context) *session.Session {
	if m.startSessionFn != nil {
		return m.startSessionFn(ctx)
	}
	return session.New(1)
}

func (m *mockChatService) Session(ctx context.Context, sessionID int64) (*session.Session, error) {
	if m.sessionFn != nil {
		return m.sessionFn(ctx, sessionID)
	}
	return session.New(sessionID), nil
}

func (m *mockChatService) EndSession(ctx context.Context, sessionID int64) error {
	if m.endSessionFn != nil {
		return m.endSessionFn(ctx, sessionID)
	}
	return nil
}

func (m *mockChatService) Messages(ctx context.Context, sessionID int64) ([]model.Message, error) {
	if m.messagesFn != nil {
		return m.messagesFn(ctx, sessionID)
	}
	return nil, nil
}

func (m *mockChatService) Send(ctx context.Context, sessionID int64, utterance string) (*service.TurnResult, error) {
	if m.sendFn != nil {
		return m.sendFn(ctx, sessionID, utterance)
	}
	return &service.TurnResult{}, nil
}

func (m *mockChatService) ClearHistory(ctx context.Context, sessionID int64) error {
	if m.clearHistoryFn != nil {
		return m.clearHistoryFn(ctx, sessionID)
	}
	return nil
}

func (m *mockChatService) Transcript(ctx context.Context, sessionID int64) (string, error) {
	if m.transcriptFn != nil {
		return m.transcriptFn(ctx, sessionID)
	}
	return "", nil
}

func (m *mockChatService) AttachDocument(ctx context.Context, sessionID int64, name, contentType string, data []byte) (*model.DocumentContext, error) {
	if m.attachDocumentFn != nil {
		return m.attachDocumentFn(ctx, sessionID, name, contentType, data)
	}
	return nil, nil
}

func (m *mockChatService) Document(ctx context.Context, sessionID int64) (*model.DocumentContext, error) {
	if m.documentFn != nil {
		return m.documentFn(ctx, sessionID)
	}
	return nil, nil
}

func (m *mockChatService) RemoveDocument(ctx context.Context, sessionID int64) error {
	if m.removeDocumentFn != nil {
		return m.removeDocumentFn(ctx, sessionID)
	}
	return nil
}

func (m *mockChatService) Summarize(ctx context.Context, sessionID int64) (*service.SummaryResult, error) {
	if m.summarizeFn != nil {
		return m.summarizeFn(ctx, sessionID)
	}
	return &service.SummaryResult{}, nil
}
