package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"docent.chat/docent/common/logger"
	"docent.chat/docent/internal/guard"
	"docent.chat/docent/internal/ingest"
	"docent.chat/docent/internal/llm"
	"docent.chat/docent/internal/model"
	"docent.chat/docent/internal/prompt"
	"docent.chat/docent/internal/session"
)

// Greeting opens every conversation the first time it is rendered, and
// again after a history clear.
const Greeting = "Hello! I'm here to help. Feel free to ask me anything or upload a file for analysis."

// ErrEmptyMessage is returned when a submitted utterance is empty or
// whitespace-only. Nothing is appended to the conversation.
var ErrEmptyMessage = errors.New("message is empty")

// ErrNoDocument is returned by document operations when the session has no
// document attached.
var ErrNoDocument = errors.New("no document attached")

// TurnResult is the outcome of one chat turn. Failed marks an assistant
// message that carries an error notice instead of model output; the notice
// is appended to the conversation like any other reply.
type TurnResult struct {
	User      model.Message
	Assistant model.Message
	Failed    bool
}

// SummaryResult is the outcome of a document summarization, which renders
// outside the conversation log.
type SummaryResult struct {
	Summary string
	Failed  bool
}

type ChatService interface {
	StartSession(ctx context.Context) *session.Session
	Session(ctx context.Context, sessionID int64) (*session.Session, error)
	EndSession(ctx context.Context, sessionID int64) error

	Messages(ctx context.Context, sessionID int64) ([]model.Message, error)
	Send(ctx context.Context, sessionID int64, utterance string) (*TurnResult, error)
	ClearHistory(ctx context.Context, sessionID int64) error
	Transcript(ctx context.Context, sessionID int64) (string, error)

	AttachDocument(ctx context.Context, sessionID int64, name, contentType string, data []byte) (*model.DocumentContext, error)
	Document(ctx context.Context, sessionID int64) (*model.DocumentContext, error)
	RemoveDocument(ctx context.Context, sessionID int64) error
	Summarize(ctx context.Context, sessionID int64) (*SummaryResult, error)
}

type chatService struct {
	sessions  *session.Manager
	completer llm.Client
	evaluator guard.Evaluator
}

// NewChatService wires the turn pipeline. A nil evaluator disables safety
// evaluation entirely.
func NewChatService(sessions *session.Manager, completer llm.Client, evaluator guard.Evaluator) ChatService {
	return &chatService{
		sessions:  sessions,
		completer: completer,
		evaluator: evaluator,
	}
}

func (s *chatService) StartSession(ctx context.Context) *session.Session {
	sess := s.sessions.Create()
	slog.InfoContext(ctx, "session started", "session_id", sess.ID)
	return sess
}

func (s *chatService) Session(ctx context.Context, sessionID int64) (*session.Session, error) {
	return s.sessions.Get(sessionID)
}

func (s *chatService) EndSession(ctx context.Context, sessionID int64) error {
	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "session ended", "session_id", sessionID)
	return nil
}

// Messages renders the conversation, seeding the greeting when the log is
// still empty.
func (s *chatService) Messages(ctx context.Context, sessionID int64) ([]model.Message, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Log().SeedIfEmpty(model.Message{Role: model.RoleAssistant, Content: Greeting})
	return sess.Log().Messages(), nil
}

// Send runs one chat turn: snapshot the document context, build the
// outbound messages, append the user message, request the completion, run
// the safety evaluation on success, append the assistant message. A failed
// completion still produces an assistant message, carrying the error
// notice and tagged Failed.
func (s *chatService) Send(ctx context.Context, sessionID int64, utterance string) (*TurnResult, error) {
	if strings.TrimSpace(utterance) == "" {
		return nil, ErrEmptyMessage
	}

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	sess.BeginTurn()
	defer sess.EndTurn()

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		SessionID: logger.Ptr(sessionID),
		Component: "docent.chat.turn",
	})

	sc := logger.StartSpan(ctx, "chat.turn")
	defer sc.End()
	ctx = sc.Context()

	// Snapshot the document context once per turn; an upload racing this
	// turn applies to the next one.
	var docText string
	if doc := sess.Document(); doc != nil {
		docText = doc.Text
		ctx = logger.WithLogFields(ctx, logger.LogFields{Document: logger.Ptr(doc.Name)})
	}

	messages := prompt.Messages(utterance, docText)

	userMsg := model.Message{Role: model.RoleUser, Content: utterance}
	sess.Log().Append(userMsg)

	result := &TurnResult{User: userMsg}

	reply, err := s.completer.Complete(ctx, messages)
	if err != nil {
		sc.RecordError(err)
		slog.ErrorContext(ctx, "completion request failed", "error", err)

		reply = errorNotice(err)
		result.Failed = true
	} else if s.evaluator != nil {
		if evalErr := s.evaluator.Evaluate(ctx, utterance, reply); evalErr != nil {
			// Advisory only: the reply goes out unchanged.
			sc.RecordError(evalErr)
			slog.WarnContext(ctx, "safety evaluation failed", "error", evalErr)
		}
	}

	assistantMsg := model.Message{Role: model.RoleAssistant, Content: reply}
	sess.Log().Append(assistantMsg)
	result.Assistant = assistantMsg

	slog.InfoContext(ctx, "turn completed",
		"failed", result.Failed,
		"prompt_chars", len(utterance),
		"reply_chars", len(reply))

	return result, nil
}

// ClearHistory wipes the conversation. The document context survives; the
// greeting reappears on the next render.
func (s *chatService) ClearHistory(ctx context.Context, sessionID int64) error {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}

	sess.Log().Clear()
	slog.InfoContext(ctx, "conversation cleared", "session_id", sessionID)
	return nil
}

// Transcript renders the conversation and serializes it for download.
func (s *chatService) Transcript(ctx context.Context, sessionID int64) (string, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return "", err
	}

	sess.Log().SeedIfEmpty(model.Message{Role: model.RoleAssistant, Content: Greeting})
	return sess.Log().Transcript(), nil
}

// AttachDocument extracts text from an upload and attaches it as the
// session's document context, replacing any previous one. A failed
// extraction detaches the previous context and surfaces the typed error.
func (s *chatService) AttachDocument(ctx context.Context, sessionID int64, name, contentType string, data []byte) (*model.DocumentContext, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		SessionID: logger.Ptr(sessionID),
		Document:  logger.Ptr(name),
	})

	sc := logger.StartSpan(ctx, "chat.ingest_document")
	defer sc.End()
	ctx = sc.Context()

	text, err := ingest.Extract(data, contentType)
	if err != nil {
		// The upload replaces whatever was attached before, even when it
		// cannot be read.
		sess.ClearDocument()

		sc.RecordError(err)
		slog.WarnContext(ctx, "document ingestion failed",
			"error", err,
			"content_type", contentType,
			"size_bytes", len(data))
		return nil, err
	}

	doc := &model.DocumentContext{
		Name: name,
		Size: int64(len(data)),
		Text: text,
	}
	sess.SetDocument(doc)

	slog.InfoContext(ctx, "document attached",
		"content_type", contentType,
		"size_bytes", doc.Size,
		"text_chars", len(text))

	return doc, nil
}

func (s *chatService) Document(ctx context.Context, sessionID int64) (*model.DocumentContext, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	doc := sess.Document()
	if doc == nil {
		return nil, ErrNoDocument
	}
	return doc, nil
}

func (s *chatService) RemoveDocument(ctx context.Context, sessionID int64) error {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}

	sess.ClearDocument()
	slog.InfoContext(ctx, "document detached", "session_id", sessionID)
	return nil
}

// Summarize asks the model for a summary of the attached document. The
// request stands alone: no document system message and no history ride
// along. The summary is not appended to the conversation.
func (s *chatService) Summarize(ctx context.Context, sessionID int64) (*SummaryResult, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	sess.BeginTurn()
	defer sess.EndTurn()

	doc := sess.Document()
	if doc == nil {
		return nil, ErrNoDocument
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		SessionID: logger.Ptr(sessionID),
		Document:  logger.Ptr(doc.Name),
		Component: "docent.chat.summary",
	})

	sc := logger.StartSpan(ctx, "chat.summarize_document")
	defer sc.End()
	ctx = sc.Context()

	messages := prompt.Messages(prompt.Summary(doc.Text), "")

	summary, err := s.completer.Complete(ctx, messages)
	if err != nil {
		sc.RecordError(err)
		slog.ErrorContext(ctx, "summary request failed", "error", err)
		return &SummaryResult{Summary: errorNotice(err), Failed: true}, nil
	}

	return &SummaryResult{Summary: summary}, nil
}

// errorNotice renders a completion failure as the user sees it: an
// assistant-authored notice carrying the underlying cause.
func errorNotice(err error) string {
	var completionErr *llm.CompletionError
	if errors.As(err, &completionErr) {
		err = completionErr.Err
	}
	return fmt.Sprintf("Error generating response: %s", err)
}
