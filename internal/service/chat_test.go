package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"docent.chat/docent/internal/guard"
	"docent.chat/docent/internal/ingest"
	"docent.chat/docent/internal/llm"
	"docent.chat/docent/internal/model"
	"docent.chat/docent/internal/service"
	"docent.chat/docent/internal/session"
)

var _ = Describe("ChatService", func() {
	var (
		ctx       context.Context
		sessions  *session.Manager
		completer *mockCompleter
		evaluator *mockEvaluator
		svc       service.ChatService
	)

	BeforeEach(func() {
		ctx = context.Background()
		sessions = session.NewManager()
		completer = &mockCompleter{
			completeFn: func(ctx context.Context, messages []model.Message) (string, error) {
				return "mock reply", nil
			},
		}
		evaluator = &mockEvaluator{}
		svc = service.NewChatService(sessions, completer, evaluator)
	})

	Describe("session lifecycle", func() {
		It("creates sessions with distinct ids", func() {
			a := svc.StartSession(ctx)
			b := svc.StartSession(ctx)

			Expect(a.ID).NotTo(Equal(b.ID))
			Expect(a.State()).To(Equal(session.StateIdle))
		})

		It("returns the stored session", func() {
			sess := svc.StartSession(ctx)

			got, err := svc.Session(ctx, sess.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeIdenticalTo(sess))
		})

		It("rejects unknown sessions", func() {
			_, err := svc.Session(ctx, 42)
			Expect(err).To(MatchError(session.ErrNotFound))

			_, err = svc.Send(ctx, 42, "hi")
			Expect(err).To(MatchError(session.ErrNotFound))
		})

		It("removes sessions on end", func() {
			sess := svc.StartSession(ctx)

			Expect(svc.EndSession(ctx, sess.ID)).To(Succeed())

			_, err := svc.Session(ctx, sess.ID)
			Expect(err).To(MatchError(session.ErrNotFound))
			Expect(svc.EndSession(ctx, sess.ID)).To(MatchError(session.ErrNotFound))
		})
	})

	Describe("rendering messages", func() {
		It("seeds the greeting on first render", func() {
			sess := svc.StartSession(ctx)

			messages, err := svc.Messages(ctx, sess.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(messages).To(HaveLen(1))
			Expect(messages[0].Role).To(Equal(model.RoleAssistant))
			Expect(messages[0].Content).To(Equal(service.Greeting))
		})

		It("does not reseed a non-empty conversation", func() {
			sess := svc.StartSession(ctx)

			_, err := svc.Messages(ctx, sess.ID)
			Expect(err).NotTo(HaveOccurred())

			messages, err := svc.Messages(ctx, sess.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(messages).To(HaveLen(1))
		})

		It("reseeds the greeting after a clear", func() {
			sess := svc.StartSession(ctx)

			_, err := svc.Send(ctx, sess.ID, "hi")
			Expect(err).NotTo(HaveOccurred())
			Expect(svc.ClearHistory(ctx, sess.ID)).To(Succeed())

			messages, err := svc.Messages(ctx, sess.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(messages).To(HaveLen(1))
			Expect(messages[0].Content).To(Equal(service.Greeting))
		})
	})

	Describe("sending a message", func() {
		It("rejects empty and whitespace-only messages", func() {
			sess := svc.StartSession(ctx)

			_, err := svc.Send(ctx, sess.ID, "")
			Expect(err).To(MatchError(service.ErrEmptyMessage))

			_, err = svc.Send(ctx, sess.ID, "  \t\n")
			Expect(err).To(MatchError(service.ErrEmptyMessage))

			Expect(sess.Log().Len()).To(BeZero())
		})

		It("sends the raw utterance without trimming", func() {
			sess := svc.StartSession(ctx)

			var seen []model.Message
			completer.completeFn = func(ctx context.Context, messages []model.Message) (string, error) {
				seen = messages
				return "ok", nil
			}

			result, err := svc.Send(ctx, sess.ID, "  hi there  ")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.User.Content).To(Equal("  hi there  "))
			Expect(seen).To(HaveLen(1))
			Expect(seen[0].Content).To(Equal("  hi there  "))
		})

		It("appends the user message before the completion request goes out", func() {
			sess := svc.StartSession(ctx)

			var logged []model.Message
			completer.completeFn = func(ctx context.Context, messages []model.Message) (string, error) {
				logged = sess.Log().Messages()
				return "ok", nil
			}

			_, err := svc.Send(ctx, sess.ID, "hi")
			Expect(err).NotTo(HaveOccurred())
			Expect(logged).To(HaveLen(1))
			Expect(logged[0].Role).To(Equal(model.RoleUser))
			Expect(logged[0].Content).To(Equal("hi"))
		})

		It("appends the assistant reply after the turn", func() {
			sess := svc.StartSession(ctx)

			result, err := svc.Send(ctx, sess.ID, "hi")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Failed).To(BeFalse())
			Expect(result.Assistant.Role).To(Equal(model.RoleAssistant))
			Expect(result.Assistant.Content).To(Equal("mock reply"))

			messages := sess.Log().Messages()
			Expect(messages).To(HaveLen(2))
			Expect(messages[1]).To(Equal(result.Assistant))
		})

		It("builds each turn from the current utterance alone", func() {
			sess := svc.StartSession(ctx)

			var calls [][]model.Message
			completer.completeFn = func(ctx context.Context, messages []model.Message) (string, error) {
				calls = append(calls, messages)
				return "ok", nil
			}

			_, err := svc.Send(ctx, sess.ID, "first")
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.Send(ctx, sess.ID, "second")
			Expect(err).NotTo(HaveOccurred())

			Expect(calls).To(HaveLen(2))
			Expect(calls[1]).To(HaveLen(1))
			Expect(calls[1][0].Role).To(Equal(model.RoleUser))
			Expect(calls[1][0].Content).To(Equal("second"))
		})

		It("embeds the attached document into a system message", func() {
			sess := svc.StartSession(ctx)

			_, err := svc.AttachDocument(ctx, sess.ID, "notes.txt", "text/plain", []byte("hello world"))
			Expect(err).NotTo(HaveOccurred())

			var seen []model.Message
			completer.completeFn = func(ctx context.Context, messages []model.Message) (string, error) {
				seen = messages
				return "ok", nil
			}

			_, err = svc.Send(ctx, sess.ID, "what does it say?")
			Expect(err).NotTo(HaveOccurred())

			Expect(seen).To(HaveLen(2))
			Expect(seen[0].Role).To(Equal(model.RoleSystem))
			Expect(seen[0].Content).To(Equal("The user has uploaded a file with the following content:\n\nhello world\n\nPlease consider this information when responding to their query."))
			Expect(seen[1].Role).To(Equal(model.RoleUser))
			Expect(seen[1].Content).To(Equal("what does it say?"))
		})

		Context("when the completion fails", func() {
			BeforeEach(func() {
				completer.completeFn = func(ctx context.Context, messages []model.Message) (string, error) {
					return "", &llm.CompletionError{Err: errors.New("rate limited")}
				}
			})

			It("renders the error notice as the reply and tags the turn failed", func() {
				sess := svc.StartSession(ctx)

				result, err := svc.Send(ctx, sess.ID, "hi")
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Failed).To(BeTrue())
				Expect(result.Assistant.Content).To(Equal("Error generating response: rate limited"))
			})

			It("appends the notice to the conversation like any reply", func() {
				sess := svc.StartSession(ctx)

				_, err := svc.Send(ctx, sess.ID, "hi")
				Expect(err).NotTo(HaveOccurred())

				messages := sess.Log().Messages()
				Expect(messages).To(HaveLen(2))
				Expect(messages[1].Role).To(Equal(model.RoleAssistant))
				Expect(messages[1].Content).To(HavePrefix("Error generating response:"))
			})

			It("skips the safety evaluation", func() {
				sess := svc.StartSession(ctx)

				_, err := svc.Send(ctx, sess.ID, "hi")
				Expect(err).NotTo(HaveOccurred())
				Expect(evaluator.calls).To(BeZero())
			})
		})

		Context("safety evaluation", func() {
			It("passes the utterance and the reply to the evaluator", func() {
				sess := svc.StartSession(ctx)

				completer.completeFn = func(ctx context.Context, messages []model.Message) (string, error) {
					return "the capital is Paris", nil
				}

				var gotPrompt, gotResponse string
				evaluator.evaluateFn = func(ctx context.Context, prompt, response string) error {
					gotPrompt = prompt
					gotResponse = response
					return nil
				}

				_, err := svc.Send(ctx, sess.ID, "capital of France?")
				Expect(err).NotTo(HaveOccurred())
				Expect(evaluator.calls).To(Equal(1))
				Expect(gotPrompt).To(Equal("capital of France?"))
				Expect(gotResponse).To(Equal("the capital is Paris"))
			})

			It("does not alter the reply when the evaluation fails", func() {
				sess := svc.StartSession(ctx)

				evaluator.evaluateFn = func(ctx context.Context, prompt, response string) error {
					return &guard.EvaluationError{Err: errors.New("service unavailable")}
				}

				result, err := svc.Send(ctx, sess.ID, "hi")
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Failed).To(BeFalse())
				Expect(result.Assistant.Content).To(Equal("mock reply"))
			})

			It("runs without an evaluator", func() {
				plain := service.NewChatService(sessions, completer, nil)
				sess := plain.StartSession(ctx)

				result, err := plain.Send(ctx, sess.ID, "hi")
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Assistant.Content).To(Equal("mock reply"))
			})
		})
	})

	Describe("clearing history", func() {
		It("discards all messages and keeps the document", func() {
			sess := svc.StartSession(ctx)

			_, err := svc.AttachDocument(ctx, sess.ID, "notes.txt", "text/plain", []byte("hello"))
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.Send(ctx, sess.ID, "hi")
			Expect(err).NotTo(HaveOccurred())

			Expect(svc.ClearHistory(ctx, sess.ID)).To(Succeed())
			Expect(sess.Log().Len()).To(BeZero())

			doc, err := svc.Document(ctx, sess.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Text).To(Equal("hello"))
		})
	})

	Describe("transcript", func() {
		It("seeds the greeting when the conversation is empty", func() {
			sess := svc.StartSession(ctx)

			transcript, err := svc.Transcript(ctx, sess.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(transcript).To(Equal("Assistant:\n" + service.Greeting))
		})

		It("renders role-titled blocks in order", func() {
			sess := svc.StartSession(ctx)

			_, err := svc.Messages(ctx, sess.ID)
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.Send(ctx, sess.ID, "hi")
			Expect(err).NotTo(HaveOccurred())

			transcript, err := svc.Transcript(ctx, sess.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(transcript).To(Equal("Assistant:\n" + service.Greeting + "\n\nUser:\nhi\n\nAssistant:\nmock reply"))
		})
	})

	Describe("documents", func() {
		It("attaches extracted text", func() {
			sess := svc.StartSession(ctx)

			doc, err := svc.AttachDocument(ctx, sess.ID, "notes.txt", "text/plain; charset=utf-8", []byte("plain contents"))
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Name).To(Equal("notes.txt"))
			Expect(doc.Size).To(Equal(int64(len("plain contents"))))
			Expect(doc.Text).To(Equal("plain contents"))
		})

		It("replaces a previous document", func() {
			sess := svc.StartSession(ctx)

			_, err := svc.AttachDocument(ctx, sess.ID, "a.txt", "text/plain", []byte("first"))
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.AttachDocument(ctx, sess.ID, "b.txt", "text/plain", []byte("second"))
			Expect(err).NotTo(HaveOccurred())

			doc, err := svc.Document(ctx, sess.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Name).To(Equal("b.txt"))
			Expect(doc.Text).To(Equal("second"))
		})

		It("rejects unsupported formats and detaches the previous document", func() {
			sess := svc.StartSession(ctx)

			_, err := svc.AttachDocument(ctx, sess.ID, "a.txt", "text/plain", []byte("first"))
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.AttachDocument(ctx, sess.ID, "img.png", "image/png", []byte{0x89, 0x50})
			Expect(err).To(MatchError(ingest.ErrUnsupportedFormat))

			_, err = svc.Document(ctx, sess.ID)
			Expect(err).To(MatchError(service.ErrNoDocument))
		})

		It("returns ErrNoDocument when nothing is attached", func() {
			sess := svc.StartSession(ctx)

			_, err := svc.Document(ctx, sess.ID)
			Expect(err).To(MatchError(service.ErrNoDocument))
		})

		It("detaches on remove", func() {
			sess := svc.StartSession(ctx)

			_, err := svc.AttachDocument(ctx, sess.ID, "a.txt", "text/plain", []byte("first"))
			Expect(err).NotTo(HaveOccurred())

			Expect(svc.RemoveDocument(ctx, sess.ID)).To(Succeed())
			_, err = svc.Document(ctx, sess.ID)
			Expect(err).To(MatchError(service.ErrNoDocument))

			Expect(svc.RemoveDocument(ctx, sess.ID)).To(Succeed())
		})
	})

	Describe("summarizing", func() {
		It("requires an attached document", func() {
			sess := svc.StartSession(ctx)

			_, err := svc.Summarize(ctx, sess.ID)
			Expect(err).To(MatchError(service.ErrNoDocument))
		})

		It("sends the summary instruction as a lone user message", func() {
			sess := svc.StartSession(ctx)

			_, err := svc.AttachDocument(ctx, sess.ID, "notes.txt", "text/plain", []byte("hello world"))
			Expect(err).NotTo(HaveOccurred())

			var seen []model.Message
			completer.completeFn = func(ctx context.Context, messages []model.Message) (string, error) {
				seen = messages
				return "a summary", nil
			}

			result, err := svc.Summarize(ctx, sess.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Failed).To(BeFalse())
			Expect(result.Summary).To(Equal("a summary"))

			Expect(seen).To(HaveLen(1))
			Expect(seen[0].Role).To(Equal(model.RoleUser))
			Expect(seen[0].Content).To(Equal("Summarize the following text:\n\nhello world"))
		})

		It("does not append to the conversation", func() {
			sess := svc.StartSession(ctx)

			_, err := svc.AttachDocument(ctx, sess.ID, "notes.txt", "text/plain", []byte("hello"))
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Summarize(ctx, sess.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(sess.Log().Len()).To(BeZero())
		})

		It("tags a failed completion", func() {
			sess := svc.StartSession(ctx)

			_, err := svc.AttachDocument(ctx, sess.ID, "notes.txt", "text/plain", []byte("hello"))
			Expect(err).NotTo(HaveOccurred())

			completer.completeFn = func(ctx context.Context, messages []model.Message) (string, error) {
				return "", &llm.CompletionError{Err: errors.New("quota exceeded")}
			}

			result, err := svc.Summarize(ctx, sess.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Failed).To(BeTrue())
			Expect(result.Summary).To(Equal("Error generating response: quota exceeded"))
		})
	})
})
