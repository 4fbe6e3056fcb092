package service_test

import (
	"context"

	"docent.chat/docent/internal/model"
)

type mockCompleter struct {
	completeFn func(ctx context.Context, messages []model.Message) (string, error)
	model      string
}

func (m *mockCompleter) Complete(ctx context.Context, messages []model.Message) (string, error) {
	return m.completeFn(ctx, messages)
}

func (m *mockCompleter) Model() string {
	if m.model == "" {
		return "gpt-4o-mini-2024-07-18"
	}
	return m.model
}

type mockEvaluator struct {
	evaluateFn func(ctx context.Context, prompt, response string) error
	calls      int
}

func (m *mockEvaluator) Evaluate(ctx context.Context, prompt, response string) error {
	m.calls++
	if m.evaluateFn == nil {
		return nil
	}
	return m.evaluateFn(ctx, prompt, response)
}
