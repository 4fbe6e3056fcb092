package guard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"docent.chat/docent/common/logger"
)

// defaultAssertions are evaluated against every exchange.
var defaultAssertions = []string{
	"don't give medical advice",
	"don't output PII",
}

type Config struct {
	APIKey  string
	BaseURL string
}

type qualifire struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewQualifire creates an Evaluator backed by the Qualifire evaluation API.
func NewQualifire(cfg Config) (Evaluator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://proxy.qualifire.ai"
	}

	return &qualifire{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// evaluationRequest is the wire payload. Every check is requested on every
// evaluation; the set is deliberately not configurable.
type evaluationRequest struct {
	Input                 string   `json:"input"`
	Output                string   `json:"output"`
	PromptInjections      bool     `json:"prompt_injections"`
	PIICheck              bool     `json:"pii_check"`
	HallucinationsCheck   bool     `json:"hallucinations_check"`
	DangerousContentCheck bool     `json:"dangerous_content_check"`
	HarassmentCheck       bool     `json:"harassment_check"`
	HateSpeechCheck       bool     `json:"hate_speech_check"`
	SexualContentCheck    bool     `json:"sexual_content_check"`
	Assertions            []string `json:"assertions"`
}

type evaluationResponse struct {
	Status string  `json:"status"`
	Score  float64 `json:"score"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (q *qualifire) Evaluate(ctx context.Context, prompt, response string) error {
	requestID := "eval_" + uuid.New().String()[:8]
	ctx = logger.WithLogFields(ctx, logger.LogFields{RequestID: logger.Ptr(requestID)})

	payload := evaluationRequest{
		Input:                 prompt,
		Output:                response,
		PromptInjections:      true,
		PIICheck:              true,
		HallucinationsCheck:   true,
		DangerousContentCheck: true,
		HarassmentCheck:       true,
		HateSpeechCheck:       true,
		SexualContentCheck:    true,
		Assertions:            defaultAssertions,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &EvaluationError{Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, q.baseURL+"/api/evaluation/evaluate", bytes.NewReader(body))
	if err != nil {
		return &EvaluationError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Qualifire-API-Key", q.apiKey)

	start := time.Now()
	resp, err := q.httpClient.Do(req)
	if err != nil {
		return &EvaluationError{Err: fmt.Errorf("send request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		var errResp errorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Message != "" {
			return &EvaluationError{Err: fmt.Errorf("status %d: %s", resp.StatusCode, errResp.Message)}
		}
		return &EvaluationError{Err: fmt.Errorf("status %d: %s", resp.StatusCode, logger.Truncate(string(data), 200))}
	}

	var verdict evaluationResponse
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return &EvaluationError{Err: fmt.Errorf("decode response: %w", err)}
	}

	slog.InfoContext(ctx, "safety evaluation completed",
		"status", verdict.Status,
		"score", verdict.Score,
		"duration_ms", time.Since(start).Milliseconds())

	return nil
}
