package diagnosis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/wisbric/kubeowl/internal/apperror"
	"github.com/wisbric/kubeowl/internal/telemetry"
)

// LLMClient is the chat-completions surface the engine calls. Implemented by
// OpenRouterClient; tests substitute doubles.
type LLMClient interface {
	Chat(ctx context.Context, system, user string, temperature float64) (string, error)
}

// OpenRouterClient talks to an OpenAI-compatible chat-completions endpoint
// with bearer authentication.
type OpenRouterClient struct {
	apiURL    string
	apiKey    string
	model     string
	maxTokens int
	http      *http.Client
	logger    *slog.Logger
}

// NewOpenRouterClient creates a client with a per-request timeout.
func NewOpenRouterClient(apiURL, apiKey, model string, maxTokens int, timeout time.Duration, logger *slog.Logger) *OpenRouterClient {
	return &OpenRouterClient{
		apiURL:    apiURL,
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
		http:      &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Chat sends system and user messages and returns the first choice's content.
func (c *OpenRouterClient) Chat(ctx context.Context, system, user string, temperature float64) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   c.maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("encoding chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	telemetry.LLMRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", apperror.E(apperror.KindAIAnalysisFailed, "chat completion request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperror.E(apperror.KindAIAnalysisFailed, "reading chat completion reply", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", apperror.Errorf(apperror.KindAIAnalysisFailed,
			"chat completion returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", apperror.E(apperror.KindAIAnalysisFailed, "decoding chat completion reply", err)
	}
	if len(parsed.Choices) == 0 {
		return "", apperror.Errorf(apperror.KindAIAnalysisFailed, "chat completion reply has no choices")
	}

	c.logger.Debug("chat completion succeeded",
		"model", c.model,
		"reply_chars", len(parsed.Choices[0].Message.Content),
	)
	return parsed.Choices[0].Message.Content, nil
}
