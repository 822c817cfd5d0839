package diagnosis

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wisbric/kubeowl/internal/apperror"
)

func TestOpenRouterChat_SendsExpectedRequest(t *testing.T) {
	var captured chatRequest
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "### 근본 원인\n..."}},
			},
		})
	}))
	defer srv.Close()

	c := NewOpenRouterClient(srv.URL, "test-key", "test/model", 700, 5*time.Second, slog.Default())
	reply, err := c.Chat(context.Background(), "system text", "user text", 0.3)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if reply != "### 근본 원인\n..." {
		t.Errorf("reply = %q", reply)
	}
	if auth != "Bearer test-key" {
		t.Errorf("Authorization = %q", auth)
	}
	if captured.Model != "test/model" || captured.MaxTokens != 700 || captured.Temperature != 0.3 {
		t.Errorf("request = %+v", captured)
	}
	if len(captured.Messages) != 2 ||
		captured.Messages[0].Role != "system" || captured.Messages[1].Role != "user" {
		t.Errorf("messages = %+v", captured.Messages)
	}
}

func TestOpenRouterChat_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewOpenRouterClient(srv.URL, "k", "m", 700, 5*time.Second, slog.Default())
	_, err := c.Chat(context.Background(), "s", "u", 0.7)
	if !apperror.IsKind(err, apperror.KindAIAnalysisFailed) {
		t.Errorf("err = %v, want AI_ANALYSIS_FAILED", err)
	}
}

func TestOpenRouterChat_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	c := NewOpenRouterClient(srv.URL, "k", "m", 700, 5*time.Second, slog.Default())
	_, err := c.Chat(context.Background(), "s", "u", 0.7)
	if !apperror.IsKind(err, apperror.KindAIAnalysisFailed) {
		t.Errorf("err = %v, want AI_ANALYSIS_FAILED", err)
	}
}

func TestOpenRouterChat_ConnectionRefused(t *testing.T) {
	c := NewOpenRouterClient("http://127.0.0.1:1", "k", "m", 700, time.Second, slog.Default())
	_, err := c.Chat(context.Background(), "s", "u", 0.7)
	if !apperror.IsKind(err, apperror.KindAIAnalysisFailed) {
		t.Errorf("err = %v, want AI_ANALYSIS_FAILED", err)
	}
}
