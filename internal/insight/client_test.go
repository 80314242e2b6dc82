package insight

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hitoshi/wellbeat/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// completionResponse はOpenAI互換エンドポイントの最小レスポンス。
const completionResponse = `{
	"id": "chatcmpl-test",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "gpt-4o-mini",
	"choices": [
		{
			"index": 0,
			"message": {"role": "assistant", "content": "Your week looks busy. Consider more breaks."},
			"finish_reason": "stop"
		}
	]
}`

// 正常系: チャット補完のレスポンス本文が返ることを検証
func TestOpenAIClient_Annotate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionResponse))
	}))
	defer server.Close()

	client := NewOpenAIClient(ClientConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	}, discardLogger())

	text, err := client.Annotate(context.Background(), AnnotationRequest{
		Score: 6.0,
		Level: model.RiskLevelModerate,
	})
	if err != nil {
		t.Fatalf("Annotate returned error: %v", err)
	}
	if text != "Your week looks busy. Consider more breaks." {
		t.Errorf("text = %q", text)
	}
}

// 失敗が続く場合はRetries+1回試行してエラーを返すことを検証
func TestOpenAIClient_Annotate_RetriesThenFails(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"error": {"message": "upstream unavailable"}}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewOpenAIClient(ClientConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
		Retries: 2,
	}, discardLogger())

	_, err := client.Annotate(context.Background(), AnnotationRequest{Score: 5.0})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("calls = %d, want 3 (initial + 2 retries)", got)
	}
}

// 1回目失敗・2回目成功で結果が返ることを検証
func TestOpenAIClient_Annotate_RecoverOnRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, `{"error": {"message": "transient"}}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionResponse))
	}))
	defer server.Close()

	client := NewOpenAIClient(ClientConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
		Retries: 1,
	}, discardLogger())

	text, err := client.Annotate(context.Background(), AnnotationRequest{Score: 5.0})
	if err != nil {
		t.Fatalf("Annotate returned error: %v", err)
	}
	if text == "" {
		t.Error("expected non-empty insight text")
	}
}

// キャンセル済みコンテキストでは再試行せずエラーを返すことを検証
func TestOpenAIClient_Annotate_CanceledContext(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"error": {"message": "unavailable"}}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewOpenAIClient(ClientConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
		Retries: 5,
	}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Annotate(ctx, AnnotationRequest{Score: 5.0})
	if err == nil {
		t.Fatal("expected error with canceled context")
	}
	if got := atomic.LoadInt32(&calls); got > 1 {
		t.Errorf("calls = %d, want at most 1 (no retries after cancellation)", got)
	}
}

// デフォルト設定（タイムアウト・モデル）が補完されることを検証
func TestNewOpenAIClient_Defaults(t *testing.T) {
	client := NewOpenAIClient(ClientConfig{APIKey: "test-key"}, discardLogger())

	if client.config.Timeout != 20*time.Second {
		t.Errorf("Timeout = %v, want 20s", client.config.Timeout)
	}
	if client.config.Model == "" {
		t.Error("Model should default to a non-empty value")
	}
}
