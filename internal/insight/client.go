// Package insight は外部のテキスト生成サービスによるインサイト注釈を提供する。
// スコアと検出パターンを渡して自由記述のナラティブを受け取る。
// 出力は不透過な注釈として扱われ、スコアの数値には一切影響しない。
package insight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/hitoshi/wellbeat/internal/model"
	"github.com/hitoshi/wellbeat/internal/pattern"
)

// AnnotationRequest はインサイト生成への入力を表す。
type AnnotationRequest struct {
	Score      float64
	Level      model.RiskLevel
	Metrics    model.ScoreMetrics
	EventCount int
	Patterns   []pattern.Detected
}

// Annotator はインサイト注釈サービスのインターフェース。
// 実装はI/Oバウンドであり、有界のタイムアウトで待機しなければならない。
type Annotator interface {
	// Annotate はスコアとパターンから自由記述のインサイトを生成する。
	// 失敗した場合はエラーを返す（呼び出し元がフェイルクローズドを判断する）。
	Annotate(ctx context.Context, req AnnotationRequest) (string, error)
}

// ClientConfig はOpenAIClientの設定を保持する。
type ClientConfig struct {
	APIKey  string
	BaseURL string        // 空の場合はライブラリのデフォルトエンドポイント
	Model   string        // チャット補完モデル名
	Timeout time.Duration // 1回の呼び出しのタイムアウト
	Retries int           // 失敗時の再試行回数（通常1）
}

// OpenAIClient はOpenAI互換のチャット補完APIでインサイトを生成する。
type OpenAIClient struct {
	client openai.Client
	logger *slog.Logger
	config ClientConfig
}

// NewOpenAIClient はOpenAIClientの新しいインスタンスを生成する。
// Timeoutが未設定の場合はデフォルトの20秒を使用する。Retriesは
// 設定層のデフォルトが1回で、負値は0（再試行なし）に丸める。
func NewOpenAIClient(config ClientConfig, logger *slog.Logger) *OpenAIClient {
	if config.Timeout <= 0 {
		config.Timeout = 20 * time.Second
	}
	if config.Retries < 0 {
		config.Retries = 0
	}
	if config.Model == "" {
		config.Model = openai.ChatModelGPT4oMini
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		// ライブラリ内蔵の再試行は無効化し、呼び出し側のポリシーで制御する
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &OpenAIClient{
		client: openai.NewClient(opts...),
		logger: logger,
		config: config,
	}
}

// Annotate はスコアとパターンからインサイトを生成する。
// 1回の呼び出しごとにタイムアウトを設定し、失敗時はRetries回まで再試行する。
// すべて失敗した場合は最後のエラーを返す。
func (c *OpenAIClient) Annotate(ctx context.Context, req AnnotationRequest) (string, error) {
	prompt := buildPrompt(req)

	var lastErr error
	for attempt := 0; attempt <= c.config.Retries; attempt++ {
		text, err := c.complete(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err

		c.logger.Warn("インサイト生成サービスの呼び出しに失敗しました",
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()),
		)

		// 呼び出し元のコンテキストが終了している場合は再試行しない
		if ctx.Err() != nil {
			break
		}
	}

	return "", fmt.Errorf("インサイトの生成に失敗しました: %w", lastErr)
}

// complete は1回のチャット補完呼び出しを実行する。
func (c *OpenAIClient) complete(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	completion, err := c.client.Chat.Completions.New(callCtx, openai.ChatCompletionNewParams{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		MaxTokens: openai.Int(500),
	})
	if err != nil {
		return "", err
	}

	if len(completion.Choices) == 0 {
		return "", errors.New("インサイト生成サービスが空のレスポンスを返しました")
	}

	return completion.Choices[0].Message.Content, nil
}
