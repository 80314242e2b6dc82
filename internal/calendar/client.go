// Package calendar はカレンダー取り込みサービス（外部）との境界を提供する。
// 取り込み・正規化そのものは外部コラボレーターの責務であり、
// エンジンは正規化済みイベントのリストを受け取るだけである。
package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/hitoshi/wellbeat/internal/model"
)

// EventSource は正規化済みカレンダーイベントの供給元インターフェース。
// 日次バッチワーカーが使用する。
type EventSource interface {
	// ListEventsForDay は指定ユーザー・指定日の正規化済みイベントを返す。
	// イベントが無い日は空リストを返す（エラーではない）。
	ListEventsForDay(ctx context.Context, userID string, day time.Time) ([]model.CalendarEvent, error)
}

// Client はカレンダー正規化サービスのHTTPクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLはカレンダー正規化サービスのルートURLを指定する。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
	}
}

// eventPayload はカレンダーサービスのレスポンス形式。
// start/endはISO-8601のタイムスタンプ。
type eventPayload struct {
	ID    string    `json:"id"`
	Type  string    `json:"type"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ListEventsForDay は指定ユーザー・指定日の正規化済みイベントを取得する。
// 取得したイベントは不変条件（end > start、既知の種別）を検証し、
// 不正なイベントが含まれる場合はエラーを返す。
func (c *Client) ListEventsForDay(ctx context.Context, userID string, day time.Time) ([]model.CalendarEvent, error) {
	reqURL, err := url.Parse(fmt.Sprintf("%s/users/%s/events", c.baseURL, url.PathEscape(userID)))
	if err != nil {
		return nil, fmt.Errorf("カレンダーサービスURLの構築に失敗しました: %w", err)
	}

	q := reqURL.Query()
	q.Set("date", day.Format("2006-01-02"))
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("カレンダーサービスの呼び出しに失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("カレンダーサービスがエラーステータスを返しました",
			slog.String("user_id", userID),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("カレンダーサービスがステータス %d を返しました", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var payload []eventPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("カレンダーイベントのパースに失敗しました: %w", err)
	}

	events := make([]model.CalendarEvent, 0, len(payload))
	for _, p := range payload {
		events = append(events, model.CalendarEvent{
			ID:    p.ID,
			Type:  model.EventType(p.Type),
			Start: p.Start,
			End:   p.End,
		})
	}

	// 不変条件はエンジンに渡す前にここで検証する
	if err := model.ValidateEvents(events); err != nil {
		return nil, fmt.Errorf("カレンダーサービスが不正なイベントを返しました: %w", err)
	}

	return events, nil
}
