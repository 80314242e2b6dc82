// Package daily はバーンアウトスコアの日次バッチ計算を提供する。
// アクティブユーザーを列挙し、前日のカレンダーイベントを取得して
// ユーザーごとに分析・永続化を実行する。
package daily

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/wellbeat/internal/analyzer"
	"github.com/hitoshi/wellbeat/internal/calendar"
	"github.com/hitoshi/wellbeat/internal/model"
	"github.com/hitoshi/wellbeat/internal/repository"
)

// AnalysisRunner は分析と永続化の実行インターフェース。
type AnalysisRunner interface {
	// AnalyzeAndPersist は分析を実行し、成功した場合のみ結果を永続化する。
	AnalyzeAndPersist(ctx context.Context, userID string, date time.Time, events []model.CalendarEvent) (*analyzer.Result, error)
}

// Job は日次スコアリングバッチ。
// semaphoreパターンで最大並列数を制御しながらユーザーを並列処理する。
// ユーザー間に共有可変状態はなく、1ユーザーの失敗は他ユーザーに影響しない。
type Job struct {
	userRepo       repository.UserRepository
	events         calendar.EventSource
	runner         AnalysisRunner
	logger         *slog.Logger
	maxConcurrency int
}

// NewJob はJobの新しいインスタンスを生成する。
// maxConcurrencyが0以下の場合はデフォルト値4を使用する。
func NewJob(
	userRepo repository.UserRepository,
	events calendar.EventSource,
	runner AnalysisRunner,
	logger *slog.Logger,
	maxConcurrency int,
) *Job {
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	return &Job{
		userRepo:       userRepo,
		events:         events,
		runner:         runner,
		logger:         logger,
		maxConcurrency: maxConcurrency,
	}
}

// Start は指定間隔のティッカーでバッチを起動する。
// 各サイクルは前日をスコア対象日として処理する。
// コンテキストがキャンセルされるまで実行を継続する。
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("日次スコアリングバッチを開始しました",
		slog.Duration("interval", interval),
		slog.Int("max_concurrency", j.maxConcurrency),
	)

	// 起動直後に1回実行
	if err := j.RunOnce(ctx, yesterday(time.Now())); err != nil {
		j.logger.Error("日次バッチの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("日次スコアリングバッチを停止しました")
			return
		case <-ticker.C:
			if err := j.RunOnce(ctx, yesterday(time.Now())); err != nil {
				j.logger.Error("日次バッチの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は指定日を対象に全アクティブユーザーの分析を1回実行する。
// ユーザーの列挙に失敗した場合のみエラーを返す。個々のユーザーの失敗は
// ログに記録して処理を継続する（分散トランザクションは張らない）。
func (j *Job) RunOnce(ctx context.Context, day time.Time) error {
	start := time.Now()

	userIDs, err := j.userRepo.ListActiveUserIDs(ctx)
	if err != nil {
		return err
	}

	if len(userIDs) == 0 {
		j.logger.Info("スコアリング対象のユーザーはいません")
		return nil
	}

	j.logger.Info("日次スコアリングサイクルを開始します",
		slog.Int("user_count", len(userIDs)),
		slog.String("score_date", day.Format("2006-01-02")),
	)

	// semaphoreパターンで並列数を制御
	sem := make(chan struct{}, j.maxConcurrency)
	var wg sync.WaitGroup

	for _, userID := range userIDs {
		wg.Add(1)
		sem <- struct{}{} // semaphore取得（ブロック）

		go func(id string) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放

			if err := j.processUser(ctx, id, day); err != nil {
				j.logger.Error("ユーザーのスコアリングに失敗しました",
					slog.String("user_id", id),
					slog.String("error", err.Error()),
				)
			}
		}(userID)
	}

	wg.Wait()

	duration := time.Since(start)
	j.logger.Info("日次スコアリングサイクルが完了しました",
		slog.Int("user_count", len(userIDs)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// processUser は1ユーザー分のイベント取得・分析・永続化を実行する。
func (j *Job) processUser(ctx context.Context, userID string, day time.Time) error {
	events, err := j.events.ListEventsForDay(ctx, userID, day)
	if err != nil {
		return err
	}

	_, err = j.runner.AnalyzeAndPersist(ctx, userID, day, events)
	return err
}

// yesterday は指定時刻の前日の0時（ローカル時刻）を返す。
func yesterday(now time.Time) time.Time {
	y := now.AddDate(0, 0, -1)
	return time.Date(y.Year(), y.Month(), y.Day(), 0, 0, 0, 0, y.Location())
}
