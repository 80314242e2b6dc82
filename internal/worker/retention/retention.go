// Package retention はストレスパターンの保持期間管理ジョブを提供する。
// 保持日数が設定されている場合のみ、超過したstress_patternsを日次
// バッチで削除する。デフォルトは無効であり、パターンは明示的に
// 有効化しない限り削除されない。バーンアウトスコアはトレンド表示の
// ための履歴であり、保持期間の対象外として一切削除しない。
package retention

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Job は保持期間を超過したストレスパターンの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type Job struct {
	db            Executor
	logger        *slog.Logger
	RetentionDays int // パターンの保持日数。0以下の場合は削除を行わない
}

// NewJob は新しいJobを生成する。保持日数はデフォルトで0（無効）であり、
// RetentionDaysを設定しない限り削除は実行されない。
func NewJob(db Executor, logger *slog.Logger) *Job {
	return &Job{
		db:            db,
		logger:        logger,
		RetentionDays: 0,
	}
}

// Run は保持期間を超過したストレスパターンを削除する。
// detected_atがRetentionDays日前より古い行をDELETEする。
// RetentionDaysが0以下の場合は何も削除せずに返る。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *Job) Run(ctx context.Context) error {
	if j.RetentionDays <= 0 {
		j.logger.Debug("ストレスパターンの保持期間は無効のためスキップします")
		return nil
	}

	start := time.Now()

	interval := fmt.Sprintf("%d days", j.RetentionDays)

	query := `DELETE FROM stress_patterns WHERE detected_at < now() - $1::interval`
	result, err := j.db.ExecContext(ctx, query, interval)
	if err != nil {
		j.logger.Error("ストレスパターンの保持期間ジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("保持期間ジョブの実行に失敗しました: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		// ドライバが件数を返さなくてもジョブ自体は成功として扱う
		deleted = -1
	}

	j.logger.Info("ストレスパターンの保持期間ジョブが完了しました",
		slog.Int64("deleted", deleted),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}
