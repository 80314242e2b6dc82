// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/wellbeat/internal/model"
)

// ScoreRepository はバーンアウトスコアの永続化インターフェース。
// スコアは追記専用であり、更新・削除は提供しない。
type ScoreRepository interface {
	// SaveBurnoutScore はスコアを新規行として挿入する。
	// 同一(userID, date)の既存行があっても重複排除せず常に挿入する。
	// IDとCreatedAtが未設定の場合は補完する。
	SaveBurnoutScore(ctx context.Context, score *model.BurnoutScore) error

	// GetBurnoutHistory は指定期間のスコア履歴をdate降順で返す。
	GetBurnoutHistory(ctx context.Context, userID string, startDate, endDate time.Time) ([]*model.BurnoutScore, error)

	// GetLatestBurnoutScore は最新のスコアを返す。存在しない場合はnilを返す。
	GetLatestBurnoutScore(ctx context.Context, userID string) (*model.BurnoutScore, error)
}

// PatternRepository はストレスパターンの永続化インターフェース。
type PatternRepository interface {
	// SaveStressPatterns はパターンを一括挿入する。
	// Frequencyは保存時にパターン種別から純粋関数で導出される。
	// IDとDetectedAtが未設定の場合は補完する。
	SaveStressPatterns(ctx context.Context, userID string, patterns []*model.StressPattern) error

	// GetStressPatterns は指定期間のパターンをdetectedAt降順で返す。
	GetStressPatterns(ctx context.Context, userID string, startDate, endDate time.Time) ([]*model.StressPattern, error)

	// GetActiveStressPatterns は直近30日間に検出されたパターンを
	// 深刻度降順、次いで検出時刻降順で返す。
	GetActiveStressPatterns(ctx context.Context, userID string) ([]*model.StressPattern, error)
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// ListActiveUserIDs は日次バッチの対象となるアクティブユーザーのIDを返す。
	ListActiveUserIDs(ctx context.Context) ([]string, error)
}

// activePatternWindowDays は「アクティブ」とみなすパターンの遡及日数。
const activePatternWindowDays = 30
