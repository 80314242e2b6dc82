package handler

import (
	"context"
	"time"

	"github.com/hitoshi/wellbeat/internal/model"
	"github.com/hitoshi/wellbeat/internal/repository"
)

// WellnessReaderAdapter はScoreRepositoryとPatternRepositoryの読み取り操作を
// WellnessReaderに適合させるアダプタ。
type WellnessReaderAdapter struct {
	scores   repository.ScoreRepository
	patterns repository.PatternRepository
}

// NewWellnessReaderAdapter はWellnessReaderAdapterを生成する。
func NewWellnessReaderAdapter(scores repository.ScoreRepository, patterns repository.PatternRepository) *WellnessReaderAdapter {
	return &WellnessReaderAdapter{scores: scores, patterns: patterns}
}

// GetBurnoutHistory は期間内のバーンアウトスコア履歴を返す。
func (a *WellnessReaderAdapter) GetBurnoutHistory(ctx context.Context, userID string, startDate, endDate time.Time) ([]*model.BurnoutScore, error) {
	return a.scores.GetBurnoutHistory(ctx, userID, startDate, endDate)
}

// GetLatestBurnoutScore は最新のバーンアウトスコアを返す。存在しない場合はnil。
func (a *WellnessReaderAdapter) GetLatestBurnoutScore(ctx context.Context, userID string) (*model.BurnoutScore, error) {
	return a.scores.GetLatestBurnoutScore(ctx, userID)
}

// GetStressPatterns は期間内のストレスパターンを返す。
func (a *WellnessReaderAdapter) GetStressPatterns(ctx context.Context, userID string, startDate, endDate time.Time) ([]*model.StressPattern, error) {
	return a.patterns.GetStressPatterns(ctx, userID, startDate, endDate)
}

// GetActiveStressPatterns は直近30日間に検出されたアクティブなパターンを返す。
func (a *WellnessReaderAdapter) GetActiveStressPatterns(ctx context.Context, userID string) ([]*model.StressPattern, error) {
	return a.patterns.GetActiveStressPatterns(ctx, userID)
}
