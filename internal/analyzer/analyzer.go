// Package analyzer はウェルネスリスクエンジンのオーケストレーターを提供する。
// スコア算出 → パターン検出 → インサイト注釈 → レスポンス整形を合成し、
// 外部（ルート、バッチジョブ）に公開される唯一の契約となる。
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/wellbeat/internal/insight"
	"github.com/hitoshi/wellbeat/internal/metric"
	"github.com/hitoshi/wellbeat/internal/metrics"
	"github.com/hitoshi/wellbeat/internal/model"
	"github.com/hitoshi/wellbeat/internal/pattern"
	"github.com/hitoshi/wellbeat/internal/repository"
	"github.com/hitoshi/wellbeat/internal/security"
)

// PatternSummary は外部公開用に整形されたパターン情報。
type PatternSummary struct {
	Type        model.PatternType `json:"type"`
	Description string            `json:"description"`
	Severity    model.Severity    `json:"severity"`
}

// Result はバーンアウト分析の結果を表す。JSONシリアライズ可能。
type Result struct {
	Score           float64            `json:"score"`
	Level           model.RiskLevel    `json:"level"`
	Metrics         model.ScoreMetrics `json:"metrics"`
	Insights        string             `json:"insights"`
	Patterns        []PatternSummary   `json:"patterns"`
	Recommendations []string           `json:"recommendations"`

	// detected は永続化用の検出結果（根拠付き）。外部には整形済みのPatternsを公開する。
	detected []pattern.Detected
}

// Analyzer はリスク分析のオーケストレーター。
type Analyzer struct {
	annotator   insight.Annotator
	sanitizer   security.InsightSanitizerService
	scoreRepo   repository.ScoreRepository
	patternRepo repository.PatternRepository
	collector   metrics.AnalysisCollector
	logger      *slog.Logger
}

// New はAnalyzerの新しいインスタンスを生成する。
func New(
	annotator insight.Annotator,
	sanitizer security.InsightSanitizerService,
	scoreRepo repository.ScoreRepository,
	patternRepo repository.PatternRepository,
	collector metrics.AnalysisCollector,
	logger *slog.Logger,
) *Analyzer {
	return &Analyzer{
		annotator:   annotator,
		sanitizer:   sanitizer,
		scoreRepo:   scoreRepo,
		patternRepo: patternRepo,
		collector:   collector,
		logger:      logger,
	}
}

// AnalyzeBurnout はイベントリストからバーンアウト分析を実行する。
// インサイト生成サービスの失敗は分析全体の失敗として伝播する
// （フェイルクローズド: 不完全なリスク評価を完全なものとして提示しない）。
func (a *Analyzer) AnalyzeBurnout(ctx context.Context, userID string, events []model.CalendarEvent) (*Result, error) {
	start := time.Now()

	// 1. スコア算出とパターン検出（決定論的、I/Oなし）
	score, breakdown := metric.Calculate(events)
	analysis := pattern.Detect(events)

	// 2. 外部サービスによるインサイト注釈（唯一のI/Oバウンド工程）
	insightStart := time.Now()
	text, err := a.annotator.Annotate(ctx, insight.AnnotationRequest{
		Score:      score,
		Level:      model.RiskLevelFor(score),
		Metrics:    breakdown,
		EventCount: len(events),
		Patterns:   analysis.HighRiskDays,
	})
	a.collector.RecordInsightLatency(time.Since(insightStart))
	if err != nil {
		a.collector.RecordInsightFailure()
		a.collector.RecordAnalysisFailure("insight")
		a.logger.Error("インサイト注釈に失敗したため分析を中止します",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("バーンアウト分析に失敗しました: %w", err)
	}

	sanitized := a.sanitizer.Sanitize(text)

	// 3. 推奨: 決定論的なパターン由来のものに、自由記述からの
	// ヒューリスティック抽出（最大3件、0件も正常）を補足する
	recommendations := append([]string{}, analysis.Recommendations...)
	recommendations = append(recommendations, insight.ExtractRecommendations(sanitized)...)

	summaries := make([]PatternSummary, 0, len(analysis.HighRiskDays))
	for _, p := range analysis.HighRiskDays {
		summaries = append(summaries, PatternSummary{
			Type:        p.Type,
			Description: pattern.Describe(p),
			Severity:    p.Severity,
		})
	}

	result := &Result{
		Score:           score,
		Level:           model.RiskLevelFor(score),
		Metrics:         breakdown,
		Insights:        sanitized,
		Patterns:        summaries,
		Recommendations: recommendations,
		detected:        analysis.HighRiskDays,
	}

	a.collector.RecordAnalysisSuccess()
	a.collector.RecordAnalysisLatency(time.Since(start))

	return result, nil
}

// AnalyzeAndPersist は分析を実行し、成功した場合のみスコアとパターンを
// 永続化する。分析が失敗した場合は何も永続化しない。
// 永続化エラーは呼び出し元（ルート、バッチ）にそのまま返し、
// 再試行の判断は呼び出し元のスケジューラに委ねる。
func (a *Analyzer) AnalyzeAndPersist(ctx context.Context, userID string, date time.Time, events []model.CalendarEvent) (*Result, error) {
	result, err := a.AnalyzeBurnout(ctx, userID, events)
	if err != nil {
		return nil, err
	}

	score := &model.BurnoutScore{
		UserID:          userID,
		Date:            date,
		Score:           result.Score,
		Metrics:         result.Metrics,
		AIInsights:      &result.Insights,
		Recommendations: result.Recommendations,
	}
	if err := a.scoreRepo.SaveBurnoutScore(ctx, score); err != nil {
		a.collector.RecordAnalysisFailure("persist")
		return nil, fmt.Errorf("スコアの永続化に失敗しました: %w", err)
	}
	a.collector.RecordScoresPersisted(1)

	patterns := buildStressPatterns(userID, result.detected)
	if err := a.patternRepo.SaveStressPatterns(ctx, userID, patterns); err != nil {
		a.collector.RecordAnalysisFailure("persist")
		return nil, fmt.Errorf("ストレスパターンの永続化に失敗しました: %w", err)
	}
	a.collector.RecordPatternsPersisted(len(patterns))

	return result, nil
}

// buildStressPatterns は検出結果を永続化用エンティティに変換する。
// DescriptionとSeverityは検出時の根拠から決定論的に導出済みの値を使う。
func buildStressPatterns(userID string, detected []pattern.Detected) []*model.StressPattern {
	patterns := make([]*model.StressPattern, 0, len(detected))
	for _, p := range detected {
		patterns = append(patterns, &model.StressPattern{
			UserID:      userID,
			PatternType: p.Type,
			Description: pattern.Describe(p),
			Severity:    p.Severity,
			Metadata:    pattern.Metadata(p),
		})
	}
	return patterns
}
