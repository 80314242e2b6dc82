// Package handler はウェルネスAPIのHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/wellbeat/internal/analyzer"
	"github.com/hitoshi/wellbeat/internal/middleware"
	"github.com/hitoshi/wellbeat/internal/model"
)

// maxEventsPerRequest は1回の分析リクエストで受け付けるイベント数の上限。
const maxEventsPerRequest = 500

// AnalyzerService はウェルネスハンドラーが必要とする分析サービスのインターフェース。
type AnalyzerService interface {
	// AnalyzeAndPersist は分析を実行し、成功した場合のみ結果を永続化する。
	AnalyzeAndPersist(ctx context.Context, userID string, date time.Time, events []model.CalendarEvent) (*analyzer.Result, error)
}

// WellnessReader はスコア・パターンの読み取りクエリのインターフェース。
// repositoryのScoreRepository/PatternRepositoryの読み取り部分集合。
type WellnessReader interface {
	GetBurnoutHistory(ctx context.Context, userID string, startDate, endDate time.Time) ([]*model.BurnoutScore, error)
	GetLatestBurnoutScore(ctx context.Context, userID string) (*model.BurnoutScore, error)
	GetStressPatterns(ctx context.Context, userID string, startDate, endDate time.Time) ([]*model.StressPattern, error)
	GetActiveStressPatterns(ctx context.Context, userID string) ([]*model.StressPattern, error)
}

// WellnessHandler はウェルネスリスクエンジンのHTTPハンドラー。
type WellnessHandler struct {
	analyzer AnalyzerService
	reader   WellnessReader
}

// NewWellnessHandler はWellnessHandlerを生成する。
func NewWellnessHandler(analyzerSvc AnalyzerService, reader WellnessReader) *WellnessHandler {
	return &WellnessHandler{
		analyzer: analyzerSvc,
		reader:   reader,
	}
}

// --- リクエスト/レスポンス型 ---

// analyzeRequest は分析リクエストのボディ。
// イベントは上流のカレンダー正規化サービスが生成した形式をそのまま受け取る。
type analyzeRequest struct {
	Date   string         `json:"date"` // スコア対象日（YYYY-MM-DD）。省略時は今日。
	Events []eventPayload `json:"events"`
}

// eventPayload は正規化済みカレンダーイベントのJSON形式。
type eventPayload struct {
	ID    string    `json:"id"`
	Type  string    `json:"type"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// scoreResponse はバーンアウトスコアのレスポンス。
type scoreResponse struct {
	ID              string             `json:"id"`
	Date            string             `json:"date"`
	Score           float64            `json:"score"`
	Metrics         model.ScoreMetrics `json:"metrics"`
	AIInsights      *string            `json:"aiInsights"`
	Recommendations []string           `json:"recommendations"`
	CreatedAt       time.Time          `json:"createdAt"`
}

// patternResponse はストレスパターンのレスポンス。
type patternResponse struct {
	ID          string                `json:"id"`
	PatternType model.PatternType     `json:"patternType"`
	Description string                `json:"description"`
	Severity    model.Severity        `json:"severity"`
	Frequency   model.Frequency       `json:"frequency"`
	DetectedAt  time.Time             `json:"detectedAt"`
	Metadata    model.PatternMetadata `json:"metadata"`
}

// Analyze はイベントリストからバーンアウト分析を実行し、結果を永続化して返す。
// POST /api/wellness/analyze
func (h *WellnessHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidEventError("リクエストボディを解析できません"))
		return
	}
	if len(req.Events) > maxEventsPerRequest {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidEventError("イベント数が上限を超えています"))
		return
	}

	date := time.Now()
	if req.Date != "" {
		date, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest,
				model.NewInvalidDateRangeError("dateの形式が不正です"))
			return
		}
	}

	events := make([]model.CalendarEvent, 0, len(req.Events))
	for _, p := range req.Events {
		events = append(events, model.CalendarEvent{
			ID:    p.ID,
			Type:  model.EventType(p.Type),
			Start: p.Start,
			End:   p.End,
		})
	}

	// 不変条件（end > start、既知の種別）は計算機に渡す前に検証する
	if err := model.ValidateEvents(events); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidEventError(err.Error()))
		return
	}

	result, err := h.analyzer.AnalyzeAndPersist(r.Context(), userID, date, events)
	if err != nil {
		// インサイト生成を含む分析の失敗はフェイルクローズド:
		// 部分的な結果は返さず、汎用メッセージで全体失敗を返す
		slog.Error("burnout analysis failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		writeAPIErrorResponse(w, http.StatusBadGateway, model.NewAnalysisFailedError())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetHistory は指定期間のスコア履歴をdate降順で返す。
// GET /api/wellness/scores?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *WellnessHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	startDate, endDate, err := parseDateRange(r)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
			return
		}
		writeInternalServerError(w, err)
		return
	}

	scores, err := h.reader.GetBurnoutHistory(r.Context(), userID, startDate, endDate)
	if err != nil {
		writeInternalServerError(w, err)
		return
	}

	resp := make([]scoreResponse, 0, len(scores))
	for _, s := range scores {
		resp = append(resp, toScoreResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetLatest は最新のスコアを返す。スコアが未記録の場合は404を返す。
// GET /api/wellness/scores/latest
func (h *WellnessHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	score, err := h.reader.GetLatestBurnoutScore(r.Context(), userID)
	if err != nil {
		writeInternalServerError(w, err)
		return
	}
	if score == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewScoreNotFoundError())
		return
	}

	writeJSON(w, http.StatusOK, toScoreResponse(score))
}

// GetPatterns は指定期間のストレスパターンをdetectedAt降順で返す。
// GET /api/wellness/patterns?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *WellnessHandler) GetPatterns(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	startDate, endDate, err := parseDateRange(r)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
			return
		}
		writeInternalServerError(w, err)
		return
	}

	patterns, err := h.reader.GetStressPatterns(r.Context(), userID, startDate, endDate)
	if err != nil {
		writeInternalServerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPatternResponses(patterns))
}

// GetActivePatterns は直近30日のアクティブなパターンを
// 深刻度降順・検出時刻降順で返す。
// GET /api/wellness/patterns/active
func (h *WellnessHandler) GetActivePatterns(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	patterns, err := h.reader.GetActiveStressPatterns(r.Context(), userID)
	if err != nil {
		writeInternalServerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPatternResponses(patterns))
}

// --- ヘルパー関数 ---

// parseDateRange はstart/endクエリパラメータを検証して返す。
// 省略時は直近30日を範囲とする。endは当日の終わりまで含める。
func parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now()
	startDate := now.AddDate(0, 0, -30)
	endDate := now

	if s := r.URL.Query().Get("start"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, time.Time{}, model.NewInvalidDateRangeError("startの形式が不正です")
		}
		startDate = parsed
	}
	if e := r.URL.Query().Get("end"); e != "" {
		parsed, err := time.Parse("2006-01-02", e)
		if err != nil {
			return time.Time{}, time.Time{}, model.NewInvalidDateRangeError("endの形式が不正です")
		}
		// 日付のみの指定はその日の終わりまで含める
		endDate = parsed.Add(24*time.Hour - time.Nanosecond)
	}

	if endDate.Before(startDate) {
		return time.Time{}, time.Time{}, model.NewInvalidDateRangeError("endはstart以降でなければなりません")
	}

	return startDate, endDate, nil
}

// toScoreResponse はmodel.BurnoutScoreからAPIレスポンスに変換する。
func toScoreResponse(s *model.BurnoutScore) scoreResponse {
	return scoreResponse{
		ID:              s.ID,
		Date:            s.Date.Format("2006-01-02"),
		Score:           s.Score,
		Metrics:         s.Metrics,
		AIInsights:      s.AIInsights,
		Recommendations: s.Recommendations,
		CreatedAt:       s.CreatedAt,
	}
}

// toPatternResponses はmodel.StressPatternのスライスをAPIレスポンスに変換する。
func toPatternResponses(patterns []*model.StressPattern) []patternResponse {
	resp := make([]patternResponse, 0, len(patterns))
	for _, p := range patterns {
		resp = append(resp, patternResponse{
			ID:          p.ID,
			PatternType: p.PatternType,
			Description: p.Description,
			Severity:    p.Severity,
			Frequency:   p.Frequency,
			DetectedAt:  p.DetectedAt,
			Metadata:    p.Metadata,
		})
	}
	return resp
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// apiErrorResponse はAPIエラーレスポンスの統一フォーマット。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// writeUnauthorized は401の統一レスポンスを書き込む。
func writeUnauthorized(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     model.ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	})
}

// writeInternalServerError は内部エラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func writeInternalServerError(w http.ResponseWriter, err error) {
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}
