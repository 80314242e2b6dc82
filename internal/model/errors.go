// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, wellness, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidEvent     = "INVALID_EVENT"
	ErrCodeInvalidDateRange = "INVALID_DATE_RANGE"
	ErrCodeAnalysisFailed   = "ANALYSIS_FAILED"
	ErrCodeScoreNotFound    = "SCORE_NOT_FOUND"
	ErrCodeUserNotFound     = "USER_NOT_FOUND"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
)

// NewInvalidEventError は不正なカレンダーイベントのエラーを生成する。
func NewInvalidEventError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidEvent,
		Message:  fmt.Sprintf("カレンダーイベントが不正です: %s", reason),
		Category: "validation",
		Action:   "イベントの種別と開始・終了時刻を確認してください。",
	}
}

// NewInvalidDateRangeError は不正な日付範囲のエラーを生成する。
func NewInvalidDateRangeError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDateRange,
		Message:  fmt.Sprintf("日付範囲が不正です: %s", reason),
		Category: "validation",
		Action:   "start、endにはISO形式（YYYY-MM-DD）の日付を指定してください。",
	}
}

// NewAnalysisFailedError は分析失敗のエラーを生成する。
// 外部インサイト生成サービスの障害を含む、分析パイプライン全体の失敗を表す。
// 詳細はログのみに記録し、ユーザーには汎用メッセージを返す。
func NewAnalysisFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeAnalysisFailed,
		Message:  "本日のウェルネススコアを算出できませんでした。",
		Category: "wellness",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewScoreNotFoundError はスコア未検出のエラーを生成する。
func NewScoreNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeScoreNotFound,
		Message:  "バーンアウトスコアがまだ記録されていません。",
		Category: "wellness",
		Action:   "まず分析を実行してスコアを作成してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}
