// Package model はドメインモデルを定義する。
package model

import "time"

// PatternType は検出されるストレスパターンの種別を表す。
type PatternType string

const (
	// PatternHighMeetingDay は1日に会議が集中しているパターン。
	PatternHighMeetingDay PatternType = "high-meeting-day"
	// PatternBackToBackMeetings は休憩なしで会議が連続するパターン。
	PatternBackToBackMeetings PatternType = "back-to-back-meetings"
	// PatternLongWorkDay は労働時間が長すぎるパターン。
	PatternLongWorkDay PatternType = "long-work-day"
	// PatternInsufficientBreaks はイベント間の休憩が不足しているパターン。
	PatternInsufficientBreaks PatternType = "insufficient-breaks"
	// PatternWeekendWork は週末に稼働しているパターン。
	PatternWeekendWork PatternType = "weekend-work"
)

// Severity はパターンの深刻度を表す。
// パターン種別とその定量的根拠から純粋関数で導出され、恣意的に設定されない。
type Severity string

const (
	// SeverityLow は低リスク。
	SeverityLow Severity = "low"
	// SeverityMedium は中リスク。
	SeverityMedium Severity = "medium"
	// SeverityHigh は高リスク。
	SeverityHigh Severity = "high"
)

// Frequency はパターンの発生頻度区分を表す。
// パターン種別から純粋関数で導出される。
type Frequency string

const (
	// FrequencyDaily は日々のスケジューリング習慣に起因するパターン。
	FrequencyDaily Frequency = "daily"
	// FrequencyWeekly は週単位の構造に起因するパターン。
	FrequencyWeekly Frequency = "weekly"
	// FrequencyOccasional は散発的に発生するパターン。
	FrequencyOccasional Frequency = "occasional"
)

// PatternMetadata はパターン検出の生の根拠を保持する。
// JSONB列として永続化される。
type PatternMetadata struct {
	Day      string   `json:"day,omitempty"`      // 対象日（YYYY-MM-DD、weekend-workでは空）
	Count    int      `json:"count,omitempty"`    // 会議数・連続ペア数・短い休憩数
	Hours    float64  `json:"hours,omitempty"`    // 労働時間（long-work-dayのみ）
	EventIDs []string `json:"eventIds,omitempty"` // 該当イベントのID
}

// StressPattern は検出された問題のあるスケジュール構成を表す。
// 履歴ウィンドウに対する検出実行ごとに作成され、
// 読み取りクエリは直近30日の「アクティブ」ウィンドウでフィルタする。
type StressPattern struct {
	ID          string
	UserID      string
	PatternType PatternType
	Description string // パターンデータから決定論的に生成（LLM由来ではない）
	Severity    Severity
	Frequency   Frequency
	DetectedAt  time.Time
	Metadata    PatternMetadata
}

// SeverityRank は深刻度の序列を返す（high=3 > medium=2 > low=1）。
// 深刻度降順ソートに使用する。
func SeverityRank(s Severity) int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}
