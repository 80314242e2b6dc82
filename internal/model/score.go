// Package model はドメインモデルを定義する。
package model

import "time"

// ScoreMetrics は5つのサブスコアの内訳を保持する。
// 各値は重み付け前に[0,10]の範囲にクランプされる。
type ScoreMetrics struct {
	MeetingDensity float64 `json:"meetingDensity"`
	WorkHours      float64 `json:"workHours"`
	BreakScore     float64 `json:"breakScore"`
	WeekendWork    float64 `json:"weekendWork"`
	Intensity      float64 `json:"intensity"`
}

// BurnoutScore は1日分のカレンダーイベントから算出された
// バーンアウトリスクスコア（0〜10）を表す。
// 作成後は変更されず、トレンド表示のための履歴として削除もされない。
// 同一(userID, date)に対する一意性は強制せず、クエリは常にdate降順で
// 最新を「現在のスコア」として扱う。
type BurnoutScore struct {
	ID              string
	UserID          string
	Date            time.Time // スコア対象日
	Score           float64   // 0〜10（高いほどリスク大）
	Metrics         ScoreMetrics
	AIInsights      *string // 外部生成サービスによる自由記述（数値には影響しない）
	Recommendations []string
	CreatedAt       time.Time
}

// RiskLevel はスコアから導出されるリスクレベルのラベル。
type RiskLevel string

const (
	// RiskLevelHigh はスコア7.5以上。
	RiskLevelHigh RiskLevel = "High Risk"
	// RiskLevelModerate はスコア5以上。
	RiskLevelModerate RiskLevel = "Moderate Risk"
	// RiskLevelLow はスコア2.5以上。
	RiskLevelLow RiskLevel = "Low Risk"
	// RiskLevelMinimal はスコア2.5未満。
	RiskLevelMinimal RiskLevel = "Minimal Risk"
)

// RiskLevelFor はスコアに対応するリスクレベルを返す。
func RiskLevelFor(score float64) RiskLevel {
	switch {
	case score >= 7.5:
		return RiskLevelHigh
	case score >= 5:
		return RiskLevelModerate
	case score >= 2.5:
		return RiskLevelLow
	default:
		return RiskLevelMinimal
	}
}
