package pattern

import "github.com/hitoshi/wellbeat/internal/model"

// 深刻度と頻度はパターン種別とその定量的根拠から純粋関数で導出する。
// 恣意的な設定は許さない。

// classifyHighMeetingDay は1日の会議数から深刻度を分類する。
func classifyHighMeetingDay(count int) model.Severity {
	switch {
	case count >= 6:
		return model.SeverityHigh
	case count >= 4:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// classifyBackToBack は連続会議ペア数から深刻度を分類する。
func classifyBackToBack(pairCount int) model.Severity {
	switch {
	case pairCount >= 3:
		return model.SeverityHigh
	case pairCount >= 2:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// classifyLongWorkDay は労働時間から深刻度を分類する。
func classifyLongWorkDay(hours float64) model.Severity {
	switch {
	case hours >= 12:
		return model.SeverityHigh
	case hours >= 10:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// classifyInsufficientBreaks は短い間隔の数から深刻度を分類する。
func classifyInsufficientBreaks(gapCount int) model.Severity {
	switch {
	case gapCount >= 3:
		return model.SeverityHigh
	case gapCount >= 2:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// FrequencyFor はパターン種別から頻度区分を導出する。
// 連続会議と休憩不足は日々のスケジューリング習慣（daily）、
// 会議集中日と週末稼働は週単位の構造（weekly）、
// 長時間労働は散発的（occasional）として扱う。
func FrequencyFor(t model.PatternType) model.Frequency {
	switch t {
	case model.PatternBackToBackMeetings, model.PatternInsufficientBreaks:
		return model.FrequencyDaily
	case model.PatternHighMeetingDay, model.PatternWeekendWork:
		return model.FrequencyWeekly
	case model.PatternLongWorkDay:
		return model.FrequencyOccasional
	default:
		return model.FrequencyOccasional
	}
}

// recommendationTexts はパターン種別ごとの決定論的な推奨テキスト。
var recommendationTexts = map[model.PatternType]string{
	model.PatternHighMeetingDay:     "Consider redistributing meetings across the week",
	model.PatternBackToBackMeetings: "Add buffer time between meetings to allow for breaks",
	model.PatternLongWorkDay:        "Try to keep your work day under 10 hours",
	model.PatternInsufficientBreaks: "Schedule short breaks between calendar events",
	model.PatternWeekendWork:        "Protect your weekends for rest and recovery",
}

// recommendationOrder は推奨テキストの出力順序を固定する。
var recommendationOrder = []model.PatternType{
	model.PatternHighMeetingDay,
	model.PatternBackToBackMeetings,
	model.PatternLongWorkDay,
	model.PatternInsufficientBreaks,
	model.PatternWeekendWork,
}

// Recommendations は検出結果に含まれるパターン種別ごとに
// 最大1件の推奨テキストを返す。発生回数ではなく種別単位。
func Recommendations(detected []Detected) []string {
	present := make(map[model.PatternType]bool, len(detected))
	for _, p := range detected {
		present[p.Type] = true
	}

	recs := []string{}
	for _, t := range recommendationOrder {
		if present[t] {
			recs = append(recs, recommendationTexts[t])
		}
	}
	return recs
}
