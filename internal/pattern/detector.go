// Package pattern はカレンダーイベントから反復的なストレスパターンを検出する。
// イベントを日単位にグループ化し、会議の集中・連続会議・長時間労働・
// 休憩不足を日ごとに、週末稼働をウィンドウ全体で検出して、
// 定量的根拠から深刻度を分類する。
package pattern

import (
	"fmt"
	"sort"
	"time"

	"github.com/hitoshi/wellbeat/internal/model"
)

const (
	// shortGapThreshold はこの値未満の間隔を休憩なしとみなす。
	shortGapThreshold = 15 * time.Minute
	// highMeetingCountThreshold は1日の会議数がこの値以上でパターンを検出する。
	highMeetingCountThreshold = 4
	// longWorkDayHours は1日の労働時間がこの値を超えるとパターンを検出する。
	longWorkDayHours = 10.0
)

// Detected は検出された1件のストレスパターンとその根拠を表す。
type Detected struct {
	Type     model.PatternType
	Day      string // 対象日（YYYY-MM-DD）。weekend-workはウィンドウ全体のため空。
	Count    int    // 会議数・連続ペア数・短い休憩数・週末イベント数
	Hours    float64
	Events   []model.CalendarEvent // 該当イベント
	Severity model.Severity
}

// Trend はスコア履歴から導出されるトレンド。
// 現状の検出器は生成しない（履歴比較は将来の拡張ポイント）。
type Trend struct {
	Metric    string `json:"metric"`
	Direction string `json:"direction"`
}

// Analysis はパターン検出の結果を表す。
type Analysis struct {
	HighRiskDays    []Detected
	Recommendations []string
	Trends          []Trend
}

// Detect はイベントリストからストレスパターンを検出する。
// 空リストの場合は空のパターンと空の推奨を返す。エラーは返さない。
func Detect(events []model.CalendarEvent) Analysis {
	analysis := Analysis{
		HighRiskDays:    []Detected{},
		Recommendations: []string{},
		Trends:          []Trend{},
	}
	if len(events) == 0 {
		return analysis
	}

	// 1. 開始日のISO日付でグループ化し、日付順に処理する
	byDay := groupByDay(events)
	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	for _, day := range days {
		dayEvents := sortedByStart(byDay[day])

		if p, ok := detectHighMeetingDay(day, dayEvents); ok {
			analysis.HighRiskDays = append(analysis.HighRiskDays, p)
		}
		if p, ok := detectBackToBackMeetings(day, dayEvents); ok {
			analysis.HighRiskDays = append(analysis.HighRiskDays, p)
		}
		if p, ok := detectLongWorkDay(day, dayEvents); ok {
			analysis.HighRiskDays = append(analysis.HighRiskDays, p)
		}
		if p, ok := detectInsufficientBreaks(day, dayEvents); ok {
			analysis.HighRiskDays = append(analysis.HighRiskDays, p)
		}
	}

	// 6. 週末稼働はウィンドウ全体で1件にまとめる
	if p, ok := detectWeekendWork(events); ok {
		analysis.HighRiskDays = append(analysis.HighRiskDays, p)
	}

	analysis.Recommendations = Recommendations(analysis.HighRiskDays)

	return analysis
}

// detectHighMeetingDay は1日の会議数が閾値以上の場合にパターンを返す。
func detectHighMeetingDay(day string, dayEvents []model.CalendarEvent) (Detected, bool) {
	var meetings []model.CalendarEvent
	for _, e := range dayEvents {
		if e.Type == model.EventTypeMeeting {
			meetings = append(meetings, e)
		}
	}
	if len(meetings) < highMeetingCountThreshold {
		return Detected{}, false
	}
	return Detected{
		Type:     model.PatternHighMeetingDay,
		Day:      day,
		Count:    len(meetings),
		Events:   meetings,
		Severity: classifyHighMeetingDay(len(meetings)),
	}, true
}

// detectBackToBackMeetings は間隔15分未満の隣接会議ペアを
// 1日あたり1件のパターンにまとめて返す。ペアが無ければ検出しない。
func detectBackToBackMeetings(day string, dayEvents []model.CalendarEvent) (Detected, bool) {
	var meetings []model.CalendarEvent
	for _, e := range dayEvents {
		if e.Type == model.EventTypeMeeting {
			meetings = append(meetings, e)
		}
	}

	pairCount := 0
	var involved []model.CalendarEvent
	for i := 1; i < len(meetings); i++ {
		gap := meetings[i].Start.Sub(meetings[i-1].End)
		if gap < shortGapThreshold {
			pairCount++
			involved = appendUnique(involved, meetings[i-1], meetings[i])
		}
	}
	if pairCount == 0 {
		return Detected{}, false
	}
	return Detected{
		Type:     model.PatternBackToBackMeetings,
		Day:      day,
		Count:    pairCount,
		Events:   involved,
		Severity: classifyBackToBack(pairCount),
	}, true
}

// detectLongWorkDay は会議+タスクの合計が閾値を超える日を検出する。
func detectLongWorkDay(day string, dayEvents []model.CalendarEvent) (Detected, bool) {
	var workHours float64
	var work []model.CalendarEvent
	for _, e := range dayEvents {
		if e.Type == model.EventTypeMeeting || e.Type == model.EventTypeTask {
			workHours += e.Hours()
			work = append(work, e)
		}
	}
	if workHours <= longWorkDayHours {
		return Detected{}, false
	}
	return Detected{
		Type:     model.PatternLongWorkDay,
		Day:      day,
		Hours:    workHours,
		Events:   work,
		Severity: classifyLongWorkDay(workHours),
	}, true
}

// detectInsufficientBreaks は種別を問わず隣接イベント間の間隔が
// 15分未満の箇所を1日あたり1件のパターンにまとめて返す。
func detectInsufficientBreaks(day string, dayEvents []model.CalendarEvent) (Detected, bool) {
	gapCount := 0
	var involved []model.CalendarEvent
	for i := 1; i < len(dayEvents); i++ {
		gap := dayEvents[i].Start.Sub(dayEvents[i-1].End)
		if gap < shortGapThreshold {
			gapCount++
			involved = appendUnique(involved, dayEvents[i-1], dayEvents[i])
		}
	}
	if gapCount == 0 {
		return Detected{}, false
	}
	return Detected{
		Type:     model.PatternInsufficientBreaks,
		Day:      day,
		Count:    gapCount,
		Events:   involved,
		Severity: classifyInsufficientBreaks(gapCount),
	}, true
}

// detectWeekendWork は土日に開始するイベントをウィンドウ全体で収集し、
// 存在すれば常に深刻度highの1件のパターンとして返す。
func detectWeekendWork(events []model.CalendarEvent) (Detected, bool) {
	var weekend []model.CalendarEvent
	for _, e := range events {
		if e.IsWeekend() {
			weekend = append(weekend, e)
		}
	}
	if len(weekend) == 0 {
		return Detected{}, false
	}
	return Detected{
		Type:     model.PatternWeekendWork,
		Count:    len(weekend),
		Events:   sortedByStart(weekend),
		Severity: model.SeverityHigh,
	}, true
}

// Describe はパターンの根拠から人間可読な説明文を決定論的に生成する。
// LLM由来のテキストは一切使わない。
func Describe(p Detected) string {
	switch p.Type {
	case model.PatternHighMeetingDay:
		return fmt.Sprintf("%d meetings on %s", p.Count, p.Day)
	case model.PatternBackToBackMeetings:
		return fmt.Sprintf("%d back-to-back meetings on %s", p.Count, p.Day)
	case model.PatternLongWorkDay:
		return fmt.Sprintf("%.1f hours of work on %s", p.Hours, p.Day)
	case model.PatternInsufficientBreaks:
		return fmt.Sprintf("%d gaps under 15 minutes on %s", p.Count, p.Day)
	case model.PatternWeekendWork:
		return fmt.Sprintf("%d events scheduled on weekends", p.Count)
	default:
		return string(p.Type)
	}
}

// Metadata はパターンの根拠を永続化用のメタデータに変換する。
func Metadata(p Detected) model.PatternMetadata {
	ids := make([]string, 0, len(p.Events))
	for _, e := range p.Events {
		ids = append(ids, e.ID)
	}
	return model.PatternMetadata{
		Day:      p.Day,
		Count:    p.Count,
		Hours:    p.Hours,
		EventIDs: ids,
	}
}

// groupByDay はイベントを開始日のISO日付でグループ化する。
func groupByDay(events []model.CalendarEvent) map[string][]model.CalendarEvent {
	byDay := make(map[string][]model.CalendarEvent)
	for _, e := range events {
		byDay[e.Day()] = append(byDay[e.Day()], e)
	}
	return byDay
}

// sortedByStart は開始時刻昇順にソートしたコピーを返す。入力は変更しない。
func sortedByStart(events []model.CalendarEvent) []model.CalendarEvent {
	sorted := make([]model.CalendarEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})
	return sorted
}

// appendUnique はIDが未収録のイベントのみを追加する。
func appendUnique(list []model.CalendarEvent, events ...model.CalendarEvent) []model.CalendarEvent {
	for _, e := range events {
		found := false
		for _, x := range list {
			if x.ID == e.ID {
				found = true
				break
			}
		}
		if !found {
			list = append(list, e)
		}
	}
	return list
}
