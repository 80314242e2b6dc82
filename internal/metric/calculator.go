// Package metric はカレンダーイベントからバーンアウトスコアを算出する。
// 5つの独立したサブスコアを計算し、固定の重み付き線形結合で
// 単一のスコア（0〜10、高いほどリスク大）に集約する。
// 手調整されたヒューリスティックであり、統計的厳密性は保証しない。
package metric

import (
	"sort"
	"time"

	"github.com/hitoshi/wellbeat/internal/model"
)

// 集約の重み。合計は1.0でなければならない。
// 設計上の固定値でありユーザー設定では変更できない。
var (
	weightMeetingDensity = 0.30
	weightWorkHours      = 0.25
	weightBreakScore     = 0.20
	weightWeekendWork    = 0.15
	weightIntensity      = 0.10
)

const (
	// windowHours はスコア対象ウィンドウの長さ（1日）。
	windowHours = 24.0
	// baselineWorkHours は1日の基準労働時間。偏差が両方向にペナルティとなる。
	baselineWorkHours = 8.0
	// shortGapThreshold はこの値未満の間隔を「休憩不足」とみなす。
	shortGapThreshold = 15 * time.Minute
	// longMeetingThreshold はこの値を超える会議を長時間会議とみなす。
	longMeetingThreshold = 60 * time.Minute
)

// Calculate はイベントリストからバーンアウトスコアとサブスコア内訳を算出する。
// 空リストの場合はスコア0を返す。内訳の各値は[0,10]にクランプされる。
func Calculate(events []model.CalendarEvent) (float64, model.ScoreMetrics) {
	if len(events) == 0 {
		// 空の日はスコア0として扱う。内訳は各メトリクスの既定値
		// （休憩・週末・インテンシティは「良い」側、密度・労働時間は0）。
		return 0, model.ScoreMetrics{
			MeetingDensity: 0,
			WorkHours:      0,
			BreakScore:     10,
			WeekendWork:    10,
			Intensity:      10,
		}
	}

	m := model.ScoreMetrics{
		MeetingDensity: clamp(meetingDensity(events)),
		WorkHours:      clamp(workHoursScore(events)),
		BreakScore:     clamp(breakScore(events)),
		WeekendWork:    clamp(weekendScore(events)),
		Intensity:      clamp(intensityScore(events)),
	}

	score := m.MeetingDensity*weightMeetingDensity +
		m.WorkHours*weightWorkHours +
		m.BreakScore*weightBreakScore +
		m.WeekendWork*weightWeekendWork +
		m.Intensity*weightIntensity

	return score, m
}

// meetingDensity は会議時間の合計がウィンドウに占める割合を0〜10で返す。
func meetingDensity(events []model.CalendarEvent) float64 {
	var meetingHours float64
	for _, e := range events {
		if e.Type == model.EventTypeMeeting {
			meetingHours += e.Hours()
		}
	}
	return meetingHours / windowHours * 10
}

// workHoursScore は労働時間（会議+タスク）の8時間基準からの偏差を採点する。
// 偏差1時間につき2点減点。max(0, 10 - 2*|total - 8|)。
func workHoursScore(events []model.CalendarEvent) float64 {
	var workHours float64
	for _, e := range events {
		if e.Type == model.EventTypeMeeting || e.Type == model.EventTypeTask {
			workHours += e.Hours()
		}
	}
	deviation := workHours - baselineWorkHours
	if deviation < 0 {
		deviation = -deviation
	}
	return 10 - 2*deviation
}

// breakScore は隣接イベント間の間隔を採点する。
// 開始時刻順にソートし、前イベントの終了から次イベントの開始までの間隔が
// 15分未満のたびに2点減点する。重複（負の間隔）も15分未満として扱う。
func breakScore(events []model.CalendarEvent) float64 {
	sorted := sortedByStart(events)

	score := 10.0
	for i := 1; i < len(sorted); i++ {
		gap := sorted[i].Start.Sub(sorted[i-1].End)
		if gap < shortGapThreshold {
			score -= 2
		}
	}
	return score
}

// weekendScore は土日にイベントがあれば0、なければ10を返す。
// （週末に働いていないことへの「良い」スコア）
func weekendScore(events []model.CalendarEvent) float64 {
	for _, e := range events {
		if e.IsWeekend() {
			return 0
		}
	}
	return 10
}

// intensityScore は会議の過密さを採点する。
// 開始時刻順の隣接会議ペアの間隔が15分未満のたびに2点、
// 60分を超える会議1件につき1点減点する。
func intensityScore(events []model.CalendarEvent) float64 {
	var meetings []model.CalendarEvent
	for _, e := range events {
		if e.Type == model.EventTypeMeeting {
			meetings = append(meetings, e)
		}
	}
	meetings = sortedByStart(meetings)

	score := 10.0
	for i := 1; i < len(meetings); i++ {
		gap := meetings[i].Start.Sub(meetings[i-1].End)
		if gap < shortGapThreshold {
			score -= 2
		}
	}
	for _, m := range meetings {
		if m.Duration() > longMeetingThreshold {
			score--
		}
	}
	return score
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

// clamp は値を[0,10]に収める。
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}
