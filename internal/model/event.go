// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"time"
)

// EventType はカレンダーイベントの種別を表す。
type EventType string

const (
	// EventTypeMeeting は会議イベント。
	EventTypeMeeting EventType = "meeting"
	// EventTypeTask は作業タスクイベント。
	EventTypeTask EventType = "task"
	// EventTypeFocus は集中作業ブロック。
	EventTypeFocus EventType = "focus"
	// EventTypeBreak は休憩イベント。
	EventTypeBreak EventType = "break"
	// EventTypePersonal は私用イベント。
	EventTypePersonal EventType = "personal"
)

// ValidEventTypes は許可されるイベント種別の集合。
var ValidEventTypes = map[EventType]bool{
	EventTypeMeeting:  true,
	EventTypeTask:     true,
	EventTypeFocus:    true,
	EventTypeBreak:    true,
	EventTypePersonal: true,
}

// CalendarEvent は正規化済みのカレンダーイベントを表す。
// カレンダー取り込みサービス（外部）から供給され、エンジンは所有しない。
// 不変条件: End > Start。
type CalendarEvent struct {
	ID    string
	Type  EventType
	Start time.Time
	End   time.Time
}

// Duration はイベントの長さを返す。
func (e CalendarEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Hours はイベントの長さを時間単位で返す。
func (e CalendarEvent) Hours() float64 {
	return e.End.Sub(e.Start).Hours()
}

// IsWeekend はイベント開始日が土曜または日曜かどうかを返す。
func (e CalendarEvent) IsWeekend() bool {
	wd := e.Start.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Day はイベント開始日のISO日付（YYYY-MM-DD）を返す。
// 日単位のグルーピングキーとして使用する。
func (e CalendarEvent) Day() string {
	return e.Start.Format("2006-01-02")
}

// Validate はイベントの不変条件を検証する。
// 正規化サービスが保証すべき条件だが、API境界での防御として使用する。
func (e CalendarEvent) Validate() error {
	if !ValidEventTypes[e.Type] {
		return fmt.Errorf("unknown event type: %q", e.Type)
	}
	if e.Start.IsZero() || e.End.IsZero() {
		return fmt.Errorf("event %s: start and end must be set", e.ID)
	}
	if !e.End.After(e.Start) {
		return fmt.Errorf("event %s: end must be after start", e.ID)
	}
	return nil
}

// ValidateEvents はイベントリスト全体を検証する。
// 空リストは有効（スコア0として扱われる）。
func ValidateEvents(events []CalendarEvent) error {
	for _, e := range events {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return nil
}
