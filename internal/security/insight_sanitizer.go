// Package security はアプリケーションのセキュリティ機能を提供する。
//
// InsightSanitizerService は外部テキスト生成サービスが返す自由記述の
// インサイトをサニタイズする。モデル出力は信頼できない入力として扱い、
// 永続化およびAPI応答の前にHTMLタグを全て除去してプレーンテキスト化する。
// bluemondayのStrictPolicyを使用する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// InsightSanitizerService はインサイトテキストのサニタイズ機能の
// インターフェースを定義する。
type InsightSanitizerService interface {
	// Sanitize は自由記述テキストから全てのHTMLタグを除去して返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// insightSanitizer はInsightSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type insightSanitizer struct {
	policy *bluemonday.Policy
}

// NewInsightSanitizer はInsightSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicy（許可タグなし）を使用し、script等のタグ混入を含め
// 全てのマークアップを除去する。プロンプトはプレーンテキストを指示するが、
// モデル出力にマークアップが混入する可能性は排除できない。
func NewInsightSanitizer() *insightSanitizer {
	return &insightSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は自由記述テキストから全てのHTMLタグを除去して返す。
// サニタイズ後に前後の空白も整える。
func (s *insightSanitizer) Sanitize(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}
