// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// 認証は上流のゲートウェイが担当するため、エンジン側ではユーザーIDと
// バッチ対象管理のための最小限の属性のみを保持する。
type User struct {
	ID        string
	Email     string
	Name      string
	Timezone  string // 日次バッチのスコア対象日の解釈に使用
	Active    bool   // falseのユーザーは日次バッチの対象外
	CreatedAt time.Time
	UpdatedAt time.Time
}
