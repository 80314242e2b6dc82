// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/wellbeat/internal/model"
)

// userIDHeader は上流のAPIゲートウェイが付与する認証済みユーザーIDヘッダー。
// 認証そのものはこのサービスのスコープ外であり、ゲートウェイを信頼する。
const userIDHeader = "X-User-ID"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
var userIDContextKey = contextKey("user_id")

// UserFinder はユーザーの存在確認に必要なインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// NewIdentityMiddleware は上流ゲートウェイのユーザーIDヘッダーを読み取り、
// ユーザーの存在を確認するミドルウェアを返す。
// 確認済みユーザーIDをリクエストコンテキストに注入する。
// ヘッダー欠落・未知のユーザーには401 Unauthorizedを返す。
func NewIdentityMiddleware(userFinder UserFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. ヘッダーからユーザーIDを取得
			userID := r.Header.Get(userIDHeader)
			if userID == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			// 2. ユーザーの存在を検証
			user, err := userFinder.FindByID(r.Context(), userID)
			if err != nil {
				slog.Error("failed to find user",
					slog.String("error", err.Error()),
				)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if user == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			// 3. 確認済みユーザーIDをコンテキストに注入
			ctx := context.WithValue(r.Context(), userIDContextKey, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// IdentityMiddlewareを通過していない場合はエラーを返す。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID はユーザーIDを設定したコンテキストを返す。テスト用。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}
