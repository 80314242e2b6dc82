package middleware

import "net/http"

// NewCORSMiddleware はウェルネスダッシュボードのオリジンに対する
// CORSミドルウェアを返す。credentials送信と共存するため、
// ワイルドカード(*)ではなく設定された単一オリジンを返す。
// X-User-IDはゲートウェイが付与するアイデンティティヘッダーのため許可が必要。
func NewCORSMiddleware(allowedOrigin string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowedOrigin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, X-User-ID")
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Max-Age", "86400")

			// OPTIONSプリフライトには204で応答
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
