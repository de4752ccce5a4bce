package middleware

import (
	"net/http"

	"github.com/hitoshi/keepsake/internal/model"
)

// NewRequireAuthMiddleware は認証済みユーザーを必須とするミドルウェアを返す。
// セッションミドルウェアが注入したアイデンティティコンテキストを検査し、
// 匿名リクエストには401 Unauthorizedを返す。
func NewRequireAuthMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserFromContext(r.Context()) == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
