// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/keepsake/internal/model"
)

// SessionCookieName はセッションIDを保持するCookieの名前。
const SessionCookieName = "session"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストにアイデンティティを格納するためのキー。
var identityContextKey = contextKey("identity")

// identity はリクエストに紐付く認証状態。匿名の場合は両フィールドがnil。
type identity struct {
	user    *model.User
	session *model.Session
}

// SessionValidator はセッション検証に必要なインターフェース。
// auth.Serviceの部分集合として定義する。
type SessionValidator interface {
	// ValidateSession はセッションIDをユーザーとセッションに解決する。
	// 無効（不存在・期限切れ）の場合は(nil, nil, nil)を返す。
	ValidateSession(ctx context.Context, sessionID string) (*model.User, *model.Session, error)
}

// SessionConfig はセッションミドルウェアのCookie設定。
type SessionConfig struct {
	CookieSecure bool
	CookieDomain string
}

// NewSessionMiddleware はセッションCookieをアイデンティティコンテキストに
// 解決するミドルウェアを返す。このミドルウェアは認可の判断を行わず、
// 結果にかかわらず必ず後続のハンドラーに処理を渡す。
//   - Cookieなし → 匿名コンテキストで続行
//   - 検証成功 → ユーザーとセッションをコンテキストに注入して続行
//   - 無効（不存在・期限切れ） → Cookieをクライアント側で破棄し匿名で続行
//   - ストア障害 → ログに記録し、Cookieは残したまま匿名で続行
func NewSessionMiddleware(validator SessionValidator, config SessionConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, session, err := validator.ValidateSession(r.Context(), cookie.Value)
			if err != nil {
				// 一時的なストア障害でログアウトさせないため、Cookieは残す
				slog.Error("failed to validate session",
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}

			if user == nil {
				clearSessionCookie(w, config)
				next.ServeHTTP(w, r)
				return
			}

			ctx := ContextWithIdentity(r.Context(), user, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// clearSessionCookie はセッションCookieをクライアント側で破棄する。
func clearSessionCookie(w http.ResponseWriter, config SessionConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ContextWithIdentity はコンテキストにユーザーとセッションを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, user *model.User, session *model.Session) context.Context {
	return context.WithValue(ctx, identityContextKey, &identity{user: user, session: session})
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// 匿名リクエストの場合はnilを返す。
func UserFromContext(ctx context.Context) *model.User {
	id, ok := ctx.Value(identityContextKey).(*identity)
	if !ok {
		return nil
	}
	return id.user
}

// SessionFromContext はリクエストコンテキストからセッションを取得する。
// 匿名リクエストの場合はnilを返す。
func SessionFromContext(ctx context.Context) *model.Session {
	id, ok := ctx.Value(identityContextKey).(*identity)
	if !ok {
		return nil
	}
	return id.session
}
