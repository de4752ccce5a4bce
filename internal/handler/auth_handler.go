// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/keepsake/internal/auth"
	"github.com/hitoshi/keepsake/internal/middleware"
	"github.com/hitoshi/keepsake/internal/model"
)

const (
	// OAuthフローの進行中のみ使用する短命Cookie。
	oauthStateCookie   = "oauth_state"
	codeVerifierCookie = "code_verifier"

	// ceremonyCookieMaxAge はOAuthフロー用Cookieの有効期間（秒）。
	ceremonyCookieMaxAge = 600 // 10分
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// BeginLogin はstate・code verifier・認証URLを新規生成する。
	BeginLogin() (*auth.LoginAttempt, error)
	// HandleCallback はOAuthコールバックを検証し、セッションを発行する。
	// ceremony検証失敗時はauth.ErrInvalidCeremonyを返す。
	HandleCallback(ctx context.Context, in auth.CallbackInput) (*model.Session, error)
	// Logout はセッションを破棄する（冪等）。
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	BaseURL       string
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はOAuth認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// Login はGoogle OAuthフローを開始する。
// GET /auth/google/login
// stateとcode verifierを短命Cookieに保存し、認証URLへリダイレクトする。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	attempt, err := h.service.BeginLogin()
	if err != nil {
		slog.Error("failed to begin login", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	// stateとverifierをCookieに保存（コールバックで厳密一致を検証する）
	http.SetCookie(w, h.ceremonyCookie(oauthStateCookie, attempt.State, ceremonyCookieMaxAge))
	http.SetCookie(w, h.ceremonyCookie(codeVerifierCookie, attempt.CodeVerifier, ceremonyCookieMaxAge))

	http.Redirect(w, r, attempt.AuthURL, http.StatusTemporaryRedirect)
}

// Callback はOAuthコールバックを処理する。
// GET /auth/google/callback?code=xxx&state=yyy
//
// ceremony検証（state一致・verifier存在）に失敗した場合は400を返し、
// Cookieには触れない。検証を通過したコールバックは消費済みとなり、
// 結果にかかわらずceremony Cookieを削除する。
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	in := auth.CallbackInput{
		Code:  r.URL.Query().Get("code"),
		State: r.URL.Query().Get("state"),
	}
	if c, err := r.Cookie(oauthStateCookie); err == nil {
		in.StoredState = c.Value
	}
	if c, err := r.Cookie(codeVerifierCookie); err == nil {
		in.CodeVerifier = c.Value
	}

	session, err := h.service.HandleCallback(r.Context(), in)
	if errors.Is(err, auth.ErrInvalidCeremony) {
		slog.Warn("oauth callback rejected",
			slog.String("path", r.URL.Path),
		)
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_OAUTH_CALLBACK",
			Message:  "認証フローの検証に失敗しました。",
			Category: "auth",
			Action:   "最初からログインをやり直してください。",
		})
		return
	}

	// 検証を通過した時点でceremony Cookieは消費済み
	h.clearCeremonyCookies(w)

	if err != nil {
		slog.Error("oauth callback failed", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
			Code:     "LOGIN_FAILED",
			Message:  "ログイン処理に失敗しました。",
			Category: "auth",
			Action:   "しばらく待ってから再度お試しください。",
		})
		return
	}

	// セッションCookieを設定（HTTP Only）
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.config.BaseURL, http.StatusTemporaryRedirect)
}

// Logout はセッションを破棄する。
// POST /auth/logout
// セッションCookieがない場合も成功として扱う（冪等）。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err == nil && cookie.Value != "" {
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.config.BaseURL, http.StatusTemporaryRedirect)
}

// Me は現在のログインユーザー情報を返す。
// GET /auth/me
// セッションミドルウェアが解決したコンテキストの識別情報を参照する。
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":      user.ID,
		"email":   user.Email,
		"name":    user.Name,
		"picture": user.Picture,
	})
}

// ceremonyCookie はOAuthフロー用の短命Cookieを組み立てる。
func (h *AuthHandler) ceremonyCookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

// clearCeremonyCookies はOAuthフロー用Cookieを削除する。
func (h *AuthHandler) clearCeremonyCookies(w http.ResponseWriter) {
	http.SetCookie(w, h.ceremonyCookie(oauthStateCookie, "", -1))
	http.SetCookie(w, h.ceremonyCookie(codeVerifierCookie, "", -1))
}
