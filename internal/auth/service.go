// Package auth はOAuth2 PKCE認証フローとセッションライフサイクルを提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/keepsake/internal/model"
	"github.com/hitoshi/keepsake/internal/repository"
)

// ErrInvalidCeremony はコールバックのstate/verifier検証失敗を表す。
// プロバイダーへのネットワーク呼び出しの前に検出され、副作用を一切持たない。
var ErrInvalidCeremony = errors.New("invalid oauth ceremony: missing or mismatched state, code, or verifier")

// OAuthUserInfo はOAuthプロバイダーから取得したユーザー情報を表す。
type OAuthUserInfo struct {
	ProviderUserID string
	Email          string
	Name           string
	Picture        string
	Provider       string // "google"
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
type OAuthProvider interface {
	// AuthCodeURL はstateとPKCE code challengeを含む認証URLを生成する。
	AuthCodeURL(state, codeVerifier string) string
	// Exchange は認可コードとcode verifierをトークンに交換し、ユーザー情報を取得する。
	Exchange(ctx context.Context, code, codeVerifier string) (*OAuthUserInfo, error)
}

// Metrics は認証サービスが記録するメトリクスのインターフェース。
type Metrics interface {
	RecordLoginCompleted()
	RecordLoginFailed()
	RecordCallbackRejected()
	RecordSessionValidation(outcome string)
}

// セッション検証の結果を表すメトリクスラベル値。
const (
	ValidationOutcomeValid   = "valid"
	ValidationOutcomeExpired = "expired"
	ValidationOutcomeMissing = "missing"
	ValidationOutcomeError   = "error"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証フローとセッションライフサイクルのビジネスロジックを提供する。
type Service struct {
	oauth       OAuthProvider
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	metrics     Metrics
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	oauth OAuthProvider,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	metrics Metrics,
	config ServiceConfig,
) *Service {
	return &Service{
		oauth:       oauth,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		metrics:     metrics,
		config:      config,
	}
}

// LoginAttempt はログイン開始時に生成される1回分のワンタイム値。
// StateとCodeVerifierは短命のceremony cookieに保存され、
// コールバックで厳密一致を検証される。
type LoginAttempt struct {
	AuthURL      string
	State        string
	CodeVerifier string
}

// BeginLogin はログイン試行を開始する。
// state、code verifierを新規生成し、PKCEチャレンジ付き認証URLを構築する。
func (s *Service) BeginLogin() (*LoginAttempt, error) {
	state, err := GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}

	verifier, err := GenerateCodeVerifier()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}

	return &LoginAttempt{
		AuthURL:      s.oauth.AuthCodeURL(state, verifier),
		State:        state,
		CodeVerifier: verifier,
	}, nil
}

// CallbackInput はOAuthコールバックの入力値。
// CodeとStateはクエリ文字列から、StoredStateとCodeVerifierは
// ceremony cookieから読み取られた値。
type CallbackInput struct {
	Code         string
	State        string
	StoredState  string
	CodeVerifier string
}

// HandleCallback はOAuthコールバックを処理し、セッションを発行する。
// state/verifierの検証はプロバイダーへのネットワーク呼び出しの前に行い、
// 失敗時はErrInvalidCeremonyを返す（副作用なし）。
// 検証通過後は、トークン交換 → ユーザー情報取得 → ユーザーupsertと
// セッション作成（単一トランザクション）の順で処理する。
func (s *Service) HandleCallback(ctx context.Context, in CallbackInput) (*model.Session, error) {
	// 1. ceremonyの検証（CSRF・認可コード横取り対策）
	if in.Code == "" || in.State == "" || in.StoredState == "" ||
		in.State != in.StoredState || in.CodeVerifier == "" {
		s.metrics.RecordCallbackRejected()
		return nil, ErrInvalidCeremony
	}

	// 2. 認可コード + code verifierをトークンに交換し、ユーザー情報を取得
	userInfo, err := s.oauth.Exchange(ctx, in.Code, in.CodeVerifier)
	if err != nil {
		s.metrics.RecordLoginFailed()
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	// 3. ユーザーupsertとセッション作成を単一トランザクションで実行する。
	// 既存ユーザー（email一致）はnameとpictureを更新しIDを維持する。
	// 新規ユーザーのIDはプロバイダー名で名前空間化する。
	user := &model.User{
		ID:      userInfo.Provider + "_" + userInfo.ProviderUserID,
		Email:   userInfo.Email,
		Name:    userInfo.Name,
		Picture: userInfo.Picture,
	}

	sessionID, err := GenerateSessionID()
	if err != nil {
		s.metrics.RecordLoginFailed()
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := time.Now()
	session := &model.Session{
		ID:        sessionID,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.userRepo.UpsertWithSession(ctx, user, session); err != nil {
		s.metrics.RecordLoginFailed()
		return nil, fmt.Errorf("failed to upsert user and create session: %w", err)
	}

	s.metrics.RecordLoginCompleted()
	slog.Info("user logged in",
		slog.String("user_id", session.UserID),
		slog.String("provider", userInfo.Provider),
	)

	return session, nil
}

// ValidateSession はセッションIDをユーザーとセッションに解決する。
// 存在しない場合は(nil, nil, nil)を返す。期限切れの場合は行を削除（遅延削除）
// した上で(nil, nil, nil)を返す。ストア障害のみエラーを返す。
func (s *Service) ValidateSession(ctx context.Context, sessionID string) (*model.User, *model.Session, error) {
	if sessionID == "" {
		s.metrics.RecordSessionValidation(ValidationOutcomeMissing)
		return nil, nil, nil
	}

	found, err := s.sessionRepo.FindByIDWithUser(ctx, sessionID)
	if err != nil {
		s.metrics.RecordSessionValidation(ValidationOutcomeError)
		return nil, nil, fmt.Errorf("failed to find session: %w", err)
	}
	if found == nil {
		s.metrics.RecordSessionValidation(ValidationOutcomeMissing)
		return nil, nil, nil
	}

	if found.Session.IsExpired(time.Now()) {
		// 遅延削除: 期限切れを検出したタイミングで行を削除する
		if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
			s.metrics.RecordSessionValidation(ValidationOutcomeError)
			return nil, nil, fmt.Errorf("failed to delete expired session: %w", err)
		}
		s.metrics.RecordSessionValidation(ValidationOutcomeExpired)
		return nil, nil, nil
	}

	s.metrics.RecordSessionValidation(ValidationOutcomeValid)
	return &found.User, &found.Session, nil
}

// Logout はセッションを破棄する。
// セッションIDが空、または対応する行が存在しない場合もエラーにしない（冪等）。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}
