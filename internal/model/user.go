// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// IDはプロバイダー名で名前空間化される（例: "google_<providerUserID>"）。
// NameとPictureはログインのたびにプロバイダーのプロフィールで上書きされる。
type User struct {
	ID      string
	Email   string
	Name    string
	Picture string
}

// Session はユーザーのログインセッションを表す。
// 作成後に更新されることはなく、ログアウトまたは期限切れ検出時に削除される。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired はセッションが期限切れかどうかを判定する。
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
