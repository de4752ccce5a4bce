// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/keepsake/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByEmail は指定emailのユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// UpsertWithSession はユーザーのupsertとセッション作成を同一トランザクションで実行する。
	// email一致の既存ユーザーはnameとpictureのみ更新し、IDを維持する。
	// 解決されたユーザーIDをuser.IDとsession.UserIDに書き戻す。
	UpsertWithSession(ctx context.Context, user *model.User, session *model.Session) error
}

// SessionWithUser はセッションと所有ユーザーの結合結果。
type SessionWithUser struct {
	Session model.Session
	User    model.User
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// FindByIDWithUser は指定IDのセッションを所有ユーザーと結合して取得する。
	// 期限切れ判定は呼び出し側の責務であり、期限切れの行もそのまま返す。
	// 見つからない場合はnilを返す。
	FindByIDWithUser(ctx context.Context, id string) (*SessionWithUser, error)

	// DeleteByID は指定IDのセッションを削除する。行が存在しなくてもエラーにしない。
	DeleteByID(ctx context.Context, id string) error

	// DeleteExpired はnowより前に期限切れになった全セッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ItemRepository は記念品データの永続化インターフェース。
type ItemRepository interface {
	// ListByUserID は指定ユーザーの記念品一覧をorder_index昇順、created_at降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]model.Item, error)

	// FindByID は指定ユーザーが所有する記念品を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64, userID string) (*model.Item, error)

	// Create は記念品を作成する。order_indexはユーザー内の最大値+1が自動採番され、
	// 採番されたID、order_index、created_atをitemに書き戻す。
	Create(ctx context.Context, item *model.Item) error

	// Update は記念品の全フィールドを更新する。所有者以外の行は更新しない。
	Update(ctx context.Context, item *model.Item) error

	// DeleteByID は指定ユーザーが所有する記念品を削除する。
	DeleteByID(ctx context.Context, id int64, userID string) error

	// Reorder はitemIDsの並び順でorder_indexを振り直す。
	// 指定ユーザーが所有する行のみが対象となる。
	Reorder(ctx context.Context, userID string, itemIDs []int64) error
}
