package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresSessionRepo はPostgreSQLを使用したセッションリポジトリ。
// キャッシュ層を持たず、すべての呼び出しがストアへの直接のラウンドトリップとなる。
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

// FindByIDWithUser は指定IDのセッションを所有ユーザーと結合して取得する。
// 期限切れのフィルタは行わない。期限切れ判定と遅延削除は認証サービス側で行う。
func (r *PostgresSessionRepo) FindByIDWithUser(ctx context.Context, id string) (*SessionWithUser, error) {
	result := &SessionWithUser{}
	var name, picture sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT s.id, s.user_id, s.expires_at, s.created_at,
		        u.id, u.email, u.name, u.picture
		 FROM sessions s
		 JOIN users u ON u.id = s.user_id
		 WHERE s.id = $1`,
		id,
	).Scan(
		&result.Session.ID, &result.Session.UserID,
		&result.Session.ExpiresAt, &result.Session.CreatedAt,
		&result.User.ID, &result.User.Email, &name, &picture,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session with user: %w", err)
	}

	result.User.Name = name.String
	result.User.Picture = picture.String
	return result, nil
}

// DeleteByID は指定IDのセッションを削除する。行が存在しなくてもエラーにしない。
func (r *PostgresSessionRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired はnowより前に期限切れになった全セッションを削除し、削除件数を返す。
func (r *PostgresSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < $1`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// compile-time interface check
var _ SessionRepository = (*PostgresSessionRepo)(nil)
