package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/keepsake/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByEmail は指定emailのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	var name, picture sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, picture FROM users WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.Email, &name, &picture)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	user.Name = name.String
	user.Picture = picture.String
	return user, nil
}

// UpsertWithSession はユーザーのupsertとセッション作成を同一トランザクションで実行する。
// emailのUNIQUE制約に対するON CONFLICTでupsertするため、既存ユーザーのIDは維持される。
// 解決されたユーザーIDをuser.IDとsession.UserIDに書き戻す。
func (r *PostgresUserRepo) UpsertWithSession(ctx context.Context, user *model.User, session *model.Session) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// ユーザーをupsertし、解決されたIDを取得
	var resolvedID string
	err = tx.QueryRowContext(ctx,
		`INSERT INTO users (id, email, name, picture)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, picture = EXCLUDED.picture
		 RETURNING id`,
		user.ID, user.Email, nullString(user.Name), nullString(user.Picture),
	).Scan(&resolvedID)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	user.ID = resolvedID
	session.UserID = resolvedID

	// セッションを作成
	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, expires_at, created_at)
		 VALUES ($1, $2, $3, $4)`,
		session.ID, session.UserID, session.ExpiresAt, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// nullString は空文字列をNULLとして格納するためのsql.NullStringを返す。
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
