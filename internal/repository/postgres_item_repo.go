package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/keepsake/internal/model"
)

// PostgresItemRepo はPostgreSQLを使用した記念品リポジトリ。
type PostgresItemRepo struct {
	db *sql.DB
}

// NewPostgresItemRepo はPostgresItemRepoを生成する。
func NewPostgresItemRepo(db *sql.DB) *PostgresItemRepo {
	return &PostgresItemRepo{db: db}
}

// ListByUserID は指定ユーザーの記念品一覧をorder_index昇順、created_at降順で返す。
func (r *PostgresItemRepo) ListByUserID(ctx context.Context, userID string) ([]model.Item, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, date, description, url, image_url, order_index, created_at
		 FROM items
		 WHERE user_id = $1
		 ORDER BY order_index ASC, created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	return items, nil
}

// FindByID は指定ユーザーが所有する記念品を取得する。見つからない場合はnilを返す。
func (r *PostgresItemRepo) FindByID(ctx context.Context, id int64, userID string) (*model.Item, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, date, description, url, image_url, order_index, created_at
		 FROM items
		 WHERE id = $1 AND user_id = $2`,
		id, userID,
	)

	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Create は記念品を作成する。
// order_indexはユーザー内の最大値+1（記念品がない場合は0）を同一文の中で採番する。
// 採番されたID、order_index、created_atをitemに書き戻す。
func (r *PostgresItemRepo) Create(ctx context.Context, item *model.Item) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO items (user_id, name, date, description, url, image_url, order_index)
		 VALUES ($1, $2, $3, $4, $5, $6,
		         COALESCE((SELECT MAX(order_index) + 1 FROM items WHERE user_id = $1), 0))
		 RETURNING id, order_index, created_at`,
		item.UserID, item.Name, item.Date,
		nullString(item.Description), nullString(item.URL), nullString(item.ImageURL),
	).Scan(&item.ID, &item.OrderIndex, &item.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// Update は記念品の全フィールドを更新する。所有者以外の行は更新しない。
func (r *PostgresItemRepo) Update(ctx context.Context, item *model.Item) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE items
		 SET name = $1, date = $2, description = $3, url = $4, image_url = $5, order_index = $6
		 WHERE id = $7 AND user_id = $8`,
		item.Name, item.Date,
		nullString(item.Description), nullString(item.URL), nullString(item.ImageURL),
		item.OrderIndex, item.ID, item.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return nil
}

// DeleteByID は指定ユーザーが所有する記念品を削除する。
func (r *PostgresItemRepo) DeleteByID(ctx context.Context, id int64, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM items WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

// Reorder はitemIDsの並び順でorder_indexを振り直す。
// 全更新を同一トランザクションで実行し、他ユーザーの行は変更しない。
func (r *PostgresItemRepo) Reorder(ctx context.Context, userID string, itemIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i, itemID := range itemIDs {
		_, err := tx.ExecContext(ctx,
			`UPDATE items SET order_index = $1 WHERE id = $2 AND user_id = $3`,
			i, itemID, userID,
		)
		if err != nil {
			return fmt.Errorf("failed to reorder item %d: %w", itemID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanItem は1行をmodel.Itemに読み込む。
func scanItem(row rowScanner) (*model.Item, error) {
	item := &model.Item{}
	var description, url, imageURL sql.NullString
	err := row.Scan(
		&item.ID, &item.UserID, &item.Name, &item.Date,
		&description, &url, &imageURL,
		&item.OrderIndex, &item.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan item: %w", err)
	}

	item.Description = description.String
	item.URL = url.String
	item.ImageURL = imageURL.String
	return item, nil
}

// compile-time interface check
var _ ItemRepository = (*PostgresItemRepo)(nil)
