package model

import "time"

// 記念品の各フィールドの最大文字数。
const (
	ItemNameMaxLen        = 200
	ItemDescriptionMaxLen = 1000
	ItemURLMaxLen         = 500
)

// Item はユーザーが登録する記念品を表す。
// order_indexはユーザーごとの表示順を保持し、並べ替えAPIで更新される。
type Item struct {
	ID          int64
	UserID      string
	Name        string
	Date        string // YYYY-MM-DD形式
	Description string
	URL         string
	ImageURL    string
	OrderIndex  int
	CreatedAt   time.Time
}
