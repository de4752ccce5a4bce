// Package storage は画像などのバイナリオブジェクトの永続化を提供する。
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound は指定キーのオブジェクトが存在しないことを表す。
var ErrNotFound = errors.New("object not found")

// Object は取得したオブジェクトの内容とメタデータ。
// Bodyは呼び出し側がCloseする責務を持つ。
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// BlobStore はキー・バリュー型のオブジェクトストレージのインターフェース。
// キーは "userID/filename" 形式のスラッシュ区切りパス。
type BlobStore interface {
	// Put はキーにオブジェクトを保存する。既存キーは上書きされる。
	Put(ctx context.Context, key string, body io.Reader, contentType string) error

	// Get はキーのオブジェクトを取得する。存在しない場合はErrNotFoundを返す。
	Get(ctx context.Context, key string) (*Object, error)

	// Delete はキーのオブジェクトを削除する。存在しないキーはエラーにしない。
	Delete(ctx context.Context, key string) error
}
