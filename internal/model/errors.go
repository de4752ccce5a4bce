// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, item, upload, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeItemNotFound     = "ITEM_NOT_FOUND"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeUploadNoFile     = "UPLOAD_NO_FILE"
	ErrCodeUploadNotImage   = "UPLOAD_NOT_IMAGE"
	ErrCodeUploadTooLarge   = "UPLOAD_TOO_LARGE"
	ErrCodeImageNotFound    = "IMAGE_NOT_FOUND"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewItemNotFoundError は記念品未検出エラーを生成する。
func NewItemNotFoundError(itemID int64) *APIError {
	return &APIError{
		Code:     ErrCodeItemNotFound,
		Message:  fmt.Sprintf("指定された記念品が見つかりません: %d", itemID),
		Category: "item",
		Action:   "記念品IDを確認してください。",
	}
}

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("入力値が不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewUploadNoFileError はアップロードファイル未指定エラーを生成する。
func NewUploadNoFileError() *APIError {
	return &APIError{
		Code:     ErrCodeUploadNoFile,
		Message:  "アップロードするファイルが指定されていません。",
		Category: "upload",
		Action:   "imageフィールドに画像ファイルを指定してください。",
	}
}

// NewUploadNotImageError は画像以外のファイルがアップロードされた場合のエラーを生成する。
func NewUploadNotImageError() *APIError {
	return &APIError{
		Code:     ErrCodeUploadNotImage,
		Message:  "アップロードできるのは画像ファイルのみです。",
		Category: "upload",
		Action:   "JPEG、PNG等の画像ファイルを指定してください。",
	}
}

// NewUploadTooLargeError はアップロードサイズ超過エラーを生成する。
func NewUploadTooLargeError(maxBytes int64) *APIError {
	return &APIError{
		Code:     ErrCodeUploadTooLarge,
		Message:  fmt.Sprintf("ファイルサイズが上限（%dバイト）を超えています。", maxBytes),
		Category: "upload",
		Action:   "5MB以下の画像を指定してください。",
	}
}

// NewImageNotFoundError は画像未検出エラーを生成する。
func NewImageNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeImageNotFound,
		Message:  "指定された画像が見つかりません。",
		Category: "upload",
		Action:   "画像のパスを確認してください。",
	}
}
