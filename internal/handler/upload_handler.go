package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/hitoshi/keepsake/internal/middleware"
	"github.com/hitoshi/keepsake/internal/model"
	"github.com/hitoshi/keepsake/internal/storage"
)

// uploadFieldName はmultipartフォームの画像フィールド名。
const uploadFieldName = "image"

// UploadHandlerConfig は画像アップロードハンドラーの設定。
type UploadHandlerConfig struct {
	MaxSize int64 // アップロード可能な最大バイト数
}

// UploadHandler は画像アップロードのHTTPハンドラー。
// 受け取った画像はBlobStoreにユーザーIDで名前空間化したキーで保存する。
type UploadHandler struct {
	store  storage.BlobStore
	config UploadHandlerConfig
}

// NewUploadHandler はUploadHandlerを生成する。
func NewUploadHandler(store storage.BlobStore, config UploadHandlerConfig) *UploadHandler {
	return &UploadHandler{
		store:  store,
		config: config,
	}
}

// uploadResponse は画像アップロードのレスポンス。
type uploadResponse struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// Upload は画像をアップロードする。
// POST /api/upload（multipart/form-data、フィールド名は image）
// 画像以外のファイルと上限サイズ超過は拒否する。
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	// multipartのオーバーヘッド分の余裕を持たせてボディ全体を制限する
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxSize+1024*1024)

	file, header, err := r.FormFile(uploadFieldName)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeAPIErrorResponse(w, http.StatusRequestEntityTooLarge, model.NewUploadTooLargeError(h.config.MaxSize))
			return
		}
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewUploadNoFileError())
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewUploadNotImageError())
		return
	}

	if header.Size > h.config.MaxSize {
		writeAPIErrorResponse(w, http.StatusRequestEntityTooLarge, model.NewUploadTooLargeError(h.config.MaxSize))
		return
	}

	// ユーザーIDで名前空間化した衝突しないキーを生成する
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext == "" {
		ext = ".jpg"
	}
	key := fmt.Sprintf("%s/%s%s", user.ID, uuid.New().String(), ext)

	if err := h.store.Put(r.Context(), key, file, contentType); err != nil {
		slog.Error("failed to store uploaded image",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	slog.Info("image uploaded",
		slog.String("user_id", user.ID),
		slog.String("key", key),
		slog.Int64("size", header.Size),
	)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(uploadResponse{
		Filename: key,
		URL:      "/api/images/" + key,
	})
}
