package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/keepsake/internal/middleware"
	"github.com/hitoshi/keepsake/internal/model"
	"github.com/hitoshi/keepsake/internal/storage"
)

// ImageHandler はアップロード済み画像を配信するHTTPハンドラー。
// 画像URLは推測困難なUUIDを含むため、配信自体は認証なしで行う。
type ImageHandler struct {
	store storage.BlobStore
}

// NewImageHandler はImageHandlerを生成する。
func NewImageHandler(store storage.BlobStore) *ImageHandler {
	return &ImageHandler{store: store}
}

// Serve は画像を配信する。
// GET /api/images/*
func (h *ImageHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewImageNotFoundError())
		return
	}

	obj, err := h.store.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeAPIErrorResponse(w, http.StatusNotFound, model.NewImageNotFoundError())
			return
		}
		slog.Error("failed to fetch image",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}
	defer obj.Body.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	w.Header().Set("Cache-Control", "public, max-age=86400")

	if _, err := io.Copy(w, obj.Body); err != nil {
		slog.Warn("failed to stream image",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
