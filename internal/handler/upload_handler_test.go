package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/hitoshi/keepsake/internal/middleware"
	"github.com/hitoshi/keepsake/internal/model"
	"github.com/hitoshi/keepsake/internal/storage"
)

// --- モック定義 ---

type mockBlobStore struct {
	putFn    func(ctx context.Context, key string, body io.Reader, contentType string) error
	getFn    func(ctx context.Context, key string) (*storage.Object, error)
	deleteFn func(ctx context.Context, key string) error
}

func (m *mockBlobStore) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	if m.putFn != nil {
		return m.putFn(ctx, key, body, contentType)
	}
	return nil
}

func (m *mockBlobStore) Get(ctx context.Context, key string) (*storage.Object, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, storage.ErrNotFound
}

func (m *mockBlobStore) Delete(ctx context.Context, key string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, key)
	}
	return nil
}

var _ storage.BlobStore = (*mockBlobStore)(nil)

// multipartImageRequest は画像フィールド付きのmultipartリクエストを組み立てる。
func multipartImageRequest(t *testing.T, fieldName, filename, contentType string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+fieldName+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("failed to create multipart part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("failed to write part content: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	ctx := middleware.ContextWithIdentity(req.Context(),
		&model.User{ID: "google_123", Email: "taro@example.com"},
		&model.Session{ID: "s", UserID: "google_123"},
	)
	return req.WithContext(ctx)
}

func testUploadHandler(store storage.BlobStore) *UploadHandler {
	return NewUploadHandler(store, UploadHandlerConfig{
		MaxSize: 5 * 1024 * 1024,
	})
}

// --- テスト ---

func TestUpload_ValidImage_StoresAndReturnsURL(t *testing.T) {
	var gotKey, gotContentType string
	var gotContent []byte
	store := &mockBlobStore{
		putFn: func(ctx context.Context, key string, body io.Reader, contentType string) error {
			gotKey = key
			gotContentType = contentType
			gotContent, _ = io.ReadAll(body)
			return nil
		},
	}

	h := testUploadHandler(store)

	req := multipartImageRequest(t, "image", "photo.png", "image/png", []byte("fake png bytes"))
	w := httptest.NewRecorder()

	h.Upload(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	// キーはユーザーIDで名前空間化され、元の拡張子を保持する
	if !strings.HasPrefix(gotKey, "google_123/") {
		t.Errorf("key = %q, should be namespaced by user ID", gotKey)
	}
	if !strings.HasSuffix(gotKey, ".png") {
		t.Errorf("key = %q, should keep the original extension", gotKey)
	}
	if gotContentType != "image/png" {
		t.Errorf("contentType = %q, want %q", gotContentType, "image/png")
	}
	if string(gotContent) != "fake png bytes" {
		t.Errorf("stored content = %q, want %q", gotContent, "fake png bytes")
	}

	var body uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Filename != gotKey {
		t.Errorf("filename = %q, want %q", body.Filename, gotKey)
	}
	if body.URL != "/api/images/"+gotKey {
		t.Errorf("url = %q, want %q", body.URL, "/api/images/"+gotKey)
	}
}

func TestUpload_UniqueKeysPerUpload(t *testing.T) {
	var keys []string
	store := &mockBlobStore{
		putFn: func(ctx context.Context, key string, body io.Reader, contentType string) error {
			keys = append(keys, key)
			return nil
		},
	}

	h := testUploadHandler(store)

	for i := 0; i < 2; i++ {
		req := multipartImageRequest(t, "image", "photo.png", "image/png", []byte("x"))
		w := httptest.NewRecorder()
		h.Upload(w, req)
	}

	if len(keys) != 2 {
		t.Fatalf("len(keys) = %d, want 2", len(keys))
	}
	if keys[0] == keys[1] {
		t.Errorf("keys should be unique per upload, both were %q", keys[0])
	}
}

func TestUpload_MissingFile_Returns400(t *testing.T) {
	store := &mockBlobStore{
		putFn: func(ctx context.Context, key string, body io.Reader, contentType string) error {
			t.Fatal("Put should not be called without a file")
			return nil
		},
	}

	h := testUploadHandler(store)

	// imageフィールドなしのmultipartボディ
	req := multipartImageRequest(t, "other_field", "photo.png", "image/png", []byte("x"))
	w := httptest.NewRecorder()

	h.Upload(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != model.ErrCodeUploadNoFile {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUploadNoFile)
	}
}

func TestUpload_NonImageFile_Returns400(t *testing.T) {
	store := &mockBlobStore{
		putFn: func(ctx context.Context, key string, body io.Reader, contentType string) error {
			t.Fatal("Put should not be called for non-image file")
			return nil
		},
	}

	h := testUploadHandler(store)

	req := multipartImageRequest(t, "image", "malware.exe", "application/octet-stream", []byte("MZ"))
	w := httptest.NewRecorder()

	h.Upload(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != model.ErrCodeUploadNotImage {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUploadNotImage)
	}
}

func TestUpload_FileTooLarge_Returns413(t *testing.T) {
	store := &mockBlobStore{
		putFn: func(ctx context.Context, key string, body io.Reader, contentType string) error {
			t.Fatal("Put should not be called for oversized file")
			return nil
		},
	}

	h := NewUploadHandler(store, UploadHandlerConfig{MaxSize: 10})

	req := multipartImageRequest(t, "image", "big.png", "image/png", bytes.Repeat([]byte("a"), 100))
	w := httptest.NewRecorder()

	h.Upload(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusRequestEntityTooLarge)
	}

	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != model.ErrCodeUploadTooLarge {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUploadTooLarge)
	}
}

func TestUpload_StoreFailure_Returns500(t *testing.T) {
	store := &mockBlobStore{
		putFn: func(ctx context.Context, key string, body io.Reader, contentType string) error {
			return io.ErrUnexpectedEOF
		},
	}

	h := testUploadHandler(store)

	req := multipartImageRequest(t, "image", "photo.png", "image/png", []byte("x"))
	w := httptest.NewRecorder()

	h.Upload(w, req)

	if w.Result().StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusInternalServerError)
	}
}
