package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemStore はローカルファイルシステムに保存するBlobStoreの実装。
// キーはベースディレクトリからの相対パスにマップされる。
type FilesystemStore struct {
	baseDir string
}

// NewFilesystemStore はFilesystemStoreを生成し、ベースディレクトリを作成する。
func NewFilesystemStore(baseDir string) (*FilesystemStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FilesystemStore{baseDir: baseDir}, nil
}

// resolvePath はキーをベースディレクトリ配下の絶対パスに解決する。
// パストラバーサルや絶対パスのキーは拒否する。
func (s *FilesystemStore) resolvePath(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty object key")
	}
	if filepath.IsAbs(key) || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid object key: %q", key)
	}

	path := filepath.Join(s.baseDir, filepath.FromSlash(key))

	// Join後もベースディレクトリ配下に収まっていることを確認する
	base, err := filepath.Abs(s.baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve object path: %w", err)
	}
	if !strings.HasPrefix(abs, base+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid object key: %q", key)
	}

	return path, nil
}

// Put はキーにオブジェクトを保存する。
func (s *FilesystemStore) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	path, err := s.resolvePath(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create object file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to write object: %w", err)
	}

	return nil
}

// Get はキーのオブジェクトを取得する。
// Content-Typeはファイル拡張子から導出する。
func (s *FilesystemStore) Get(ctx context.Context, key string) (*Object, error) {
	path, err := s.resolvePath(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open object: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &Object{
		Body:        f,
		ContentType: contentType,
		Size:        info.Size(),
	}, nil
}

// Delete はキーのオブジェクトを削除する。
func (s *FilesystemStore) Delete(ctx context.Context, key string) error {
	path, err := s.resolvePath(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete object: %w", err)
	}

	return nil
}

// compile-time interface check
var _ BlobStore = (*FilesystemStore)(nil)
