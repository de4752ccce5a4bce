package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestFilesystemStore_PutAndGet(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemStore() error = %v", err)
	}

	ctx := context.Background()
	content := []byte("fake png bytes")

	if err := store.Put(ctx, "google_123/photo.png", bytes.NewReader(content), "image/png"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	obj, err := store.Get(ctx, "google_123/photo.png")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer obj.Body.Close()

	got, err := io.ReadAll(obj.Body)
	if err != nil {
		t.Fatalf("failed to read object body: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("body = %q, want %q", got, content)
	}
	if obj.ContentType != "image/png" {
		t.Errorf("contentType = %q, want %q", obj.ContentType, "image/png")
	}
	if obj.Size != int64(len(content)) {
		t.Errorf("size = %d, want %d", obj.Size, len(content))
	}
}

func TestFilesystemStore_Get_NotFound(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemStore() error = %v", err)
	}

	_, err = store.Get(context.Background(), "google_123/missing.png")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestFilesystemStore_Put_OverwritesExisting(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemStore() error = %v", err)
	}

	ctx := context.Background()
	key := "google_123/photo.jpg"

	if err := store.Put(ctx, key, strings.NewReader("first"), "image/jpeg"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Put(ctx, key, strings.NewReader("second"), "image/jpeg"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	obj, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer obj.Body.Close()

	got, _ := io.ReadAll(obj.Body)
	if string(got) != "second" {
		t.Errorf("body = %q, want %q", got, "second")
	}
}

func TestFilesystemStore_Delete(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemStore() error = %v", err)
	}

	ctx := context.Background()
	key := "google_123/to-delete.png"

	if err := store.Put(ctx, key, strings.NewReader("bytes"), "image/png"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := store.Get(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete: error = %v, want ErrNotFound", err)
	}
}

func TestFilesystemStore_Delete_MissingKey_IsNoop(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemStore() error = %v", err)
	}

	if err := store.Delete(context.Background(), "google_123/never-existed.png"); err != nil {
		t.Errorf("Delete() error = %v, want nil for missing key", err)
	}
}

func TestFilesystemStore_RejectsUnsafeKeys(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemStore() error = %v", err)
	}

	ctx := context.Background()
	unsafeKeys := []string{
		"",
		"../outside.txt",
		"google_123/../../etc/passwd",
		"/etc/passwd",
	}

	for _, key := range unsafeKeys {
		if err := store.Put(ctx, key, strings.NewReader("x"), "text/plain"); err == nil {
			t.Errorf("Put(%q) should be rejected", key)
		}
		if _, err := store.Get(ctx, key); err == nil || errors.Is(err, ErrNotFound) {
			t.Errorf("Get(%q) should be rejected with an error other than ErrNotFound", key)
		}
	}
}

func TestFilesystemStore_ContentTypeFromExtension(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemStore() error = %v", err)
	}

	ctx := context.Background()
	tests := []struct {
		key  string
		want string
	}{
		{"u/a.png", "image/png"},
		{"u/b.gif", "image/gif"},
		{"u/c.webp", "image/webp"},
	}

	for _, tt := range tests {
		if err := store.Put(ctx, tt.key, strings.NewReader("x"), tt.want); err != nil {
			t.Fatalf("Put(%q) error = %v", tt.key, err)
		}
		obj, err := store.Get(ctx, tt.key)
		if err != nil {
			t.Fatalf("Get(%q) error = %v", tt.key, err)
		}
		obj.Body.Close()
		if obj.ContentType != tt.want {
			t.Errorf("contentType for %q = %q, want %q", tt.key, obj.ContentType, tt.want)
		}
	}
}
