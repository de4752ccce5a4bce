package repository

import (
	"database/sql"
	"testing"
)

// PostgresUserRepoはUserRepositoryインターフェースを満たすことを検証
func TestPostgresUserRepo_ImplementsInterface(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
}

// PostgresSessionRepoはSessionRepositoryインターフェースを満たすことを検証
func TestPostgresSessionRepo_ImplementsInterface(t *testing.T) {
	var _ SessionRepository = (*PostgresSessionRepo)(nil)
}

// NewPostgresUserRepoが正しく初期化されることを検証
func TestNewPostgresUserRepo_Initializes(t *testing.T) {
	repo := NewPostgresUserRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// NewPostgresSessionRepoが正しく初期化されることを検証
func TestNewPostgresSessionRepo_Initializes(t *testing.T) {
	repo := NewPostgresSessionRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// nullStringが空文字列をNULLに変換することを検証
func TestNullString(t *testing.T) {
	tests := []struct {
		in   string
		want sql.NullString
	}{
		{"", sql.NullString{String: "", Valid: false}},
		{"value", sql.NullString{String: "value", Valid: true}},
	}

	for _, tt := range tests {
		if got := nullString(tt.in); got != tt.want {
			t.Errorf("nullString(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
