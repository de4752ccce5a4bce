package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestAuthCodeURL_ContainsPKCEChallenge(t *testing.T) {
	provider := NewGoogleOAuthProvider(GoogleOAuthConfig{
		ClientID:    "test-client-id",
		RedirectURL: "http://localhost:8080/auth/callback",
	})

	verifier, err := GenerateCodeVerifier()
	if err != nil {
		t.Fatalf("GenerateCodeVerifier() error = %v", err)
	}

	rawURL := provider.AuthCodeURL("state-xyz", verifier)

	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("failed to parse auth URL: %v", err)
	}
	q := u.Query()

	if got := q.Get("state"); got != "state-xyz" {
		t.Errorf("state = %q, want %q", got, "state-xyz")
	}
	if got := q.Get("client_id"); got != "test-client-id" {
		t.Errorf("client_id = %q, want %q", got, "test-client-id")
	}
	if got := q.Get("code_challenge_method"); got != "S256" {
		t.Errorf("code_challenge_method = %q, want %q", got, "S256")
	}
	if q.Get("code_challenge") == "" {
		t.Error("code_challenge should not be empty")
	}
	// S256チャレンジはverifier自体とは異なる値になる
	if q.Get("code_challenge") == verifier {
		t.Error("code_challenge must be derived from verifier, not the verifier itself")
	}
	if got := q.Get("redirect_uri"); got != "http://localhost:8080/auth/callback" {
		t.Errorf("redirect_uri = %q, want %q", got, "http://localhost:8080/auth/callback")
	}
	if scope := q.Get("scope"); !strings.Contains(scope, "email") {
		t.Errorf("scope = %q, should contain email", scope)
	}
}

func TestExchange_SendsVerifierAndFetchesUserInfo(t *testing.T) {
	var gotVerifier, gotCode string

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse token request form: %v", err)
		}
		gotCode = r.FormValue("code")
		gotVerifier = r.FormValue("code_verifier")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "test-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer tokenServer.Close()

	userInfoServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-access-token" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer test-access-token")
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"id":      "987654321",
			"email":   "hanako@example.com",
			"name":    "佐藤花子",
			"picture": "https://example.com/hanako.jpg",
		})
	}))
	defer userInfoServer.Close()

	provider := NewGoogleOAuthProvider(GoogleOAuthConfig{
		ClientID:     "test-client-id",
		ClientSecret: "test-secret",
		RedirectURL:  "http://localhost:8080/auth/callback",
		TokenURL:     tokenServer.URL,
		UserInfoURL:  userInfoServer.URL,
	})

	userInfo, err := provider.Exchange(context.Background(), "auth-code-abc", "verifier-pkce-123")
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}

	if gotCode != "auth-code-abc" {
		t.Errorf("code sent to token endpoint = %q, want %q", gotCode, "auth-code-abc")
	}
	if gotVerifier != "verifier-pkce-123" {
		t.Errorf("code_verifier sent to token endpoint = %q, want %q", gotVerifier, "verifier-pkce-123")
	}

	if userInfo.Provider != "google" {
		t.Errorf("provider = %q, want %q", userInfo.Provider, "google")
	}
	if userInfo.ProviderUserID != "987654321" {
		t.Errorf("providerUserID = %q, want %q", userInfo.ProviderUserID, "987654321")
	}
	if userInfo.Email != "hanako@example.com" {
		t.Errorf("email = %q, want %q", userInfo.Email, "hanako@example.com")
	}
	if userInfo.Name != "佐藤花子" {
		t.Errorf("name = %q, want %q", userInfo.Name, "佐藤花子")
	}
}

func TestExchange_TokenEndpointError_ReturnsError(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
	}))
	defer tokenServer.Close()

	provider := NewGoogleOAuthProvider(GoogleOAuthConfig{
		ClientID: "test-client-id",
		TokenURL: tokenServer.URL,
	})

	_, err := provider.Exchange(context.Background(), "bad-code", "verifier")
	if err == nil {
		t.Fatal("expected error when token endpoint rejects the code")
	}
}

func TestExchange_UserInfoEndpointError_ReturnsError(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "test-access-token",
			"token_type":   "Bearer",
		})
	}))
	defer tokenServer.Close()

	userInfoServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer userInfoServer.Close()

	provider := NewGoogleOAuthProvider(GoogleOAuthConfig{
		ClientID:    "test-client-id",
		TokenURL:    tokenServer.URL,
		UserInfoURL: userInfoServer.URL,
	})

	_, err := provider.Exchange(context.Background(), "auth-code", "verifier")
	if err == nil {
		t.Fatal("expected error when user info fetch fails")
	}
}

func TestExchange_MissingUserID_ReturnsError(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "test-access-token",
			"token_type":   "Bearer",
		})
	}))
	defer tokenServer.Close()

	userInfoServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"email": "no-id@example.com",
		})
	}))
	defer userInfoServer.Close()

	provider := NewGoogleOAuthProvider(GoogleOAuthConfig{
		ClientID:    "test-client-id",
		TokenURL:    tokenServer.URL,
		UserInfoURL: userInfoServer.URL,
	})

	_, err := provider.Exchange(context.Background(), "auth-code", "verifier")
	if err == nil {
		t.Fatal("expected error when user info has no id")
	}
}
